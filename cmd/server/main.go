package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/raosunjoy/YieldRails-sub009/internal/config"
	"github.com/raosunjoy/YieldRails-sub009/internal/infrastructure/blockchain"
	"github.com/raosunjoy/YieldRails-sub009/internal/infrastructure/compliance"
	"github.com/raosunjoy/YieldRails-sub009/internal/infrastructure/jobs"
	"github.com/raosunjoy/YieldRails-sub009/internal/infrastructure/repositories"
	"github.com/raosunjoy/YieldRails-sub009/internal/infrastructure/webhook"
	"github.com/raosunjoy/YieldRails-sub009/internal/interfaces/http/handlers"
	"github.com/raosunjoy/YieldRails-sub009/internal/interfaces/http/middleware"
	"github.com/raosunjoy/YieldRails-sub009/internal/usecases"
	"github.com/raosunjoy/YieldRails-sub009/pkg/jwt"
	"github.com/raosunjoy/YieldRails-sub009/pkg/logger"
	"github.com/raosunjoy/YieldRails-sub009/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	newCache   = redis.New
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	newConnector = func(factory *blockchain.ClientFactory, signerCfg config.SignerConfig) (blockchain.EscrowConnector, error) {
		return blockchain.NewEVMEscrowConnector(factory, signerCfg)
	}
	runServer = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
	getStdDB  = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	cache, err := newCache(cfg.Redis.URL, cfg.Redis.Password)
	if err != nil {
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	defer cache.Close()
	logger.Info(context.Background(), "Redis initialized")

	db, err := openDB(cfg.Database.URL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Printf("⚠️ Database not available: %v (endpoints will return errors)", err)
	} else {
		log.Println("✅ Connected to PostgreSQL via GORM")
	}

	jwtService := jwt.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)

	// Repositories
	paymentRepo := repositories.NewPaymentRepository(db)
	merchantRepo := repositories.NewMerchantRepository(db)
	eventRepo := repositories.NewPaymentEventRepository(db)
	strategyRepo := repositories.NewYieldStrategyRepository(db)
	earningRepo := repositories.NewYieldEarningRepository(db)
	bridgeRepo := repositories.NewBridgeRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Settlement boundary
	clientFactory := blockchain.NewClientFactory(cfg.Chains)
	defer clientFactory.Close()
	connector, err := newConnector(clientFactory, cfg.Signer)
	if err != nil {
		return fmt.Errorf("failed to initialize escrow connector: %w", err)
	}

	gate := compliance.NewBlocklistGate(cfg.Compliance)

	notifier, err := webhook.NewNotifier(cfg.Webhook)
	if err != nil {
		return fmt.Errorf("failed to initialize webhook notifier: %w", err)
	}
	var sender usecases.WebhookSender
	if notifier != nil {
		sender = notifier
	}
	publisher := usecases.NewEventPublisher(eventRepo, sender)
	defer publisher.Flush()

	// Usecases
	yieldUsecase := usecases.NewYieldUsecase(strategyRepo, earningRepo, connector, cfg)
	paymentUsecase := usecases.NewPaymentUsecase(paymentRepo, merchantRepo, uow, cache, connector, gate, publisher, yieldUsecase, cfg)
	bridgeUsecase := usecases.NewBridgeUsecase(bridgeRepo, connector, gate, yieldUsecase, cfg)

	// Handlers
	paymentHandler := handlers.NewPaymentHandler(paymentUsecase)
	bridgeHandler := handlers.NewBridgeHandler(bridgeUsecase)
	yieldHandler := handlers.NewYieldHandler(yieldUsecase)
	healthHandler := handlers.NewHealthHandler(db, cache)

	dualAuthMiddleware := middleware.DualAuth(jwtService, cfg.Auth.APIKeyHash)
	rateLimiter := middleware.RateLimit(cache, cfg.RateLimit)

	// Background jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	expiryJob := jobs.NewPaymentExpiryJob(paymentRepo, paymentUsecase)
	go expiryJob.Start(ctx)
	bridgeWatcher := jobs.NewBridgeWatcherJob(bridgeUsecase)
	go bridgeWatcher.Start(ctx)

	// Router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())

	applyCORSMiddleware(r)
	registerOpsRoutes(r, healthHandler)
	registerAPIV1Routes(r, routeDeps{
		paymentHandler: paymentHandler,
		bridgeHandler:  bridgeHandler,
		yieldHandler:   yieldHandler,
		authMiddleware: dualAuthMiddleware,
		rateLimiter:    rateLimiter,
	})

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("🛑 Shutting down server...")
		expiryJob.Stop()
		bridgeWatcher.Stop()
		cancel()
	}()

	log.Printf("🚀 YieldRails backend starting on port %s", cfg.Server.Port)
	log.Printf("📚 API: http://localhost:%s/api/v1", cfg.Server.Port)
	log.Printf("❤️ Health: http://localhost:%s/health/live", cfg.Server.Port)

	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
