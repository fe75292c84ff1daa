package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raosunjoy/YieldRails-sub009/internal/interfaces/http/handlers"
)

type routeDeps struct {
	paymentHandler *handlers.PaymentHandler
	bridgeHandler  *handlers.BridgeHandler
	yieldHandler   *handlers.YieldHandler
	authMiddleware gin.HandlerFunc
	rateLimiter    gin.HandlerFunc
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	v1.Use(d.authMiddleware)
	if d.rateLimiter != nil {
		v1.Use(d.rateLimiter)
	}
	{
		// Payment lifecycle (protected)
		payments := v1.Group("/payments")
		{
			payments.POST("", d.paymentHandler.Create)
			payments.GET("/:id", d.paymentHandler.Get)
			payments.POST("/:id/confirm", d.paymentHandler.Confirm)
			payments.POST("/:id/release", d.paymentHandler.Release)
			payments.POST("/:id/cancel", d.paymentHandler.Cancel)
			payments.GET("/:id/events", d.paymentHandler.Events)
		}

		// Merchant views (protected)
		merchants := v1.Group("/merchants")
		{
			merchants.GET("/:id/payments", d.paymentHandler.ListByMerchant)
		}

		// Cross-chain bridging (protected)
		bridge := v1.Group("/bridge")
		{
			bridge.GET("/estimate", d.bridgeHandler.Estimate)
			bridge.POST("", d.bridgeHandler.Initiate)
			bridge.GET("", d.bridgeHandler.List)
			bridge.GET("/:id", d.bridgeHandler.Get)
		}

		// Yield strategy catalog (protected)
		yield := v1.Group("/yield")
		{
			yield.GET("/strategies", d.yieldHandler.ListStrategies)
		}
	}
}

func registerOpsRoutes(r *gin.Engine, health *handlers.HealthHandler) {
	r.GET("/health/live", health.Live)
	r.GET("/health/ready", health.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func applyCORSMiddleware(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key, X-Request-ID")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}
