package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Signer     SignerConfig
	Chains     map[string]ChainConfig
	Tokens     map[string]TokenConfig
	Yield      YieldConfig
	Bridge     BridgeConfig
	Timeouts   TimeoutConfig
	RateLimit  RateLimitConfig
	Webhook    WebhookConfig
	Compliance ComplianceConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Password string
	CacheTTL time.Duration
	LockTTL  time.Duration
}

// AuthConfig protects the API boundary. Session issuance is external;
// the service only verifies bearer tokens and API keys.
type AuthConfig struct {
	JWTSecret  string
	JWTExpiry  time.Duration
	APIKeyHash string
}

// ChainConfig holds per-chain RPC and contract addresses
type ChainConfig struct {
	Name          string
	RPCURL        string
	EscrowFactory string
	BridgePool    string
	Confirmations uint64
}

// SignerConfig holds the operator key used to sign settlement
// transactions. One key is shared across EVM chains.
type SignerConfig struct {
	PrivateKey string
}

// TokenConfig holds a supported token with per-chain deployments
type TokenConfig struct {
	Symbol    string
	Decimals  int32
	Addresses map[string]string // chain -> contract address
}

// AddressOn returns the token's contract address on a chain, if deployed.
func (t TokenConfig) AddressOn(chain string) (string, bool) {
	addr, ok := t.Addresses[chain]
	return addr, ok && addr != ""
}

// YieldConfig holds the revenue split percentages. Values are fixed-point
// decimal strings summing to 1; the engine sends rounding remainder to
// protocol regardless.
type YieldConfig struct {
	UserShare     string
	MerchantShare string
	ProtocolShare string
}

// BridgeConfig holds bridge fee configuration. FeePercent is a fixed-point
// percentage string, e.g. "2.5".
type BridgeConfig struct {
	FeePercent string
}

// TimeoutConfig budgets external calls. Writes get a longer allowance
// because chain confirmation is inherently slow.
type TimeoutConfig struct {
	ChainRead  time.Duration
	ChainWrite time.Duration
}

// RateLimitConfig holds fixed-window throttling thresholds
type RateLimitConfig struct {
	Limit  int64
	Window time.Duration
}

// WebhookConfig holds the push-notification target and signing secret
type WebhookConfig struct {
	URL           string
	SigningSecret string
}

// ComplianceConfig holds the blocklist backing the pass/fail gate
type ComplianceConfig struct {
	BlockedAddresses []string
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "yieldrails"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			CacheTTL: getEnvAsDuration("CACHE_TTL", 5*time.Minute),
			LockTTL:  getEnvAsDuration("LOCK_TTL", 30*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", "change-this-in-production"),
			JWTExpiry:  getEnvAsDuration("JWT_EXPIRY", 24*time.Hour),
			APIKeyHash: getEnv("API_KEY_HASH", ""),
		},
		Signer: SignerConfig{
			PrivateKey: getEnv("OPERATOR_PRIVATE_KEY", ""),
		},
		Chains: loadChains(),
		Tokens: loadTokens(),
		Yield: YieldConfig{
			UserShare:     getEnv("YIELD_USER_SHARE", "0.70"),
			MerchantShare: getEnv("YIELD_MERCHANT_SHARE", "0.20"),
			ProtocolShare: getEnv("YIELD_PROTOCOL_SHARE", "0.10"),
		},
		Bridge: BridgeConfig{
			FeePercent: getEnv("BRIDGE_FEE_PERCENT", "2.5"),
		},
		Timeouts: TimeoutConfig{
			ChainRead:  getEnvAsDuration("CHAIN_READ_TIMEOUT", 10*time.Second),
			ChainWrite: getEnvAsDuration("CHAIN_WRITE_TIMEOUT", 90*time.Second),
		},
		RateLimit: RateLimitConfig{
			Limit:  int64(getEnvAsInt("RATE_LIMIT_MAX", 60)),
			Window: getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Webhook: WebhookConfig{
			URL:           getEnv("WEBHOOK_URL", ""),
			SigningSecret: getEnv("WEBHOOK_SIGNING_SECRET", "change-this-in-production"),
		},
		Compliance: ComplianceConfig{
			BlockedAddresses: splitCSV(getEnv("COMPLIANCE_BLOCKED_ADDRESSES", "")),
		},
	}
	return cfg
}

// TokenOnChain reports whether a token symbol is usable on a chain and
// returns its decimals.
func (c *Config) TokenOnChain(symbol, chain string) (TokenConfig, bool) {
	if _, ok := c.Chains[chain]; !ok {
		return TokenConfig{}, false
	}
	token, ok := c.Tokens[strings.ToUpper(symbol)]
	if !ok {
		return TokenConfig{}, false
	}
	if _, deployed := token.AddressOn(chain); !deployed {
		return TokenConfig{}, false
	}
	return token, true
}

func loadChains() map[string]ChainConfig {
	chains := make(map[string]ChainConfig)
	for _, name := range splitCSV(getEnv("CHAINS", "ethereum,polygon")) {
		prefix := "CHAIN_" + strings.ToUpper(name)
		chains[name] = ChainConfig{
			Name:          name,
			RPCURL:        getEnv(prefix+"_RPC_URL", defaultRPC(name)),
			EscrowFactory: getEnv(prefix+"_ESCROW_FACTORY", ""),
			BridgePool:    getEnv(prefix+"_BRIDGE_POOL", ""),
			Confirmations: uint64(getEnvAsInt(prefix+"_CONFIRMATIONS", 3)),
		}
	}
	return chains
}

func loadTokens() map[string]TokenConfig {
	tokens := make(map[string]TokenConfig)
	for _, spec := range splitCSV(getEnv("TOKENS", "USDC:6,USDT:6,DAI:18")) {
		parts := strings.SplitN(spec, ":", 2)
		if len(parts) != 2 {
			continue
		}
		symbol := strings.ToUpper(strings.TrimSpace(parts[0]))
		decimals, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			continue
		}
		addresses := make(map[string]string)
		for _, chain := range splitCSV(getEnv("CHAINS", "ethereum,polygon")) {
			key := "TOKEN_" + symbol + "_" + strings.ToUpper(chain) + "_ADDRESS"
			addresses[chain] = getEnv(key, "")
		}
		tokens[symbol] = TokenConfig{Symbol: symbol, Decimals: int32(decimals), Addresses: addresses}
	}
	return tokens
}

func defaultRPC(chain string) string {
	switch chain {
	case "ethereum":
		return "https://eth.llamarpc.com"
	case "polygon":
		return "https://polygon-rpc.com"
	}
	return ""
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
