package usecases_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/raosunjoy/YieldRails-sub009/internal/config"
	"github.com/raosunjoy/YieldRails-sub009/pkg/redis"
)

const (
	usdcBase     = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
	usdcArbitrum = "0xaf88d065e77c8cC2239327C5EDb3A432268e5831"
	usdcPolygon  = "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359"
)

func testConfig() *config.Config {
	return &config.Config{
		Redis: config.RedisConfig{
			CacheTTL: time.Minute,
			LockTTL:  10 * time.Second,
		},
		Chains: map[string]config.ChainConfig{
			"base":     {Name: "base", Confirmations: 3},
			"arbitrum": {Name: "arbitrum", Confirmations: 3},
			"polygon":  {Name: "polygon", Confirmations: 12},
		},
		Tokens: map[string]config.TokenConfig{
			"USDC": {
				Symbol:   "USDC",
				Decimals: 6,
				Addresses: map[string]string{
					"base":     usdcBase,
					"arbitrum": usdcArbitrum,
					"polygon":  usdcPolygon,
				},
			},
			"DAI": {
				Symbol:   "DAI",
				Decimals: 18,
				Addresses: map[string]string{
					"base": "0x50c5725949A6F0c72E6C4a641F24049A917DB0Cb",
				},
			},
		},
		Yield: config.YieldConfig{
			UserShare:     "0.70",
			MerchantShare: "0.20",
			ProtocolShare: "0.10",
		},
		Bridge: config.BridgeConfig{FeePercent: "2.5"},
	}
}

func newTestCache(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return redis.NewFromClient(rdb), mr
}
