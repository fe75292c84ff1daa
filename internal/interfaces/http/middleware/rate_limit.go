package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"github.com/raosunjoy/YieldRails-sub009/internal/config"
	"github.com/raosunjoy/YieldRails-sub009/pkg/logger"
	"github.com/raosunjoy/YieldRails-sub009/pkg/redis"
)

// RateLimit throttles per authenticated actor, falling back to client IP
// for the health surface. Redis trouble fails open: throttling is load
// protection, not an availability dependency.
func RateLimit(cache *redis.Client, cfg config.RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetString(ActorIDKey)
		if actor == "" {
			actor = c.ClientIP()
		}

		limited, err := cache.IsRateLimited(c.Request.Context(), "rate:"+actor, cfg.Limit, cfg.Window)
		if err != nil {
			logger.Warn(c.Request.Context(), "rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if limited {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":      "RATE_LIMITED",
				"message":   "rate limit exceeded",
				"retryable": true,
			})
			return
		}
		c.Next()
	}
}
