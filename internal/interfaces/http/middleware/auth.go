package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	domainerrors "github.com/raosunjoy/YieldRails-sub009/internal/domain/errors"
	"github.com/raosunjoy/YieldRails-sub009/internal/interfaces/http/response"
	"github.com/raosunjoy/YieldRails-sub009/pkg/crypto"
	"github.com/raosunjoy/YieldRails-sub009/pkg/jwt"
)

const (
	ActorIDKey    = "actor_id"
	AuthMethodKey = "auth_method"
	BearerPrefix  = "Bearer "

	// Actor recorded for API-key callers; keys are service-level, not
	// per-user.
	apiKeyActor = "service"
)

// DualAuth accepts either a bearer token or the service API key. Token
// issuance lives outside this service; only verification happens here.
func DualAuth(jwtService *jwt.Service, apiKeyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := c.GetHeader("X-API-Key"); key != "" {
			if apiKeyHash == "" || !crypto.CheckAPIKey(key, apiKeyHash) {
				abort(c, domainerrors.Unauthorized("invalid API key"))
				return
			}
			c.Set(ActorIDKey, apiKeyActor)
			c.Set(AuthMethodKey, "api_key")
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, BearerPrefix) {
			claims, err := jwtService.Validate(strings.TrimPrefix(header, BearerPrefix))
			if err != nil {
				if errors.Is(err, jwt.ErrExpiredToken) {
					abort(c, domainerrors.Unauthorized("token has expired"))
					return
				}
				abort(c, domainerrors.Unauthorized("invalid token"))
				return
			}
			c.Set(ActorIDKey, claims.ActorID)
			c.Set(AuthMethodKey, "jwt")
			c.Next()
			return
		}

		abort(c, domainerrors.Unauthorized("authentication required (bearer token or API key)"))
	}
}

func abort(c *gin.Context, err error) {
	response.Error(c, err)
	c.Abort()
}
