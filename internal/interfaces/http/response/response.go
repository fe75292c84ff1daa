package response

import (
	"errors"

	"github.com/gin-gonic/gin"
	domainerrors "github.com/raosunjoy/YieldRails-sub009/internal/domain/errors"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error maps a domain error onto its HTTP shape. Anything outside the
// taxonomy is folded into a 500 without leaking the cause.
func Error(c *gin.Context, err error) {
	var appErr *domainerrors.AppError
	if !errors.As(err, &appErr) {
		appErr = domainerrors.InternalError(err)
	}

	c.JSON(appErr.Status, gin.H{
		"code":      appErr.Code,
		"message":   appErr.Message,
		"retryable": appErr.Retryable(),
	})
}

// Paginated wraps a page of results with its total count.
func Paginated(c *gin.Context, status int, items interface{}, total, limit, offset int) {
	c.JSON(status, gin.H{
		"items":  items,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}
