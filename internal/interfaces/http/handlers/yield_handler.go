package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/raosunjoy/YieldRails-sub009/internal/interfaces/http/response"
	"github.com/raosunjoy/YieldRails-sub009/internal/usecases"
)

// YieldHandler exposes the strategy catalog.
type YieldHandler struct {
	usecase *usecases.YieldUsecase
}

// NewYieldHandler creates a new yield handler
func NewYieldHandler(usecase *usecases.YieldUsecase) *YieldHandler {
	return &YieldHandler{usecase: usecase}
}

// ListStrategies handles GET /api/v1/yield/strategies?chain=base
func (h *YieldHandler) ListStrategies(c *gin.Context) {
	strategies, err := h.usecase.ListStrategies(c.Request.Context(), c.Query("chain"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"strategies": strategies})
}
