package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/raosunjoy/YieldRails-sub009/internal/domain/entities"
	domainerrors "github.com/raosunjoy/YieldRails-sub009/internal/domain/errors"
	"github.com/raosunjoy/YieldRails-sub009/internal/interfaces/http/response"
	"github.com/raosunjoy/YieldRails-sub009/internal/usecases"
)

// BridgeHandler exposes cross-chain bridging over HTTP.
type BridgeHandler struct {
	usecase *usecases.BridgeUsecase
}

// NewBridgeHandler creates a new bridge handler
func NewBridgeHandler(usecase *usecases.BridgeUsecase) *BridgeHandler {
	return &BridgeHandler{usecase: usecase}
}

type estimateRequest struct {
	SourceChain string `form:"sourceChain" binding:"required"`
	DestChain   string `form:"destChain" binding:"required"`
	Token       string `form:"token" binding:"required"`
	Amount      string `form:"amount" binding:"required"`
}

// Estimate handles GET /api/v1/bridge/estimate
func (h *BridgeHandler) Estimate(c *gin.Context) {
	var req estimateRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	estimate, err := h.usecase.Estimate(c.Request.Context(), req.SourceChain, req.DestChain, req.Token, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	liquidity, err := h.usecase.CheckLiquidity(c.Request.Context(), req.DestChain, req.Token, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"estimate":  estimate,
		"liquidity": liquidity,
	})
}

// Initiate handles POST /api/v1/bridge
func (h *BridgeHandler) Initiate(c *gin.Context) {
	var input entities.InitiateBridgeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	leg, err := h.usecase.Initiate(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, leg)
}

// Get handles GET /api/v1/bridge/:id
func (h *BridgeHandler) Get(c *gin.Context) {
	leg, err := h.usecase.GetBridge(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, leg)
}

// List handles GET /api/v1/bridge
func (h *BridgeHandler) List(c *gin.Context) {
	limit, offset := pageParams(c)
	legs, total, err := h.usecase.ListBridges(c.Request.Context(), limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, http.StatusOK, legs, total, limit, offset)
}
