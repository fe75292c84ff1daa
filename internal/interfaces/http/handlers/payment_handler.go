package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/raosunjoy/YieldRails-sub009/internal/domain/entities"
	domainerrors "github.com/raosunjoy/YieldRails-sub009/internal/domain/errors"
	"github.com/raosunjoy/YieldRails-sub009/internal/interfaces/http/response"
	"github.com/raosunjoy/YieldRails-sub009/internal/usecases"
	"github.com/raosunjoy/YieldRails-sub009/pkg/utils"
)

// PaymentHandler exposes the payment lifecycle over HTTP.
type PaymentHandler struct {
	usecase *usecases.PaymentUsecase
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(usecase *usecases.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{usecase: usecase}
}

type createPaymentRequest struct {
	PayerAddress string `json:"payerAddress" binding:"required"`
	entities.CreatePaymentInput
}

// Create handles POST /api/v1/payments
func (h *PaymentHandler) Create(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	payment, err := h.usecase.CreatePayment(c.Request.Context(), req.PayerAddress, &req.CreatePaymentInput)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, payment)
}

// Get handles GET /api/v1/payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	payment, err := h.usecase.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, payment)
}

// Confirm handles POST /api/v1/payments/:id/confirm
func (h *PaymentHandler) Confirm(c *gin.Context) {
	var input entities.ConfirmPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	payment, err := h.usecase.ConfirmPayment(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, payment)
}

// Release handles POST /api/v1/payments/:id/release
func (h *PaymentHandler) Release(c *gin.Context) {
	payment, err := h.usecase.ReleasePayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, payment)
}

type cancelPaymentRequest struct {
	Reason string `json:"reason"`
}

// Cancel handles POST /api/v1/payments/:id/cancel. The body is
// optional; a reason, when given, lands on the CANCELLED event.
func (h *PaymentHandler) Cancel(c *gin.Context) {
	var req cancelPaymentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, domainerrors.Validation(err.Error()))
			return
		}
	}

	payment, err := h.usecase.CancelPayment(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, payment)
}

// Events handles GET /api/v1/payments/:id/events
func (h *PaymentHandler) Events(c *gin.Context) {
	events, err := h.usecase.GetPaymentEvents(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"events": events})
}

// ListByMerchant handles GET /api/v1/merchants/:id/payments
func (h *PaymentHandler) ListByMerchant(c *gin.Context) {
	merchantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.Validation("invalid merchant id"))
		return
	}
	limit, offset := pageParams(c)

	payments, total, err := h.usecase.ListMerchantPayments(c.Request.Context(), merchantID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, http.StatusOK, payments, total, limit, offset)
}

// pageParams reads limit/offset query params with sane bounds.
func pageParams(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return utils.ClampPagination(limit, offset)
}
