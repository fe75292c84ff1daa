package errors

import (
	"errors"
	"net/http"
)

// Domain errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrAlreadyExists     = errors.New("resource already exists")
	ErrValidation        = errors.New("invalid input")
	ErrCompliance        = errors.New("blocked by compliance gate")
	ErrInvalidState      = errors.New("operation not valid for current status")
	ErrSettlement        = errors.New("settlement failed")
	ErrRPCUnavailable    = errors.New("chain rpc unavailable")
	ErrContractReverted  = errors.New("contract execution reverted")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrTimeout           = errors.New("chain call timed out")
	ErrLockContention    = errors.New("another operation in flight")
	ErrBridgeFailure     = errors.New("bridge transaction failed")
	ErrUnsupportedChain  = errors.New("unsupported chain")
	ErrUnsupportedToken  = errors.New("unsupported token")
	ErrUnauthorized      = errors.New("unauthorized")
)

// Stable error codes surfaced to API callers. Callers key retry behavior
// off these, so they must not change between releases.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeCompliance        = "COMPLIANCE_ERROR"
	CodeInvalidState      = "INVALID_STATE"
	CodeSettlement        = "SETTLEMENT_ERROR"
	CodeRPCUnavailable    = "RPC_UNAVAILABLE"
	CodeTimeout           = "TIMEOUT"
	CodeLockContention    = "LOCK_CONTENTION"
	CodeBridgeFailure     = "BRIDGE_FAILURE"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	CodeNotFound          = "NOT_FOUND"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInternal          = "INTERNAL_ERROR"
)

// AppError carries a stable code and HTTP status alongside the wrapped cause.
type AppError struct {
	Code    string `json:"code"`
	Status  int    `json:"-"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the caller may retry the same operation after
// re-checking on-chain truth. Deterministic failures are never retryable.
func (e *AppError) Retryable() bool {
	switch e.Code {
	case CodeRPCUnavailable, CodeTimeout, CodeLockContention:
		return true
	}
	return false
}

// NewAppError creates a new app error
func NewAppError(code string, status int, message string, err error) *AppError {
	return &AppError{Code: code, Status: status, Message: message, Err: err}
}

// Constructors for the taxonomy. Each wraps its sentinel so callers can
// match with errors.Is regardless of message.

func Validation(message string) *AppError {
	return NewAppError(CodeValidation, http.StatusBadRequest, message, ErrValidation)
}

func Compliance(message string) *AppError {
	return NewAppError(CodeCompliance, http.StatusForbidden, message, ErrCompliance)
}

func InvalidState(message string) *AppError {
	return NewAppError(CodeInvalidState, http.StatusConflict, message, ErrInvalidState)
}

func Settlement(message string, cause error) *AppError {
	return NewAppError(CodeSettlement, http.StatusBadGateway, message, join(ErrSettlement, cause))
}

func RPCUnavailable(message string, cause error) *AppError {
	return NewAppError(CodeRPCUnavailable, http.StatusServiceUnavailable, message, join(ErrRPCUnavailable, cause))
}

func Timeout(message string, cause error) *AppError {
	return NewAppError(CodeTimeout, http.StatusGatewayTimeout, message, join(ErrTimeout, cause))
}

func LockContention(message string) *AppError {
	return NewAppError(CodeLockContention, http.StatusConflict, message, ErrLockContention)
}

func BridgeFailure(message string, cause error) *AppError {
	return NewAppError(CodeBridgeFailure, http.StatusBadGateway, message, join(ErrBridgeFailure, cause))
}

func InsufficientFunds(message string) *AppError {
	return NewAppError(CodeInsufficientFunds, http.StatusPaymentRequired, message, ErrInsufficientFunds)
}

func NotFound(message string) *AppError {
	return NewAppError(CodeNotFound, http.StatusNotFound, message, ErrNotFound)
}

func Unauthorized(message string) *AppError {
	return NewAppError(CodeUnauthorized, http.StatusUnauthorized, message, ErrUnauthorized)
}

func InternalError(err error) *AppError {
	return NewAppError(CodeInternal, http.StatusInternalServerError, "internal server error", err)
}

func join(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return errors.Join(sentinel, cause)
}
