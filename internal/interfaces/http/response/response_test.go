package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainerrors "github.com/raosunjoy/YieldRails-sub009/internal/domain/errors"
)

func record(fn func(c *gin.Context)) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	fn(c)
	return w
}

func TestErrorMapsTaxonomy(t *testing.T) {
	cases := []struct {
		err       error
		status    int
		code      string
		retryable bool
	}{
		{domainerrors.Validation("bad amount"), http.StatusBadRequest, domainerrors.CodeValidation, false},
		{domainerrors.NotFound("payment gone"), http.StatusNotFound, domainerrors.CodeNotFound, false},
		{domainerrors.InvalidState("already released"), http.StatusConflict, domainerrors.CodeInvalidState, false},
		{domainerrors.LockContention("busy"), http.StatusConflict, domainerrors.CodeLockContention, true},
		{domainerrors.Timeout("chain slow", nil), http.StatusGatewayTimeout, domainerrors.CodeTimeout, true},
		{domainerrors.RPCUnavailable("rpc down", nil), http.StatusServiceUnavailable, domainerrors.CodeRPCUnavailable, true},
		{domainerrors.InsufficientFunds("pool empty"), http.StatusPaymentRequired, domainerrors.CodeInsufficientFunds, false},
		{domainerrors.Compliance("blocked"), http.StatusForbidden, domainerrors.CodeCompliance, false},
	}
	for _, tc := range cases {
		w := record(func(c *gin.Context) { Error(c, tc.err) })
		assert.Equal(t, tc.status, w.Code, tc.code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, tc.code, body["code"])
		assert.Equal(t, tc.retryable, body["retryable"])
	}
}

func TestErrorWrappedAppError(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", domainerrors.Validation("bad"))
	w := record(func(c *gin.Context) { Error(c, wrapped) })
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestErrorUnknownIsInternal(t *testing.T) {
	w := record(func(c *gin.Context) { Error(c, errors.New("pq: connection reset")) })
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	// The cause must not leak to the caller.
	assert.Equal(t, "internal server error", body["message"])
}
