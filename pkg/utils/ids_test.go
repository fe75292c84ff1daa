package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIDFormat(t *testing.T) {
	id := NewPaymentID()
	assert.True(t, strings.HasPrefix(id, "pay_"))
	assert.Len(t, id, len("pay_")+32, "32 hex chars after the prefix")

	assert.True(t, strings.HasPrefix(NewBridgeID(), "brg_"))
	assert.True(t, strings.HasPrefix(NewEarningID(), "ern_"))
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewPaymentID()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestClampPagination(t *testing.T) {
	limit, offset := ClampPagination(0, -5)
	assert.Equal(t, DefaultPageLimit, limit)
	assert.Equal(t, 0, offset)

	limit, offset = ClampPagination(500, 40)
	assert.Equal(t, MaxPageLimit, limit)
	assert.Equal(t, 40, offset)

	limit, offset = ClampPagination(25, 100)
	assert.Equal(t, 25, limit)
	assert.Equal(t, 100, offset)
}
