package usecases

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainerrors "github.com/raosunjoy/YieldRails-sub009/internal/domain/errors"
)

func TestParseAmount(t *testing.T) {
	got, err := parseAmount("100.5", 6)
	require.NoError(t, err)
	assert.Equal(t, "100.5", got.String())

	// Full precision is allowed, one digit past it is not.
	_, err = parseAmount("0.000001", 6)
	require.NoError(t, err)
	_, err = parseAmount("0.0000001", 6)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	for _, raw := range []string{"", "abc", "1e", "0", "-1"} {
		_, err := parseAmount(raw, 6)
		assert.ErrorIs(t, err, domainerrors.ErrValidation, "amount %q", raw)
	}
}

func TestSmallestUnitRoundTrip(t *testing.T) {
	amount := decimal.RequireFromString("100.5")
	raw := toSmallestUnit(amount, 6)
	assert.Equal(t, big.NewInt(100_500_000), raw)
	assert.True(t, fromSmallestUnit(raw, 6).Equal(amount))

	// 18-decimal tokens need more than 64 bits.
	wei := toSmallestUnit(decimal.RequireFromString("123.456"), 18)
	expect, _ := new(big.Int).SetString("123456000000000000000", 10)
	assert.Zero(t, wei.Cmp(expect))
}
