package usecases

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	domainerrors "github.com/raosunjoy/YieldRails-sub009/internal/domain/errors"
)

// chainCallCtx bounds one connector call with the configured budget. A
// zero budget leaves the caller's context untouched.
func chainCallCtx(ctx context.Context, budget time.Duration) (context.Context, context.CancelFunc) {
	if budget <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, budget)
}

// parseAmount parses a positive decimal amount that fits the token's
// precision.
func parseAmount(raw string, decimals int32) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, domainerrors.Validation(fmt.Sprintf("invalid amount %q", raw))
	}
	if amount.Sign() <= 0 {
		return decimal.Zero, domainerrors.Validation("amount must be positive")
	}
	if amount.Exponent() < -decimals {
		return decimal.Zero, domainerrors.Validation(fmt.Sprintf("amount exceeds token precision of %d decimals", decimals))
	}
	return amount, nil
}

// toSmallestUnit converts a decimal token amount to base units.
func toSmallestUnit(amount decimal.Decimal, decimals int32) *big.Int {
	return amount.Shift(decimals).BigInt()
}

// fromSmallestUnit converts base units back to a decimal token amount.
func fromSmallestUnit(raw *big.Int, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(raw, -decimals)
}
