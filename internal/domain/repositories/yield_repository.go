package repositories

import (
	"context"

	"github.com/raosunjoy/YieldRails-sub009/internal/domain/entities"
)

// YieldStrategyRepository reads the operator-maintained strategy catalog.
// Payment flow never writes strategies.
type YieldStrategyRepository interface {
	GetByID(ctx context.Context, id string) (*entities.YieldStrategy, error)
	ListActive(ctx context.Context, chain string) ([]*entities.YieldStrategy, error)
	Upsert(ctx context.Context, strategy *entities.YieldStrategy) error
}

// YieldEarningRepository defines yield ledger operations. A payment has at
// most one active earning at a time.
type YieldEarningRepository interface {
	Create(ctx context.Context, earning *entities.YieldEarning) error
	GetOpenByPaymentID(ctx context.Context, paymentID string) (*entities.YieldEarning, error)
	Update(ctx context.Context, earning *entities.YieldEarning) error
	GetByPaymentID(ctx context.Context, paymentID string) ([]*entities.YieldEarning, error)
}
