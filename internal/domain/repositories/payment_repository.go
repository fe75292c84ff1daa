package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/raosunjoy/YieldRails-sub009/internal/domain/entities"
)

// PaymentRepository defines payment data operations. The relational store
// is the sole system of record; payments are soft-retained, never
// physically deleted.
type PaymentRepository interface {
	Create(ctx context.Context, payment *entities.Payment) error
	GetByID(ctx context.Context, id string) (*entities.Payment, error)
	Update(ctx context.Context, payment *entities.Payment) error
	GetByMerchantID(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]*entities.Payment, int, error)
	List(ctx context.Context, limit, offset int) ([]*entities.Payment, int, error)
	// GetExpiredPending returns PENDING payments whose expiry elapsed
	// before cutoff, for the expiry sweep.
	GetExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*entities.Payment, error)
}

// MerchantRepository defines merchant data operations. The on-chain
// address is the natural key.
type MerchantRepository interface {
	Create(ctx context.Context, merchant *entities.Merchant) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Merchant, error)
	GetByAddress(ctx context.Context, address string) (*entities.Merchant, error)
	Update(ctx context.Context, merchant *entities.Merchant) error
}
