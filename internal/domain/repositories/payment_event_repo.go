package repositories

import (
	"context"

	"github.com/raosunjoy/YieldRails-sub009/internal/domain/entities"
)

// PaymentEventRepository defines the append-only audit trail. Events are
// never updated or deleted.
type PaymentEventRepository interface {
	Create(ctx context.Context, event *entities.PaymentEvent) error
	GetByPaymentID(ctx context.Context, paymentID string) ([]*entities.PaymentEvent, error)
	CountByType(ctx context.Context, paymentID string, eventType entities.PaymentEventType) (int64, error)
}
