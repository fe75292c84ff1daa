package repositories

import (
	"context"

	"github.com/raosunjoy/YieldRails-sub009/internal/domain/entities"
)

// BridgeRepository defines cross-chain transaction data operations.
type BridgeRepository interface {
	Create(ctx context.Context, tx *entities.CrossChainTransaction) error
	GetByID(ctx context.Context, id string) (*entities.CrossChainTransaction, error)
	Update(ctx context.Context, tx *entities.CrossChainTransaction) error
	ListByStatus(ctx context.Context, status entities.BridgeStatus, limit int) ([]*entities.CrossChainTransaction, error)
	GetByPaymentID(ctx context.Context, paymentID string) ([]*entities.CrossChainTransaction, error)
	List(ctx context.Context, limit, offset int) ([]*entities.CrossChainTransaction, int, error)
}
