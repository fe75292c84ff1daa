package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"github.com/raosunjoy/YieldRails-sub009/internal/domain/entities"
	domainerrors "github.com/raosunjoy/YieldRails-sub009/internal/domain/errors"
	"github.com/raosunjoy/YieldRails-sub009/internal/infrastructure/models"
)

// BridgeRepository implements cross-chain transaction data operations
type BridgeRepository struct {
	db *gorm.DB
}

// NewBridgeRepository creates a new bridge repository
func NewBridgeRepository(db *gorm.DB) *BridgeRepository {
	return &BridgeRepository{db: db}
}

// Create creates a new cross-chain transaction
func (r *BridgeRepository) Create(ctx context.Context, tx *entities.CrossChainTransaction) error {
	m := bridgeToModel(tx)
	db := GetDB(ctx, r.db)
	return db.WithContext(ctx).Create(m).Error
}

// GetByID gets a cross-chain transaction by ID
func (r *BridgeRepository) GetByID(ctx context.Context, id string) (*entities.CrossChainTransaction, error) {
	var m models.CrossChainTransaction
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return bridgeToEntity(&m), nil
}

// Update updates a cross-chain transaction
func (r *BridgeRepository) Update(ctx context.Context, tx *entities.CrossChainTransaction) error {
	tx.UpdatedAt = time.Now()
	m := bridgeToModel(tx)
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.CrossChainTransaction{}).Where("id = ?", m.ID).Updates(m)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// ListByStatus returns legs in a given state, oldest first, so the
// watcher drains the backlog in initiation order.
func (r *BridgeRepository) ListByStatus(ctx context.Context, status entities.BridgeStatus, limit int) ([]*entities.CrossChainTransaction, error) {
	var ms []models.CrossChainTransaction
	q := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("initiated_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&ms).Error; err != nil {
		return nil, err
	}

	txs := make([]*entities.CrossChainTransaction, 0, len(ms))
	for i := range ms {
		txs = append(txs, bridgeToEntity(&ms[i]))
	}
	return txs, nil
}

// GetByPaymentID returns the bridge legs attached to a payment.
func (r *BridgeRepository) GetByPaymentID(ctx context.Context, paymentID string) ([]*entities.CrossChainTransaction, error) {
	var ms []models.CrossChainTransaction
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("initiated_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}

	txs := make([]*entities.CrossChainTransaction, 0, len(ms))
	for i := range ms {
		txs = append(txs, bridgeToEntity(&ms[i]))
	}
	return txs, nil
}

// List returns cross-chain transactions with pagination
func (r *BridgeRepository) List(ctx context.Context, limit, offset int) ([]*entities.CrossChainTransaction, int, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.CrossChainTransaction{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.CrossChainTransaction
	q := r.db.WithContext(ctx).Order("initiated_at DESC").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	txs := make([]*entities.CrossChainTransaction, 0, len(ms))
	for i := range ms {
		txs = append(txs, bridgeToEntity(&ms[i]))
	}
	return txs, int(total), nil
}

func bridgeToModel(t *entities.CrossChainTransaction) *models.CrossChainTransaction {
	return &models.CrossChainTransaction{
		ID:            t.ID,
		PaymentID:     t.PaymentID.Ptr(),
		SourceChain:   t.SourceChain,
		DestChain:     t.DestChain,
		Token:         t.Token,
		Amount:        t.Amount,
		Fee:           t.Fee,
		Recipient:     t.Recipient,
		Status:        string(t.Status),
		SourceTxHash:  t.SourceTxHash.Ptr(),
		DestTxHash:    t.DestTxHash.Ptr(),
		RefundTxHash:  t.RefundTxHash.Ptr(),
		EscrowAddress: t.EscrowAddress.Ptr(),
		TransitYield:  t.TransitYield.Ptr(),
		FailureReason: t.FailureReason.Ptr(),
		InitiatedAt:   t.InitiatedAt,
		CompletedAt:   t.CompletedAt.Ptr(),
		UpdatedAt:     t.UpdatedAt,
	}
}

func bridgeToEntity(m *models.CrossChainTransaction) *entities.CrossChainTransaction {
	return &entities.CrossChainTransaction{
		ID:            m.ID,
		PaymentID:     null.StringFromPtr(m.PaymentID),
		SourceChain:   m.SourceChain,
		DestChain:     m.DestChain,
		Token:         m.Token,
		Amount:        m.Amount,
		Fee:           m.Fee,
		Recipient:     m.Recipient,
		Status:        entities.BridgeStatus(m.Status),
		SourceTxHash:  null.StringFromPtr(m.SourceTxHash),
		DestTxHash:    null.StringFromPtr(m.DestTxHash),
		RefundTxHash:  null.StringFromPtr(m.RefundTxHash),
		EscrowAddress: null.StringFromPtr(m.EscrowAddress),
		TransitYield:  null.StringFromPtr(m.TransitYield),
		FailureReason: null.StringFromPtr(m.FailureReason),
		InitiatedAt:   m.InitiatedAt,
		CompletedAt:   null.TimeFromPtr(m.CompletedAt),
		UpdatedAt:     m.UpdatedAt,
	}
}
