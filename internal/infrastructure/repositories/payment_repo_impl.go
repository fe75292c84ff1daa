package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"github.com/raosunjoy/YieldRails-sub009/internal/domain/entities"
	domainerrors "github.com/raosunjoy/YieldRails-sub009/internal/domain/errors"
	"github.com/raosunjoy/YieldRails-sub009/internal/infrastructure/models"
)

// PaymentRepository implements payment data operations
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create creates a new payment
func (r *PaymentRepository) Create(ctx context.Context, payment *entities.Payment) error {
	m := toModel(payment)
	db := GetDB(ctx, r.db)
	return db.WithContext(ctx).Create(m).Error
}

// GetByID gets a payment by ID
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*entities.Payment, error) {
	var m models.Payment
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Preload("Merchant").Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toEntity(&m), nil
}

// Update persists the full payment row. Callers hold the per-payment
// lock, so last-write-wins inside a transition is safe.
func (r *PaymentRepository) Update(ctx context.Context, payment *entities.Payment) error {
	payment.UpdatedAt = time.Now()
	m := toModel(payment)
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.Payment{}).Where("id = ?", m.ID).Updates(m)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// GetByMerchantID gets payments for a merchant with pagination
func (r *PaymentRepository) GetByMerchantID(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]*entities.Payment, int, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("merchant_id = ?", merchantID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.Payment
	q := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("created_at DESC").
		Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	payments := make([]*entities.Payment, 0, len(ms))
	for i := range ms {
		payments = append(payments, toEntity(&ms[i]))
	}
	return payments, int(total), nil
}

// List gets payments with pagination
func (r *PaymentRepository) List(ctx context.Context, limit, offset int) ([]*entities.Payment, int, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Payment{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.Payment
	q := r.db.WithContext(ctx).Order("created_at DESC").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	payments := make([]*entities.Payment, 0, len(ms))
	for i := range ms {
		payments = append(payments, toEntity(&ms[i]))
	}
	return payments, int(total), nil
}

// GetExpiredPending returns PENDING payments whose expiry has elapsed.
func (r *PaymentRepository) GetExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*entities.Payment, error) {
	var ms []models.Payment
	q := r.db.WithContext(ctx).
		Where("status = ?", string(entities.PaymentStatusPending)).
		Where("expires_at IS NOT NULL AND expires_at <= ?", cutoff).
		Order("expires_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&ms).Error; err != nil {
		return nil, err
	}

	payments := make([]*entities.Payment, 0, len(ms))
	for i := range ms {
		payments = append(payments, toEntity(&ms[i]))
	}
	return payments, nil
}

func toModel(p *entities.Payment) *models.Payment {
	meta := "{}"
	if len(p.Metadata) > 0 {
		if raw, err := json.Marshal(p.Metadata); err == nil {
			meta = string(raw)
		}
	}
	return &models.Payment{
		ID:             p.ID,
		PayerAddress:   p.PayerAddress,
		MerchantID:     p.MerchantID,
		Amount:         p.Amount,
		Currency:       p.Currency,
		SourceChain:    p.SourceChain,
		DestChain:      p.DestChain,
		Status:         string(p.Status),
		EscrowAddress:  p.EscrowAddress.Ptr(),
		SourceTxHash:   p.SourceTxHash.Ptr(),
		DestTxHash:     p.DestTxHash.Ptr(),
		YieldEnabled:   p.YieldEnabled,
		StrategyID:     p.StrategyID.Ptr(),
		EstimatedYield: p.EstimatedYield.Ptr(),
		ActualYield:    p.ActualYield.Ptr(),
		UserYield:      p.UserYield.Ptr(),
		MerchantYield:  p.MerchantYield.Ptr(),
		ProtocolYield:  p.ProtocolYield.Ptr(),
		Metadata:       meta,
		ExpiresAt:      p.ExpiresAt,
		ConfirmedAt:    p.ConfirmedAt.Ptr(),
		ReleasedAt:     p.ReleasedAt.Ptr(),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toEntity(m *models.Payment) *entities.Payment {
	p := &entities.Payment{
		ID:             m.ID,
		PayerAddress:   m.PayerAddress,
		MerchantID:     m.MerchantID,
		Amount:         m.Amount,
		Currency:       m.Currency,
		SourceChain:    m.SourceChain,
		DestChain:      m.DestChain,
		Status:         entities.PaymentStatus(m.Status),
		EscrowAddress:  null.StringFromPtr(m.EscrowAddress),
		SourceTxHash:   null.StringFromPtr(m.SourceTxHash),
		DestTxHash:     null.StringFromPtr(m.DestTxHash),
		YieldEnabled:   m.YieldEnabled,
		StrategyID:     null.StringFromPtr(m.StrategyID),
		EstimatedYield: null.StringFromPtr(m.EstimatedYield),
		ActualYield:    null.StringFromPtr(m.ActualYield),
		UserYield:      null.StringFromPtr(m.UserYield),
		MerchantYield:  null.StringFromPtr(m.MerchantYield),
		ProtocolYield:  null.StringFromPtr(m.ProtocolYield),
		ExpiresAt:      m.ExpiresAt,
		ConfirmedAt:    null.TimeFromPtr(m.ConfirmedAt),
		ReleasedAt:     null.TimeFromPtr(m.ReleasedAt),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.Metadata != "" && m.Metadata != "{}" {
		var meta map[string]interface{}
		if err := json.Unmarshal([]byte(m.Metadata), &meta); err == nil {
			p.Metadata = meta
		}
	}
	if m.Merchant.ID != uuid.Nil {
		p.Merchant = merchantToEntity(&m.Merchant)
	}
	return p
}
