package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"github.com/raosunjoy/YieldRails-sub009/internal/domain/entities"
	domainerrors "github.com/raosunjoy/YieldRails-sub009/internal/domain/errors"
	"github.com/raosunjoy/YieldRails-sub009/internal/infrastructure/models"
)

// YieldStrategyRepository implements yield strategy catalog access
type YieldStrategyRepository struct {
	db *gorm.DB
}

// NewYieldStrategyRepository creates a new yield strategy repository
func NewYieldStrategyRepository(db *gorm.DB) *YieldStrategyRepository {
	return &YieldStrategyRepository{db: db}
}

// GetByID gets a strategy by ID
func (r *YieldStrategyRepository) GetByID(ctx context.Context, id string) (*entities.YieldStrategy, error) {
	var m models.YieldStrategy
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return strategyToEntity(&m), nil
}

// ListActive returns active strategies, optionally scoped to a chain.
func (r *YieldStrategyRepository) ListActive(ctx context.Context, chain string) ([]*entities.YieldStrategy, error) {
	var ms []models.YieldStrategy
	q := r.db.WithContext(ctx).Where("is_active = ?", true)
	if chain != "" {
		q = q.Where("chain = ?", chain)
	}
	if err := q.Order("id ASC").Find(&ms).Error; err != nil {
		return nil, err
	}

	strategies := make([]*entities.YieldStrategy, 0, len(ms))
	for i := range ms {
		strategies = append(strategies, strategyToEntity(&ms[i]))
	}
	return strategies, nil
}

// Upsert inserts or replaces a strategy row by ID. Used by the operator
// sync path, not by payment flow.
func (r *YieldStrategyRepository) Upsert(ctx context.Context, strategy *entities.YieldStrategy) error {
	strategy.UpdatedAt = time.Now()
	if strategy.CreatedAt.IsZero() {
		strategy.CreatedAt = strategy.UpdatedAt
	}
	m := strategyToModel(strategy)
	db := GetDB(ctx, r.db)
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "chain", "expected_apy", "risk_tier", "is_active", "updated_at"}),
	}).Create(m).Error
}

func strategyToModel(s *entities.YieldStrategy) *models.YieldStrategy {
	return &models.YieldStrategy{
		ID:          s.ID,
		Name:        s.Name,
		Chain:       s.Chain,
		ExpectedAPY: s.ExpectedAPY,
		RiskTier:    string(s.RiskTier),
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func strategyToEntity(m *models.YieldStrategy) *entities.YieldStrategy {
	return &entities.YieldStrategy{
		ID:          m.ID,
		Name:        m.Name,
		Chain:       m.Chain,
		ExpectedAPY: m.ExpectedAPY,
		RiskTier:    entities.RiskTier(m.RiskTier),
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// YieldEarningRepository implements the yield ledger
type YieldEarningRepository struct {
	db *gorm.DB
}

// NewYieldEarningRepository creates a new yield earning repository
func NewYieldEarningRepository(db *gorm.DB) *YieldEarningRepository {
	return &YieldEarningRepository{db: db}
}

// Create creates a new earning line
func (r *YieldEarningRepository) Create(ctx context.Context, earning *entities.YieldEarning) error {
	m := earningToModel(earning)
	db := GetDB(ctx, r.db)
	return db.WithContext(ctx).Create(m).Error
}

// GetOpenByPaymentID returns the payment's single active earning, or
// ErrNotFound when none is open.
func (r *YieldEarningRepository) GetOpenByPaymentID(ctx context.Context, paymentID string) (*entities.YieldEarning, error) {
	var m models.YieldEarning
	db := GetDB(ctx, r.db)
	err := db.WithContext(ctx).
		Where("payment_id = ? AND status = ?", paymentID, string(entities.EarningStatusActive)).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return earningToEntity(&m), nil
}

// Update updates an earning line
func (r *YieldEarningRepository) Update(ctx context.Context, earning *entities.YieldEarning) error {
	earning.UpdatedAt = time.Now()
	m := earningToModel(earning)
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.YieldEarning{}).Where("id = ?", m.ID).Updates(m)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// GetByPaymentID returns all earning lines for a payment, oldest first.
func (r *YieldEarningRepository) GetByPaymentID(ctx context.Context, paymentID string) ([]*entities.YieldEarning, error) {
	var ms []models.YieldEarning
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("start_time ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}

	earnings := make([]*entities.YieldEarning, 0, len(ms))
	for i := range ms {
		earnings = append(earnings, earningToEntity(&ms[i]))
	}
	return earnings, nil
}

func earningToModel(e *entities.YieldEarning) *models.YieldEarning {
	return &models.YieldEarning{
		ID:            e.ID,
		PaymentID:     e.PaymentID,
		StrategyID:    e.StrategyID,
		Principal:     e.Principal,
		GrossYield:    e.GrossYield.Ptr(),
		NetYield:      e.NetYield.Ptr(),
		SplitUser:     e.SplitUser,
		SplitMerchant: e.SplitMerchant,
		SplitProtocol: e.SplitProtocol,
		Status:        string(e.Status),
		StartTime:     e.StartTime,
		EndTime:       e.EndTime.Ptr(),
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func earningToEntity(m *models.YieldEarning) *entities.YieldEarning {
	return &entities.YieldEarning{
		ID:            m.ID,
		PaymentID:     m.PaymentID,
		StrategyID:    m.StrategyID,
		Principal:     m.Principal,
		GrossYield:    null.StringFromPtr(m.GrossYield),
		NetYield:      null.StringFromPtr(m.NetYield),
		SplitUser:     m.SplitUser,
		SplitMerchant: m.SplitMerchant,
		SplitProtocol: m.SplitProtocol,
		Status:        entities.EarningStatus(m.Status),
		StartTime:     m.StartTime,
		EndTime:       null.TimeFromPtr(m.EndTime),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
