package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"github.com/raosunjoy/YieldRails-sub009/internal/domain/entities"
	domainerrors "github.com/raosunjoy/YieldRails-sub009/internal/domain/errors"
	"github.com/raosunjoy/YieldRails-sub009/internal/infrastructure/models"
)

// MerchantRepository implements merchant data operations
type MerchantRepository struct {
	db *gorm.DB
}

// NewMerchantRepository creates a new merchant repository
func NewMerchantRepository(db *gorm.DB) *MerchantRepository {
	return &MerchantRepository{db: db}
}

// Create creates a new merchant. A duplicate address surfaces as
// ErrAlreadyExists so callers can recover by re-reading.
func (r *MerchantRepository) Create(ctx context.Context, merchant *entities.Merchant) error {
	m := merchantToModel(merchant)
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetByID gets a merchant by ID
func (r *MerchantRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Merchant, error) {
	var m models.Merchant
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return merchantToEntity(&m), nil
}

// GetByAddress looks up a merchant by its on-chain address.
func (r *MerchantRepository) GetByAddress(ctx context.Context, address string) (*entities.Merchant, error) {
	var m models.Merchant
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("address = ?", address).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return merchantToEntity(&m), nil
}

// Update updates a merchant
func (r *MerchantRepository) Update(ctx context.Context, merchant *entities.Merchant) error {
	merchant.UpdatedAt = time.Now()
	m := merchantToModel(merchant)
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.Merchant{}).Where("id = ?", m.ID).Updates(m)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// isUniqueViolation detects a postgres unique constraint violation.
// SQLite (tests) reports the same condition in its error text.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func merchantToModel(m *entities.Merchant) *models.Merchant {
	return &models.Merchant{
		ID:              m.ID,
		Address:         m.Address,
		Name:            m.Name.Ptr(),
		DefaultCurrency: m.DefaultCurrency,
		SupportedChains: strings.Join(m.SupportedChains, ","),
		Status:          string(m.Status),
		VerifiedAt:      m.VerifiedAt.Ptr(),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func merchantToEntity(m *models.Merchant) *entities.Merchant {
	var chains []string
	if m.SupportedChains != "" {
		chains = strings.Split(m.SupportedChains, ",")
	}
	return &entities.Merchant{
		ID:              m.ID,
		Address:         m.Address,
		Name:            null.StringFromPtr(m.Name),
		DefaultCurrency: m.DefaultCurrency,
		SupportedChains: chains,
		Status:          entities.MerchantStatus(m.Status),
		VerifiedAt:      null.TimeFromPtr(m.VerifiedAt),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
