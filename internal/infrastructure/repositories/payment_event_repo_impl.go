package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"github.com/raosunjoy/YieldRails-sub009/internal/domain/entities"
	"github.com/raosunjoy/YieldRails-sub009/internal/infrastructure/models"
)

// PaymentEventRepository implements the append-only payment event log
type PaymentEventRepository struct {
	db *gorm.DB
}

// NewPaymentEventRepository creates a new payment event repository
func NewPaymentEventRepository(db *gorm.DB) *PaymentEventRepository {
	return &PaymentEventRepository{db: db}
}

// Create appends an event. Events are never updated or deleted.
func (r *PaymentEventRepository) Create(ctx context.Context, event *entities.PaymentEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	meta := "{}"
	if len(event.Metadata) > 0 {
		if raw, err := json.Marshal(event.Metadata); err == nil {
			meta = string(raw)
		}
	}
	m := &models.PaymentEvent{
		ID:        event.ID,
		PaymentID: event.PaymentID,
		EventType: string(event.EventType),
		TxHash:    event.TxHash,
		Metadata:  meta,
		CreatedAt: event.CreatedAt,
	}
	db := GetDB(ctx, r.db)
	return db.WithContext(ctx).Create(m).Error
}

// GetByPaymentID returns a payment's events oldest first.
func (r *PaymentEventRepository) GetByPaymentID(ctx context.Context, paymentID string) ([]*entities.PaymentEvent, error) {
	var ms []models.PaymentEvent
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}

	events := make([]*entities.PaymentEvent, 0, len(ms))
	for i := range ms {
		events = append(events, eventToEntity(&ms[i]))
	}
	return events, nil
}

// CountByType counts events of a given type for a payment.
func (r *PaymentEventRepository) CountByType(ctx context.Context, paymentID string, eventType entities.PaymentEventType) (int64, error) {
	var count int64
	db := GetDB(ctx, r.db)
	err := db.WithContext(ctx).Model(&models.PaymentEvent{}).
		Where("payment_id = ? AND event_type = ?", paymentID, string(eventType)).
		Count(&count).Error
	return count, err
}

func eventToEntity(m *models.PaymentEvent) *entities.PaymentEvent {
	e := &entities.PaymentEvent{
		ID:        m.ID,
		PaymentID: m.PaymentID,
		EventType: entities.PaymentEventType(m.EventType),
		TxHash:    m.TxHash,
		CreatedAt: m.CreatedAt,
	}
	if m.Metadata != "" && m.Metadata != "{}" {
		var meta map[string]interface{}
		if err := json.Unmarshal([]byte(m.Metadata), &meta); err == nil {
			e.Metadata = meta
		}
	}
	return e
}
