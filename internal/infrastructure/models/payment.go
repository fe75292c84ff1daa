package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Payment struct {
	ID             string    `gorm:"type:varchar(40);primaryKey"`
	PayerAddress   string    `gorm:"type:varchar(255);not null;index"`
	MerchantID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Amount         string    `gorm:"type:decimal(36,18);not null"`
	Currency       string    `gorm:"type:varchar(20);not null"`
	SourceChain    string    `gorm:"type:varchar(50);not null"`
	DestChain      string    `gorm:"type:varchar(50);not null"`
	Status         string    `gorm:"type:varchar(20);not null;index"`
	EscrowAddress  *string   `gorm:"type:varchar(255)"`
	SourceTxHash   *string   `gorm:"type:varchar(255);index"`
	DestTxHash     *string   `gorm:"type:varchar(255);index"`
	YieldEnabled   bool      `gorm:"not null;default:false"`
	StrategyID     *string   `gorm:"type:varchar(100)"`
	EstimatedYield *string   `gorm:"type:decimal(36,18)"`
	ActualYield    *string   `gorm:"type:decimal(36,18)"`
	UserYield      *string   `gorm:"type:decimal(36,18)"`
	MerchantYield  *string   `gorm:"type:decimal(36,18)"`
	ProtocolYield  *string   `gorm:"type:decimal(36,18)"`
	Metadata       string    `gorm:"type:jsonb;default:'{}'"`
	ExpiresAt      *time.Time
	ConfirmedAt    *time.Time
	ReleasedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`

	Merchant Merchant `gorm:"foreignKey:MerchantID"`
}

func (Payment) TableName() string {
	return "payments"
}

type PaymentEvent struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	PaymentID string    `gorm:"type:varchar(40);not null;index"`
	EventType string    `gorm:"type:varchar(50);not null;index"`
	TxHash    string    `gorm:"type:varchar(255)"`
	Metadata  string    `gorm:"type:jsonb;default:'{}'"`
	CreatedAt time.Time `gorm:"index"`
}

func (PaymentEvent) TableName() string {
	return "payment_events"
}
