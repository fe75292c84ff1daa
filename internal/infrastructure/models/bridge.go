package models

import (
	"time"
)

type CrossChainTransaction struct {
	ID            string  `gorm:"type:varchar(40);primaryKey"`
	PaymentID     *string `gorm:"type:varchar(40);index"`
	SourceChain   string  `gorm:"type:varchar(50);not null"`
	DestChain     string  `gorm:"type:varchar(50);not null"`
	Token         string  `gorm:"type:varchar(20);not null"`
	Amount        string  `gorm:"type:decimal(36,18);not null"`
	Fee           string  `gorm:"type:decimal(36,18);not null;default:'0'"`
	Recipient     string  `gorm:"type:varchar(255);not null"`
	Status        string  `gorm:"type:varchar(20);not null;index"`
	SourceTxHash  *string `gorm:"type:varchar(255);index"`
	DestTxHash    *string `gorm:"type:varchar(255)"`
	RefundTxHash  *string `gorm:"type:varchar(255)"`
	EscrowAddress *string `gorm:"type:varchar(255)"`
	TransitYield  *string `gorm:"type:decimal(36,18)"`
	FailureReason *string `gorm:"type:text"`
	InitiatedAt   time.Time
	CompletedAt   *time.Time
	UpdatedAt     time.Time
}

func (CrossChainTransaction) TableName() string {
	return "cross_chain_transactions"
}
