package models

import (
	"time"
)

type YieldStrategy struct {
	ID          string `gorm:"type:varchar(100);primaryKey"`
	Name        string `gorm:"type:varchar(255);not null"`
	Chain       string `gorm:"type:varchar(50);not null;index"`
	ExpectedAPY string `gorm:"type:decimal(10,6);not null"`
	RiskTier    string `gorm:"type:varchar(20);not null;default:'low'"`
	IsActive    bool   `gorm:"not null;default:true;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (YieldStrategy) TableName() string {
	return "yield_strategies"
}

type YieldEarning struct {
	ID            string  `gorm:"type:varchar(40);primaryKey"`
	PaymentID     string  `gorm:"type:varchar(40);not null;index"`
	StrategyID    string  `gorm:"type:varchar(100);not null"`
	Principal     string  `gorm:"type:decimal(36,18);not null"`
	GrossYield    *string `gorm:"type:decimal(36,18)"`
	NetYield      *string `gorm:"type:decimal(36,18)"`
	SplitUser     string  `gorm:"type:decimal(10,6);not null"`
	SplitMerchant string  `gorm:"type:decimal(10,6);not null"`
	SplitProtocol string  `gorm:"type:decimal(10,6);not null"`
	Status        string  `gorm:"type:varchar(20);not null;index"`
	StartTime     time.Time
	EndTime       *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (YieldEarning) TableName() string {
	return "yield_earnings"
}
