package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Merchant struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Address         string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Name            *string   `gorm:"type:varchar(255)"`
	DefaultCurrency string    `gorm:"type:varchar(20);not null;default:'USDC'"`
	SupportedChains string    `gorm:"type:text;default:''"` // comma-separated
	Status          string    `gorm:"type:varchar(20);not null;default:'pending'"`
	VerifiedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (Merchant) TableName() string {
	return "merchants"
}
