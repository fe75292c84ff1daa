package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// MerchantStatus represents merchant verification status
type MerchantStatus string

const (
	MerchantStatusPending   MerchantStatus = "pending"
	MerchantStatusActive    MerchantStatus = "active"
	MerchantStatusSuspended MerchantStatus = "suspended"
)

// Merchant represents a merchant entity. The on-chain address is the
// natural key: one merchant per distinct address.
type Merchant struct {
	ID              uuid.UUID      `json:"id"`
	Address         string         `json:"address"`
	Name            null.String    `json:"name,omitempty"`
	DefaultCurrency string         `json:"defaultCurrency"`
	SupportedChains []string       `json:"supportedChains"`
	Status          MerchantStatus `json:"status"`
	VerifiedAt      null.Time      `json:"verifiedAt,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	DeletedAt       null.Time      `json:"-"`
}

// SupportsChain reports whether the merchant accepts settlement on chain.
// An empty list means all configured chains are accepted.
func (m *Merchant) SupportsChain(chain string) bool {
	if len(m.SupportedChains) == 0 {
		return true
	}
	for _, c := range m.SupportedChains {
		if c == chain {
			return true
		}
	}
	return false
}
