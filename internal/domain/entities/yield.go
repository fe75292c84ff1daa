package entities

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// RiskTier classifies a yield strategy's risk profile
type RiskTier string

const (
	RiskTierLow    RiskTier = "low"
	RiskTierMedium RiskTier = "medium"
	RiskTierHigh   RiskTier = "high"
)

// YieldStrategy is a named, chain-scoped yield source. Read-mostly:
// updated out-of-band by an operator process, never by payment flow.
type YieldStrategy struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Chain       string    `json:"chain"`
	ExpectedAPY string    `json:"expectedApy"`
	RiskTier    RiskTier  `json:"riskTier"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// EarningStatus represents the state of a yield ledger line
type EarningStatus string

const (
	EarningStatusActive EarningStatus = "active"
	EarningStatusClosed EarningStatus = "closed"
)

// YieldEarning is a ledger line binding a payment to a strategy. A payment
// has at most one active earning; EndTime is never before StartTime.
// SplitUser/Merchant/Protocol capture the percentages in force when the
// earning opened, so a config change never rewrites an open accrual window.
type YieldEarning struct {
	ID            string        `json:"id"`
	PaymentID     string        `json:"paymentId"`
	StrategyID    string        `json:"strategyId"`
	Principal     string        `json:"principal"`
	GrossYield    null.String   `json:"grossYield,omitempty"`
	NetYield      null.String   `json:"netYield,omitempty"`
	SplitUser     string        `json:"splitUser"`
	SplitMerchant string        `json:"splitMerchant"`
	SplitProtocol string        `json:"splitProtocol"`
	Status        EarningStatus `json:"status"`
	StartTime     time.Time     `json:"startTime"`
	EndTime       null.Time     `json:"endTime,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}
