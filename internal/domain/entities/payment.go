package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// PaymentStatus represents payment status
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusConfirmed PaymentStatus = "CONFIRMED"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusExpired   PaymentStatus = "EXPIRED"
)

// paymentTransitions is the full legal transition table. No transition
// skips a state; terminal states have no outgoing edges.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:   {PaymentStatusConfirmed, PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusExpired},
	PaymentStatusConfirmed: {PaymentStatusCompleted, PaymentStatusFailed},
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s PaymentStatus) IsTerminal() bool {
	return len(paymentTransitions[s]) == 0
}

// PaymentEventType represents payment event type
type PaymentEventType string

const (
	PaymentEventTypeCreated   PaymentEventType = "CREATED"
	PaymentEventTypeConfirmed PaymentEventType = "CONFIRMED"
	PaymentEventTypeReleased  PaymentEventType = "RELEASED"
	PaymentEventTypeCancelled PaymentEventType = "CANCELLED"
	PaymentEventTypeExpired   PaymentEventType = "EXPIRED"
	PaymentEventTypeFailed    PaymentEventType = "FAILED"
)

// YieldBreakdown is the three-way split of realized yield. The shares sum
// exactly to the gross at the smallest currency unit.
type YieldBreakdown struct {
	UserYield     string `json:"userYield"`
	MerchantYield string `json:"merchantYield"`
	ProtocolYield string `json:"protocolYield"`
}

// Payment is the central aggregate. Amounts are fixed-point decimal
// strings; escrowAddress is immutable once set; mutation happens only in
// the lifecycle manager under the per-payment lock.
type Payment struct {
	ID             string                 `json:"id"`
	PayerAddress   string                 `json:"payerAddress"`
	MerchantID     uuid.UUID              `json:"merchantId"`
	Amount         string                 `json:"amount"`
	Currency       string                 `json:"currency"`
	SourceChain    string                 `json:"sourceChain"`
	DestChain      string                 `json:"destChain"`
	Status         PaymentStatus          `json:"status"`
	EscrowAddress  null.String            `json:"escrowAddress,omitempty"`
	SourceTxHash   null.String            `json:"sourceTxHash,omitempty"`
	DestTxHash     null.String            `json:"destTxHash,omitempty"`
	YieldEnabled   bool                   `json:"yieldEnabled"`
	StrategyID     null.String            `json:"strategyId,omitempty"`
	EstimatedYield null.String            `json:"estimatedYield,omitempty"`
	ActualYield    null.String            `json:"actualYield,omitempty"`
	UserYield      null.String            `json:"userYield,omitempty"`
	MerchantYield  null.String            `json:"merchantYield,omitempty"`
	ProtocolYield  null.String            `json:"protocolYield,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	ExpiresAt      *time.Time             `json:"expiresAt,omitempty"`
	ConfirmedAt    null.Time              `json:"confirmedAt,omitempty"`
	ReleasedAt     null.Time              `json:"releasedAt,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
	DeletedAt      *time.Time             `json:"-"`

	// Joins
	Merchant *Merchant `json:"merchant,omitempty"`
}

// Breakdown returns the persisted split, or nil before release.
func (p *Payment) Breakdown() *YieldBreakdown {
	if !p.ActualYield.Valid {
		return nil
	}
	return &YieldBreakdown{
		UserYield:     p.UserYield.String,
		MerchantYield: p.MerchantYield.String,
		ProtocolYield: p.ProtocolYield.String,
	}
}

// PaymentEvent is an append-only audit log entry. Events are immutable
// once written and strictly ordered by creation time per payment.
type PaymentEvent struct {
	ID        uuid.UUID              `json:"id"`
	PaymentID string                 `json:"paymentId"`
	EventType PaymentEventType       `json:"eventType"`
	TxHash    string                 `json:"txHash,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

// CreatePaymentInput represents input for creating a payment
type CreatePaymentInput struct {
	MerchantAddress string                 `json:"merchantAddress" binding:"required"`
	Amount          string                 `json:"amount" binding:"required"`
	Currency        string                 `json:"currency" binding:"required"`
	SourceChain     string                 `json:"sourceChain" binding:"required"`
	DestChain       string                 `json:"destChain"`
	YieldEnabled    bool                   `json:"yieldEnabled"`
	StrategyID      string                 `json:"strategyId,omitempty"`
	ExpiresAt       *time.Time             `json:"expiresAt,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// ConfirmPaymentInput carries the deposit proof for confirmation.
type ConfirmPaymentInput struct {
	DepositTxHash string `json:"depositTxHash" binding:"required"`
}
