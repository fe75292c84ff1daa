package entities

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// BridgeStatus represents the bridge leg's own state machine
type BridgeStatus string

const (
	BridgeStatusPending   BridgeStatus = "PENDING"
	BridgeStatusConfirmed BridgeStatus = "CONFIRMED"
	BridgeStatusCompleted BridgeStatus = "COMPLETED"
	BridgeStatusFailed    BridgeStatus = "FAILED"
)

var bridgeTransitions = map[BridgeStatus][]BridgeStatus{
	BridgeStatusPending:   {BridgeStatusConfirmed, BridgeStatusFailed},
	BridgeStatusConfirmed: {BridgeStatusCompleted, BridgeStatusFailed},
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s BridgeStatus) CanTransitionTo(next BridgeStatus) bool {
	for _, allowed := range bridgeTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
// Hashes and fee are immutable once a leg is terminal.
func (s BridgeStatus) IsTerminal() bool {
	return len(bridgeTransitions[s]) == 0
}

// CrossChainTransaction tracks one bridge leg. A destination-side failure
// after source finality cannot be rolled back; it is compensated by a
// refund to source, recorded in RefundTxHash.
type CrossChainTransaction struct {
	ID            string       `json:"id"`
	PaymentID     null.String  `json:"paymentId,omitempty"`
	SourceChain   string       `json:"sourceChain"`
	DestChain     string       `json:"destChain"`
	Token         string       `json:"token"`
	Amount        string       `json:"amount"`
	Fee           string       `json:"fee"`
	Recipient     string       `json:"recipient"`
	Status        BridgeStatus `json:"status"`
	SourceTxHash  null.String  `json:"sourceTxHash,omitempty"`
	DestTxHash    null.String  `json:"destTxHash,omitempty"`
	RefundTxHash  null.String  `json:"refundTxHash,omitempty"`
	EscrowAddress null.String  `json:"escrowAddress,omitempty"`
	TransitYield  null.String  `json:"transitYield,omitempty"`
	FailureReason null.String  `json:"failureReason,omitempty"`
	InitiatedAt   time.Time    `json:"initiatedAt"`
	CompletedAt   null.Time    `json:"completedAt,omitempty"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// BridgeEstimate is the fee and latency quote for a chain pair.
type BridgeEstimate struct {
	Fee              string `json:"fee"`
	FeePercent       string `json:"feePercent"`
	EstimatedSeconds int    `json:"estimatedSeconds"`
}

// LiquidityCheck reports destination-side availability for an amount.
type LiquidityCheck struct {
	Available  string `json:"available"`
	Sufficient bool   `json:"sufficient"`
}

// InitiateBridgeInput represents input for initiating a bridge leg
type InitiateBridgeInput struct {
	SourceChain string `json:"sourceChain" binding:"required"`
	DestChain   string `json:"destChain" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Token       string `json:"token" binding:"required"`
	Recipient   string `json:"recipient" binding:"required"`
	PaymentID   string `json:"paymentId,omitempty"`
}
