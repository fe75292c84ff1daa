package utils

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// Entity id prefixes. Ids are prefixed hex-encoded UUIDv7s: opaque,
// format-stable and time-sortable.
const (
	PaymentIDPrefix = "pay"
	BridgeIDPrefix  = "brg"
	EarningIDPrefix = "ern"
)

// GenerateUUIDv7 generates a new UUID v7
func GenerateUUIDv7() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails (highly unlikely)
		return uuid.New()
	}
	return id
}

// NewID returns a prefixed opaque id, e.g. "pay_0190f4a2…".
func NewID(prefix string) string {
	id := GenerateUUIDv7()
	return prefix + "_" + hex.EncodeToString(id[:])
}

// NewPaymentID returns a fresh payment id.
func NewPaymentID() string { return NewID(PaymentIDPrefix) }

// NewBridgeID returns a fresh cross-chain transaction id.
func NewBridgeID() string { return NewID(BridgeIDPrefix) }

// NewEarningID returns a fresh yield earning id.
func NewEarningID() string { return NewID(EarningIDPrefix) }
