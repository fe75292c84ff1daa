package blockchain

import (
	"context"
	"math/big"
)

// TxStatus is the observed state of a broadcast transaction.
type TxStatus string

const (
	TxStatusPending   TxStatus = "pending"
	TxStatusConfirmed TxStatus = "confirmed"
	TxStatusFailed    TxStatus = "failed"
	TxStatusNotFound  TxStatus = "not_found"
)

// Deposit is the on-chain escrow record for a payment.
type Deposit struct {
	Payer        string
	Amount       *big.Int
	YieldAccrued *big.Int
	Released     bool
	DepositedAt  uint64
}

// EscrowEvent is a decoded escrow log delivered to subscribers.
type EscrowEvent struct {
	Chain       string
	Escrow      string
	PaymentHash string
	Kind        EscrowEventKind
	TxHash      string
	Block       uint64
}

// EscrowEventKind discriminates escrow log topics.
type EscrowEventKind string

const (
	EscrowEventDeposited EscrowEventKind = "Deposited"
	EscrowEventReleased  EscrowEventKind = "Released"
	EscrowEventWithdrawn EscrowEventKind = "Withdrawn"
)

// EventHandler receives escrow events from the poll loop.
type EventHandler func(EscrowEvent)

// EscrowConnector is the settlement boundary. Writes broadcast a signed
// transaction and return its hash immediately; callers poll
// TransactionStatus for finality. All amounts are in the token's
// smallest unit.
type EscrowConnector interface {
	// CreateEscrow deploys the deterministic escrow for a payment and
	// returns its predicted address together with the deploy tx hash.
	CreateEscrow(ctx context.Context, chain, paymentID, token string, amount *big.Int, payer, merchant string) (escrow string, txHash string, err error)

	// ReleaseEscrow pays out principal plus split yield to the parties.
	ReleaseEscrow(ctx context.Context, chain, escrow, paymentID string) (txHash string, err error)

	// EmergencyWithdraw returns the full balance to the payer.
	EmergencyWithdraw(ctx context.Context, chain, escrow, paymentID string) (txHash string, err error)

	// GetDeposit reads the escrow record; nil Amount means no deposit
	// has landed yet.
	GetDeposit(ctx context.Context, chain, escrow, paymentID string) (*Deposit, error)

	// CalculateYield reads the accrued yield for a payment's deposit.
	CalculateYield(ctx context.Context, chain, escrow, paymentID string) (*big.Int, error)

	// EstimateGas estimates gas for arbitrary calldata against a contract.
	EstimateGas(ctx context.Context, chain, to string, data []byte) (uint64, error)

	// TransactionStatus reports broadcast/finality state honoring the
	// chain's configured confirmation depth.
	TransactionStatus(ctx context.Context, chain, txHash string) (TxStatus, error)

	// PoolBalance reads the bridge pool's balance of a token.
	PoolBalance(ctx context.Context, chain, token string) (*big.Int, error)

	// BridgeLock locks funds in the source-chain pool for a bridge leg.
	BridgeLock(ctx context.Context, chain, token string, amount *big.Int, recipient, destChain, bridgeID string) (txHash string, err error)

	// BridgeRelease pays out from the destination-chain pool.
	BridgeRelease(ctx context.Context, chain, token string, amount *big.Int, recipient, bridgeID string) (txHash string, err error)

	// BridgeRefund returns locked funds on the source chain after a
	// destination-side failure.
	BridgeRefund(ctx context.Context, chain, token string, amount *big.Int, recipient, bridgeID string) (txHash string, err error)

	// SubscribeEscrowEvents registers a poll-based listener for a chain
	// and returns its subscription id.
	SubscribeEscrowEvents(chain string, handler EventHandler) string

	// RemoveListeners drops a subscription by id.
	RemoveListeners(id string)
}
