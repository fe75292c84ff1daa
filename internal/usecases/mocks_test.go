package usecases_test

import (
	"context"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/raosunjoy/YieldRails-sub009/internal/domain/entities"
	"github.com/raosunjoy/YieldRails-sub009/internal/infrastructure/blockchain"
	"github.com/raosunjoy/YieldRails-sub009/internal/infrastructure/webhook"
)

// Mock UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

// Do runs the function and then returns the mocked error, so a test
// can simulate a commit that fails after every write inside succeeded.
func (m *MockUnitOfWork) Do(ctx context.Context, f func(context.Context) error) error {
	args := m.Called(ctx, f)
	if err := f(ctx); err != nil {
		return err
	}
	return args.Error(0)
}

// Mock PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *entities.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*entities.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Update(ctx context.Context, payment *entities.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByMerchantID(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]*entities.Payment, int, error) {
	args := m.Called(ctx, merchantID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.Payment), args.Int(1), args.Error(2)
}

func (m *MockPaymentRepository) List(ctx context.Context, limit, offset int) ([]*entities.Payment, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.Payment), args.Int(1), args.Error(2)
}

func (m *MockPaymentRepository) GetExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*entities.Payment, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Payment), args.Error(1)
}

// Mock MerchantRepository
type MockMerchantRepository struct {
	mock.Mock
}

func (m *MockMerchantRepository) Create(ctx context.Context, merchant *entities.Merchant) error {
	args := m.Called(ctx, merchant)
	return args.Error(0)
}

func (m *MockMerchantRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Merchant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Merchant), args.Error(1)
}

func (m *MockMerchantRepository) GetByAddress(ctx context.Context, address string) (*entities.Merchant, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Merchant), args.Error(1)
}

func (m *MockMerchantRepository) Update(ctx context.Context, merchant *entities.Merchant) error {
	args := m.Called(ctx, merchant)
	return args.Error(0)
}

// Mock PaymentEventRepository
type MockPaymentEventRepository struct {
	mock.Mock
}

func (m *MockPaymentEventRepository) Create(ctx context.Context, event *entities.PaymentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPaymentEventRepository) GetByPaymentID(ctx context.Context, paymentID string) ([]*entities.PaymentEvent, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PaymentEvent), args.Error(1)
}

func (m *MockPaymentEventRepository) CountByType(ctx context.Context, paymentID string, eventType entities.PaymentEventType) (int64, error) {
	args := m.Called(ctx, paymentID, eventType)
	return args.Get(0).(int64), args.Error(1)
}

// Mock YieldStrategyRepository
type MockYieldStrategyRepository struct {
	mock.Mock
}

func (m *MockYieldStrategyRepository) GetByID(ctx context.Context, id string) (*entities.YieldStrategy, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.YieldStrategy), args.Error(1)
}

func (m *MockYieldStrategyRepository) ListActive(ctx context.Context, chain string) ([]*entities.YieldStrategy, error) {
	args := m.Called(ctx, chain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.YieldStrategy), args.Error(1)
}

func (m *MockYieldStrategyRepository) Upsert(ctx context.Context, strategy *entities.YieldStrategy) error {
	args := m.Called(ctx, strategy)
	return args.Error(0)
}

// Mock YieldEarningRepository
type MockYieldEarningRepository struct {
	mock.Mock
}

func (m *MockYieldEarningRepository) Create(ctx context.Context, earning *entities.YieldEarning) error {
	args := m.Called(ctx, earning)
	return args.Error(0)
}

func (m *MockYieldEarningRepository) GetOpenByPaymentID(ctx context.Context, paymentID string) (*entities.YieldEarning, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.YieldEarning), args.Error(1)
}

func (m *MockYieldEarningRepository) Update(ctx context.Context, earning *entities.YieldEarning) error {
	args := m.Called(ctx, earning)
	return args.Error(0)
}

func (m *MockYieldEarningRepository) GetByPaymentID(ctx context.Context, paymentID string) ([]*entities.YieldEarning, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.YieldEarning), args.Error(1)
}

// Mock BridgeRepository
type MockBridgeRepository struct {
	mock.Mock
}

func (m *MockBridgeRepository) Create(ctx context.Context, tx *entities.CrossChainTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockBridgeRepository) GetByID(ctx context.Context, id string) (*entities.CrossChainTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CrossChainTransaction), args.Error(1)
}

func (m *MockBridgeRepository) Update(ctx context.Context, tx *entities.CrossChainTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockBridgeRepository) ListByStatus(ctx context.Context, status entities.BridgeStatus, limit int) ([]*entities.CrossChainTransaction, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.CrossChainTransaction), args.Error(1)
}

func (m *MockBridgeRepository) GetByPaymentID(ctx context.Context, paymentID string) ([]*entities.CrossChainTransaction, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.CrossChainTransaction), args.Error(1)
}

func (m *MockBridgeRepository) List(ctx context.Context, limit, offset int) ([]*entities.CrossChainTransaction, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.CrossChainTransaction), args.Int(1), args.Error(2)
}

// Mock EscrowConnector
type MockConnector struct {
	mock.Mock
}

func (m *MockConnector) CreateEscrow(ctx context.Context, chain, paymentID, token string, amount *big.Int, payer, merchant string) (string, string, error) {
	args := m.Called(ctx, chain, paymentID, token, amount, payer, merchant)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockConnector) ReleaseEscrow(ctx context.Context, chain, escrow, paymentID string) (string, error) {
	args := m.Called(ctx, chain, escrow, paymentID)
	return args.String(0), args.Error(1)
}

func (m *MockConnector) EmergencyWithdraw(ctx context.Context, chain, escrow, paymentID string) (string, error) {
	args := m.Called(ctx, chain, escrow, paymentID)
	return args.String(0), args.Error(1)
}

func (m *MockConnector) GetDeposit(ctx context.Context, chain, escrow, paymentID string) (*blockchain.Deposit, error) {
	args := m.Called(ctx, chain, escrow, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blockchain.Deposit), args.Error(1)
}

func (m *MockConnector) CalculateYield(ctx context.Context, chain, escrow, paymentID string) (*big.Int, error) {
	args := m.Called(ctx, chain, escrow, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockConnector) EstimateGas(ctx context.Context, chain, to string, data []byte) (uint64, error) {
	args := m.Called(ctx, chain, to, data)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockConnector) TransactionStatus(ctx context.Context, chain, txHash string) (blockchain.TxStatus, error) {
	args := m.Called(ctx, chain, txHash)
	return args.Get(0).(blockchain.TxStatus), args.Error(1)
}

func (m *MockConnector) PoolBalance(ctx context.Context, chain, token string) (*big.Int, error) {
	args := m.Called(ctx, chain, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockConnector) BridgeLock(ctx context.Context, chain, token string, amount *big.Int, recipient, destChain, bridgeID string) (string, error) {
	args := m.Called(ctx, chain, token, amount, recipient, destChain, bridgeID)
	return args.String(0), args.Error(1)
}

func (m *MockConnector) BridgeRelease(ctx context.Context, chain, token string, amount *big.Int, recipient, bridgeID string) (string, error) {
	args := m.Called(ctx, chain, token, amount, recipient, bridgeID)
	return args.String(0), args.Error(1)
}

func (m *MockConnector) BridgeRefund(ctx context.Context, chain, token string, amount *big.Int, recipient, bridgeID string) (string, error) {
	args := m.Called(ctx, chain, token, amount, recipient, bridgeID)
	return args.String(0), args.Error(1)
}

func (m *MockConnector) SubscribeEscrowEvents(chain string, handler blockchain.EventHandler) string {
	args := m.Called(chain, handler)
	return args.String(0)
}

func (m *MockConnector) RemoveListeners(id string) {
	m.Called(id)
}

// Mock compliance gate
type MockGate struct {
	mock.Mock
}

func (m *MockGate) Check(ctx context.Context, addresses ...string) error {
	args := m.Called(ctx, addresses)
	return args.Error(0)
}

// Mock webhook sender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, payload webhook.Payload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}
