package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/google/uuid"
	"github.com/raosunjoy/YieldRails-sub009/internal/domain/entities"
)

type mockPaymentRepo struct {
	mock.Mock
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *entities.Payment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *mockPaymentRepo) GetByID(ctx context.Context, id string) (*entities.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Payment), args.Error(1)
}

func (m *mockPaymentRepo) Update(ctx context.Context, payment *entities.Payment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *mockPaymentRepo) GetByMerchantID(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]*entities.Payment, int, error) {
	args := m.Called(ctx, merchantID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.Payment), args.Int(1), args.Error(2)
}

func (m *mockPaymentRepo) List(ctx context.Context, limit, offset int) ([]*entities.Payment, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.Payment), args.Int(1), args.Error(2)
}

func (m *mockPaymentRepo) GetExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*entities.Payment, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Payment), args.Error(1)
}

type mockExpirer struct {
	mock.Mock
}

func (m *mockExpirer) ExpirePayment(ctx context.Context, id string) (*entities.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Payment), args.Error(1)
}

type mockAdvancer struct {
	mock.Mock
}

func (m *mockAdvancer) AdvancePending(ctx context.Context, limit int) error {
	return m.Called(ctx, limit).Error(0)
}

func (m *mockAdvancer) AdvanceConfirmed(ctx context.Context, limit int) error {
	return m.Called(ctx, limit).Error(0)
}

func TestPaymentExpirySweep(t *testing.T) {
	ctx := context.Background()

	t.Run("expires each overdue payment", func(t *testing.T) {
		repo := new(mockPaymentRepo)
		expirer := new(mockExpirer)
		job := NewPaymentExpiryJob(repo, expirer)

		overdue := []*entities.Payment{
			{ID: "pay_1", Status: entities.PaymentStatusPending},
			{ID: "pay_2", Status: entities.PaymentStatusPending},
		}
		repo.On("GetExpiredPending", mock.Anything, mock.Anything, 100).Return(overdue, nil)
		expirer.On("ExpirePayment", mock.Anything, "pay_1").
			Return(&entities.Payment{ID: "pay_1", Status: entities.PaymentStatusExpired}, nil)
		expirer.On("ExpirePayment", mock.Anything, "pay_2").
			Return(&entities.Payment{ID: "pay_2", Status: entities.PaymentStatusExpired}, nil)

		job.sweep(ctx)
		expirer.AssertExpectations(t)
	})

	t.Run("one failure does not stall the batch", func(t *testing.T) {
		repo := new(mockPaymentRepo)
		expirer := new(mockExpirer)
		job := NewPaymentExpiryJob(repo, expirer)

		overdue := []*entities.Payment{
			{ID: "pay_1", Status: entities.PaymentStatusPending},
			{ID: "pay_2", Status: entities.PaymentStatusPending},
		}
		repo.On("GetExpiredPending", mock.Anything, mock.Anything, 100).Return(overdue, nil)
		expirer.On("ExpirePayment", mock.Anything, "pay_1").Return(nil, errors.New("lock contention"))
		expirer.On("ExpirePayment", mock.Anything, "pay_2").
			Return(&entities.Payment{ID: "pay_2", Status: entities.PaymentStatusExpired}, nil)

		job.sweep(ctx)
		expirer.AssertCalled(t, "ExpirePayment", mock.Anything, "pay_2")
	})

	t.Run("fetch failure skips the sweep", func(t *testing.T) {
		repo := new(mockPaymentRepo)
		expirer := new(mockExpirer)
		job := NewPaymentExpiryJob(repo, expirer)

		repo.On("GetExpiredPending", mock.Anything, mock.Anything, 100).Return(nil, errors.New("db down"))

		job.sweep(ctx)
		expirer.AssertNotCalled(t, "ExpirePayment", mock.Anything, mock.Anything)
	})
}

func TestPaymentExpiryStop(t *testing.T) {
	repo := new(mockPaymentRepo)
	expirer := new(mockExpirer)
	job := NewPaymentExpiryJob(repo, expirer)
	job.interval = time.Hour // never ticks during the test

	done := make(chan struct{})
	go func() {
		job.Start(context.Background())
		close(done)
	}()

	job.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not stop")
	}
}

func TestBridgeWatcherSweep(t *testing.T) {
	advancer := new(mockAdvancer)
	job := NewBridgeWatcherJob(advancer)

	advancer.On("AdvancePending", mock.Anything, 50).Return(nil).Once()
	advancer.On("AdvanceConfirmed", mock.Anything, 50).Return(nil).Once()

	job.sweep(context.Background())
	advancer.AssertExpectations(t)

	// A pending-sweep failure still runs the confirmed sweep.
	advancer.On("AdvancePending", mock.Anything, 50).Return(errors.New("rpc down")).Once()
	advancer.On("AdvanceConfirmed", mock.Anything, 50).Return(nil).Once()
	job.sweep(context.Background())
	advancer.AssertExpectations(t)
}

func TestBridgeWatcherStopsOnContextCancel(t *testing.T) {
	advancer := new(mockAdvancer)
	job := NewBridgeWatcherJob(advancer)
	job.interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}

	require.NotNil(t, job.stop)
	assert.Equal(t, 50, job.batchSize)
}
