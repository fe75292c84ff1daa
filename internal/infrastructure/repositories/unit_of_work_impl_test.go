package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/raosunjoy/YieldRails-sub009/internal/domain/entities"
	"github.com/raosunjoy/YieldRails-sub009/pkg/utils"
)

func TestUnitOfWork_CommitsOnSuccess(t *testing.T) {
	db := newTestDB(t)
	createPaymentTables(t, db)
	createMerchantTable(t, db)
	uow := NewUnitOfWork(db)
	payments := NewPaymentRepository(db)
	events := NewPaymentEventRepository(db)
	ctx := context.Background()

	id := utils.NewPaymentID()
	err := uow.Do(ctx, func(txCtx context.Context) error {
		p := &entities.Payment{
			ID: id, PayerAddress: "0xpayer", MerchantID: uuid.New(),
			Amount: "1", Currency: "USDC", SourceChain: "base", DestChain: "base",
			Status: entities.PaymentStatusPending, CreatedAt: time.Now(), UpdatedAt: time.Now(),
		}
		if err := payments.Create(txCtx, p); err != nil {
			return err
		}
		return events.Create(txCtx, &entities.PaymentEvent{
			PaymentID: id, EventType: entities.PaymentEventTypeCreated,
		})
	})
	require.NoError(t, err)

	got, err := payments.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, got.ID)

	evts, err := events.GetByPaymentID(ctx, id)
	require.NoError(t, err)
	require.Len(t, evts, 1)
}

func TestUnitOfWork_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	createPaymentTables(t, db)
	createMerchantTable(t, db)
	uow := NewUnitOfWork(db)
	payments := NewPaymentRepository(db)
	ctx := context.Background()

	boom := errors.New("boom")
	id := utils.NewPaymentID()
	err := uow.Do(ctx, func(txCtx context.Context) error {
		p := &entities.Payment{
			ID: id, PayerAddress: "0xpayer", MerchantID: uuid.New(),
			Amount: "1", Currency: "USDC", SourceChain: "base", DestChain: "base",
			Status: entities.PaymentStatusPending, CreatedAt: time.Now(), UpdatedAt: time.Now(),
		}
		if err := payments.Create(txCtx, p); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = payments.GetByID(ctx, id)
	require.Error(t, err)
}

func TestUnitOfWork_JoinsExistingTransaction(t *testing.T) {
	db := newTestDB(t)
	createMerchantTable(t, db)
	uow := NewUnitOfWork(db)
	merchants := NewMerchantRepository(db)
	ctx := context.Background()

	err := uow.Do(ctx, func(outer context.Context) error {
		return uow.Do(outer, func(inner context.Context) error {
			return merchants.Create(inner, &entities.Merchant{
				ID: uuid.New(), Address: "0xnested", DefaultCurrency: "USDC",
				Status: entities.MerchantStatusActive,
			})
		})
	})
	require.NoError(t, err)

	got, err := merchants.GetByAddress(ctx, "0xnested")
	require.NoError(t, err)
	require.Equal(t, "0xnested", got.Address)
}
