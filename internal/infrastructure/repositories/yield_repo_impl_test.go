package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"github.com/raosunjoy/YieldRails-sub009/internal/domain/entities"
	domainerrors "github.com/raosunjoy/YieldRails-sub009/internal/domain/errors"
	"github.com/raosunjoy/YieldRails-sub009/pkg/utils"
)

func TestYieldStrategyRepository_UpsertAndList(t *testing.T) {
	db := newTestDB(t)
	createYieldTables(t, db)
	repo := NewYieldStrategyRepository(db)
	ctx := context.Background()

	s := &entities.YieldStrategy{
		ID:          "noble-tbill",
		Name:        "Noble T-Bill",
		Chain:       "base",
		ExpectedAPY: "0.045",
		RiskTier:    entities.RiskTierLow,
		IsActive:    true,
	}
	require.NoError(t, repo.Upsert(ctx, s))

	got, err := repo.GetByID(ctx, "noble-tbill")
	require.NoError(t, err)
	require.Equal(t, "0.045", got.ExpectedAPY)

	// Upsert with same ID replaces fields.
	s.ExpectedAPY = "0.06"
	s.IsActive = false
	require.NoError(t, repo.Upsert(ctx, s))

	got, err = repo.GetByID(ctx, "noble-tbill")
	require.NoError(t, err)
	require.Equal(t, "0.06", got.ExpectedAPY)
	require.False(t, got.IsActive)

	active := &entities.YieldStrategy{ID: "aave-usdc", Name: "Aave USDC", Chain: "arbitrum", ExpectedAPY: "0.038", RiskTier: entities.RiskTierMedium, IsActive: true}
	require.NoError(t, repo.Upsert(ctx, active))

	all, err := repo.ListActive(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "aave-usdc", all[0].ID)

	none, err := repo.ListActive(ctx, "base")
	require.NoError(t, err)
	require.Empty(t, none)

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestYieldEarningRepository_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	createYieldTables(t, db)
	repo := NewYieldEarningRepository(db)
	ctx := context.Background()

	paymentID := utils.NewPaymentID()
	e := &entities.YieldEarning{
		ID:            utils.NewEarningID(),
		PaymentID:     paymentID,
		StrategyID:    "noble-tbill",
		Principal:     "100.00",
		SplitUser:     "0.70",
		SplitMerchant: "0.20",
		SplitProtocol: "0.10",
		Status:        entities.EarningStatusActive,
		StartTime:     time.Now().Add(-30 * 24 * time.Hour),
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	require.NoError(t, repo.Create(ctx, e))

	open, err := repo.GetOpenByPaymentID(ctx, paymentID)
	require.NoError(t, err)
	require.Equal(t, e.ID, open.ID)
	require.Equal(t, "0.70", open.SplitUser)

	open.Status = entities.EarningStatusClosed
	open.GrossYield = null.StringFrom("0.4932")
	open.NetYield = null.StringFrom("0.4932")
	open.EndTime = null.TimeFrom(time.Now())
	require.NoError(t, repo.Update(ctx, open))

	_, err = repo.GetOpenByPaymentID(ctx, paymentID)
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	lines, err := repo.GetByPaymentID(ctx, paymentID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, entities.EarningStatusClosed, lines[0].Status)
	require.Equal(t, "0.4932", lines[0].GrossYield.String)
}

func TestYieldEarningRepository_UpdateMissing(t *testing.T) {
	db := newTestDB(t)
	createYieldTables(t, db)
	repo := NewYieldEarningRepository(db)
	ctx := context.Background()

	missing := &entities.YieldEarning{
		ID: utils.NewEarningID(), PaymentID: utils.NewPaymentID(), StrategyID: "s",
		Principal: "1", SplitUser: "0.70", SplitMerchant: "0.20", SplitProtocol: "0.10",
		Status: entities.EarningStatusActive,
	}
	require.ErrorIs(t, repo.Update(ctx, missing), domainerrors.ErrNotFound)
}
