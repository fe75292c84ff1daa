package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"github.com/raosunjoy/YieldRails-sub009/internal/config"
	"github.com/raosunjoy/YieldRails-sub009/internal/domain/entities"
	domainerrors "github.com/raosunjoy/YieldRails-sub009/internal/domain/errors"
	"github.com/raosunjoy/YieldRails-sub009/internal/domain/repositories"
	"github.com/raosunjoy/YieldRails-sub009/internal/infrastructure/blockchain"
	"github.com/raosunjoy/YieldRails-sub009/pkg/logger"
	"github.com/raosunjoy/YieldRails-sub009/pkg/utils"
)

const (
	daysPerYear   = 365
	secondsPerDay = 86400
)

// YieldUsecase owns the accrual ledger and the split arithmetic. All
// money math is fixed-point decimal; floats never touch an amount.
type YieldUsecase struct {
	strategyRepo repositories.YieldStrategyRepository
	earningRepo  repositories.YieldEarningRepository
	connector    blockchain.EscrowConnector
	cfg          *config.Config
}

// NewYieldUsecase creates a new yield usecase
func NewYieldUsecase(
	strategyRepo repositories.YieldStrategyRepository,
	earningRepo repositories.YieldEarningRepository,
	connector blockchain.EscrowConnector,
	cfg *config.Config,
) *YieldUsecase {
	return &YieldUsecase{
		strategyRepo: strategyRepo,
		earningRepo:  earningRepo,
		connector:    connector,
		cfg:          cfg,
	}
}

// ValidateStrategy checks that a strategy exists, is active, and serves
// the given chain.
func (u *YieldUsecase) ValidateStrategy(ctx context.Context, strategyID, chain string) (*entities.YieldStrategy, error) {
	strategy, err := u.strategyRepo.GetByID(ctx, strategyID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.Validation("unknown yield strategy " + strategyID)
		}
		return nil, err
	}
	if !strategy.IsActive {
		return nil, domainerrors.Validation("yield strategy " + strategyID + " is not active")
	}
	if strategy.Chain != chain {
		return nil, domainerrors.Validation("yield strategy " + strategyID + " does not serve chain " + chain)
	}
	return strategy, nil
}

// ListStrategies returns the active strategy catalog, optionally scoped
// to one chain.
func (u *YieldUsecase) ListStrategies(ctx context.Context, chain string) ([]*entities.YieldStrategy, error) {
	return u.strategyRepo.ListActive(ctx, chain)
}

// OpenEarning starts the accrual window at confirmation. The split
// percentages in force now are captured on the row, so later config
// changes never rewrite an open window. Shares the caller's transaction.
func (u *YieldUsecase) OpenEarning(ctx context.Context, payment *entities.Payment) (*entities.YieldEarning, error) {
	if _, err := u.earningRepo.GetOpenByPaymentID(ctx, payment.ID); err == nil {
		return nil, domainerrors.InvalidState("payment already has an open earning")
	} else if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	strategy, err := u.ValidateStrategy(ctx, payment.StrategyID.String, payment.SourceChain)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if payment.ConfirmedAt.Valid {
		start = payment.ConfirmedAt.Time
	}
	earning := &entities.YieldEarning{
		ID:            utils.NewEarningID(),
		PaymentID:     payment.ID,
		StrategyID:    strategy.ID,
		Principal:     payment.Amount,
		SplitUser:     u.cfg.Yield.UserShare,
		SplitMerchant: u.cfg.Yield.MerchantShare,
		SplitProtocol: u.cfg.Yield.ProtocolShare,
		Status:        entities.EarningStatusActive,
		StartTime:     start,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := u.earningRepo.Create(ctx, earning); err != nil {
		return nil, err
	}
	return earning, nil
}

// CloseEarning ends the accrual window and returns the three-way
// breakdown. Gross comes from the chain when it answers, otherwise from
// the deterministic APY formula; either way the split invariant holds:
// shares sum exactly to gross at the token's smallest unit.
func (u *YieldUsecase) CloseEarning(ctx context.Context, payment *entities.Payment) (*entities.YieldEarning, *entities.YieldBreakdown, error) {
	earning, err := u.earningRepo.GetOpenByPaymentID(ctx, payment.ID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			// Yield was never enabled for this payment.
			return nil, &entities.YieldBreakdown{UserYield: "0", MerchantYield: "0", ProtocolYield: "0"}, nil
		}
		return nil, nil, err
	}

	decimals := u.tokenDecimals(payment.Currency, payment.SourceChain)
	end := time.Now()
	gross := u.grossYield(ctx, payment, earning, decimals, end)

	// Out-of-band credits (transit yield) already sit on the open row.
	if earning.GrossYield.Valid {
		credited, err := decimal.NewFromString(earning.GrossYield.String)
		if err == nil {
			gross = gross.Add(credited)
		}
	}

	breakdown, err := SplitYield(gross, decimals, earning.SplitUser, earning.SplitMerchant, earning.SplitProtocol)
	if err != nil {
		return nil, nil, err
	}

	earning.Status = entities.EarningStatusClosed
	earning.GrossYield = null.StringFrom(gross.String())
	earning.NetYield = null.StringFrom(gross.String())
	earning.EndTime = null.TimeFrom(end)
	if err := u.earningRepo.Update(ctx, earning); err != nil {
		return nil, nil, err
	}
	return earning, breakdown, nil
}

// CreditTransitYield adds in-transit accrual from a bridge leg to the
// linked payment's open earning. Without an open earning the credit is
// dropped silently: the payment never opted into yield.
func (u *YieldUsecase) CreditTransitYield(ctx context.Context, paymentID, amount string) error {
	earning, err := u.earningRepo.GetOpenByPaymentID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil
		}
		return err
	}
	credit, err := decimal.NewFromString(amount)
	if err != nil || credit.Sign() <= 0 {
		return domainerrors.Validation("invalid transit yield amount")
	}

	total := credit
	if earning.GrossYield.Valid {
		existing, err := decimal.NewFromString(earning.GrossYield.String)
		if err == nil {
			total = total.Add(existing)
		}
	}
	earning.GrossYield = null.StringFrom(total.String())
	return u.earningRepo.Update(ctx, earning)
}

// EstimateYield projects accrual for a principal over a horizon using a
// strategy's published APY.
func (u *YieldUsecase) EstimateYield(principal decimal.Decimal, apy string, horizon time.Duration, decimals int32) decimal.Decimal {
	rate, err := decimal.NewFromString(apy)
	if err != nil {
		return decimal.Zero
	}
	// Whole seconds over 86400, kept in decimal so no binary float ever
	// touches the money math.
	days := decimal.NewFromInt(int64(horizon / time.Second)).Div(decimal.NewFromInt(secondsPerDay))
	return principal.Mul(rate).Div(decimal.NewFromInt(daysPerYear)).Mul(days).Round(decimals)
}

// grossYield prefers the on-chain accrual figure and falls back to the
// formula principal * APY / 365 * daysHeld when the chain cannot answer.
func (u *YieldUsecase) grossYield(ctx context.Context, payment *entities.Payment, earning *entities.YieldEarning, decimals int32, end time.Time) decimal.Decimal {
	if payment.EscrowAddress.Valid {
		readCtx, cancel := chainCallCtx(ctx, u.cfg.Timeouts.ChainRead)
		raw, err := u.connector.CalculateYield(readCtx, payment.SourceChain, payment.EscrowAddress.String, payment.ID)
		cancel()
		if err == nil {
			return fromSmallestUnit(raw, decimals)
		}
		logger.Warn(ctx, "on-chain yield read failed, using formula",
			zap.String("payment_id", payment.ID), zap.Error(err))
	}

	principal, err := decimal.NewFromString(earning.Principal)
	if err != nil {
		return decimal.Zero
	}
	strategy, err := u.strategyRepo.GetByID(ctx, earning.StrategyID)
	if err != nil {
		return decimal.Zero
	}
	held := end.Sub(earning.StartTime)
	if held < 0 {
		held = 0
	}
	return u.EstimateYield(principal, strategy.ExpectedAPY, held, decimals)
}

func (u *YieldUsecase) tokenDecimals(symbol, chain string) int32 {
	if token, ok := u.cfg.TokenOnChain(symbol, chain); ok {
		return token.Decimals
	}
	return 18
}

// SplitYield divides gross three ways. Payer and merchant shares
// truncate at the token's smallest unit; the remainder goes to
// protocol, so the parts always sum exactly to gross.
func SplitYield(gross decimal.Decimal, decimals int32, userShare, merchantShare, protocolShare string) (*entities.YieldBreakdown, error) {
	if gross.Sign() < 0 {
		return nil, domainerrors.Validation("gross yield cannot be negative")
	}
	user, err := decimal.NewFromString(userShare)
	if err != nil {
		return nil, domainerrors.Validation("invalid user share")
	}
	merchant, err := decimal.NewFromString(merchantShare)
	if err != nil {
		return nil, domainerrors.Validation("invalid merchant share")
	}
	protocol, err := decimal.NewFromString(protocolShare)
	if err != nil {
		return nil, domainerrors.Validation("invalid protocol share")
	}
	if !user.Add(merchant).Add(protocol).Equal(decimal.NewFromInt(1)) {
		return nil, domainerrors.Validation("split percentages must sum to 1")
	}

	userCut := gross.Mul(user).RoundDown(decimals)
	merchantCut := gross.Mul(merchant).RoundDown(decimals)
	protocolCut := gross.Sub(userCut).Sub(merchantCut)

	return &entities.YieldBreakdown{
		UserYield:     userCut.String(),
		MerchantYield: merchantCut.String(),
		ProtocolYield: protocolCut.String(),
	}, nil
}
