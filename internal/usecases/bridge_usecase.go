package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"github.com/raosunjoy/YieldRails-sub009/internal/config"
	"github.com/raosunjoy/YieldRails-sub009/internal/domain/entities"
	domainerrors "github.com/raosunjoy/YieldRails-sub009/internal/domain/errors"
	"github.com/raosunjoy/YieldRails-sub009/internal/domain/repositories"
	"github.com/raosunjoy/YieldRails-sub009/internal/infrastructure/blockchain"
	"github.com/raosunjoy/YieldRails-sub009/internal/infrastructure/compliance"
	"github.com/raosunjoy/YieldRails-sub009/pkg/logger"
	"github.com/raosunjoy/YieldRails-sub009/pkg/metrics"
	"github.com/raosunjoy/YieldRails-sub009/pkg/utils"
)

// Funds in the pool keep earning while a leg is in flight; this flat
// annualized rate prices that window.
const transitAPY = "0.04"

// Static latency quotes per chain pair, seconds. Unknown pairs fall
// back to the conservative default.
var bridgeLatencySeconds = map[string]int{
	"ethereum:polygon": 1800,
	"polygon:ethereum": 3600,
	"ethereum:base":    900,
	"base:ethereum":    1800,
	"base:arbitrum":    600,
	"arbitrum:base":    600,
}

const defaultBridgeLatencySeconds = 1200

// BridgeUsecase orchestrates cross-chain legs: quote, liquidity guard,
// source lock, and the watcher-driven advance to terminal state.
type BridgeUsecase struct {
	bridgeRepo repositories.BridgeRepository
	connector  blockchain.EscrowConnector
	gate       compliance.Gate
	yield      *YieldUsecase
	cfg        *config.Config
}

// NewBridgeUsecase creates a new bridge usecase
func NewBridgeUsecase(
	bridgeRepo repositories.BridgeRepository,
	connector blockchain.EscrowConnector,
	gate compliance.Gate,
	yield *YieldUsecase,
	cfg *config.Config,
) *BridgeUsecase {
	return &BridgeUsecase{
		bridgeRepo: bridgeRepo,
		connector:  connector,
		gate:       gate,
		yield:      yield,
		cfg:        cfg,
	}
}

// Estimate quotes fee and latency for a chain pair without touching the
// chain.
func (u *BridgeUsecase) Estimate(ctx context.Context, sourceChain, destChain, tokenSymbol, amount string) (*entities.BridgeEstimate, error) {
	token, err := u.validatePair(sourceChain, destChain, tokenSymbol)
	if err != nil {
		return nil, err
	}
	value, err := parseAmount(amount, token.Decimals)
	if err != nil {
		return nil, err
	}

	feePercent, err := decimal.NewFromString(u.cfg.Bridge.FeePercent)
	if err != nil {
		return nil, domainerrors.InternalError(fmt.Errorf("bad bridge fee configuration: %w", err))
	}
	fee := value.Mul(feePercent).Div(decimal.NewFromInt(100)).Round(token.Decimals)

	seconds, ok := bridgeLatencySeconds[sourceChain+":"+destChain]
	if !ok {
		seconds = defaultBridgeLatencySeconds
	}
	return &entities.BridgeEstimate{
		Fee:              fee.String(),
		FeePercent:       feePercent.String(),
		EstimatedSeconds: seconds,
	}, nil
}

// CheckLiquidity reports whether the destination pool can cover an amount.
func (u *BridgeUsecase) CheckLiquidity(ctx context.Context, destChain, tokenSymbol, amount string) (*entities.LiquidityCheck, error) {
	token, ok := u.cfg.TokenOnChain(tokenSymbol, destChain)
	if !ok {
		return nil, domainerrors.Validation(fmt.Sprintf("token %s is not supported on %s", tokenSymbol, destChain))
	}
	value, err := parseAmount(amount, token.Decimals)
	if err != nil {
		return nil, err
	}

	tokenAddr, _ := token.AddressOn(destChain)
	readCtx, cancel := chainCallCtx(ctx, u.cfg.Timeouts.ChainRead)
	raw, err := u.connector.PoolBalance(readCtx, destChain, tokenAddr)
	cancel()
	if err != nil {
		return nil, settlementError("destination pool read failed", err)
	}
	available := fromSmallestUnit(raw, token.Decimals)
	return &entities.LiquidityCheck{
		Available:  available.String(),
		Sufficient: available.GreaterThanOrEqual(value),
	}, nil
}

// Initiate locks funds on the source chain and persists the PENDING
// leg. The watcher advances it from there.
func (u *BridgeUsecase) Initiate(ctx context.Context, input *entities.InitiateBridgeInput) (*entities.CrossChainTransaction, error) {
	token, err := u.validatePair(input.SourceChain, input.DestChain, input.Token)
	if err != nil {
		return nil, err
	}
	value, err := parseAmount(input.Amount, token.Decimals)
	if err != nil {
		return nil, err
	}
	if err := u.gate.Check(ctx, input.Recipient); err != nil {
		return nil, err
	}

	liquidity, err := u.CheckLiquidity(ctx, input.DestChain, input.Token, input.Amount)
	if err != nil {
		return nil, err
	}
	if !liquidity.Sufficient {
		return nil, domainerrors.InsufficientFunds(
			fmt.Sprintf("destination pool holds %s %s, need %s", liquidity.Available, token.Symbol, value.String()))
	}

	estimate, err := u.Estimate(ctx, input.SourceChain, input.DestChain, input.Token, input.Amount)
	if err != nil {
		return nil, err
	}

	leg := &entities.CrossChainTransaction{
		ID:          utils.NewBridgeID(),
		SourceChain: input.SourceChain,
		DestChain:   input.DestChain,
		Token:       token.Symbol,
		Amount:      value.String(),
		Fee:         estimate.Fee,
		Recipient:   input.Recipient,
		Status:      entities.BridgeStatusPending,
		InitiatedAt: time.Now(),
		UpdatedAt:   time.Now(),
	}
	if input.PaymentID != "" {
		leg.PaymentID = null.StringFrom(input.PaymentID)
	}

	sourceToken, _ := token.AddressOn(input.SourceChain)
	writeCtx, cancel := chainCallCtx(ctx, u.cfg.Timeouts.ChainWrite)
	txHash, err := u.connector.BridgeLock(writeCtx, input.SourceChain, sourceToken,
		toSmallestUnit(value, token.Decimals), input.Recipient, input.DestChain, leg.ID)
	cancel()
	if err != nil {
		metrics.SettlementFailures.WithLabelValues("bridge_lock").Inc()
		return nil, domainerrors.BridgeFailure("source chain lock failed", err)
	}
	leg.SourceTxHash = null.StringFrom(txHash)

	if err := u.bridgeRepo.Create(ctx, leg); err != nil {
		return nil, err
	}
	metrics.BridgeLegs.WithLabelValues(string(entities.BridgeStatusPending)).Inc()
	logger.Info(ctx, "bridge leg initiated",
		zap.String("bridge_id", leg.ID),
		zap.String("source_chain", leg.SourceChain),
		zap.String("dest_chain", leg.DestChain),
		zap.String("amount", leg.Amount))
	return leg, nil
}

// GetBridge returns one leg by id.
func (u *BridgeUsecase) GetBridge(ctx context.Context, id string) (*entities.CrossChainTransaction, error) {
	leg, err := u.bridgeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("bridge transaction " + id + " not found")
		}
		return nil, err
	}
	return leg, nil
}

// ListBridges pages all legs, newest first.
func (u *BridgeUsecase) ListBridges(ctx context.Context, limit, offset int) ([]*entities.CrossChainTransaction, int, error) {
	return u.bridgeRepo.List(ctx, limit, offset)
}

// AdvancePending checks PENDING legs for source finality. A failed lock
// means funds never moved, so the leg fails without a refund.
func (u *BridgeUsecase) AdvancePending(ctx context.Context, limit int) error {
	legs, err := u.bridgeRepo.ListByStatus(ctx, entities.BridgeStatusPending, limit)
	if err != nil {
		return err
	}
	for _, leg := range legs {
		readCtx, cancel := chainCallCtx(ctx, u.cfg.Timeouts.ChainRead)
		status, err := u.connector.TransactionStatus(readCtx, leg.SourceChain, leg.SourceTxHash.String)
		cancel()
		if err != nil {
			logger.Warn(ctx, "bridge source status check failed", zap.String("bridge_id", leg.ID), zap.Error(err))
			continue
		}
		switch status {
		case blockchain.TxStatusConfirmed:
			u.transition(ctx, leg, entities.BridgeStatusConfirmed, "")
		case blockchain.TxStatusFailed:
			leg.FailureReason = null.StringFrom("source lock transaction reverted")
			u.transition(ctx, leg, entities.BridgeStatusFailed, "")
		}
	}
	return nil
}

// AdvanceConfirmed drives CONFIRMED legs to their terminal state:
// broadcast the destination release, then wait for its finality. A
// destination failure after source finality cannot roll back, so it is
// compensated by a refund to source.
func (u *BridgeUsecase) AdvanceConfirmed(ctx context.Context, limit int) error {
	legs, err := u.bridgeRepo.ListByStatus(ctx, entities.BridgeStatusConfirmed, limit)
	if err != nil {
		return err
	}
	for _, leg := range legs {
		if !leg.DestTxHash.Valid {
			u.broadcastDestRelease(ctx, leg)
			continue
		}

		readCtx, cancel := chainCallCtx(ctx, u.cfg.Timeouts.ChainRead)
		status, err := u.connector.TransactionStatus(readCtx, leg.DestChain, leg.DestTxHash.String)
		cancel()
		if err != nil {
			logger.Warn(ctx, "bridge dest status check failed", zap.String("bridge_id", leg.ID), zap.Error(err))
			continue
		}
		switch status {
		case blockchain.TxStatusConfirmed:
			u.completeLeg(ctx, leg)
		case blockchain.TxStatusFailed:
			u.refundLeg(ctx, leg, "destination release reverted")
		}
	}
	return nil
}

func (u *BridgeUsecase) broadcastDestRelease(ctx context.Context, leg *entities.CrossChainTransaction) {
	token, ok := u.cfg.TokenOnChain(leg.Token, leg.DestChain)
	if !ok {
		u.refundLeg(ctx, leg, "token no longer deployed on destination")
		return
	}
	amount, err := decimal.NewFromString(leg.Amount)
	if err != nil {
		u.refundLeg(ctx, leg, "corrupt leg amount")
		return
	}
	fee, _ := decimal.NewFromString(leg.Fee)
	payout := amount.Sub(fee)

	destToken, _ := token.AddressOn(leg.DestChain)
	writeCtx, cancel := chainCallCtx(ctx, u.cfg.Timeouts.ChainWrite)
	txHash, err := u.connector.BridgeRelease(writeCtx, leg.DestChain, destToken,
		toSmallestUnit(payout, token.Decimals), leg.Recipient, leg.ID)
	cancel()
	if err != nil {
		// Broadcast failures are retried next sweep; only a mined
		// failure triggers the refund path.
		metrics.SettlementFailures.WithLabelValues("bridge_release").Inc()
		logger.Warn(ctx, "bridge dest release broadcast failed", zap.String("bridge_id", leg.ID), zap.Error(err))
		return
	}
	leg.DestTxHash = null.StringFrom(txHash)
	if err := u.bridgeRepo.Update(ctx, leg); err != nil {
		logger.Error(ctx, "bridge leg update failed", zap.String("bridge_id", leg.ID), zap.Error(err))
	}
}

func (u *BridgeUsecase) completeLeg(ctx context.Context, leg *entities.CrossChainTransaction) {
	transit := u.transitYield(leg)
	if transit.Sign() > 0 {
		leg.TransitYield = null.StringFrom(transit.String())
		if leg.PaymentID.Valid {
			if err := u.yield.CreditTransitYield(ctx, leg.PaymentID.String, transit.String()); err != nil {
				logger.Warn(ctx, "transit yield credit failed", zap.String("bridge_id", leg.ID), zap.Error(err))
			}
		}
	}
	leg.CompletedAt = null.TimeFrom(time.Now())
	u.transition(ctx, leg, entities.BridgeStatusCompleted, "")
}

func (u *BridgeUsecase) refundLeg(ctx context.Context, leg *entities.CrossChainTransaction, reason string) {
	token, ok := u.cfg.TokenOnChain(leg.Token, leg.SourceChain)
	if ok {
		amount, err := decimal.NewFromString(leg.Amount)
		if err == nil {
			sourceToken, _ := token.AddressOn(leg.SourceChain)
			writeCtx, cancel := chainCallCtx(ctx, u.cfg.Timeouts.ChainWrite)
			refundTx, err := u.connector.BridgeRefund(writeCtx, leg.SourceChain, sourceToken,
				toSmallestUnit(amount, token.Decimals), leg.Recipient, leg.ID)
			cancel()
			if err != nil {
				metrics.SettlementFailures.WithLabelValues("bridge_refund").Inc()
				logger.Error(ctx, "bridge refund broadcast failed; will retry", zap.String("bridge_id", leg.ID), zap.Error(err))
				return
			}
			leg.RefundTxHash = null.StringFrom(refundTx)
		}
	}
	leg.FailureReason = null.StringFrom(reason)
	u.transition(ctx, leg, entities.BridgeStatusFailed, reason)
}

func (u *BridgeUsecase) transition(ctx context.Context, leg *entities.CrossChainTransaction, target entities.BridgeStatus, reason string) {
	if !leg.Status.CanTransitionTo(target) {
		return
	}
	leg.Status = target
	if err := u.bridgeRepo.Update(ctx, leg); err != nil {
		logger.Error(ctx, "bridge leg update failed",
			zap.String("bridge_id", leg.ID),
			zap.String("target", string(target)),
			zap.Error(err))
		return
	}
	metrics.BridgeLegs.WithLabelValues(string(target)).Inc()
	logger.Info(ctx, "bridge leg advanced",
		zap.String("bridge_id", leg.ID),
		zap.String("status", string(target)),
		zap.String("reason", reason))
}

// transitYield prices the in-flight window at the flat transit APY.
func (u *BridgeUsecase) transitYield(leg *entities.CrossChainTransaction) decimal.Decimal {
	amount, err := decimal.NewFromString(leg.Amount)
	if err != nil {
		return decimal.Zero
	}
	rate, _ := decimal.NewFromString(transitAPY)
	held := time.Since(leg.InitiatedAt)
	if held <= 0 {
		return decimal.Zero
	}
	token, ok := u.cfg.TokenOnChain(leg.Token, leg.SourceChain)
	decimals := int32(18)
	if ok {
		decimals = token.Decimals
	}
	days := decimal.NewFromInt(int64(held / time.Second)).Div(decimal.NewFromInt(secondsPerDay))
	return amount.Mul(rate).Div(decimal.NewFromInt(daysPerYear)).Mul(days).RoundDown(decimals)
}

func (u *BridgeUsecase) validatePair(sourceChain, destChain, tokenSymbol string) (config.TokenConfig, error) {
	if sourceChain == destChain {
		return config.TokenConfig{}, domainerrors.Validation("source and destination chains must differ")
	}
	if _, ok := u.cfg.Chains[sourceChain]; !ok {
		return config.TokenConfig{}, domainerrors.Validation("unsupported source chain " + sourceChain)
	}
	if _, ok := u.cfg.Chains[destChain]; !ok {
		return config.TokenConfig{}, domainerrors.Validation("unsupported destination chain " + destChain)
	}
	token, ok := u.cfg.TokenOnChain(tokenSymbol, sourceChain)
	if !ok {
		return config.TokenConfig{}, domainerrors.Validation(fmt.Sprintf("token %s is not supported on %s", tokenSymbol, sourceChain))
	}
	if _, ok := u.cfg.TokenOnChain(tokenSymbol, destChain); !ok {
		return config.TokenConfig{}, domainerrors.Validation(fmt.Sprintf("token %s is not supported on %s", tokenSymbol, destChain))
	}
	return token, nil
}
