package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
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
	"github.com/raosunjoy/YieldRails-sub009/pkg/redis"
	"github.com/raosunjoy/YieldRails-sub009/pkg/utils"
)

const (
	defaultPaymentExpiry = 30 * time.Minute
	defaultYieldHorizon  = 30 * 24 * time.Hour
)

func paymentLockKey(id string) string  { return "lock:payment:" + id }
func paymentCacheKey(id string) string { return "payment:" + id }

// PaymentUsecase drives the payment state machine. Every mutation takes
// the per-payment redis lock, observes the chain before persisting, and
// runs its writes inside one UnitOfWork transaction.
type PaymentUsecase struct {
	paymentRepo  repositories.PaymentRepository
	merchantRepo repositories.MerchantRepository
	uow          repositories.UnitOfWork
	cache        *redis.Client
	connector    blockchain.EscrowConnector
	gate         compliance.Gate
	publisher    *EventPublisher
	yield        *YieldUsecase
	cfg          *config.Config
}

// NewPaymentUsecase creates a new payment usecase
func NewPaymentUsecase(
	paymentRepo repositories.PaymentRepository,
	merchantRepo repositories.MerchantRepository,
	uow repositories.UnitOfWork,
	cache *redis.Client,
	connector blockchain.EscrowConnector,
	gate compliance.Gate,
	publisher *EventPublisher,
	yield *YieldUsecase,
	cfg *config.Config,
) *PaymentUsecase {
	return &PaymentUsecase{
		paymentRepo:  paymentRepo,
		merchantRepo: merchantRepo,
		uow:          uow,
		cache:        cache,
		connector:    connector,
		gate:         gate,
		publisher:    publisher,
		yield:        yield,
		cfg:          cfg,
	}
}

// CreatePayment validates the request, screens the parties, deploys the
// deterministic escrow, and persists the PENDING record.
func (u *PaymentUsecase) CreatePayment(ctx context.Context, payerAddress string, input *entities.CreatePaymentInput) (*entities.Payment, error) {
	sourceChain := input.SourceChain
	destChain := input.DestChain
	if destChain == "" {
		destChain = sourceChain
	}
	if _, ok := u.cfg.Chains[sourceChain]; !ok {
		return nil, domainerrors.Validation("unsupported source chain " + sourceChain)
	}
	if _, ok := u.cfg.Chains[destChain]; !ok {
		return nil, domainerrors.Validation("unsupported destination chain " + destChain)
	}
	token, ok := u.cfg.TokenOnChain(input.Currency, sourceChain)
	if !ok {
		return nil, domainerrors.Validation(fmt.Sprintf("token %s is not supported on %s", input.Currency, sourceChain))
	}
	amount, err := parseAmount(input.Amount, token.Decimals)
	if err != nil {
		return nil, err
	}
	if input.ExpiresAt != nil && !input.ExpiresAt.After(time.Now()) {
		return nil, domainerrors.Validation("expiry must be in the future")
	}

	if err := u.gate.Check(ctx, payerAddress, input.MerchantAddress); err != nil {
		return nil, err
	}

	merchant, err := u.provisionMerchant(ctx, input.MerchantAddress)
	if err != nil {
		return nil, err
	}
	if !merchant.SupportsChain(destChain) {
		return nil, domainerrors.Validation("merchant does not accept settlement on " + destChain)
	}

	payment := &entities.Payment{
		ID:           utils.NewPaymentID(),
		PayerAddress: payerAddress,
		MerchantID:   merchant.ID,
		Amount:       amount.String(),
		Currency:     token.Symbol,
		SourceChain:  sourceChain,
		DestChain:    destChain,
		Status:       entities.PaymentStatusPending,
		YieldEnabled: input.YieldEnabled,
		Metadata:     input.Metadata,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	expiry := time.Now().Add(defaultPaymentExpiry)
	if input.ExpiresAt != nil {
		expiry = *input.ExpiresAt
	}
	payment.ExpiresAt = &expiry

	if input.YieldEnabled {
		strategy, err := u.yield.ValidateStrategy(ctx, input.StrategyID, sourceChain)
		if err != nil {
			return nil, err
		}
		payment.StrategyID = null.StringFrom(strategy.ID)
		estimate := u.yield.EstimateYield(amount, strategy.ExpectedAPY, defaultYieldHorizon, token.Decimals)
		payment.EstimatedYield = null.StringFrom(estimate.String())
	}

	tokenAddr, _ := token.AddressOn(sourceChain)
	writeCtx, cancel := chainCallCtx(ctx, u.cfg.Timeouts.ChainWrite)
	escrow, txHash, err := u.connector.CreateEscrow(writeCtx, sourceChain, payment.ID, tokenAddr,
		toSmallestUnit(amount, token.Decimals), payerAddress, merchant.Address)
	cancel()
	if err != nil {
		metrics.SettlementFailures.WithLabelValues("create_escrow").Inc()
		return nil, settlementError("escrow deployment failed", err)
	}
	payment.EscrowAddress = null.StringFrom(escrow)

	batch := u.publisher.Begin()
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.paymentRepo.Create(txCtx, payment); err != nil {
			return err
		}
		return batch.Emit(txCtx, payment, entities.PaymentEventTypeCreated, txHash, map[string]interface{}{
			"escrowAddress": escrow,
		})
	})
	if err != nil {
		return nil, err
	}
	batch.Push()

	metrics.PaymentTransitions.WithLabelValues(string(entities.PaymentStatusPending)).Inc()
	u.cachePayment(ctx, payment)
	logger.Info(ctx, "payment created",
		zap.String("payment_id", payment.ID),
		zap.String("escrow", escrow),
		zap.String("amount", payment.Amount),
		zap.String("currency", payment.Currency))
	return payment, nil
}

// ConfirmPayment verifies the deposit proof on chain and moves the
// payment to CONFIRMED, opening the yield window. Duplicate confirms
// return the already-confirmed record unchanged.
func (u *PaymentUsecase) ConfirmPayment(ctx context.Context, id string, input *entities.ConfirmPaymentInput) (*entities.Payment, error) {
	return u.withPaymentLock(ctx, id, func(payment *entities.Payment) (*entities.Payment, error) {
		if payment.Status == entities.PaymentStatusConfirmed || payment.Status == entities.PaymentStatusCompleted {
			return payment, nil
		}
		if !payment.Status.CanTransitionTo(entities.PaymentStatusConfirmed) {
			return nil, domainerrors.InvalidState(fmt.Sprintf("cannot confirm payment in status %s", payment.Status))
		}

		readCtx, cancel := chainCallCtx(ctx, u.cfg.Timeouts.ChainRead)
		status, err := u.connector.TransactionStatus(readCtx, payment.SourceChain, input.DepositTxHash)
		cancel()
		if err != nil {
			return nil, settlementError("deposit verification failed", err)
		}
		if status != blockchain.TxStatusConfirmed {
			return nil, domainerrors.Validation(fmt.Sprintf("deposit transaction is %s, not final", status))
		}
		readCtx, cancel = chainCallCtx(ctx, u.cfg.Timeouts.ChainRead)
		deposit, err := u.connector.GetDeposit(readCtx, payment.SourceChain, payment.EscrowAddress.String, payment.ID)
		cancel()
		if err != nil {
			return nil, settlementError("escrow deposit read failed", err)
		}
		token, ok := u.cfg.TokenOnChain(payment.Currency, payment.SourceChain)
		if !ok {
			return nil, domainerrors.Validation(fmt.Sprintf("token %s is not supported on %s", payment.Currency, payment.SourceChain))
		}
		amount, err := parseAmount(payment.Amount, token.Decimals)
		if err != nil {
			return nil, err
		}
		if deposit.Amount == nil || deposit.Amount.Cmp(toSmallestUnit(amount, token.Decimals)) < 0 {
			return nil, domainerrors.Validation("escrow deposit does not cover the payment amount")
		}

		payment.Status = entities.PaymentStatusConfirmed
		payment.SourceTxHash = null.StringFrom(input.DepositTxHash)
		payment.ConfirmedAt = null.TimeFrom(time.Now())

		batch := u.publisher.Begin()
		err = u.uow.Do(ctx, func(txCtx context.Context) error {
			if err := u.paymentRepo.Update(txCtx, payment); err != nil {
				return err
			}
			if payment.YieldEnabled {
				if _, err := u.yield.OpenEarning(txCtx, payment); err != nil {
					return err
				}
			}
			return batch.Emit(txCtx, payment, entities.PaymentEventTypeConfirmed, input.DepositTxHash, nil)
		})
		if err != nil {
			return nil, err
		}
		batch.Push()
		metrics.PaymentTransitions.WithLabelValues(string(entities.PaymentStatusConfirmed)).Inc()
		return payment, nil
	})
}

// ReleasePayment settles the escrow to the merchant, closes the yield
// window, and completes the payment. Releasing an already-completed
// payment returns the existing record.
func (u *PaymentUsecase) ReleasePayment(ctx context.Context, id string) (*entities.Payment, error) {
	return u.withPaymentLock(ctx, id, func(payment *entities.Payment) (*entities.Payment, error) {
		if payment.Status == entities.PaymentStatusCompleted {
			return payment, nil
		}
		if !payment.Status.CanTransitionTo(entities.PaymentStatusCompleted) {
			return nil, domainerrors.InvalidState(fmt.Sprintf("cannot release payment in status %s", payment.Status))
		}

		writeCtx, cancel := chainCallCtx(ctx, u.cfg.Timeouts.ChainWrite)
		txHash, err := u.connector.ReleaseEscrow(writeCtx, payment.SourceChain, payment.EscrowAddress.String, payment.ID)
		cancel()
		if err != nil {
			if errors.Is(err, domainerrors.ErrTimeout) {
				// Ambiguous: the release may have landed. On-chain truth decides.
				readCtx, cancel := chainCallCtx(ctx, u.cfg.Timeouts.ChainRead)
				deposit, depErr := u.connector.GetDeposit(readCtx, payment.SourceChain, payment.EscrowAddress.String, payment.ID)
				cancel()
				if depErr == nil && deposit.Released {
					logger.Warn(ctx, "release timed out but landed on chain", zap.String("payment_id", payment.ID))
					txHash = ""
				} else {
					metrics.SettlementFailures.WithLabelValues("release").Inc()
					return nil, domainerrors.Timeout("release broadcast timed out; retry after the chain settles", err)
				}
			} else {
				metrics.SettlementFailures.WithLabelValues("release").Inc()
				return nil, settlementError("escrow release failed", err)
			}
		}

		payment.Status = entities.PaymentStatusCompleted
		if txHash != "" {
			payment.DestTxHash = null.StringFrom(txHash)
		}
		payment.ReleasedAt = null.TimeFrom(time.Now())

		batch := u.publisher.Begin()
		err = u.uow.Do(ctx, func(txCtx context.Context) error {
			earning, breakdown, err := u.yield.CloseEarning(txCtx, payment)
			if err != nil {
				return err
			}
			if earning != nil {
				payment.ActualYield = earning.NetYield
			} else {
				payment.ActualYield = null.StringFrom("0")
			}
			payment.UserYield = null.StringFrom(breakdown.UserYield)
			payment.MerchantYield = null.StringFrom(breakdown.MerchantYield)
			payment.ProtocolYield = null.StringFrom(breakdown.ProtocolYield)

			if err := u.paymentRepo.Update(txCtx, payment); err != nil {
				return err
			}
			return batch.Emit(txCtx, payment, entities.PaymentEventTypeReleased, txHash, map[string]interface{}{
				"userYield":     breakdown.UserYield,
				"merchantYield": breakdown.MerchantYield,
				"protocolYield": breakdown.ProtocolYield,
			})
		})
		if err != nil {
			return nil, err
		}
		batch.Push()
		metrics.PaymentTransitions.WithLabelValues(string(entities.PaymentStatusCompleted)).Inc()
		logger.Info(ctx, "payment released",
			zap.String("payment_id", payment.ID),
			zap.String("actual_yield", payment.ActualYield.String))
		return payment, nil
	})
}

// CancelPayment voids a PENDING payment. Funds that already landed in
// escrow go back to the payer via emergency withdraw. The caller's
// reason lands on the CANCELLED event for the audit trail.
func (u *PaymentUsecase) CancelPayment(ctx context.Context, id, reason string) (*entities.Payment, error) {
	return u.terminatePending(ctx, id, entities.PaymentStatusCancelled, entities.PaymentEventTypeCancelled, reason)
}

// ExpirePayment is CancelPayment for the sweep: same refund semantics,
// EXPIRED terminal state. Terminal rows are left untouched.
func (u *PaymentUsecase) ExpirePayment(ctx context.Context, id string) (*entities.Payment, error) {
	return u.terminatePending(ctx, id, entities.PaymentStatusExpired, entities.PaymentEventTypeExpired, "expiry window elapsed")
}

func (u *PaymentUsecase) terminatePending(ctx context.Context, id string, target entities.PaymentStatus, eventType entities.PaymentEventType, reason string) (*entities.Payment, error) {
	return u.withPaymentLock(ctx, id, func(payment *entities.Payment) (*entities.Payment, error) {
		if payment.Status == target {
			return payment, nil
		}
		if !payment.Status.CanTransitionTo(target) {
			return nil, domainerrors.InvalidState(fmt.Sprintf("cannot move payment from %s to %s", payment.Status, target))
		}

		var refundTx string
		readCtx, cancel := chainCallCtx(ctx, u.cfg.Timeouts.ChainRead)
		deposit, err := u.connector.GetDeposit(readCtx, payment.SourceChain, payment.EscrowAddress.String, payment.ID)
		cancel()
		if err != nil {
			return nil, settlementError("escrow deposit read failed", err)
		}
		if deposit.Amount != nil && deposit.Amount.Sign() > 0 && !deposit.Released {
			writeCtx, cancel := chainCallCtx(ctx, u.cfg.Timeouts.ChainWrite)
			refundTx, err = u.connector.EmergencyWithdraw(writeCtx, payment.SourceChain, payment.EscrowAddress.String, payment.ID)
			cancel()
			if err != nil {
				metrics.SettlementFailures.WithLabelValues("emergency_withdraw").Inc()
				return nil, settlementError("refund to payer failed", err)
			}
		}

		var metadata map[string]interface{}
		if reason != "" {
			metadata = map[string]interface{}{"reason": reason}
		}

		payment.Status = target
		batch := u.publisher.Begin()
		err = u.uow.Do(ctx, func(txCtx context.Context) error {
			if err := u.paymentRepo.Update(txCtx, payment); err != nil {
				return err
			}
			return batch.Emit(txCtx, payment, eventType, refundTx, metadata)
		})
		if err != nil {
			return nil, err
		}
		batch.Push()
		metrics.PaymentTransitions.WithLabelValues(string(target)).Inc()
		return payment, nil
	})
}

// GetPayment is a read-through: cache first, repository on miss.
func (u *PaymentUsecase) GetPayment(ctx context.Context, id string) (*entities.Payment, error) {
	if cached, err := u.cache.Get(ctx, paymentCacheKey(id)); err == nil && cached != "" {
		var payment entities.Payment
		if err := json.Unmarshal([]byte(cached), &payment); err == nil {
			return &payment, nil
		}
	}
	payment, err := u.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("payment " + id + " not found")
		}
		return nil, err
	}
	u.cachePayment(ctx, payment)
	return payment, nil
}

// GetPaymentEvents returns the payment's audit trail, oldest first.
func (u *PaymentUsecase) GetPaymentEvents(ctx context.Context, id string) ([]*entities.PaymentEvent, error) {
	if _, err := u.paymentRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("payment " + id + " not found")
		}
		return nil, err
	}
	return u.publisher.eventRepo.GetByPaymentID(ctx, id)
}

// ListMerchantPayments pages a merchant's payments, newest first.
func (u *PaymentUsecase) ListMerchantPayments(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]*entities.Payment, int, error) {
	return u.paymentRepo.GetByMerchantID(ctx, merchantID, limit, offset)
}

// paymentLockTTL sizes the lock to outlive the worst chain conversation
// under it: one bounded write plus the read that settles an ambiguous
// result. A lock that expires mid-write would let a second caller run
// the same on-chain release.
func (u *PaymentUsecase) paymentLockTTL() time.Duration {
	ttl := u.cfg.Redis.LockTTL
	floor := u.cfg.Timeouts.ChainWrite + u.cfg.Timeouts.ChainRead + 5*time.Second
	if u.cfg.Timeouts.ChainWrite > 0 && ttl < floor {
		ttl = floor
	}
	return ttl
}

// withPaymentLock serializes a mutation on one payment. Contention is
// surfaced, never skipped: the caller retries after the holder is done.
func (u *PaymentUsecase) withPaymentLock(ctx context.Context, id string, fn func(*entities.Payment) (*entities.Payment, error)) (*entities.Payment, error) {
	lock, err := u.cache.AcquireLock(ctx, paymentLockKey(id), u.paymentLockTTL())
	if err != nil {
		return nil, err
	}
	if lock == nil {
		return nil, domainerrors.LockContention("another operation on this payment is in flight")
	}
	defer func() {
		if _, err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn(ctx, "payment lock release failed", zap.String("payment_id", id), zap.Error(err))
		}
	}()

	payment, err := u.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("payment " + id + " not found")
		}
		return nil, err
	}

	result, err := fn(payment)
	if err != nil {
		return nil, err
	}
	u.cachePayment(ctx, result)
	return result, nil
}

func (u *PaymentUsecase) cachePayment(ctx context.Context, payment *entities.Payment) {
	raw, err := json.Marshal(payment)
	if err != nil {
		return
	}
	if err := u.cache.Set(ctx, paymentCacheKey(payment.ID), string(raw), u.cfg.Redis.CacheTTL); err != nil {
		logger.Warn(ctx, "payment cache write failed", zap.String("payment_id", payment.ID), zap.Error(err))
	}
}

// provisionMerchant resolves a merchant by address, creating it on first
// sight. A concurrent create loses the unique-index race and re-reads.
func (u *PaymentUsecase) provisionMerchant(ctx context.Context, address string) (*entities.Merchant, error) {
	merchant, err := u.merchantRepo.GetByAddress(ctx, address)
	if err == nil {
		if merchant.Status == entities.MerchantStatusSuspended {
			return nil, domainerrors.Validation("merchant is suspended")
		}
		return merchant, nil
	}
	if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	merchant = &entities.Merchant{
		ID:              uuid.New(),
		Address:         address,
		DefaultCurrency: "USDC",
		Status:          entities.MerchantStatusActive,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	if err := u.merchantRepo.Create(ctx, merchant); err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			return u.merchantRepo.GetByAddress(ctx, address)
		}
		return nil, err
	}
	return merchant, nil
}

// settlementError folds a connector error into the caller-facing
// taxonomy while keeping the chain-level sentinel matchable.
func settlementError(message string, err error) error {
	switch {
	case errors.Is(err, domainerrors.ErrTimeout):
		return domainerrors.Timeout(message, err)
	case errors.Is(err, domainerrors.ErrRPCUnavailable):
		return domainerrors.RPCUnavailable(message, err)
	default:
		return domainerrors.Settlement(message, err)
	}
}
