package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
	"github.com/raosunjoy/YieldRails-sub009/internal/domain/entities"
	"github.com/raosunjoy/YieldRails-sub009/internal/domain/repositories"
	"github.com/raosunjoy/YieldRails-sub009/pkg/logger"
)

// PaymentExpirer is the slice of the payment usecase the sweep needs.
type PaymentExpirer interface {
	ExpirePayment(ctx context.Context, id string) (*entities.Payment, error)
}

// PaymentExpiryJob sweeps PENDING payments past their expiry and moves
// them to EXPIRED through the regular lifecycle path, so refunds and
// events fire exactly as they would for a manual cancel.
type PaymentExpiryJob struct {
	paymentRepo repositories.PaymentRepository
	expirer     PaymentExpirer
	interval    time.Duration
	batchSize   int
	stop        chan struct{}
}

func NewPaymentExpiryJob(paymentRepo repositories.PaymentRepository, expirer PaymentExpirer) *PaymentExpiryJob {
	return &PaymentExpiryJob{
		paymentRepo: paymentRepo,
		expirer:     expirer,
		interval:    30 * time.Second,
		batchSize:   100,
		stop:        make(chan struct{}),
	}
}

func (j *PaymentExpiryJob) Start(ctx context.Context) {
	logger.Info(ctx, "payment expiry job started", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.stop:
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *PaymentExpiryJob) Stop() {
	close(j.stop)
}

func (j *PaymentExpiryJob) sweep(ctx context.Context) {
	expired, err := j.paymentRepo.GetExpiredPending(ctx, time.Now(), j.batchSize)
	if err != nil {
		logger.Error(ctx, "expired payment fetch failed", zap.Error(err))
		return
	}
	if len(expired) == 0 {
		return
	}

	logger.Info(ctx, "expiring payments", zap.Int("count", len(expired)))
	for _, payment := range expired {
		// One failure must not stall the batch; the row is retried on
		// the next sweep.
		if _, err := j.expirer.ExpirePayment(ctx, payment.ID); err != nil {
			logger.Warn(ctx, "payment expiry failed",
				zap.String("payment_id", payment.ID), zap.Error(err))
		}
	}
}
