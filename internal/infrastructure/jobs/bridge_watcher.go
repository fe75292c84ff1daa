package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
	"github.com/raosunjoy/YieldRails-sub009/pkg/logger"
)

// BridgeAdvancer is the slice of the bridge usecase the watcher drives.
type BridgeAdvancer interface {
	AdvancePending(ctx context.Context, limit int) error
	AdvanceConfirmed(ctx context.Context, limit int) error
}

// BridgeWatcherJob polls non-terminal bridge legs and advances them:
// PENDING legs toward source finality, CONFIRMED legs toward the
// destination release or its compensating refund.
type BridgeWatcherJob struct {
	advancer  BridgeAdvancer
	interval  time.Duration
	batchSize int
	stop      chan struct{}
}

func NewBridgeWatcherJob(advancer BridgeAdvancer) *BridgeWatcherJob {
	return &BridgeWatcherJob{
		advancer:  advancer,
		interval:  15 * time.Second,
		batchSize: 50,
		stop:      make(chan struct{}),
	}
}

func (j *BridgeWatcherJob) Start(ctx context.Context) {
	logger.Info(ctx, "bridge watcher started", zap.Duration("interval", j.interval))

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

func (j *BridgeWatcherJob) Stop() {
	close(j.stop)
}

func (j *BridgeWatcherJob) sweep(ctx context.Context) {
	if err := j.advancer.AdvancePending(ctx, j.batchSize); err != nil {
		logger.Error(ctx, "pending bridge sweep failed", zap.Error(err))
	}
	if err := j.advancer.AdvanceConfirmed(ctx, j.batchSize); err != nil {
		logger.Error(ctx, "confirmed bridge sweep failed", zap.Error(err))
	}
}
