package usecases

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"github.com/raosunjoy/YieldRails-sub009/internal/domain/entities"
	"github.com/raosunjoy/YieldRails-sub009/internal/domain/repositories"
	"github.com/raosunjoy/YieldRails-sub009/internal/infrastructure/webhook"
	"github.com/raosunjoy/YieldRails-sub009/pkg/logger"
	"github.com/raosunjoy/YieldRails-sub009/pkg/metrics"
)

// WebhookSender abstracts the push sink for tests.
type WebhookSender interface {
	Send(ctx context.Context, payload webhook.Payload) error
}

// EventPublisher is the single emission point for lifecycle events. A
// mutation opens a batch, appends durable PaymentEvents inside its
// transaction, and pushes the staged webhooks only after the commit.
// Nothing else in the codebase writes payment events or webhooks.
type EventPublisher struct {
	eventRepo repositories.PaymentEventRepository
	sender    WebhookSender
	wg        sync.WaitGroup
}

// NewEventPublisher creates an event publisher; sender may be nil when
// webhooks are not configured.
func NewEventPublisher(eventRepo repositories.PaymentEventRepository, sender WebhookSender) *EventPublisher {
	return &EventPublisher{eventRepo: eventRepo, sender: sender}
}

// Begin opens an event batch for one mutation.
func (p *EventPublisher) Begin() *EventBatch {
	return &EventBatch{publisher: p}
}

// EventBatch collects the events of one mutation. Durable appends run
// in the caller's transaction context; webhook pushes stay staged until
// Push, so a rolled-back transaction never announces a transition.
type EventBatch struct {
	publisher *EventPublisher
	staged    []stagedPush
}

type stagedPush struct {
	paymentID string
	eventType string
	payload   webhook.Payload
}

// Emit appends the durable event and stages the webhook push. The
// append shares the caller's transaction; a failed append fails the
// whole mutation.
func (b *EventBatch) Emit(ctx context.Context, payment *entities.Payment, eventType entities.PaymentEventType, txHash string, metadata map[string]interface{}) error {
	event := &entities.PaymentEvent{
		PaymentID: payment.ID,
		EventType: eventType,
		TxHash:    txHash,
		Metadata:  metadata,
	}
	if err := b.publisher.eventRepo.Create(ctx, event); err != nil {
		return err
	}
	metrics.EventsEmitted.WithLabelValues(string(eventType)).Inc()

	if b.publisher.sender == nil {
		return nil
	}

	payload := webhook.Payload{
		EventType:       string(eventType),
		PaymentID:       payment.ID,
		Status:          string(payment.Status),
		TransactionHash: txHash,
		Timestamp:       time.Now().UTC(),
	}
	if yb := payment.Breakdown(); yb != nil {
		payload.YieldBreakdown = yb
	}
	b.staged = append(b.staged, stagedPush{
		paymentID: payment.ID,
		eventType: string(eventType),
		payload:   payload,
	})
	return nil
}

// Push releases the staged webhooks. Call it only after the transaction
// committed; on rollback the batch is simply dropped, so subscribers
// never hear about a transition that was rolled back.
func (b *EventBatch) Push() {
	for _, s := range b.staged {
		b.publisher.push(s)
	}
	b.staged = nil
}

func (p *EventPublisher) push(s stagedPush) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := p.sender.Send(sendCtx, s.payload); err != nil {
			metrics.WebhookDeliveries.WithLabelValues("failed").Inc()
			logger.Error(sendCtx, "webhook push abandoned",
				zap.String("payment_id", s.paymentID),
				zap.String("event_type", s.eventType),
				zap.Error(err))
			return
		}
		metrics.WebhookDeliveries.WithLabelValues("delivered").Inc()
	}()
}

// Flush waits for in-flight webhook pushes. Used on shutdown and in tests.
func (p *EventPublisher) Flush() {
	p.wg.Wait()
}
