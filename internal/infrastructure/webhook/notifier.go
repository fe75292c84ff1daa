package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-jose/go-jose/v3"
	"go.uber.org/zap"
	"github.com/raosunjoy/YieldRails-sub009/internal/config"
	"github.com/raosunjoy/YieldRails-sub009/internal/domain/entities"
	"github.com/raosunjoy/YieldRails-sub009/pkg/logger"
)

// SignatureHeader carries the compact JWS over the request body.
const SignatureHeader = "X-Webhook-Signature"

// Payload is the wire shape of a lifecycle notification.
type Payload struct {
	EventType       string                   `json:"eventType"`
	PaymentID       string                   `json:"paymentId"`
	Status          string                   `json:"status"`
	TransactionHash string                   `json:"transactionHash,omitempty"`
	YieldBreakdown  *entities.YieldBreakdown `json:"yieldBreakdown,omitempty"`
	Timestamp       time.Time                `json:"timestamp"`
}

// Notifier pushes signed notifications to the configured consumer URL.
// Delivery is best-effort, at-least-once: one retry, then give up and
// log. The durable event log remains the source of truth.
type Notifier struct {
	url    string
	signer jose.Signer
	client *http.Client
}

// NewNotifier creates a notifier; a nil return means webhooks are not
// configured and pushes become no-ops at the caller.
func NewNotifier(cfg config.WebhookConfig) (*Notifier, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: []byte(cfg.SigningSecret)},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return nil, fmt.Errorf("webhook signer: %w", err)
	}
	return &Notifier{
		url:    cfg.URL,
		signer: signer,
		client: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Send delivers one notification, retrying once on any failure.
func (n *Notifier) Send(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	signature, err := n.sign(body)
	if err != nil {
		return fmt.Errorf("sign webhook payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
		}
		if lastErr = n.post(ctx, body, signature); lastErr == nil {
			return nil
		}
		logger.Warn(ctx, "webhook delivery failed",
			zap.String("payment_id", payload.PaymentID),
			zap.String("event_type", payload.EventType),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr))
	}
	return lastErr
}

func (n *Notifier) post(ctx context.Context, body []byte, signature string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, signature)

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook endpoint returned %d", resp.StatusCode)
	}
	return nil
}

func (n *Notifier) sign(body []byte) (string, error) {
	obj, err := n.signer.Sign(body)
	if err != nil {
		return "", err
	}
	return obj.CompactSerialize()
}
