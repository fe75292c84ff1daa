package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the payment lifecycle and its side channels. Registered
// on the default registry and served at /metrics.
var (
	PaymentTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yieldrails_payment_transitions_total",
		Help: "Payment state transitions by resulting status.",
	}, []string{"status"})

	SettlementFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yieldrails_settlement_failures_total",
		Help: "On-chain settlement calls that returned an error.",
	}, []string{"operation"})

	BridgeLegs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yieldrails_bridge_legs_total",
		Help: "Bridge leg transitions by resulting status.",
	}, []string{"status"})

	EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yieldrails_payment_events_total",
		Help: "Durable payment events appended, by event type.",
	}, []string{"event_type"})

	WebhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yieldrails_webhook_deliveries_total",
		Help: "Webhook delivery attempts by final result.",
	}, []string{"result"})
)
