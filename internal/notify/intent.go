// Package notify models notification intents: messages the core wants
// delivered to workers, staff, or customers. Intents are queued during an
// operation and flushed only after the primary mutation has committed, so
// delivery never gates the caller and tests can assert on emitted intents
// synchronously.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Channel is the delivery medium for an intent.
type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

// Kind labels what prompted the intent, for logs and metrics.
type Kind string

const (
	KindTaskAlert            Kind = "task_alert"
	KindEscalationAlert      Kind = "escalation_alert"
	KindWorkerAssignment     Kind = "worker_assignment"
	KindCustomerConfirmation Kind = "customer_confirmation"
)

// Intent is one pending notification.
type Intent struct {
	TenantID  string  `json:"tenant_id"`
	Kind      Kind    `json:"kind"`
	Channel   Channel `json:"channel"`
	Recipient string  `json:"recipient"`
	Message   string  `json:"message"`
}

// Sink receives flushed intents. The Kafka-backed sink publishes them for
// the notifier service; tests substitute an in-memory fake.
type Sink interface {
	Send(ctx context.Context, intent Intent) error
}

// Queue collects intents during an operation. Flush is fire-and-forget:
// sink failures are logged, never returned.
type Queue struct {
	sink   Sink
	logger *slog.Logger

	mu      sync.Mutex
	pending []Intent
}

// NewQueue creates an empty Queue writing to sink.
func NewQueue(sink Sink, logger *slog.Logger) *Queue {
	return &Queue{sink: sink, logger: logger}
}

// Defer appends an intent to be sent on the next Flush.
func (q *Queue) Defer(intent Intent) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, intent)
}

// Flush sends all pending intents and clears the queue. Failures are logged
// and dropped; notification delivery is best-effort by contract.
func (q *Queue) Flush(ctx context.Context) {
	q.mu.Lock()
	intents := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, intent := range intents {
		if err := q.sink.Send(ctx, intent); err != nil {
			q.logger.Error("notification intent dropped",
				slog.String("kind", string(intent.Kind)),
				slog.String("channel", string(intent.Channel)),
				slog.String("recipient", intent.Recipient),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Discard drops all pending intents without sending. Used when the primary
// mutation failed after intents were queued.
func (q *Queue) Discard() {
	q.mu.Lock()
	q.pending = nil
	q.mu.Unlock()
}
