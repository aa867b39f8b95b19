// Package notifier consumes notification intents from Kafka and delivers
// them through per-channel messaging gateways.
package notifier

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/hameedsk381/voice-task-ai/internal/kafka"
	"github.com/hameedsk381/voice-task-ai/internal/notify"
	"github.com/hameedsk381/voice-task-ai/pkg/retry"
	"github.com/hameedsk381/voice-task-ai/pkg/telemetry"
)

// TopicDLQ receives intents that could not be delivered: malformed payloads,
// unknown channels, and deliveries that exhausted their retries.
const TopicDLQ = "notify.dlq"

// Notifier consumes notify.outbound and hands intents to channel deliverers.
type Notifier struct {
	consumer kafka.Consumer
	producer kafka.Producer
	registry *notify.Registry
	retryCfg retry.Config
	logger   *slog.Logger
}

// New creates a Notifier.
func New(
	consumer kafka.Consumer,
	producer kafka.Producer,
	registry *notify.Registry,
	logger *slog.Logger,
) *Notifier {
	n := &Notifier{
		consumer: consumer,
		producer: producer,
		registry: registry,
		logger:   logger,
	}
	n.retryCfg = retry.Config{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		OnRetry: func(attempt int, err error) {
			logger.Warn("delivery attempt failed",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
		},
	}
	return n
}

// Run starts consuming. Blocks until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	return n.consumer.Subscribe(ctx, n.handle)
}

// handle processes one intent. It always returns nil: notifications are
// best-effort and a poisoned message must never wedge the partition, so
// undeliverable intents go to the DLQ instead of blocking the offset.
func (n *Notifier) handle(ctx context.Context, msg kafka.Message) error {
	ctx, span := otel.Tracer("notifier").Start(ctx, "notifier.handle")
	defer span.End()

	var intent notify.Intent
	if err := json.Unmarshal(msg.Value, &intent); err != nil {
		n.logger.Error("malformed intent, sending to DLQ", slog.String("error", err.Error()))
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed intent")
		n.toDLQ(ctx, msg.Value)
		return nil
	}

	span.SetAttributes(
		attribute.String("notify.kind", string(intent.Kind)),
		attribute.String("notify.channel", string(intent.Channel)),
	)

	log := n.logger.With(
		slog.String("kind", string(intent.Kind)),
		slog.String("channel", string(intent.Channel)),
		slog.String("recipient", intent.Recipient),
	)

	deliverer, err := n.registry.Get(intent.Channel)
	if err != nil {
		log.Error("no deliverer for channel, sending to DLQ")
		span.SetStatus(codes.Error, "unknown channel")
		telemetry.NotifyDeliveriesTotal.WithLabelValues(string(intent.Channel), "unknown_channel").Inc()
		n.toDLQ(ctx, msg.Value)
		return nil
	}

	err = retry.Do(ctx, n.retryCfg, func() error {
		return deliverer.Deliver(ctx, intent)
	})
	if err != nil {
		log.Error("delivery failed after retries, sending to DLQ", slog.String("error", err.Error()))
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
		telemetry.NotifyDeliveriesTotal.WithLabelValues(string(intent.Channel), "failed").Inc()
		n.toDLQ(ctx, msg.Value)
		return nil
	}

	telemetry.NotifyDeliveriesTotal.WithLabelValues(string(intent.Channel), "delivered").Inc()
	log.Info("notification delivered")
	return nil
}

// toDLQ is best-effort: if even the DLQ publish fails the intent is dropped,
// which the delivery contract allows.
func (n *Notifier) toDLQ(ctx context.Context, payload []byte) {
	if err := n.producer.Publish(ctx, TopicDLQ, "", payload); err != nil {
		n.logger.Error("failed to publish to DLQ, dropping intent",
			slog.String("error", err.Error()))
	}
}
