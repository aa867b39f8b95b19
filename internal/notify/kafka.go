package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hameedsk381/voice-task-ai/internal/kafka"
)

// TopicOutbound carries notification intents from the intake service to the
// notifier service.
const TopicOutbound = "notify.outbound"

// KafkaSink publishes intents to the outbound notifications topic, keyed by
// recipient so per-recipient ordering is preserved.
type KafkaSink struct {
	producer kafka.Producer
}

// NewKafkaSink wraps a Kafka producer as a Sink.
func NewKafkaSink(producer kafka.Producer) *KafkaSink {
	return &KafkaSink{producer: producer}
}

func (s *KafkaSink) Send(ctx context.Context, intent Intent) error {
	payload, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("marshal intent: %w", err)
	}
	if err := s.producer.Publish(ctx, TopicOutbound, intent.Recipient, payload); err != nil {
		return fmt.Errorf("publish intent: %w", err)
	}
	return nil
}
