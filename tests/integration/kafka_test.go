//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hameedsk381/voice-task-ai/internal/kafka"
	"github.com/hameedsk381/voice-task-ai/internal/notify"
)

func TestKafka_SinkToConsumerRoundtrip(t *testing.T) {
	topic := "notify.outbound.test"
	createTopic(t, topic)

	producer := kafka.NewProducer(testKafkaBrokers)
	t.Cleanup(func() { _ = producer.Close() })

	intent := notify.Intent{
		TenantID:  "tenant-a",
		Kind:      notify.KindWorkerAssignment,
		Channel:   notify.ChannelSMS,
		Recipient: "+15550002222",
		Message:   "New job: leaking pipe under the sink",
	}
	payload, err := json.Marshal(intent)
	require.NoError(t, err)
	require.NoError(t, producer.Publish(context.Background(), topic, intent.Recipient, payload))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	consumer := kafka.NewConsumer(testKafkaBrokers, topic, "integration-group", logger)
	t.Cleanup(func() { _ = consumer.Close() })

	received := make(chan notify.Intent, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	go func() {
		_ = consumer.Subscribe(ctx, func(_ context.Context, msg kafka.Message) error {
			var got notify.Intent
			if err := json.Unmarshal(msg.Value, &got); err != nil {
				return err
			}
			received <- got
			cancel()
			return nil
		})
	}()

	select {
	case got := <-received:
		assert.Equal(t, intent, got)
	case <-ctx.Done():
		t.Fatal("timed out waiting for intent on kafka")
	}
}

func TestKafka_KafkaSink_PublishesIntentKeyedByRecipient(t *testing.T) {
	topic := notify.TopicOutbound
	createTopic(t, topic)

	producer := kafka.NewProducer(testKafkaBrokers)
	t.Cleanup(func() { _ = producer.Close() })
	sink := notify.NewKafkaSink(producer)

	intent := notify.Intent{
		TenantID:  "tenant-a",
		Kind:      notify.KindCustomerConfirmation,
		Channel:   notify.ChannelWhatsApp,
		Recipient: "+15550003333",
		Message:   "We received your request.",
	}
	require.NoError(t, sink.Send(context.Background(), intent))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	consumer := kafka.NewConsumer(testKafkaBrokers, topic, "integration-sink-group", logger)
	t.Cleanup(func() { _ = consumer.Close() })

	received := make(chan kafka.Message, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	go func() {
		_ = consumer.Subscribe(ctx, func(_ context.Context, msg kafka.Message) error {
			received <- msg
			cancel()
			return nil
		})
	}()

	select {
	case msg := <-received:
		assert.Equal(t, intent.Recipient, string(msg.Key))
		var got notify.Intent
		require.NoError(t, json.Unmarshal(msg.Value, &got))
		assert.Equal(t, intent, got)
	case <-ctx.Done():
		t.Fatal("timed out waiting for intent on kafka")
	}
}
