package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// GatewayDeliverer POSTs an intent to a messaging gateway (the Twilio-style
// provider sits behind it). One deliverer per channel, each with its own URL.
type GatewayDeliverer struct {
	channel Channel
	url     string
	client  *http.Client
}

// NewGatewayDeliverer creates a deliverer for the given channel and gateway URL.
func NewGatewayDeliverer(channel Channel, url string) *GatewayDeliverer {
	return &GatewayDeliverer{
		channel: channel,
		url:     url,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (d *GatewayDeliverer) Channel() Channel { return d.channel }

func (d *GatewayDeliverer) Deliver(ctx context.Context, intent Intent) error {
	ctx, span := otel.Tracer("notifier").Start(ctx, "deliver."+string(d.channel))
	defer span.End()
	span.SetAttributes(
		attribute.String("notify.kind", string(intent.Kind)),
		attribute.String("notify.recipient", intent.Recipient),
	)

	body, err := json.Marshal(map[string]string{
		"to":      intent.Recipient,
		"channel": string(intent.Channel),
		"body":    intent.Message,
	})
	if err != nil {
		return fmt.Errorf("marshal gateway payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request failed")
		return fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "http call failed")
		return fmt.Errorf("gateway call to %s: %w", d.url, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		err := fmt.Errorf("gateway %s returned status %d", d.url, resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad status code")
		return err
	}
	return nil
}
