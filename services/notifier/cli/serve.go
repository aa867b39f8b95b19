package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hameedsk381/voice-task-ai/internal/kafka"
	"github.com/hameedsk381/voice-task-ai/internal/notify"
	"github.com/hameedsk381/voice-task-ai/pkg/telemetry"
	"github.com/hameedsk381/voice-task-ai/services/notifier"
	"github.com/hameedsk381/voice-task-ai/services/notifier/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the notifier",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("kafka-brokers", "localhost:9092", "comma-separated Kafka broker addresses")
	serveCmd.Flags().String("metrics-addr", ":9096", "Prometheus metrics server address")
	serveCmd.Flags().String("sms-gateway-url", "", "SMS messaging gateway URL")
	serveCmd.Flags().String("whatsapp-gateway-url", "", "WhatsApp messaging gateway URL")
	serveCmd.Flags().String("otel-endpoint", "", "OTLP HTTP endpoint for tracing (e.g. localhost:4318); empty disables tracing")

	bindFlag("kafka_brokers", serveCmd.Flags(), "kafka-brokers")
	bindFlag("metrics_addr", serveCmd.Flags(), "metrics-addr")
	bindFlag("sms_gateway_url", serveCmd.Flags(), "sms-gateway-url")
	bindFlag("whatsapp_gateway_url", serveCmd.Flags(), "whatsapp-gateway-url")
	bindFlag("otel_endpoint", serveCmd.Flags(), "otel-endpoint")
	_ = viper.BindEnv("otel_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Load(viper.GetViper())
	logger := buildLogger(cfg.LogLevel, "notifier")

	shutdownTracer, err := telemetry.InitTracer(context.Background(), "notifier", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer shutdownTracer()

	brokers := strings.Split(cfg.KafkaBrokers, ",")

	consumer := kafka.NewConsumer(brokers, notify.TopicOutbound, "notifier-group", logger)
	defer func() { _ = consumer.Close() }()

	producer := kafka.NewProducer(brokers)
	defer func() { _ = producer.Close() }()

	registry := notify.NewRegistry()
	if cfg.SMSGatewayURL != "" {
		registry.Register(notify.NewGatewayDeliverer(notify.ChannelSMS, cfg.SMSGatewayURL))
		logger.Info("sms deliverer registered", slog.String("url", cfg.SMSGatewayURL))
	}
	if cfg.WhatsAppGatewayURL != "" {
		registry.Register(notify.NewGatewayDeliverer(notify.ChannelWhatsApp, cfg.WhatsAppGatewayURL))
		logger.Info("whatsapp deliverer registered", slog.String("url", cfg.WhatsAppGatewayURL))
	}

	n := notifier.New(consumer, producer, registry, logger)

	ctx, cancel := context.WithCancel(context.Background())
	telemetry.StartMetricsServer(ctx, cfg.MetricsAddr, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-quit
		logger.Info("shutting down...")
		cancel()
	}()

	logger.Info("notifier starting", slog.String("topic", notify.TopicOutbound))
	if err := n.Run(ctx); err != nil {
		return fmt.Errorf("notifier: %w", err)
	}
	logger.Info("stopped")
	return nil
}
