package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hameedsk381/voice-task-ai/internal/escalation"
	"github.com/hameedsk381/voice-task-ai/internal/kafka"
	"github.com/hameedsk381/voice-task-ai/internal/notify"
	"github.com/hameedsk381/voice-task-ai/internal/orchestrator"
	"github.com/hameedsk381/voice-task-ai/internal/postgres"
	redisstore "github.com/hameedsk381/voice-task-ai/internal/redis"
	"github.com/hameedsk381/voice-task-ai/pkg/telemetry"
	"github.com/hameedsk381/voice-task-ai/services/sweeper"
	"github.com/hameedsk381/voice-task-ai/services/sweeper/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the assignment sweeper",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("metrics-addr", ":9097", "Prometheus metrics server address")
	serveCmd.Flags().String("kafka-brokers", "localhost:9092", "comma-separated Kafka broker addresses")
	serveCmd.Flags().String("redis-addr", "localhost:6379", "Redis address (host:port)")
	serveCmd.Flags().String("schedule", "*/5 * * * *", "cron schedule for the assignment sweep")
	serveCmd.Flags().Int("batch-size", 100, "max waiting tasks picked up per sweep")
	serveCmd.Flags().String("ops-contact", "", "phone number receiving task and escalation alerts")
	serveCmd.Flags().String("otel-endpoint", "", "OTLP HTTP endpoint for tracing (e.g. localhost:4318); empty disables tracing")

	bindFlag("metrics_addr", serveCmd.Flags(), "metrics-addr")
	bindFlag("kafka_brokers", serveCmd.Flags(), "kafka-brokers")
	bindFlag("redis_addr", serveCmd.Flags(), "redis-addr")
	bindFlag("schedule", serveCmd.Flags(), "schedule")
	bindFlag("batch_size", serveCmd.Flags(), "batch-size")
	bindFlag("ops_contact", serveCmd.Flags(), "ops-contact")
	bindFlag("otel_endpoint", serveCmd.Flags(), "otel-endpoint")
	_ = viper.BindEnv("otel_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	_ = viper.BindEnv("postgres_dsn", "POSTGRES_DSN")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Load(viper.GetViper())
	logger := buildLogger(cfg.LogLevel, "sweeper")

	shutdownTracer, err := telemetry.InitTracer(context.Background(), "sweeper", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer shutdownTracer()

	brokers := strings.Split(cfg.KafkaBrokers, ",")
	producer := kafka.NewProducer(brokers)
	defer func() { _ = producer.Close() }()

	redisClient := redisstore.NewClient(cfg.RedisAddr)
	defer func() { _ = redisClient.Close() }()
	states := redisstore.NewStateStore(redisClient)
	locks := redisstore.NewLocker(redisClient)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := postgres.NewPool(initCtx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	store := postgres.NewStore(pool)

	core := orchestrator.New(store, states, locks, notify.NewKafkaSink(producer),
		escalation.NewPolicy(0),
		orchestrator.Config{
			OpsContact: cfg.OpsContact,
			OpsChannel: notify.Channel(cfg.OpsChannel),
		}, logger)

	instanceID := "sweeper-" + uuid.NewString()[:8]
	s, err := sweeper.New(core, redisClient, cfg.Schedule, cfg.BatchSize, instanceID, logger)
	if err != nil {
		return fmt.Errorf("sweeper: %w", err)
	}

	ctx, runCancel := context.WithCancel(context.Background())
	telemetry.StartMetricsServer(ctx, cfg.MetricsAddr, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-quit
		logger.Info("shutting down...")
		runCancel()
	}()

	logger.Info("sweeper starting",
		slog.String("instance_id", instanceID),
		slog.String("schedule", cfg.Schedule),
	)
	s.Run(ctx)
	logger.Info("stopped")
	return nil
}
