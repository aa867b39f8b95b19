package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hameedsk381/voice-task-ai/internal/classifier"
	"github.com/hameedsk381/voice-task-ai/internal/escalation"
	"github.com/hameedsk381/voice-task-ai/internal/kafka"
	"github.com/hameedsk381/voice-task-ai/internal/notify"
	"github.com/hameedsk381/voice-task-ai/internal/orchestrator"
	"github.com/hameedsk381/voice-task-ai/internal/postgres"
	redisstore "github.com/hameedsk381/voice-task-ai/internal/redis"
	"github.com/hameedsk381/voice-task-ai/pkg/telemetry"
	"github.com/hameedsk381/voice-task-ai/services/intake/config"
	"github.com/hameedsk381/voice-task-ai/services/intake/handler"
	"github.com/hameedsk381/voice-task-ai/services/intake/middleware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the intake HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("http-port", "8080", "HTTP server port")
	serveCmd.Flags().String("metrics-addr", ":9095", "Prometheus metrics server address")
	serveCmd.Flags().String("kafka-brokers", "localhost:9092", "comma-separated Kafka broker addresses")
	serveCmd.Flags().String("redis-addr", "localhost:6379", "Redis address (host:port)")
	serveCmd.Flags().String("openai-model", "gpt-4o-mini", "chat model used for intent classification")
	serveCmd.Flags().Float64("confidence-threshold", 0.75, "classification confidence below which tasks escalate")
	serveCmd.Flags().Int("default-max-tasks", 5, "worker capacity applied when registration omits one")
	serveCmd.Flags().String("ops-contact", "", "phone number receiving task and escalation alerts")
	serveCmd.Flags().Int("rate-limit", 10, "max inbound requests per caller per window")
	serveCmd.Flags().Int("rate-limit-window", 60, "rate limit window in seconds")
	serveCmd.Flags().String("otel-endpoint", "", "OTLP HTTP endpoint for tracing (e.g. localhost:4318); empty disables tracing")

	bindFlag("http_port", serveCmd.Flags(), "http-port")
	bindFlag("metrics_addr", serveCmd.Flags(), "metrics-addr")
	bindFlag("kafka_brokers", serveCmd.Flags(), "kafka-brokers")
	bindFlag("redis_addr", serveCmd.Flags(), "redis-addr")
	bindFlag("openai_model", serveCmd.Flags(), "openai-model")
	bindFlag("confidence_threshold", serveCmd.Flags(), "confidence-threshold")
	bindFlag("default_max_tasks", serveCmd.Flags(), "default-max-tasks")
	bindFlag("ops_contact", serveCmd.Flags(), "ops-contact")
	bindFlag("rate_limit", serveCmd.Flags(), "rate-limit")
	bindFlag("rate_limit_window", serveCmd.Flags(), "rate-limit-window")
	bindFlag("otel_endpoint", serveCmd.Flags(), "otel-endpoint")
	_ = viper.BindEnv("otel_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	_ = viper.BindEnv("openai_api_key", "OPENAI_API_KEY")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Load(viper.GetViper())
	logger := buildLogger(cfg.LogLevel, "intake")

	shutdownTracer, err := telemetry.InitTracer(context.Background(), "intake", cfg.OTelEndpoint)
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
	limiter := redisstore.NewRateLimiter(redisClient, cfg.RateLimit,
		time.Duration(cfg.RateLimitWindow)*time.Second)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := postgres.NewPool(initCtx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	store := postgres.NewStore(pool)

	policy := escalation.NewPolicy(cfg.ConfidenceThreshold)
	core := orchestrator.New(store, states, locks, notify.NewKafkaSink(producer), policy,
		orchestrator.Config{
			DefaultMaxTasks: cfg.DefaultMaxTasks,
			OpsContact:      cfg.OpsContact,
			OpsChannel:      notify.Channel(cfg.OpsChannel),
		}, logger)

	if cfg.OpenAIKey == "" {
		logger.Warn("OPENAI_API_KEY not set; classification will fail and fall back")
	}
	cls := classifier.NewOpenAI(cfg.OpenAIKey, cfg.OpenAIModel)

	h := handler.New(core, cls, policy, limiter, logger)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1MB limit
	r.Mount("/", h.Routes())

	httpSrv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	telemetry.StartMetricsServer(runCtx, cfg.MetricsAddr, logger)

	go func() {
		logger.Info("intake HTTP starting", slog.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	<-quit
	logger.Info("shutting down...")
	runCancel()

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutCancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		logger.Error("HTTP shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("stopped")
	return nil
}
