package config

import "github.com/spf13/viper"

// Config holds typed configuration for the intake service.
type Config struct {
	LogLevel     string
	HTTPPort     string
	MetricsAddr  string
	KafkaBrokers string
	RedisAddr    string
	PostgresDSN  string
	OTelEndpoint string

	OpenAIKey   string
	OpenAIModel string

	ConfidenceThreshold float64
	DefaultMaxTasks     int
	OpsContact          string
	OpsChannel          string

	RateLimit       int
	RateLimitWindow int // seconds
}

// Load reads all values from the given viper instance.
func Load(v *viper.Viper) Config {
	return Config{
		LogLevel:     v.GetString("log_level"),
		HTTPPort:     v.GetString("http_port"),
		MetricsAddr:  v.GetString("metrics_addr"),
		KafkaBrokers: v.GetString("kafka_brokers"),
		RedisAddr:    v.GetString("redis_addr"),
		PostgresDSN:  v.GetString("postgres_dsn"),
		OTelEndpoint: v.GetString("otel_endpoint"),

		OpenAIKey:   v.GetString("openai_api_key"),
		OpenAIModel: v.GetString("openai_model"),

		ConfidenceThreshold: v.GetFloat64("confidence_threshold"),
		DefaultMaxTasks:     v.GetInt("default_max_tasks"),
		OpsContact:          v.GetString("ops_contact"),
		OpsChannel:          v.GetString("ops_channel"),

		RateLimit:       v.GetInt("rate_limit"),
		RateLimitWindow: v.GetInt("rate_limit_window"),
	}
}
