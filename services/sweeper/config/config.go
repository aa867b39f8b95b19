package config

import "github.com/spf13/viper"

// Config holds typed configuration for the sweeper service.
type Config struct {
	LogLevel     string
	KafkaBrokers string
	RedisAddr    string
	PostgresDSN  string
	MetricsAddr  string
	OTelEndpoint string

	Schedule  string
	BatchSize int

	OpsContact string
	OpsChannel string
}

// Load reads all values from the given viper instance.
func Load(v *viper.Viper) Config {
	return Config{
		LogLevel:     v.GetString("log_level"),
		KafkaBrokers: v.GetString("kafka_brokers"),
		RedisAddr:    v.GetString("redis_addr"),
		PostgresDSN:  v.GetString("postgres_dsn"),
		MetricsAddr:  v.GetString("metrics_addr"),
		OTelEndpoint: v.GetString("otel_endpoint"),

		Schedule:  v.GetString("schedule"),
		BatchSize: v.GetInt("batch_size"),

		OpsContact: v.GetString("ops_contact"),
		OpsChannel: v.GetString("ops_channel"),
	}
}
