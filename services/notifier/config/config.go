package config

import "github.com/spf13/viper"

// Config holds typed configuration for the notifier service.
type Config struct {
	LogLevel     string
	MetricsAddr  string
	KafkaBrokers string
	OTelEndpoint string

	SMSGatewayURL      string
	WhatsAppGatewayURL string
}

// Load reads all values from the given viper instance.
func Load(v *viper.Viper) Config {
	return Config{
		LogLevel:     v.GetString("log_level"),
		MetricsAddr:  v.GetString("metrics_addr"),
		KafkaBrokers: v.GetString("kafka_brokers"),
		OTelEndpoint: v.GetString("otel_endpoint"),

		SMSGatewayURL:      v.GetString("sms_gateway_url"),
		WhatsAppGatewayURL: v.GetString("whatsapp_gateway_url"),
	}
}
