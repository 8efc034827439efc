package telemetry

import "time"

// Config holds metrics export settings.
type Config struct {
	ServiceName    string        `env:"OTEL_SERVICE_NAME" envDefault:"tenantgate"`
	Endpoint       string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure       bool          `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	ExportInterval time.Duration `env:"OTEL_METRIC_EXPORT_INTERVAL" envDefault:"30s"`
}
