package observability

import (
	"fmt"
	"strings"
	"time"

	"github.com/gaborage/mcpanel/config"
)

const (
	// ExporterStdout pretty prints spans and metrics, for local development.
	ExporterStdout = "stdout"

	// ExporterOTLPHTTP exports OTLP over HTTP/protobuf.
	ExporterOTLPHTTP = "otlp-http"

	// ExporterOTLPGRPC exports OTLP over gRPC.
	ExporterOTLPGRPC = "otlp-grpc"

	// EnvironmentDevelopment is the default deployment environment name.
	EnvironmentDevelopment = "development"

	DefaultBatchTimeout   = 5 * time.Second
	DefaultMetricInterval = 30 * time.Second
	DefaultExportTimeout  = 30 * time.Second
)

// Config selects the exporters of the telemetry pipeline.
type Config struct {
	// Enabled controls whether observability is active.
	// When false, NewProvider returns a no-op provider.
	Enabled bool

	ServiceName    string
	ServiceVersion string
	Environment    string

	// Exporter is one of ExporterStdout, ExporterOTLPHTTP or ExporterOTLPGRPC.
	Exporter string

	// Endpoint is "host:port" for OTLP exporters. Empty selects the
	// exporter's own default (localhost:4318 or localhost:4317).
	Endpoint string

	// Insecure disables TLS for OTLP exporters.
	Insecure bool

	// Headers are sent with every OTLP export, e.g. an API key.
	Headers map[string]string

	BatchTimeout   time.Duration
	MetricInterval time.Duration
	ExportTimeout  time.Duration
}

// FromConfig maps the application configuration onto a Config.
func FromConfig(cfg *config.Config) Config {
	service := cfg.Observability.Service
	if service == "" {
		service = cfg.App.Name
	}
	return Config{
		Enabled:        cfg.Observability.Enabled,
		ServiceName:    service,
		ServiceVersion: cfg.App.Version,
		Environment:    strings.ToLower(cfg.Environment),
		Exporter:       cfg.Observability.Exporter,
		Endpoint:       cfg.Observability.Endpoint,
		Insecure:       cfg.Observability.Insecure,
	}
}

// ApplyDefaults sets default values for any fields that are not specified.
func (c *Config) ApplyDefaults() {
	if c.ServiceVersion == "" {
		c.ServiceVersion = "unknown"
	}
	if c.Environment == "" {
		c.Environment = EnvironmentDevelopment
	}
	if c.Exporter == "" {
		c.Exporter = ExporterStdout
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = DefaultBatchTimeout
	}
	if c.MetricInterval <= 0 {
		c.MetricInterval = DefaultMetricInterval
	}
	if c.ExportTimeout <= 0 {
		c.ExportTimeout = DefaultExportTimeout
	}
}

// Validate checks an enabled configuration. Disabled configurations are
// always valid.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if !c.Enabled {
		return nil
	}
	if c.ServiceName == "" {
		return ErrMissingServiceName
	}

	switch c.Exporter {
	case ExporterStdout:
		return nil
	case ExporterOTLPHTTP, ExporterOTLPGRPC:
		if strings.Contains(c.Endpoint, "://") {
			return fmt.Errorf("endpoint %q must be host:port: %w", c.Endpoint, ErrInvalidEndpointFormat)
		}
		return nil
	default:
		return fmt.Errorf("exporter %q: %w", c.Exporter, ErrInvalidExporter)
	}
}
