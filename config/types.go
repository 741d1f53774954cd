package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Environment constants
const (
	EnvDevelopment = "DEVELOPMENT"
	EnvProduction  = "PRODUCTION"
)

// Config is the typed view of every setting mcpanel reads. The embedded
// koanf instance keeps the raw tree for keys modules read on their own.
type Config struct {
	Environment   string              `koanf:"environment" validate:"oneof=DEVELOPMENT PRODUCTION"`
	App           AppConfig           `koanf:"app"`
	Log           LogConfig           `koanf:"log"`
	Request       TimeoutConfig       `koanf:"request"`
	Connect       TimeoutConfig       `koanf:"connect"`
	Proxy         string              `koanf:"proxy" validate:"omitempty,url"`
	Modrinth      ModrinthConfig      `koanf:"modrinth"`
	Pterodactyl   PterodactylConfig   `koanf:"pterodactyl"`
	Observability ObservabilityConfig `koanf:"observability"`

	k *koanf.Koanf
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name    string `koanf:"name" validate:"required"`
	Version string `koanf:"version" validate:"required"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Pretty bool   `koanf:"pretty"`
}

// TimeoutConfig is expressed in whole seconds, matching the REQUEST_TIMEOUT
// and CONNECT_TIMEOUT environment variables.
type TimeoutConfig struct {
	Timeout int `koanf:"timeout" validate:"gte=0"`
}

// Duration converts the configured seconds.
func (t TimeoutConfig) Duration() time.Duration {
	return time.Duration(t.Timeout) * time.Second
}

type APIConfig struct {
	URL string `koanf:"url" validate:"omitempty,url"`
}

type ModrinthConfig struct {
	API   APIConfig `koanf:"api"`
	Token string    `koanf:"token"`
	Agent string    `koanf:"agent"`
}

type PterodactylConfig struct {
	API    APIConfig `koanf:"api"`
	Token  string    `koanf:"token"`
	DryRun bool      `koanf:"dryrun"`
}

// ObservabilityConfig selects the telemetry exporters. Exporter is one of
// "stdout", "otlp-http" or "otlp-grpc"; Disabled turns everything into no-ops.
type ObservabilityConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Exporter string `koanf:"exporter" validate:"omitempty,oneof=stdout otlp-http otlp-grpc"`
	Endpoint string `koanf:"endpoint"`
	Insecure bool   `koanf:"insecure"`
	Service  string `koanf:"service"`
}

// IsDevelopment reports whether the process runs in the DEVELOPMENT environment.
func (c *Config) IsDevelopment() bool {
	return c != nil && c.Environment == EnvDevelopment
}
