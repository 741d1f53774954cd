package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// DefaultFile is the optional YAML file read by Load.
const DefaultFile = "config.yaml"

type loadOptions struct {
	file    string
	raw     []byte
	environ func() []string
}

// Option customizes Load.
type Option func(*loadOptions)

// WithFile reads YAML from path instead of DefaultFile. A missing file is skipped.
func WithFile(path string) Option {
	return func(o *loadOptions) { o.file = path }
}

// WithYAML layers inline YAML above the file and below the environment.
func WithYAML(data []byte) Option {
	return func(o *loadOptions) { o.raw = data }
}

// WithEnviron replaces os.Environ as the source of environment variables.
func WithEnviron(fn func() []string) Option {
	return func(o *loadOptions) { o.environ = fn }
}

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. Inline YAML passed with WithYAML
// 3. The YAML configuration file
// 4. Default values (lowest priority)
func Load(opts ...Option) (*Config, error) {
	o := loadOptions{file: DefaultFile, environ: os.Environ}
	for _, opt := range opts {
		opt(&o)
	}

	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if o.file != "" {
		if err := k.Load(file.Provider(o.file), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", o.file, err)
		}
	}

	if len(o.raw) > 0 {
		if err := k.Load(rawbytes.Provider(o.raw), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load inline yaml: %w", err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: envKey,
		EnvironFunc:   o.environ,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// envKey converts UPPER_CASE variable names to lower.case koanf keys.
func envKey(k, v string) (string, any) {
	return strings.ReplaceAll(strings.ToLower(k), "_", "."), v
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"environment": EnvProduction,

		"app.name":    "mcpanel",
		"app.version": "v1.0.0",

		"log.level":  "info",
		"log.pretty": false,

		"request.timeout": 30,
		"connect.timeout": 5,

		"modrinth.api.url":       "https://api.modrinth.com/v2/",
		"pterodactyl.dryrun":     false,
		"observability.enabled":  false,
		"observability.exporter": "stdout",
		"observability.service":  "mcpanel",
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
