package app

import (
	"fmt"

	"github.com/gaborage/mcpanel/config"
	"github.com/gaborage/mcpanel/logger"
	"github.com/gaborage/mcpanel/modrinth"
	"github.com/gaborage/mcpanel/observability"
	"github.com/gaborage/mcpanel/pterodactyl"
)

// appBootstrap handles the initialization sequence for creating an App instance.
// Each step depends on the previous one: environment, config, logger,
// telemetry, then the service clients.
type appBootstrap struct {
	opts    *Options
	envKeys []string
	cfg     *config.Config
	log     logger.Logger
}

func newAppBootstrap(opts *Options) *appBootstrap {
	if opts == nil {
		opts = &Options{}
	}
	return &appBootstrap{opts: opts}
}

func (b *appBootstrap) loadEnvironment() error {
	if b.opts.SkipEnvFile {
		return nil
	}
	keys, err := config.LoadEnvFile(b.opts.envFile(), b.opts.Logger)
	if err != nil {
		return fmt.Errorf("failed to load environment file: %w", err)
	}
	b.envKeys = keys
	return nil
}

func (b *appBootstrap) loadConfig() error {
	loader := b.opts.ConfigLoader
	if loader == nil {
		loader = func() (*config.Config, error) { return config.Load() }
	}
	cfg, err := loader()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	b.cfg = cfg
	return nil
}

func (b *appBootstrap) createLogger() {
	b.log = b.opts.Logger
	if b.log == nil && b.opts.LogWriter != nil {
		b.log = logger.NewWithWriter(b.opts.LogWriter, b.cfg.Log.Level, b.cfg.Log.Pretty, nil)
	}
	if b.log == nil {
		b.log = logger.New(b.cfg.Log.Level, b.cfg.Log.Pretty)
	}
	b.log = b.log.WithFields(map[string]any{"app": b.cfg.App.Name})
	if len(b.envKeys) > 0 {
		b.log.Debug().
			Int("count", len(b.envKeys)).
			Str("file", b.opts.envFile()).
			Msg("Loaded environment file")
	}
}

func (b *appBootstrap) observability() (observability.Provider, error) {
	obsCfg := observability.FromConfig(b.cfg)
	factory := b.opts.ObservabilityFactory
	if factory == nil {
		factory = observability.NewProvider
	}
	provider, err := factory(&obsCfg, b.log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	return provider, nil
}

// dependencies builds the service clients shared by every module. A panel
// without a url is reported and skipped rather than failing startup.
func (b *appBootstrap) dependencies(provider observability.Provider) (*ModuleDeps, error) {
	api, err := modrinth.New(b.cfg, b.log, b.opts.ModrinthOptions...)
	if err != nil {
		return nil, err
	}
	cdn, err := modrinth.NewCDN(b.cfg, b.log, b.opts.ModrinthOptions...)
	if err != nil {
		return nil, err
	}

	deps := &ModuleDeps{
		Logger:        b.log,
		Config:        b.cfg,
		Modrinth:      api,
		CDN:           cdn,
		Observability: provider,
	}

	if b.cfg.Pterodactyl.API.URL == "" {
		key := "pterodactyl.api.url"
		b.log.Info().
			Err(config.NewNotConfiguredError("pterodactyl", key)).
			Msg("Pterodactyl client disabled")
		return deps, nil
	}

	panel, err := pterodactyl.New(b.cfg, b.log, b.opts.PterodactylOptions...)
	if err != nil {
		return nil, err
	}
	deps.Pterodactyl = panel
	return deps, nil
}
