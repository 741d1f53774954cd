// Package app wires mcpanel together: it loads the environment and
// configuration, builds the logger, telemetry and service clients, and
// runs registered modules until the process is asked to stop.
package app

import (
	"time"

	"github.com/gaborage/mcpanel/config"
	"github.com/gaborage/mcpanel/logger"
	"github.com/gaborage/mcpanel/observability"
)

// App represents the main application instance.
type App struct {
	cfg             *config.Config
	logger          logger.Logger
	deps            *ModuleDeps
	registry        *ModuleRegistry
	observability   observability.Provider
	signalHandler   SignalHandler
	shutdownTimeout time.Duration
	startedAt       time.Time
}

// New creates an application with the production wiring.
func New() (*App, error) {
	return NewWithOptions(nil)
}

// NewWithOptions creates an application, replacing any dependency set in opts.
func NewWithOptions(opts *Options) (*App, error) {
	startedAt := time.Now()
	b := newAppBootstrap(opts)

	if err := b.loadEnvironment(); err != nil {
		return nil, err
	}
	if err := b.loadConfig(); err != nil {
		return nil, err
	}
	b.createLogger()

	b.log.Info().
		Str("env", b.cfg.Environment).
		Str("version", b.cfg.App.Version).
		Msg("Starting application")

	provider, err := b.observability()
	if err != nil {
		return nil, err
	}

	deps, err := b.dependencies(provider)
	if err != nil {
		if shutdownErr := observability.Shutdown(provider, b.opts.ShutdownTimeout); shutdownErr != nil {
			b.log.Warn().Err(shutdownErr).Msg("Failed to stop observability after startup error")
		}
		return nil, err
	}

	signals := b.opts.SignalHandler
	if signals == nil {
		signals = osSignalHandler{}
	}

	a := &App{
		cfg:             b.cfg,
		logger:          b.log,
		deps:            deps,
		registry:        NewModuleRegistry(deps),
		observability:   provider,
		signalHandler:   signals,
		shutdownTimeout: b.opts.ShutdownTimeout,
		startedAt:       startedAt,
	}

	a.logger.Info().
		Dur("startup", time.Since(startedAt)).
		Msgf("Application started in %.3f seconds", time.Since(startedAt).Seconds())
	return a, nil
}

// RegisterModule initializes module and adds it to the shutdown sequence.
func (a *App) RegisterModule(module Module) error {
	return a.registry.Register(module)
}

// Modules describes the registered modules in registration order.
func (a *App) Modules() []ModuleDescriptor {
	return a.registry.Modules()
}

func (a *App) Config() *config.Config { return a.cfg }

func (a *App) Logger() logger.Logger { return a.logger }

// Deps exposes the shared dependencies, for callers that use the clients
// without registering a module.
func (a *App) Deps() *ModuleDeps { return a.deps }

// Uptime reports the time since NewWithOptions began.
func (a *App) Uptime() time.Duration { return time.Since(a.startedAt) }
