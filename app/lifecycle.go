package app

import (
	"context"
	"errors"
	"os"
	"syscall"

	"github.com/gaborage/mcpanel/observability"
)

// Run blocks until ctx is cancelled or the process receives SIGINT or
// SIGTERM, then shuts the application down.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info().
		Int("modules", len(a.registry.modules)).
		Msg("Starting loop for main application")

	reason := a.waitForShutdown(ctx)
	a.logger.Info().
		Str("reason", reason).
		Dur("uptime", a.Uptime()).
		Msg("Shutting down application")

	return a.Shutdown()
}

func (a *App) waitForShutdown(ctx context.Context) string {
	quit := make(chan os.Signal, 1)
	a.signalHandler.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer a.signalHandler.Stop(quit)

	select {
	case sig := <-quit:
		return "signal " + sig.String()
	case <-ctx.Done():
		return "context " + ctx.Err().Error()
	}
}

// Shutdown stops modules in reverse registration order, then flushes and
// stops telemetry. Failures are logged and joined.
func (a *App) Shutdown() error {
	var errs []error
	if err := a.registry.Shutdown(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to shutdown modules")
		errs = append(errs, err)
	}

	if err := observability.Shutdown(a.observability, a.shutdownTimeout); err != nil {
		a.logger.Error().Err(err).Msg("Failed to shutdown observability")
		errs = append(errs, err)
	}

	a.logger.Info().Msg("Application shutdown complete")
	return errors.Join(errs...)
}
