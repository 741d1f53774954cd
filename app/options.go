package app

import (
	"io"
	"time"

	"github.com/gaborage/mcpanel/config"
	"github.com/gaborage/mcpanel/logger"
	"github.com/gaborage/mcpanel/modrinth"
	"github.com/gaborage/mcpanel/pterodactyl"
)

// Options contains optional dependencies for creating an App instance.
// Zero values fall back to the production wiring.
type Options struct {
	// EnvFile is copied into the process environment before config loads.
	// Defaults to config.DefaultEnvFile; SkipEnvFile disables the step.
	EnvFile     string
	SkipEnvFile bool

	ConfigLoader func() (*config.Config, error)

	// Logger replaces the configured logger. Otherwise one is built from
	// the log section of the config, writing to LogWriter or stdout.
	Logger               logger.Logger
	LogWriter            io.Writer
	SignalHandler        SignalHandler
	ObservabilityFactory ObservabilityFactory
	ShutdownTimeout      time.Duration

	ModrinthOptions    []modrinth.Option
	PterodactylOptions []pterodactyl.Option
}

func (o *Options) envFile() string {
	if o.EnvFile == "" {
		return config.DefaultEnvFile
	}
	return o.EnvFile
}
