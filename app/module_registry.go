package app

import (
	"errors"
	"fmt"

	"github.com/gaborage/mcpanel/logger"
)

// ErrDuplicateModule is returned when two modules share a name.
var ErrDuplicateModule = errors.New("module already registered")

// ModuleRegistry manages the registration and lifecycle of application modules.
type ModuleRegistry struct {
	modules []Module
	names   map[string]struct{}
	deps    *ModuleDeps
	logger  logger.Logger
}

// NewModuleRegistry creates a new module registry with the given dependencies.
func NewModuleRegistry(deps *ModuleDeps) *ModuleRegistry {
	return &ModuleRegistry{
		modules: make([]Module, 0),
		names:   make(map[string]struct{}),
		deps:    deps,
		logger:  deps.Logger,
	}
}

// Register initializes module with the injected dependencies and tracks it
// for shutdown. A module whose Init fails is not tracked.
func (r *ModuleRegistry) Register(module Module) error {
	moduleName := module.Name()
	if _, exists := r.names[moduleName]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateModule, moduleName)
	}

	r.logger.Info().
		Str("module", moduleName).
		Msg("Registering module")

	if err := module.Init(r.deps); err != nil {
		return fmt.Errorf("failed to initialize module %s: %w", moduleName, err)
	}

	r.modules = append(r.modules, module)
	r.names[moduleName] = struct{}{}
	return nil
}

// Modules describes the registered modules in registration order.
func (r *ModuleRegistry) Modules() []ModuleDescriptor {
	out := make([]ModuleDescriptor, 0, len(r.modules))
	for _, m := range r.modules {
		out = append(out, describe(m))
	}
	return out
}

// Shutdown calls each module's Shutdown in reverse registration order.
// Every module is shut down even when an earlier one fails; the failures
// are joined into the returned error.
func (r *ModuleRegistry) Shutdown() error {
	var errs []error
	for i := len(r.modules) - 1; i >= 0; i-- {
		module := r.modules[i]
		r.logger.Info().
			Str("module", module.Name()).
			Msg("Shutting down module")

		if err := module.Shutdown(); err != nil {
			r.logger.Error().
				Err(err).
				Str("module", module.Name()).
				Msg("Failed to shutdown module")
			errs = append(errs, fmt.Errorf("%s: %w", module.Name(), err))
		}
	}
	r.modules = nil
	r.names = make(map[string]struct{})
	return errors.Join(errs...)
}
