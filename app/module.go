package app

import (
	"github.com/gaborage/mcpanel/config"
	"github.com/gaborage/mcpanel/logger"
	"github.com/gaborage/mcpanel/modrinth"
	"github.com/gaborage/mcpanel/observability"
	"github.com/gaborage/mcpanel/pterodactyl"
)

// Module defines the interface that all application modules must implement.
// Init receives the shared dependencies once; Shutdown runs in reverse
// registration order when the application stops.
type Module interface {
	Name() string
	Init(deps *ModuleDeps) error
	Shutdown() error
}

// ModuleDeps contains the dependencies that are injected into each module.
// Pterodactyl is nil when no panel URL is configured.
type ModuleDeps struct {
	Logger        logger.Logger
	Config        *config.Config
	Modrinth      *modrinth.API
	CDN           *modrinth.CDN
	Pterodactyl   *pterodactyl.API
	Observability observability.Provider
}

// ModuleDescriptor captures module-level metadata
type ModuleDescriptor struct {
	Name        string
	Version     string
	Description string
}

// Describer is an optional interface for modules that publish metadata.
type Describer interface {
	DescribeModule() ModuleDescriptor
}

func describe(m Module) ModuleDescriptor {
	if d, ok := m.(Describer); ok {
		desc := d.DescribeModule()
		if desc.Name == "" {
			desc.Name = m.Name()
		}
		return desc
	}
	return ModuleDescriptor{Name: m.Name()}
}
