package app

import (
	"os"
	"os/signal"

	"github.com/gaborage/mcpanel/logger"
	"github.com/gaborage/mcpanel/observability"
)

// SignalHandler interface allows for injectable signal handling for testing
type SignalHandler interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

// ObservabilityFactory builds the telemetry provider from its resolved config.
type ObservabilityFactory func(cfg *observability.Config, log logger.Logger) (observability.Provider, error)

type osSignalHandler struct{}

func (osSignalHandler) Notify(c chan<- os.Signal, sig ...os.Signal) { signal.Notify(c, sig...) }

func (osSignalHandler) Stop(c chan<- os.Signal) { signal.Stop(c) }
