package observability

import "errors"

// ErrNilConfig is returned when Validate is called on a nil Config pointer.
var ErrNilConfig = errors.New("observability: config is nil")

// ErrMissingServiceName is returned when observability is enabled but no service name is configured.
var ErrMissingServiceName = errors.New("observability: service name is required when observability is enabled")

// ErrInvalidExporter is returned for an exporter other than stdout, otlp-http or otlp-grpc.
var ErrInvalidExporter = errors.New("observability: exporter must be one of 'stdout', 'otlp-http' or 'otlp-grpc'")

// ErrInvalidEndpointFormat is returned when an OTLP endpoint carries a URL scheme.
var ErrInvalidEndpointFormat = errors.New("observability: invalid endpoint format")
