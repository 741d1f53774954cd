package modrinth

import (
	"github.com/gaborage/mcpanel/config"
	"github.com/gaborage/mcpanel/httpapi"
	"github.com/gaborage/mcpanel/logger"
)

// Option customizes API and CDN construction.
type Option func(*options)

type options struct {
	policy    httpapi.RetryPolicy
	configure []func(*httpapi.Builder)
}

// WithRetryPolicy replaces httpapi.OperationPolicy for every operation.
func WithRetryPolicy(p httpapi.RetryPolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithBuilder adjusts the underlying httpapi.Builder before Build.
func WithBuilder(fn func(*httpapi.Builder)) Option {
	return func(o *options) { o.configure = append(o.configure, fn) }
}

func newOptions(opts []Option) options {
	o := options{policy: httpapi.OperationPolicy()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func newBuilder(cfg *config.Config, log logger.Logger, o options) *httpapi.Builder {
	var auth httpapi.Authorizer = httpapi.NoAuth{}
	if cfg.Modrinth.Token != "" {
		auth = httpapi.NewTokenAuth(httpapi.NewSecret(cfg.Modrinth.Token), httpapi.WithScheme(TokenScheme))
	}

	b := httpapi.NewBuilder(log).
		WithServiceName(serviceName).
		WithTimeout(cfg.Request.Duration()).
		WithConnectTimeout(cfg.Connect.Duration()).
		WithProxy(cfg.Proxy).
		WithAuthorizer(auth)
	for _, fn := range o.configure {
		fn(b)
	}
	return b
}
