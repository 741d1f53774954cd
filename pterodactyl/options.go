package pterodactyl

import "github.com/gaborage/mcpanel/httpapi"

// Option customizes API construction.
type Option func(*options)

type options struct {
	policy    httpapi.RetryPolicy
	dryRun    bool
	configure []func(*httpapi.Builder)
}

// WithDryRun overrides pterodactyl.dryrun. In dry run every mutating call
// returns a placeholder document without reaching the panel.
func WithDryRun(enabled bool) Option {
	return func(o *options) { o.dryRun = enabled }
}

// WithRetryPolicy replaces httpapi.OperationPolicy for every operation.
func WithRetryPolicy(p httpapi.RetryPolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithBuilder adjusts the underlying httpapi.Builder before Build.
func WithBuilder(fn func(*httpapi.Builder)) Option {
	return func(o *options) { o.configure = append(o.configure, fn) }
}
