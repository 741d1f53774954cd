package logger

import (
	"context"
	"sync/atomic"
)

type contextKey string

const (
	// apiCounterKey tracks outbound API transport attempts made under one context
	apiCounterKey contextKey = "api_call_counter"
	// apiElapsedKey tracks total nanoseconds spent in those attempts
	apiElapsedKey contextKey = "api_elapsed_nanos"
)

// WithAPICounter returns a context that accumulates outbound API call counts
// and elapsed time. Counters are shared by every call made with the context
// or its children.
func WithAPICounter(ctx context.Context) context.Context {
	counter := int64(0)
	elapsed := int64(0)
	ctx = context.WithValue(ctx, apiCounterKey, &counter)
	ctx = context.WithValue(ctx, apiElapsedKey, &elapsed)
	return ctx
}

// IncrementAPICounter adds one outbound call to the counter in ctx, if any.
func IncrementAPICounter(ctx context.Context) {
	if counter, ok := ctx.Value(apiCounterKey).(*int64); ok && counter != nil {
		atomic.AddInt64(counter, 1)
	}
}

// GetAPICounter returns the number of outbound calls recorded in ctx.
func GetAPICounter(ctx context.Context) int64 {
	if counter, ok := ctx.Value(apiCounterKey).(*int64); ok && counter != nil {
		return atomic.LoadInt64(counter)
	}
	return 0
}

// AddAPIElapsed adds nanos to the elapsed total in ctx, if any.
func AddAPIElapsed(ctx context.Context, nanos int64) {
	if elapsed, ok := ctx.Value(apiElapsedKey).(*int64); ok && elapsed != nil {
		atomic.AddInt64(elapsed, nanos)
	}
}

// GetAPIElapsed returns the elapsed nanoseconds recorded in ctx.
func GetAPIElapsed(ctx context.Context) int64 {
	if elapsed, ok := ctx.Value(apiElapsedKey).(*int64); ok && elapsed != nil {
		return atomic.LoadInt64(elapsed)
	}
	return 0
}
