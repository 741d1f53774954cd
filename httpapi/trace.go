package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"

	// HeaderXRequestID carries the request id to upstream APIs
	HeaderXRequestID = "X-Request-ID"
)

// WithRequestID stores id in ctx so every call made with it sends the same
// X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request id stored in ctx, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		return id, true
	}
	return "", false
}

// EnsureRequestID returns the id stored in ctx or a new random one.
func EnsureRequestID(ctx context.Context) string {
	if id, ok := RequestIDFromContext(ctx); ok {
		return id
	}
	return uuid.New().String()
}

// NewRequestIDInterceptor sets X-Request-ID on requests that lack one.
func NewRequestIDInterceptor() RequestInterceptor {
	return func(ctx context.Context, req *http.Request) error {
		if req.Header.Get(HeaderXRequestID) == "" {
			req.Header.Set(HeaderXRequestID, EnsureRequestID(ctx))
		}
		return nil
	}
}
