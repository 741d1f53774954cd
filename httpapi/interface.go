package httpapi

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Client issues requests against one upstream API.
type Client interface {
	Do(ctx context.Context, method Method, req *Request) (ResponseShaper, error)
	Get(ctx context.Context, req *Request) (ResponseShaper, error)
	Post(ctx context.Context, req *Request) (ResponseShaper, error)
	Put(ctx context.Context, req *Request) (ResponseShaper, error)
	Patch(ctx context.Context, req *Request) (ResponseShaper, error)
	Delete(ctx context.Context, req *Request) (ResponseShaper, error)

	// VerifyCredentials issues a GET against path with auth (or the default
	// authorizer when nil) and reports ErrAuthenticationFailed if the upstream
	// rejects it.
	VerifyCredentials(ctx context.Context, path string, auth Authorizer) error

	// Authorize returns the headers auth (or the default authorizer) would
	// add, without sending anything.
	Authorize(ctx context.Context, auth Authorizer) (http.Header, error)

	// Session exposes the immutable connection settings of this client.
	Session() *Session
}

// Request describes one call. Zero values select the defaults: no query, no
// body, the client's authorizer, JSONRequest and a fresh JSONResponse.
type Request struct {
	// Path is joined onto the base URL. An absolute URL is used as is.
	Path    string
	Query   map[string]string
	JSON    map[string]any
	Body    []byte
	Headers http.Header

	Auth     Authorizer
	Shaper   RequestShaper
	Response ResponseShaper

	// Placeholder skips the network and fills Response with its placeholder.
	Placeholder bool
}

// Session holds the connection settings shared by every call of a client.
// A new transport is built from it for each call.
type Session struct {
	BaseURL        *url.URL
	Proxy          *url.URL
	Timeout        time.Duration
	ConnectTimeout time.Duration
	Options        []TransportOption
}

// TransportArgs is what a RequestShaper hands to the transport.
type TransportArgs struct {
	Query url.Values
	Body  []byte
}

// TransportOption adjusts the per-call transport, e.g. TLS settings.
type TransportOption func(*http.Transport)

// RequestInterceptor runs on the outgoing request after headers are folded.
// Returning ErrPlaceholder short-circuits the call.
type RequestInterceptor func(ctx context.Context, req *http.Request) error

// ResultValidator inspects a consumed response before it is returned.
type ResultValidator func(ctx context.Context, resp ResponseShaper) error
