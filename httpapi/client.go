package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gaborage/mcpanel/httpapi/internal/tracking"
	"github.com/gaborage/mcpanel/logger"
)

const (
	// DefaultTimeout bounds a whole request, body included
	DefaultTimeout = 30 * time.Second

	// DefaultConnectTimeout bounds establishing the connection
	DefaultConnectTimeout = 5 * time.Second

	// DefaultAuthFailureDelay is the pause before VerifyCredentials reports a rejection
	DefaultAuthFailureDelay = 30 * time.Second

	// DefaultMaxPayloadLogBytes caps logged bodies when payload logging is on
	DefaultMaxPayloadLogBytes = 4096
)

type client struct {
	session             *Session
	logger              logger.Logger
	auth                Authorizer
	serviceName         string
	transport           http.RoundTripper
	raiseForStatus      bool
	requestInterceptors []RequestInterceptor
	validator           ResultValidator
	logPayloads         bool
	maxPayloadLogBytes  int
	authFailureDelay    time.Duration
	transportPolicy     RetryPolicy
	authPolicy          RetryPolicy
	tracing             bool
}

// Builder provides a fluent interface for configuring the API client
type Builder struct {
	logger              logger.Logger
	baseURL             string
	proxy               string
	timeout             time.Duration
	connectTimeout      time.Duration
	auth                Authorizer
	options             []TransportOption
	transport           http.RoundTripper
	raiseForStatus      bool
	requestInterceptors []RequestInterceptor
	validator           ResultValidator
	logPayloads         bool
	maxPayloadLogBytes  int
	authFailureDelay    time.Duration
	transportPolicy     RetryPolicy
	authPolicy          RetryPolicy
	serviceName         string
	tracing             bool
}

// NewBuilder creates a new client builder
func NewBuilder(log logger.Logger) *Builder {
	if log == nil {
		log = logger.Nop()
	}
	return &Builder{
		logger:              log,
		timeout:             DefaultTimeout,
		connectTimeout:      DefaultConnectTimeout,
		auth:                NoAuth{},
		raiseForStatus:      true,
		requestInterceptors: []RequestInterceptor{NewRequestIDInterceptor()},
		maxPayloadLogBytes:  DefaultMaxPayloadLogBytes,
		authFailureDelay:    DefaultAuthFailureDelay,
		transportPolicy:     TransportPolicy(),
		authPolicy:          AuthPolicy(),
		serviceName:         "httpapi",
		tracing:             true,
	}
}

// WithBaseURL sets the URL relative paths are joined onto. Without one,
// every request path must be an absolute URL.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.baseURL = baseURL
	return b
}

// WithProxy routes every call through proxyURL.
func (b *Builder) WithProxy(proxyURL string) *Builder {
	b.proxy = proxyURL
	return b
}

// WithTimeout sets the total request timeout
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.timeout = timeout
	return b
}

// WithConnectTimeout sets the dial timeout
func (b *Builder) WithConnectTimeout(timeout time.Duration) *Builder {
	b.connectTimeout = timeout
	return b
}

// WithAuthorizer sets the default authorizer
func (b *Builder) WithAuthorizer(auth Authorizer) *Builder {
	if auth == nil {
		auth = NoAuth{}
	}
	b.auth = auth
	return b
}

// WithTransportOption adds a hook applied to every per-call transport.
func (b *Builder) WithTransportOption(opt TransportOption) *Builder {
	b.options = append(b.options, opt)
	return b
}

// WithTransport replaces the per-call *http.Transport with rt. Proxy,
// connect timeout and transport options are then the caller's concern.
func (b *Builder) WithTransport(rt http.RoundTripper) *Builder {
	b.transport = rt
	return b
}

// WithRaiseForStatus controls whether non-2xx responses fail the call.
func (b *Builder) WithRaiseForStatus(raise bool) *Builder {
	b.raiseForStatus = raise
	return b
}

// WithRequestInterceptor adds a request interceptor
func (b *Builder) WithRequestInterceptor(interceptor RequestInterceptor) *Builder {
	b.requestInterceptors = append(b.requestInterceptors, interceptor)
	return b
}

// WithResultValidator sets the hook run after a response is consumed.
func (b *Builder) WithResultValidator(v ResultValidator) *Builder {
	b.validator = v
	return b
}

// WithLogPayloads enables debug-level logging of headers and bodies
func (b *Builder) WithLogPayloads(enabled bool, maxBytes int) *Builder {
	b.logPayloads = enabled
	if maxBytes > 0 {
		b.maxPayloadLogBytes = maxBytes
	}
	return b
}

// WithAuthFailureDelay sets the pause before VerifyCredentials fails.
func (b *Builder) WithAuthFailureDelay(d time.Duration) *Builder {
	b.authFailureDelay = d
	return b
}

// WithTransportPolicy replaces TransportPolicy for the per-request retry.
func (b *Builder) WithTransportPolicy(p RetryPolicy) *Builder {
	b.transportPolicy = p
	return b
}

// WithAuthPolicy replaces AuthPolicy for VerifyCredentials.
func (b *Builder) WithAuthPolicy(p RetryPolicy) *Builder {
	b.authPolicy = p
	return b
}

// WithServiceName labels logs and metrics.
func (b *Builder) WithServiceName(name string) *Builder {
	b.serviceName = name
	return b
}

// WithTracing toggles otelhttp instrumentation of the transport.
func (b *Builder) WithTracing(enabled bool) *Builder {
	b.tracing = enabled
	return b
}

// Build validates the configuration and creates the client.
func (b *Builder) Build() (Client, error) {
	session := &Session{
		Timeout:        b.timeout,
		ConnectTimeout: b.connectTimeout,
		Options:        append([]TransportOption(nil), b.options...),
	}

	if b.baseURL != "" {
		base, err := parseAbsoluteURL(b.baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base url: %w", err)
		}
		if !strings.HasSuffix(base.Path, "/") {
			base.Path += "/"
		}
		session.BaseURL = base
	}

	if b.proxy != "" {
		proxy, err := parseAbsoluteURL(b.proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		session.Proxy = proxy
	}

	return &client{
		session:             session,
		logger:              b.logger.WithFields(map[string]any{"service": b.serviceName}),
		auth:                b.auth,
		serviceName:         b.serviceName,
		transport:           b.transport,
		raiseForStatus:      b.raiseForStatus,
		requestInterceptors: append([]RequestInterceptor(nil), b.requestInterceptors...),
		validator:           b.validator,
		logPayloads:         b.logPayloads,
		maxPayloadLogBytes:  b.maxPayloadLogBytes,
		authFailureDelay:    b.authFailureDelay,
		transportPolicy:     b.transportPolicy,
		authPolicy:          b.authPolicy,
		tracing:             b.tracing,
	}, nil
}

func parseAbsoluteURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute url", raw)
	}
	return u, nil
}

func (c *client) Session() *Session {
	return c.session
}

// Get performs a GET request
func (c *client) Get(ctx context.Context, req *Request) (ResponseShaper, error) {
	return c.Do(ctx, MethodGet, req)
}

// Post performs a POST request
func (c *client) Post(ctx context.Context, req *Request) (ResponseShaper, error) {
	return c.Do(ctx, MethodPost, req)
}

// Put performs a PUT request
func (c *client) Put(ctx context.Context, req *Request) (ResponseShaper, error) {
	return c.Do(ctx, MethodPut, req)
}

// Patch performs a PATCH request
func (c *client) Patch(ctx context.Context, req *Request) (ResponseShaper, error) {
	return c.Do(ctx, MethodPatch, req)
}

// Delete performs a DELETE request
func (c *client) Delete(ctx context.Context, req *Request) (ResponseShaper, error) {
	return c.Do(ctx, MethodDelete, req)
}

// Do runs one request lifecycle. Every failure is returned as an *Error.
func (c *client) Do(ctx context.Context, method Method, req *Request) (ResponseShaper, error) {
	resp, err := c.do(ctx, method, req, c.raiseForStatus)
	if err != nil {
		return nil, Translate(err)
	}
	return resp, nil
}

// do runs the lifecycle and returns untranslated errors. raise turns any
// non-2xx response into an HTTPError.
func (c *client) do(ctx context.Context, method Method, req *Request, raise bool) (ResponseShaper, error) {
	if req == nil {
		req = &Request{}
	}
	if !method.Valid() {
		return nil, MethodNotAllowed(fmt.Sprintf("method %q is not supported", method))
	}

	response := req.Response
	if response == nil {
		response = NewJSONResponse()
	}
	if req.Placeholder {
		return c.placeholder(ctx, method, response), nil
	}

	httpClient, release := c.acquire()
	defer release()

	shaper := req.Shaper
	if shaper == nil {
		shaper = JSONRequest{}
	}
	shaper = shaper.WithBodyAllowed(method.BodyAllowed())

	auth := req.Auth
	if auth == nil {
		auth = c.auth
	}

	headers := shaper.Headers(cloneHeader(req.Headers))
	headers = response.Headers(headers)
	headers, err := auth.Headers(ctx, c.session, headers)
	if err != nil {
		return c.placeholderOr(ctx, method, response, err)
	}

	args, err := shaper.TransportArgs(req.Query, req.JSON, req.Body)
	if err != nil {
		return c.placeholderOr(ctx, method, response, err)
	}

	target, err := c.resolve(req.Path, args.Query)
	if err != nil {
		return nil, err
	}

	ctx = WithRequestID(ctx, EnsureRequestID(ctx))
	policy := c.transportPolicy
	policy.OnRetry = c.onRetry(ctx, "transport", policy.OnRetry)

	raw, err := Retry(ctx, policy, func(ctx context.Context) (*http.Response, error) {
		return c.attempt(ctx, httpClient, method, target, headers, args.Body, raise)
	})
	if err != nil {
		return c.placeholderOr(ctx, method, response, err)
	}

	if err := response.Consume(raw); err != nil {
		return nil, err
	}
	if c.validator != nil {
		if err := c.validator(ctx, response); err != nil {
			return nil, NewInterceptorError("result", err)
		}
	}
	return response, nil
}

// acquire builds the per-call transport and returns a release func that
// closes its idle connections.
func (c *client) acquire() (*http.Client, func()) {
	var rt http.RoundTripper
	release := func() {}

	if c.transport != nil {
		rt = c.transport
	} else {
		dialer := &net.Dialer{Timeout: c.session.ConnectTimeout}
		t := &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   c.session.ConnectTimeout,
			ResponseHeaderTimeout: c.session.Timeout,
			DisableKeepAlives:     false,
			ForceAttemptHTTP2:     true,
		}
		if c.session.Proxy != nil {
			t.Proxy = http.ProxyURL(c.session.Proxy)
		}
		for _, opt := range c.session.Options {
			opt(t)
		}
		rt = t
		release = t.CloseIdleConnections
	}

	if c.tracing {
		rt = otelhttp.NewTransport(rt)
	}
	return &http.Client{Transport: rt, Timeout: c.session.Timeout}, release
}

// resolve joins path onto the base URL; absolute URLs are used as is.
func (c *client) resolve(path string, query url.Values) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", BadRequest(fmt.Sprintf("invalid request path %q: %v", path, err))
	}

	var target *url.URL
	switch {
	case ref.IsAbs():
		target = ref
	case c.session.BaseURL != nil:
		ref.Path = strings.TrimPrefix(ref.Path, "/")
		target = c.session.BaseURL.ResolveReference(ref)
	default:
		return "", BadRequest(fmt.Sprintf("request path %q is relative but the client has no base url", path))
	}

	if len(query) > 0 {
		merged := target.Query()
		for k, vs := range query {
			for _, v := range vs {
				merged.Add(k, v)
			}
		}
		target.RawQuery = merged.Encode()
	}
	return target.String(), nil
}

// attempt performs one transport call and buffers the body so the caller
// can consume it after the connection is gone.
func (c *client) attempt(ctx context.Context, httpClient *http.Client, method Method, target string, headers http.Header, body []byte, raise bool) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(method), target, reader)
	if err != nil {
		return nil, BadRequest(fmt.Sprintf("failed to create request: %v", err))
	}
	httpReq.Header = headers.Clone()

	for _, interceptor := range c.requestInterceptors {
		if err := interceptor(ctx, httpReq); err != nil {
			return nil, NewInterceptorError("request", err)
		}
	}

	c.logRequest(httpReq, body)
	logger.IncrementAPICounter(ctx)

	start := time.Now()
	httpResp, err := httpClient.Do(httpReq)
	if err != nil {
		elapsed := time.Since(start)
		logger.AddAPIElapsed(ctx, elapsed.Nanoseconds())
		transportErr := c.classify(ctx, err)
		tracking.RecordRequest(ctx, c.serviceName, string(method), httpReq.URL.Host, 0, elapsed, errorTypeOf(transportErr))
		return nil, transportErr
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	elapsed := time.Since(start)
	logger.AddAPIElapsed(ctx, elapsed.Nanoseconds())
	if err != nil {
		transportErr := c.classify(ctx, err)
		tracking.RecordRequest(ctx, c.serviceName, string(method), httpReq.URL.Host, httpResp.StatusCode, elapsed, errorTypeOf(transportErr))
		return nil, transportErr
	}
	httpResp.Body = io.NopCloser(bytes.NewReader(data))

	c.logResponse(ctx, httpResp, data, elapsed)

	if raise && !IsSuccessStatus(httpResp.StatusCode) {
		tracking.RecordRequest(ctx, c.serviceName, string(method), httpReq.URL.Host, httpResp.StatusCode, elapsed, string(HTTPError))
		return nil, NewHTTPError(statusMessage(httpResp), httpResp.StatusCode, data)
	}
	tracking.RecordRequest(ctx, c.serviceName, string(method), httpReq.URL.Host, httpResp.StatusCode, elapsed, "")
	return httpResp, nil
}

// classify sorts a transport failure into the error taxonomy. Caller
// cancellation is passed through untouched.
func (c *client) classify(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return err
	}
	if isTimeout(err) {
		return NewTimeoutError("request timeout", c.session.Timeout, err)
	}
	return NewNetworkError("request execution failed", err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func errorTypeOf(err error) string {
	var transportErr TransportError
	if errors.As(err, &transportErr) {
		return string(transportErr.Type())
	}
	return "error"
}

func statusMessage(resp *http.Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}

// placeholderOr short-circuits on ErrPlaceholder and returns err otherwise.
func (c *client) placeholderOr(ctx context.Context, method Method, response ResponseShaper, err error) (ResponseShaper, error) {
	if errors.Is(err, ErrPlaceholder) {
		return c.placeholder(ctx, method, response), nil
	}
	return nil, err
}

func (c *client) placeholder(ctx context.Context, method Method, response ResponseShaper) ResponseShaper {
	response.ForcePlaceholder()
	tracking.RecordPlaceholder(ctx, c.serviceName, string(method))
	c.logger.Debug().
		Str("method", string(method)).
		Msg("REST client placeholder response")
	return response
}

func (c *client) onRetry(ctx context.Context, layer string, next func(error, time.Duration)) func(error, time.Duration) {
	return func(err error, wait time.Duration) {
		tracking.RecordRetry(ctx, c.serviceName, layer)
		c.logger.Warn().
			Err(err).
			Str("layer", layer).
			Dur("wait", wait).
			Msg("REST client retrying request")
		if next != nil {
			next(err, wait)
		}
	}
}

// Authorize returns the headers auth would add to an empty request.
func (c *client) Authorize(ctx context.Context, auth Authorizer) (http.Header, error) {
	if auth == nil {
		auth = c.auth
	}
	headers, err := auth.Headers(ctx, c.session, http.Header{})
	if err != nil {
		return nil, Translate(err)
	}
	return headers, nil
}

// VerifyCredentials checks credentials against path. Any non-2xx status
// counts as a rejection whatever WithRaiseForStatus says. A rejected call
// waits for the auth failure delay before failing, and the whole check is
// retried under the auth policy.
func (c *client) VerifyCredentials(ctx context.Context, path string, auth Authorizer) error {
	policy := c.authPolicy
	policy.OnRetry = c.onRetry(ctx, "auth", policy.OnRetry)

	_, err := Retry(ctx, policy, func(ctx context.Context) (struct{}, error) {
		_, err := c.do(ctx, MethodGet, &Request{Path: path, Auth: auth}, true)
		if err == nil {
			return struct{}{}, nil
		}
		if !IsErrorType(err, HTTPError) {
			return struct{}{}, Translate(err)
		}

		c.logger.Warn().
			Err(err).
			Str("path", path).
			Dur("delay", c.authFailureDelay).
			Msg("REST client credentials rejected")

		timer := time.NewTimer(c.authFailureDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return struct{}{}, ctx.Err()
		}
		return struct{}{}, newError(http.StatusUnauthorized, "Authentication has failed", fmt.Errorf("%w: %w", ErrAuthenticationFailed, err))
	})
	return err
}
