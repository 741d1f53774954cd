package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaborage/mcpanel/internal/testutil"
	"github.com/gaborage/mcpanel/logger"
	"github.com/gaborage/mcpanel/observability/obstest"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

type countingTransport struct {
	calls atomic.Int32
}

func (c *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return nil, errors.New("transport must not be used")
}

// placeholderAuth asks for a placeholder instead of credentials.
type placeholderAuth struct{}

func (placeholderAuth) Headers(context.Context, *Session, http.Header) (http.Header, error) {
	return nil, ErrPlaceholder
}

func newTestClient(t *testing.T, baseURL string, configure ...func(*Builder)) Client {
	t.Helper()
	b := NewBuilder(logger.Nop()).
		WithBaseURL(baseURL).
		WithTracing(false).
		WithTransportPolicy(RetryPolicy{
			MaxElapsed:      200 * time.Millisecond,
			InitialInterval: 5 * time.Millisecond,
			MaxInterval:     20 * time.Millisecond,
			Retryable:       IsTransient,
		})
	for _, fn := range configure {
		fn(b)
	}
	c, err := b.Build()
	require.NoError(t, err)
	return c
}

func TestBuilderDefaults(t *testing.T) {
	c, err := NewBuilder(nil).WithBaseURL("https://api.modrinth.com/v2").Build()
	require.NoError(t, err)

	s := c.Session()
	assert.Equal(t, "https://api.modrinth.com/v2/", s.BaseURL.String())
	assert.Equal(t, DefaultTimeout, s.Timeout)
	assert.Equal(t, DefaultConnectTimeout, s.ConnectTimeout)
	assert.Nil(t, s.Proxy)
}

func TestBuilderRejectsBadURLs(t *testing.T) {
	_, err := NewBuilder(nil).WithBaseURL("not a url").Build()
	assert.Error(t, err)

	_, err = NewBuilder(nil).WithProxy("/relative").Build()
	assert.Error(t, err)

	c, err := NewBuilder(nil).WithProxy("http://proxy.local:3128").Build()
	require.NoError(t, err)
	assert.Equal(t, "proxy.local:3128", c.Session().Proxy.Host)
}

func TestClientGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v2/project/fabric-api", r.URL.Path)
		assert.Equal(t, ContentTypeJSON, r.Header.Get(HeaderAccept))
		assert.Empty(t, r.Header.Get(HeaderContentType))
		w.Header().Set(HeaderContentType, ContentTypeJSON)
		_, _ = w.Write([]byte(`{"slug":"fabric-api","title":"Fabric API"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL+"/v2/")
	resp, err := c.Get(context.Background(), &Request{Path: "/project/fabric-api"})
	require.NoError(t, err)

	jsonResp, ok := resp.(*JSONResponse)
	require.True(t, ok)
	data, err := jsonResp.JSON()
	require.NoError(t, err)
	assert.Equal(t, "Fabric API", data["title"])
}

func TestClientPostJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, ContentTypeJSON, r.Header.Get(HeaderContentType))
		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		assert.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "say hello", payload["command"])
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	resp, err := c.Post(context.Background(), &Request{
		Path: "client/servers/abc/command",
		JSON: map[string]any{"command": "say hello"},
	})
	require.NoError(t, err)
	assert.True(t, resp.Populated())
}

func TestClientQueryParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Query().Get("directory"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.Get(context.Background(), &Request{
		Path:  "files/list?page=1",
		Query: map[string]string{"directory": "/"},
	})
	require.NoError(t, err)
}

func TestClientHeaderPrecedence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer real", r.Header.Get(HeaderAuthorization))
		assert.Equal(t, ContentTypeJSON, r.Header.Get(HeaderAccept))
		assert.Equal(t, ContentTypeJSON, r.Header.Get(HeaderContentType))
		assert.Equal(t, "kept", r.Header.Get("X-Caller"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(b *Builder) {
		b.WithAuthorizer(NewTokenAuth(NewSecret("real")))
	})
	_, err := c.Put(context.Background(), &Request{
		Path: "resource",
		JSON: map[string]any{"a": 1},
		Headers: http.Header{
			HeaderAuthorization: []string{"Bearer caller"},
			HeaderAccept:        []string{"text/plain"},
			HeaderContentType:   []string{"text/plain"},
			"X-Caller":          []string{"kept"},
		},
	})
	require.NoError(t, err)
}

func TestClientPerCallAuthOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "apiKey other", r.Header.Get(HeaderAuthorization))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(b *Builder) {
		b.WithAuthorizer(NewTokenAuth(NewSecret("default")))
	})
	_, err := c.Get(context.Background(), &Request{
		Path: "x",
		Auth: NewTokenAuth(NewSecret("other"), WithScheme("apiKey ")),
	})
	require.NoError(t, err)
}

func TestClientRejectsBodyOnGet(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.Get(context.Background(), &Request{Path: "x", JSON: map[string]any{"a": 1}})

	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadRequest))
	assert.Contains(t, err.Error(), "body is not allowed in this requests")
	assert.Equal(t, int32(0), hits.Load())
}

func TestClientUnsupportedMethod(t *testing.T) {
	c := newTestClient(t, "http://unused.local")
	_, err := c.Do(context.Background(), Method("TRACE"), nil)
	assert.True(t, IsStatus(err, http.StatusMethodNotAllowed))
}

func TestClientStatusFailure(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.Get(context.Background(), &Request{Path: "project/missing"})

	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
	assert.True(t, IsHTTPStatusError(err, http.StatusNotFound))
	assert.Contains(t, err.Error(), "Request has failed with status error 404")
	assert.Equal(t, int32(1), hits.Load(), "status failures are not retried")
}

func TestClientRaiseForStatusDisabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"conflict"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(b *Builder) { b.WithRaiseForStatus(false) })
	resp, err := c.Get(context.Background(), &Request{Path: "x"})
	require.NoError(t, err)

	jsonResp := resp.(*JSONResponse)
	assert.Equal(t, http.StatusConflict, jsonResp.StatusCode())
	value, err := jsonResp.Get("error")
	require.NoError(t, err)
	assert.Equal(t, "conflict", value.String())
}

func TestClientTimeoutBecomesGatewayTimeout(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := newTestClient(t, server.URL, func(b *Builder) { b.WithTimeout(30 * time.Millisecond) })
	_, err := c.Get(context.Background(), &Request{Path: "slow"})

	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusGatewayTimeout))
	assert.Contains(t, err.Error(), "Request has failed with timeout error")
	assert.Greater(t, hits.Load(), int32(1), "timeouts are retried within the transport budget")
}

// dialTimeout is what a dialer reports when the connect deadline passes.
type dialTimeout struct{}

func (dialTimeout) Error() string   { return "dial tcp: i/o timeout" }
func (dialTimeout) Timeout() bool   { return true }
func (dialTimeout) Temporary() bool { return true }

func TestClientConnectTimeoutBecomesGatewayTimeout(t *testing.T) {
	var dials atomic.Int32
	c := newTestClient(t, "http://api.unreachable.local", func(b *Builder) {
		b.WithTransportOption(func(tr *http.Transport) {
			tr.DialContext = func(context.Context, string, string) (net.Conn, error) {
				dials.Add(1)
				return nil, &net.OpError{Op: "dial", Net: "tcp", Err: dialTimeout{}}
			}
		})
	})

	start := time.Now()
	_, err := c.Get(context.Background(), &Request{Path: "project/fabric-api"})

	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusGatewayTimeout))
	assert.Contains(t, err.Error(), "Request has failed with timeout error")
	assert.Greater(t, dials.Load(), int32(1), "connect timeouts are retried within the transport budget")
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond, "the transport budget is spent before giving up")
}

func TestClientConnectionFailureBecomesBadGateway(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	c := newTestClient(t, url)
	_, err := c.Get(context.Background(), &Request{Path: "x"})

	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadGateway))
}

func TestClientPlaceholderSkipsTransport(t *testing.T) {
	transport := &countingTransport{}
	c := newTestClient(t, "http://unused.local", func(b *Builder) { b.WithTransport(transport) })

	t.Run("request flag", func(t *testing.T) {
		resp, err := c.Post(context.Background(), &Request{Path: "x", JSON: map[string]any{"a": 1}, Placeholder: true})
		require.NoError(t, err)
		jsonResp := resp.(*JSONResponse)
		assert.True(t, jsonResp.IsPlaceholder())
	})

	t.Run("authorizer", func(t *testing.T) {
		resp, err := c.Get(context.Background(), &Request{Path: "x", Auth: placeholderAuth{}})
		require.NoError(t, err)
		assert.True(t, resp.(*JSONResponse).IsPlaceholder())
	})

	t.Run("stream response", func(t *testing.T) {
		stream := NewStreamResponse(OctetStream)
		resp, err := c.Get(context.Background(), &Request{Path: "x", Response: stream, Placeholder: true})
		require.NoError(t, err)
		assert.Same(t, stream, resp)
		data, err := stream.Stream()
		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("request interceptor", func(t *testing.T) {
		intercepted := newTestClient(t, "http://unused.local", func(b *Builder) {
			b.WithTransport(transport).WithRequestInterceptor(func(context.Context, *http.Request) error {
				return ErrPlaceholder
			})
		})
		resp, err := intercepted.Delete(context.Background(), &Request{Path: "x"})
		require.NoError(t, err)
		assert.True(t, resp.(*JSONResponse).IsPlaceholder())
	})

	assert.Equal(t, int32(0), transport.calls.Load())
}

func TestClientInterceptorFailure(t *testing.T) {
	transport := &countingTransport{}
	failure := errors.New("signing failed")
	c := newTestClient(t, "http://unused.local", func(b *Builder) {
		b.WithTransport(transport).WithRequestInterceptor(func(context.Context, *http.Request) error {
			return failure
		})
	})

	_, err := c.Get(context.Background(), &Request{Path: "x"})
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, int32(0), transport.calls.Load())
}

func TestClientResultValidator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"successful":false}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(b *Builder) {
		b.WithResultValidator(func(_ context.Context, resp ResponseShaper) error {
			ok, err := resp.(*JSONResponse).Get("successful")
			if err != nil {
				return err
			}
			if !ok.Bool() {
				return ServiceUnavailable("upstream reported failure", nil)
			}
			return nil
		})
	})

	_, err := c.Get(context.Background(), &Request{Path: "x"})
	assert.True(t, IsStatus(err, http.StatusServiceUnavailable))
}

func TestClientRequestIDSharedAcrossCalls(t *testing.T) {
	var seen []string
	c := newTestClient(t, "http://unused.local", func(b *Builder) {
		b.WithTransport(roundTripFunc(func(r *http.Request) (*http.Response, error) {
			seen = append(seen, r.Header.Get(HeaderXRequestID))
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     http.Header{},
				Body:       io.NopCloser(http.NoBody),
				Request:    r,
			}, nil
		}))
	})

	ctx := WithRequestID(context.Background(), testutil.TestRequestID)
	_, err := c.Get(ctx, &Request{Path: "a"})
	require.NoError(t, err)
	_, err = c.Get(ctx, &Request{Path: "b"})
	require.NoError(t, err)

	assert.Equal(t, []string{testutil.TestRequestID, testutil.TestRequestID}, seen)
}

func TestClientAbsolutePathIgnoresBaseURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/file.jar", r.URL.Path)
		_, _ = w.Write([]byte("jar"))
	}))
	defer server.Close()

	c := newTestClient(t, "http://unused.local/api/")
	stream := NewStreamResponse(OctetStream)
	_, err := c.Get(context.Background(), &Request{Path: server.URL + "/data/file.jar", Response: stream})
	require.NoError(t, err)

	data, err := stream.Stream()
	require.NoError(t, err)
	assert.Equal(t, "jar", string(data))
}

func TestClientRelativePathWithoutBaseURL(t *testing.T) {
	c, err := NewBuilder(nil).WithTracing(false).Build()
	require.NoError(t, err)

	_, err = c.Get(context.Background(), &Request{Path: "relative"})
	assert.True(t, IsStatus(err, http.StatusBadRequest))
}

func TestClientCountsAPICalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	ctx := logger.WithAPICounter(context.Background())
	for range 3 {
		_, err := c.Get(ctx, &Request{Path: "x"})
		require.NoError(t, err)
	}

	assert.Equal(t, int64(3), logger.GetAPICounter(ctx))
	assert.Positive(t, logger.GetAPIElapsed(ctx))
}

func TestClientAuthorize(t *testing.T) {
	c := newTestClient(t, "http://unused.local", func(b *Builder) {
		b.WithAuthorizer(NewTokenAuth(NewSecret("abc")))
	})

	h, err := c.Authorize(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", h.Get(HeaderAuthorization))

	h, err = c.Authorize(context.Background(), NoAuth{})
	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestVerifyCredentials(t *testing.T) {
	fastAuth := func(b *Builder) {
		b.WithAuthFailureDelay(time.Millisecond).WithAuthPolicy(RetryPolicy{
			MaxAttempts:     3,
			InitialInterval: time.Millisecond,
			MaxInterval:     time.Millisecond,
		})
	}

	t.Run("accepted", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/client/account", r.URL.Path)
			_, _ = w.Write([]byte(`{"attributes":{}}`))
		}))
		defer server.Close()

		c := newTestClient(t, server.URL, fastAuth)
		assert.NoError(t, c.VerifyCredentials(context.Background(), "client/account", nil))
	})

	t.Run("rejected after three attempts", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		c := newTestClient(t, server.URL, fastAuth)
		err := c.VerifyCredentials(context.Background(), "client/account", NewTokenAuth(NewSecret("bad")))

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
		assert.True(t, IsStatus(err, http.StatusUnauthorized))
		assert.Equal(t, int32(3), hits.Load())
	})

	t.Run("rejected without raise for status", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		c := newTestClient(t, server.URL, fastAuth, func(b *Builder) { b.WithRaiseForStatus(false) })

		resp, err := c.Get(context.Background(), &Request{Path: "user"})
		require.NoError(t, err, "plain calls still follow the client setting")
		assert.Equal(t, http.StatusUnauthorized, resp.(*JSONResponse).StatusCode())

		err = c.VerifyCredentials(context.Background(), "user", NewTokenAuth(NewSecret("bad")))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
		assert.True(t, IsStatus(err, http.StatusUnauthorized))
		assert.Equal(t, int32(4), hits.Load())
	})

	t.Run("delay honors cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		c := newTestClient(t, server.URL, func(b *Builder) { b.WithAuthFailureDelay(time.Hour) })
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		start := time.Now()
		err := c.VerifyCredentials(ctx, "user", nil)
		assert.Error(t, err)
		assert.Less(t, time.Since(start), 5*time.Second)
	})
}

func TestClientTracingCreatesClientSpan(t *testing.T) {
	tp := obstest.InstallTraceProvider(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("Traceparent"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	prop := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prop) })

	c := newTestClient(t, server.URL, func(b *Builder) { b.WithTracing(true) })
	_, err := c.Get(context.Background(), &Request{Path: "traced"})
	require.NoError(t, err)

	spans := obstest.NewSpanCollector(t, tp.Exporter)
	spans.AssertCount(1)
	assert.Equal(t, trace.SpanKindClient, spans.First().SpanKind)
}
