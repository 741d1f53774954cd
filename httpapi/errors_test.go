package httpapi

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportErrorTypes(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name     string
		err      TransportError
		expected ErrorType
		contains string
	}{
		{"network", NewNetworkError("request execution failed", cause), NetworkError, "connection refused"},
		{"timeout", NewTimeoutError("request timeout", 5*time.Second, cause), TimeoutError, "timeout: 5s"},
		{"http", NewHTTPError("Not Found", http.StatusNotFound, []byte("missing")), HTTPError, "status: 404"},
		{"interceptor", NewInterceptorError("request", cause), InterceptorError, "stage: request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Type())
			assert.Contains(t, tt.err.Error(), tt.contains)
			assert.True(t, IsErrorType(tt.err, tt.expected))
		})
	}
}

func TestIsHTTPStatusError(t *testing.T) {
	err := NewHTTPError("Forbidden", http.StatusForbidden, nil)
	assert.True(t, IsHTTPStatusError(err, http.StatusForbidden))
	assert.False(t, IsHTTPStatusError(err, http.StatusNotFound))
	assert.False(t, IsHTTPStatusError(errors.New("plain"), http.StatusForbidden))
}

func TestIsSuccessStatus(t *testing.T) {
	assert.True(t, IsSuccessStatus(http.StatusOK))
	assert.True(t, IsSuccessStatus(http.StatusNoContent))
	assert.False(t, IsSuccessStatus(http.StatusMovedPermanently))
	assert.False(t, IsSuccessStatus(http.StatusInternalServerError))
}

func TestDomainErrorConstructors(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		err    *Error
		status int
	}{
		{BadRequest("bad"), http.StatusBadRequest},
		{Unauthorized("who"), http.StatusUnauthorized},
		{Forbidden("no"), http.StatusForbidden},
		{NotFound("gone"), http.StatusNotFound},
		{MethodNotAllowed("verb"), http.StatusMethodNotAllowed},
		{RequestTimeout("slow"), http.StatusRequestTimeout},
		{InternalServerError("oops", cause), http.StatusInternalServerError},
		{NotImplemented("later"), http.StatusNotImplemented},
		{BadGateway("upstream", cause), http.StatusBadGateway},
		{ServiceUnavailable("busy", cause), http.StatusServiceUnavailable},
		{GatewayTimeout("late", cause), http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status())
			assert.True(t, IsStatus(tt.err, tt.status))
			assert.Contains(t, tt.err.Error(), tt.err.Message())
		})
	}

	assert.ErrorIs(t, BadGateway("upstream", cause), cause)
}

func TestTranslate(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, Translate(nil))
	})

	t.Run("domain error passes through", func(t *testing.T) {
		original := BadRequest("body is not allowed in this requests")
		assert.Same(t, original, Translate(original))
	})

	t.Run("wrapped domain error passes through", func(t *testing.T) {
		original := NotFound("project")
		wrapped := NewInterceptorError("result", original)
		assert.Equal(t, wrapped, Translate(wrapped))
		assert.True(t, IsStatus(Translate(wrapped), http.StatusNotFound))
	})

	t.Run("timeout becomes 504", func(t *testing.T) {
		err := Translate(NewTimeoutError("request timeout", time.Second, context.DeadlineExceeded))
		assert.True(t, IsStatus(err, http.StatusGatewayTimeout))
		assert.Contains(t, err.Error(), "Request has failed with timeout error")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("network becomes 502", func(t *testing.T) {
		err := Translate(NewNetworkError("request execution failed", cause))
		assert.True(t, IsStatus(err, http.StatusBadGateway))
		assert.Contains(t, err.Error(), "Request has failed with connection error")
		assert.ErrorIs(t, err, cause)
	})

	t.Run("status failure becomes 500 with upstream status", func(t *testing.T) {
		err := Translate(NewHTTPError("Not Found", http.StatusNotFound, nil))
		var domainErr *Error
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, http.StatusInternalServerError, domainErr.Status())
		assert.Equal(t, "Request has failed with status error 404: Not Found", domainErr.Message())
		assert.True(t, IsHTTPStatusError(err, http.StatusNotFound))
	})

	t.Run("anything else becomes 500", func(t *testing.T) {
		err := Translate(errors.New("weird"))
		assert.True(t, IsStatus(err, http.StatusInternalServerError))
		assert.Contains(t, err.Error(), "Request has failed with unhandled: weird")
	})
}
