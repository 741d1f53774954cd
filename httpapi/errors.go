package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinel errors
var (
	// ErrPlaceholder short-circuits a call: returned by an authorizer, shaper or
	// request interceptor, it makes the Client skip the network and fill the
	// response shaper with its placeholder. It is never surfaced to callers.
	ErrPlaceholder = errors.New("httpapi: placeholder response requested")

	// ErrNotPopulated is returned by response accessors read before Consume
	// or ForcePlaceholder.
	ErrNotPopulated = errors.New("httpapi: response has no data")

	// ErrAuthenticationFailed is returned by VerifyCredentials after the
	// upstream rejected the credentials.
	ErrAuthenticationFailed = errors.New("authentication has failed")
)

// TransportError is a failure observed before translation into an *Error.
type TransportError interface {
	error
	Type() ErrorType
}

// ErrorType defines the category of transport error
type ErrorType string

const (
	NetworkError     ErrorType = "network"
	TimeoutError     ErrorType = "timeout"
	HTTPError        ErrorType = "http"
	InterceptorError ErrorType = "interceptor"
)

type networkError struct {
	message string
	wrapped error
}

func (e *networkError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("network error: %s: %v", e.message, e.wrapped)
	}
	return "network error: " + e.message
}

func (e *networkError) Type() ErrorType { return NetworkError }
func (e *networkError) Unwrap() error   { return e.wrapped }

type timeoutError struct {
	message string
	timeout time.Duration
	wrapped error
}

func (e *timeoutError) Error() string {
	return fmt.Sprintf("timeout error: %s (timeout: %v)", e.message, e.timeout)
}

func (e *timeoutError) Type() ErrorType { return TimeoutError }
func (e *timeoutError) Unwrap() error   { return e.wrapped }

type httpError struct {
	message    string
	statusCode int
	body       []byte
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP error: %s (status: %d)", e.message, e.statusCode)
}

func (e *httpError) Type() ErrorType { return HTTPError }

func (e *httpError) StatusCode() int { return e.statusCode }

func (e *httpError) Body() []byte { return e.body }

type interceptorError struct {
	wrapped error
	stage   string
}

func (e *interceptorError) Error() string {
	return fmt.Sprintf("interceptor error (stage: %s): %v", e.stage, e.wrapped)
}

func (e *interceptorError) Type() ErrorType { return InterceptorError }
func (e *interceptorError) Unwrap() error   { return e.wrapped }

// NewNetworkError creates a connection-level failure.
func NewNetworkError(message string, wrapped error) TransportError {
	return &networkError{message: message, wrapped: wrapped}
}

// NewTimeoutError creates a connect or read timeout failure.
func NewTimeoutError(message string, timeout time.Duration, wrapped error) TransportError {
	return &timeoutError{message: message, timeout: timeout, wrapped: wrapped}
}

// NewHTTPError creates a non-2xx status failure. message is usually the
// status text.
func NewHTTPError(message string, statusCode int, body []byte) TransportError {
	return &httpError{message: message, statusCode: statusCode, body: body}
}

// NewInterceptorError wraps a failing request interceptor or result validator.
func NewInterceptorError(stage string, wrapped error) TransportError {
	return &interceptorError{wrapped: wrapped, stage: stage}
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType ErrorType) bool {
	var transportErr TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Type() == errorType
	}
	return false
}

// IsHTTPStatusError checks if an error is an HTTP error with a specific status code
func IsHTTPStatusError(err error, statusCode int) bool {
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode() == statusCode
	}
	return false
}

// IsSuccessStatus checks if a status code represents success (2xx)
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// Error is the status-coded failure surfaced to callers. It is immutable;
// the optional cause stays reachable through errors.Is and errors.As.
type Error struct {
	status  int
	message string
	cause   error
}

func newError(status int, message string, cause error) *Error {
	return &Error{status: status, message: message, cause: cause}
}

// Status returns the HTTP-style status code.
func (e *Error) Status() int { return e.status }

// Message returns the human readable detail.
func (e *Error) Message() string { return e.message }

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s: %s", e.status, http.StatusText(e.status), e.message)
}

func (e *Error) Unwrap() error { return e.cause }

func BadRequest(message string) *Error {
	return newError(http.StatusBadRequest, message, nil)
}

func Unauthorized(message string) *Error {
	return newError(http.StatusUnauthorized, message, nil)
}

func Forbidden(message string) *Error {
	return newError(http.StatusForbidden, message, nil)
}

func NotFound(message string) *Error {
	return newError(http.StatusNotFound, message, nil)
}

func MethodNotAllowed(message string) *Error {
	return newError(http.StatusMethodNotAllowed, message, nil)
}

func RequestTimeout(message string) *Error {
	return newError(http.StatusRequestTimeout, message, nil)
}

func InternalServerError(message string, cause error) *Error {
	return newError(http.StatusInternalServerError, message, cause)
}

func NotImplemented(message string) *Error {
	return newError(http.StatusNotImplemented, message, nil)
}

func BadGateway(message string, cause error) *Error {
	return newError(http.StatusBadGateway, message, cause)
}

func ServiceUnavailable(message string, cause error) *Error {
	return newError(http.StatusServiceUnavailable, message, cause)
}

func GatewayTimeout(message string, cause error) *Error {
	return newError(http.StatusGatewayTimeout, message, cause)
}

// IsStatus reports whether err carries an *Error with the given status.
func IsStatus(err error, status int) bool {
	var e *Error
	return errors.As(err, &e) && e.status == status
}

// Translate maps a transport failure onto an *Error. The first matching rule
// wins: an existing *Error passes through, timeouts become 504, connection
// failures 502, upstream status failures 500 carrying the upstream status,
// anything else 500.
func Translate(err error) error {
	if err == nil {
		return nil
	}

	var domainErr *Error
	if errors.As(err, &domainErr) {
		return err
	}

	var httpErr *httpError
	switch {
	case IsErrorType(err, TimeoutError):
		return GatewayTimeout(fmt.Sprintf("Request has failed with timeout error: %v", err), err)
	case IsErrorType(err, NetworkError):
		return BadGateway(fmt.Sprintf("Request has failed with connection error: %v", err), err)
	case errors.As(err, &httpErr):
		return InternalServerError(fmt.Sprintf("Request has failed with status error %d: %s", httpErr.statusCode, httpErr.message), err)
	default:
		return InternalServerError(fmt.Sprintf("Request has failed with unhandled: %v", err), err)
	}
}
