package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy bounds an exponential backoff loop. At least one of
// MaxAttempts or MaxElapsed should be set; a policy with neither runs once.
type RetryPolicy struct {
	// MaxAttempts caps the total number of tries, including the first.
	MaxAttempts uint
	// MaxElapsed stops retrying once the next wait would cross this budget.
	MaxElapsed time.Duration
	// InitialInterval is the first wait; later waits grow exponentially.
	InitialInterval time.Duration
	// MaxInterval caps a single wait.
	MaxInterval time.Duration
	// Retryable filters errors worth another attempt. Nil retries everything.
	Retryable func(error) bool
	// OnRetry observes each scheduled retry.
	OnRetry func(err error, wait time.Duration)
}

// TransportPolicy retries connection and timeout failures for up to 15s.
// Status failures and caller-side errors are returned immediately.
func TransportPolicy() RetryPolicy {
	return RetryPolicy{
		MaxElapsed:      15 * time.Second,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Retryable:       IsTransient,
	}
}

// OperationPolicy makes two attempts at a whole service operation,
// whatever the failure. Non-idempotent operations may therefore run twice.
func OperationPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     2,
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
	}
}

// AuthPolicy makes three attempts at a credential check.
func AuthPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
	}
}

// IsTransient reports whether err is a connection or timeout failure.
// Caller cancellation is never transient.
func IsTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return IsErrorType(err, NetworkError) || IsErrorType(err, TimeoutError)
}

// Retry runs op until it succeeds, returns a non-retryable error, exhausts
// the policy, or ctx is done.
func Retry[T any](ctx context.Context, policy RetryPolicy, op func(context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		b.InitialInterval = policy.InitialInterval
	}
	if policy.MaxInterval > 0 {
		b.MaxInterval = policy.MaxInterval
	}

	opts := []backoff.RetryOption{backoff.WithBackOff(b)}
	switch {
	case policy.MaxAttempts == 0 && policy.MaxElapsed == 0:
		opts = append(opts, backoff.WithMaxTries(1))
	case policy.MaxAttempts > 0:
		opts = append(opts, backoff.WithMaxTries(policy.MaxAttempts))
	}
	// backoff defaults to a 15 minute budget when none is given
	opts = append(opts, backoff.WithMaxElapsedTime(policy.MaxElapsed))
	if policy.OnRetry != nil {
		opts = append(opts, backoff.WithNotify(backoff.Notify(policy.OnRetry)))
	}

	result, err := backoff.Retry(ctx, func() (T, error) {
		res, err := op(ctx)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil || (policy.Retryable != nil && !policy.Retryable(err)) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}, opts...)
	if err == nil {
		return result, nil
	}

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}
	return result, err
}
