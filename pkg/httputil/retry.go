package httputil

import (
	"context"
	"errors"
	"math"
	"slices"
	"time"
)

// Default retry settings.
const (
	DefaultMaxRetries   = 3
	DefaultInitialDelay = 1 * time.Second
	DefaultMaxDelay     = 10 * time.Second
	DefaultMultiplier   = 2.0
)

// DefaultRetryableStatusCodes lists the HTTP statuses that trigger a retry.
var DefaultRetryableStatusCodes = []int{429, 500, 502, 503, 504}

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transport failures (no response received) with this type so that
// [Do] knows to attempt the operation again.
type RetryableError struct{ Err error }

// Retryable wraps an error as a RetryableError.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// StatusCoder is implemented by errors that carry an HTTP response status.
type StatusCoder interface {
	HTTPStatus() int
}

// Policy configures [Do].
type Policy struct {
	MaxRetries           int           `toml:"max_retries"`
	InitialDelay         time.Duration `toml:"initial_delay"`
	MaxDelay             time.Duration `toml:"max_delay"`
	Multiplier           float64       `toml:"multiplier"`
	RetryableStatusCodes []int         `toml:"retryable_status_codes"`

	// OnRetry, when set, is called before each backoff sleep with the
	// zero-based attempt that just failed.
	OnRetry func(attempt int, delay time.Duration, err error) `toml:"-"`
}

// DefaultPolicy returns the standard policy: 3 retries, 1s initial delay
// doubling up to 10s, retrying 429 and 5xx gateway/server statuses.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:           DefaultMaxRetries,
		InitialDelay:         DefaultInitialDelay,
		MaxDelay:             DefaultMaxDelay,
		Multiplier:           DefaultMultiplier,
		RetryableStatusCodes: slices.Clone(DefaultRetryableStatusCodes),
	}
}

// Delay returns the backoff before retry number attempt (zero-based):
// min(InitialDelay * Multiplier^attempt, MaxDelay).
func (p Policy) Delay(attempt int) time.Duration {
	d := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// IsRetryable reports whether err is a transport failure or carries a status
// in the policy's retryable set.
func (p Policy) IsRetryable(err error) bool {
	var sc StatusCoder
	if errors.As(err, &sc) && sc.HTTPStatus() != 0 {
		return slices.Contains(p.RetryableStatusCodes, sc.HTTPStatus())
	}
	return errors.As(err, new(*RetryableError))
}

// Do executes fn at most MaxRetries+1 times. Non-retryable errors are
// returned immediately; after the final attempt the last error is returned.
// No sleep follows the final attempt. Returns ctx.Err() if cancelled while
// backing off.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := max(p.MaxRetries, 0) + 1
	var lastErr error

	for i := 0; i < attempts; i++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !p.IsRetryable(err) {
			return zero, err
		}

		if i < attempts-1 {
			delay := p.Delay(i)
			if p.OnRetry != nil {
				p.OnRetry(i, delay, err)
			}
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return zero, lastErr
}

// Retry is [Do] for operations without a result value.
func Retry(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
