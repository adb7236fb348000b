package errors

import (
	"context"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
)

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxAttempts  int           // total attempts including the first (default: 3)
	BaseDelay    time.Duration // first backoff interval (default: 100ms)
	MaxDelay     time.Duration // cap on a single interval (default: 2s)
	JitterFactor float64       // randomization factor (default: 0.25)
}

// DefaultRetryConfig returns sensible defaults
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		JitterFactor: 0.25,
	}
}

func (c RetryConfig) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if c.BaseDelay > 0 {
		b.InitialInterval = c.BaseDelay
	}
	if c.MaxDelay > 0 {
		b.MaxInterval = c.MaxDelay
	}
	if c.JitterFactor >= 0 {
		b.RandomizationFactor = c.JitterFactor
	}
	b.MaxElapsedTime = 0

	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultRetryConfig().MaxAttempts
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

// RetryableFunc is a function that can be retried
type RetryableFunc func(ctx context.Context) error

// Retry runs fn until it succeeds, returns a non-transient error, or the
// attempt budget is spent. The last error is returned unwrapped.
func Retry(ctx context.Context, config RetryConfig, fn RetryableFunc) error {
	return backoff.Retry(func() error {
		err := fn(ctx)
		if err != nil && !IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, config.backOff(ctx))
}

// RetryWithResult is Retry for functions that produce a value.
func RetryWithResult[T any](ctx context.Context, config RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := Retry(ctx, config, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	return result, err
}
