package runtime

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts   int           // Maximum number of attempts
	InitialDelay  time.Duration // Delay before the second attempt
	MaxDelay      time.Duration // Upper bound between attempts
	BackoffFactor float64       // Exponential backoff multiplier
	Jitter        bool          // Add randomness to delay
	RetryIf       func(error) bool
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
	}
}

// RetryOption customizes retry behavior.
type RetryOption func(*RetryConfig)

// WithMaxAttempts sets the maximum attempts.
func WithMaxAttempts(n int) RetryOption {
	return func(c *RetryConfig) {
		c.MaxAttempts = n
	}
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) RetryOption {
	return func(c *RetryConfig) {
		c.InitialDelay = d
	}
}

// WithMaxDelay sets the maximum retry delay.
func WithMaxDelay(d time.Duration) RetryOption {
	return func(c *RetryConfig) {
		c.MaxDelay = d
	}
}

// WithBackoffFactor sets the exponential backoff factor.
func WithBackoffFactor(f float64) RetryOption {
	return func(c *RetryConfig) {
		c.BackoffFactor = f
	}
}

// WithoutJitter makes delays deterministic.
func WithoutJitter() RetryOption {
	return func(c *RetryConfig) {
		c.Jitter = false
	}
}

// WithRetryIf limits retries to errors the predicate accepts. Other errors
// are returned immediately.
func WithRetryIf(fn func(error) bool) RetryOption {
	return func(c *RetryConfig) {
		c.RetryIf = fn
	}
}

// Retry executes fn until it succeeds, the attempts run out or ctx is done.
func Retry(ctx context.Context, fn func() error, opts ...RetryOption) error {
	config := DefaultRetryConfig()
	for _, opt := range opts {
		opt(config)
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}

	var lastErr error
	delay := config.InitialDelay

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) {
			return err
		}
		if config.RetryIf != nil && !config.RetryIf(err) {
			return err
		}
		if attempt == config.MaxAttempts-1 {
			break
		}

		wait := delay
		if config.Jitter && delay > 0 {
			// ±25%
			spread := delay / 4
			if spread > 0 {
				wait = delay - spread + time.Duration(rand.Int63n(int64(spread)*2))
			}
		}

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}

		delay = time.Duration(float64(delay) * config.BackoffFactor)
		if delay > config.MaxDelay {
			delay = config.MaxDelay
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, config.MaxAttempts, lastErr)
}

// RetryWithResult is Retry for functions that produce a value.
func RetryWithResult[T any](ctx context.Context, fn func() (T, error), opts ...RetryOption) (T, error) {
	var result T
	err := Retry(ctx, func() error {
		var fnErr error
		result, fnErr = fn()
		return fnErr
	}, opts...)
	return result, err
}

// ReconnectOnce runs fn and, when it fails with an error isTransient
// accepts, calls reconnect and runs fn a second time. The second error is
// returned as is. Nothing is retried once ctx is done.
func ReconnectOnce(ctx context.Context, fn func(context.Context) error, isTransient func(error) bool, reconnect func(context.Context) error) error {
	err := fn(ctx)
	if err == nil || isTransient == nil || !isTransient(err) || ctx.Err() != nil {
		return err
	}
	if rerr := reconnect(ctx); rerr != nil {
		if errors.Is(rerr, ErrConnectionFailed) {
			return rerr
		}
		return fmt.Errorf("%w: %w", ErrConnectionFailed, rerr)
	}
	return fn(ctx)
}
