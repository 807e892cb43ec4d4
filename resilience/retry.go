package resilience

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/jonwraymond/boardbridge/ado"
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxRetries is the number of additional attempts after the first
	// failure, so an operation runs at most MaxRetries+1 times. Zero
	// disables retries; negative values take the default.
	// Default: 3
	MaxRetries int

	// BaseDelay is the delay before the first retry.
	// Default: 1s
	BaseDelay time.Duration

	// MaxDelay caps every delay, including server-provided retry hints.
	// Default: 60s
	MaxDelay time.Duration

	// Multiplier grows the delay between attempts.
	// Default: 2.0
	Multiplier float64

	// OnRetry is called before each retry sleep.
	OnRetry func(op string, attempt int, err error, delay time.Duration)
}

// Retry re-runs an operation when it fails with a retryable classified
// error. Anything else, including validation failures and non-retryable
// taxonomy kinds, returns immediately.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a retry handler with defaults applied.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxRetries < 0 {
		config.MaxRetries = 3
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = time.Second
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 60 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	return &Retry{config: config}
}

// Execute runs fn, retrying on retryable classified errors. The op name
// labels retry callbacks.
func (r *Retry) Execute(ctx context.Context, op string, fn func(context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		adoErr, ok := ado.AsError(err)
		if !ok || !adoErr.Retryable() {
			return err
		}
		if attempt >= r.config.MaxRetries {
			break
		}

		delay := r.delayFor(adoErr, attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(op, attempt+1, err, delay)
		}

		select {
		case <-ctx.Done():
			// An elapsed deadline must leave the chain classified even
			// when the outer timeout loses the select race.
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ado.NewTimeoutError(0, ctx.Err())
			}
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

// delayFor prefers the server's Retry-After hint over computed backoff.
// Both are capped at MaxDelay.
func (r *Retry) delayFor(err *ado.Error, attempt int) time.Duration {
	if err.RetryAfter > 0 {
		return min(err.RetryAfter, r.config.MaxDelay)
	}
	backoff := time.Duration(float64(r.config.BaseDelay) * math.Pow(r.config.Multiplier, float64(attempt)))
	return min(backoff, r.config.MaxDelay)
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}
