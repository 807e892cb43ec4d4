package resilience

import (
	"context"
	"time"
)

// ChainConfig configures a resilience chain.
type ChainConfig struct {
	Timeout TimeoutConfig
	Retry   RetryConfig
}

// DefaultChainConfig returns the standard chain settings: 30s deadline,
// 3 retries starting at 1s with doubling backoff capped at 60s.
func DefaultChainConfig() ChainConfig {
	return ChainConfig{
		Timeout: TimeoutConfig{Timeout: 30 * time.Second},
		Retry:   RetryConfig{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 60 * time.Second, Multiplier: 2.0},
	}
}

// Chain composes the three protections in a fixed order: the timeout is
// outermost so it bounds the entire call including retry sleeps, retry sits
// in the middle, and error mapping is innermost so retry always sees
// classified errors. Validation failures belong before the chain; code that
// enters the chain has already passed input checks.
type Chain struct {
	timeout *Timeout
	retry   *Retry
}

// NewChain builds a chain with defaults applied to both layers.
func NewChain(config ChainConfig) *Chain {
	return &Chain{
		timeout: NewTimeout(config.Timeout),
		retry:   NewRetry(config.Retry),
	}
}

// Execute runs op through the chain. The operation name labels unknown
// failures and retry callbacks.
func (c *Chain) Execute(ctx context.Context, op string, fn func(context.Context) error) error {
	mapping := NewErrorMapping(op)
	return c.timeout.Execute(ctx, func(ctx context.Context) error {
		return c.retry.Execute(ctx, op, func(ctx context.Context) error {
			return mapping.Execute(ctx, fn)
		})
	})
}

// Do runs a value-returning operation through the chain.
func Do[T any](ctx context.Context, c *Chain, op string, fn func(context.Context) (T, error)) (T, error) {
	var result T
	err := c.Execute(ctx, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
