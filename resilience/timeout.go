package resilience

import (
	"context"
	"time"

	"github.com/jonwraymond/boardbridge/ado"
)

// TimeoutConfig configures the timeout wrapper.
type TimeoutConfig struct {
	// Timeout is the maximum duration for the whole operation, including
	// any retry sleeps below it.
	// Default: 30s
	Timeout time.Duration
}

// Timeout bounds an operation with a deadline. An exceeded deadline
// surfaces as a classified timeout error.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a timeout wrapper with defaults applied.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Timeout{config: config}
}

// Execute runs op under the configured deadline.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return ado.NewTimeoutError(t.config.Timeout, ctx.Err())
		}
		return ctx.Err()
	}
}

// Config returns the timeout configuration.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}
