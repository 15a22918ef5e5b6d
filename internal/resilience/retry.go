package resilience

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Config controls retry behavior with exponential backoff and jitter.
type Config struct {
	// MaxAttempts is the total number of attempts (including the first
	// try). A value of 1 means no retries. Default: 5.
	MaxAttempts int

	// InitialBackoff is the base delay before the first retry. Default: 2s.
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff duration. Default: 60s.
	MaxBackoff time.Duration

	// Multiplier scales the backoff after each attempt. Default: 2.0.
	Multiplier float64

	// JitterFraction adds random jitter as a fraction of the computed
	// delay (0.0 = no jitter, 0.5 = ±50%). Default: 0.25.
	JitterFraction float64

	// ShouldRetry optionally overrides the default transient-error check.
	// If nil, IsTransient is used.
	ShouldRetry func(err error) bool

	// OnRetry is called before each backoff sleep with the attempt number
	// and the error that triggered it.
	OnRetry func(attempt int, err error)
}

// DefaultConfig returns the retry configuration used for analysis calls.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    5,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     60 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.25,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 2 * time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 60 * time.Second
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
	if c.JitterFraction < 0 {
		c.JitterFraction = 0
	}
	return c
}

// Run executes fn under a retry Machine and returns the value from the
// successful attempt. Backoff sleeps select on ctx, so cancellation
// interrupts a wait immediately and surfaces the last attempt error (or
// the context error when no attempt completed).
func Run[T any](ctx context.Context, cfg Config, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	m := NewMachine(cfg)

	for {
		switch m.State() {
		case StateAttempting:
			if ctx.Err() != nil {
				m.Cancel(ctx.Err())
				continue
			}
			val, err := fn(ctx)
			m.Observe(err)
			if m.State() == StateSucceeded {
				return val, nil
			}

		case StateBackingOff:
			if cfg.OnRetry != nil {
				cfg.OnRetry(m.Attempt(), m.LastErr())
			}
			timer := time.NewTimer(m.Delay())
			select {
			case <-ctx.Done():
				timer.Stop()
				m.Cancel(ctx.Err())
			case <-timer.C:
				m.Resume()
			}

		case StateSucceeded:
			// Unreachable: success returns from the attempt arm.
			return zero, nil

		case StateFailed:
			return zero, m.LastErr()
		}
	}
}

// RetryLogger returns an OnRetry callback that logs each retry attempt.
func RetryLogger(service, operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying operation",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
