// Package retry wraps any oracle with a bounded exponential-backoff
// policy. The policy is an explicit decorator, configured at
// construction, rather than an ambient mechanism.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/shortreel/shortreel/internal/ports"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 1 * time.Second
	defaultMaxDelay    = 10 * time.Second
)

type Oracle struct {
	inner ports.Oracle

	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

type Option func(*Oracle)

// WithMaxAttempts overrides the attempt cap (defaults to 3).
func WithMaxAttempts(n int) Option {
	return func(o *Oracle) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithBackoff overrides the base and maximum backoff delays.
func WithBackoff(base, max time.Duration) Option {
	return func(o *Oracle) {
		if base > 0 {
			o.baseDelay = base
		}
		if max > 0 {
			o.maxDelay = max
		}
	}
}

// WithSleeper overrides how waits are performed, for tests.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Oracle) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

func Wrap(inner ports.Oracle, opts ...Option) *Oracle {
	o := &Oracle{
		inner:       inner,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		maxDelay:    defaultMaxDelay,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Oracle) Score(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		out, err := o.inner.Score(ctx, prompt)
		if err == nil {
			return out, nil
		}
		lastErr = err

		// Cancellation is not retryable; surface it immediately.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if attempt == o.maxAttempts {
			break
		}
		if err := o.sleep(ctx, o.delay(attempt)); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("oracle failed after %d attempts: %w", o.maxAttempts, lastErr)
}

// delay doubles per attempt, capped at maxDelay.
func (o *Oracle) delay(attempt int) time.Duration {
	d := o.baseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= o.maxDelay {
			return o.maxDelay
		}
	}
	if d > o.maxDelay {
		return o.maxDelay
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ ports.Oracle = (*Oracle)(nil)
