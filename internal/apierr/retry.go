package apierr

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig controls the backoff loop. The zero value is usable:
// defaults are applied before the first attempt.
type RetryConfig struct {
	MaxRetries int           // additional attempts after the first; negative counts as 0
	BaseDelay  time.Duration // wait before the first retry; doubles each time
	MaxDelay   time.Duration // cap on the doubled delay
}

func (c RetryConfig) withDefaults() RetryConfig {
	c.MaxRetries = max(c.MaxRetries, 0)
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Millisecond
	}
	c.MaxDelay = max(c.MaxDelay, c.BaseDelay)
	return c
}

// Retry runs call until it succeeds, retryable rejects the
// error, the attempt budget runs out, or ctx is canceled while waiting.
// A rejected error comes back as-is; an exhausted budget wraps the last
// error so callers can still match it with errors.Is.
func Retry[T any](
	ctx context.Context,
	cfg RetryConfig,
	call func() (T, error),
	retryable func(error) bool,
) (T, error) {
	cfg = cfg.withDefaults()

	var zero T
	delay := cfg.BaseDelay

	for attempt := 0; ; attempt++ {
		result, err := call()
		if err == nil {
			return result, nil
		}
		if !retryable(err) {
			return zero, err
		}
		if attempt == cfg.MaxRetries {
			return zero, fmt.Errorf("retry budget exhausted after %d retries: %w", cfg.MaxRetries, err)
		}

		if err := sleepCtx(ctx, delay); err != nil {
			return zero, err
		}
		delay = min(delay*2, cfg.MaxDelay)
	}
}

// sleepCtx waits for d or for ctx, whichever ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
