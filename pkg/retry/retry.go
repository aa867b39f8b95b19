package retry

import (
	"context"
	"fmt"
	"time"
)

// Config bounds a delivery retry loop.
type Config struct {
	// MaxAttempts caps how many times fn runs, first call included.
	MaxAttempts int
	// BaseDelay scales the quadratic backoff: sleep = BaseDelay * attempt².
	BaseDelay time.Duration
	// OnRetry fires after each failed attempt that will be retried.
	// attempt counts from 1.
	OnRetry func(attempt int, err error)
}

// Do runs fn until it succeeds or MaxAttempts is exhausted, sleeping
// BaseDelay*attempt² between attempts (with a 1s base: 1s, 4s, 9s).
// It returns nil on the first success, otherwise the last error, and
// stops early when ctx is cancelled. The notifier uses this to pace
// gateway redelivery before giving a message up to the dead-letter
// topic.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		// No sleep after the final attempt.
		if attempt == cfg.MaxAttempts {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, lastErr)
		}

		delay := cfg.BaseDelay * time.Duration(attempt*attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled after attempt %d: %w", attempt, ctx.Err())
		}
	}
	return lastErr
}
