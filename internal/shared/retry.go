package shared

import (
	"context"
	"fmt"
	"time"
)

// BackoffFunc returns the delay to apply after the given failed attempt.
// Attempts are counted from 1.
type BackoffFunc func(attempt int) time.Duration

// ExponentialBackoff returns a [BackoffFunc] with delay = base * 2^attempt.
func ExponentialBackoff(base time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return base * (1 << attempt)
	}
}

// NoBackoff returns a [BackoffFunc] with zero delay, useful in tests.
func NoBackoff() BackoffFunc {
	return func(int) time.Duration { return 0 }
}

// WithRetry runs op up to maxAttempts times, sleeping according to backoff
// between failed attempts. The context is checked before each attempt and
// during backoff sleeps; cancellation aborts the remaining attempts.
//
// Returns nil as soon as one attempt succeeds, otherwise the last error.
func WithRetry(ctx context.Context, maxAttempts int, backoff BackoffFunc, op func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if backoff == nil {
		backoff = ExponentialBackoff(time.Second)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if lastErr = op(); lastErr == nil {
			return nil
		}

		if attempt == maxAttempts {
			break
		}

		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", maxAttempts, lastErr)
}
