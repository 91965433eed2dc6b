package metadata

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter spaces out requests to services that enforce a minimum interval
// between calls. Concurrent callers queue on the underlying reservation.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter allows one call per interval.
func NewLimiter(interval time.Duration) *Limiter {
	return &Limiter{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// WaitIfNeeded blocks until the next call is allowed, or until ctx is done.
func (l *Limiter) WaitIfNeeded(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
