package metadata

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	t.Run("spaces consecutive calls by the interval", func(t *testing.T) {
		limiter := NewLimiter(50 * time.Millisecond)
		ctx := context.Background()

		start := time.Now()
		for i := 0; i < 3; i++ {
			if err := limiter.WaitIfNeeded(ctx); err != nil {
				t.Fatalf("WaitIfNeeded failed: %v", err)
			}
		}
		elapsed := time.Since(start)

		// First call is immediate, the next two wait one interval each.
		if elapsed < 100*time.Millisecond {
			t.Errorf("expected at least 100ms across 3 calls, got %v", elapsed)
		}
	})

	t.Run("serializes concurrent callers", func(t *testing.T) {
		limiter := NewLimiter(30 * time.Millisecond)
		ctx := context.Background()

		var mu sync.Mutex
		var times []time.Time

		var wg sync.WaitGroup
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := limiter.WaitIfNeeded(ctx); err != nil {
					t.Errorf("WaitIfNeeded failed: %v", err)
					return
				}
				mu.Lock()
				times = append(times, time.Now())
				mu.Unlock()
			}()
		}
		wg.Wait()

		if len(times) != 3 {
			t.Fatalf("expected 3 completions, got %d", len(times))
		}
		for i := 1; i < len(times); i++ {
			for j := 0; j < i; j++ {
				gap := times[i].Sub(times[j])
				if gap < 0 {
					gap = -gap
				}
				if gap < 20*time.Millisecond {
					t.Errorf("calls %d and %d completed %v apart, expected spacing", j, i, gap)
				}
			}
		}
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		limiter := NewLimiter(time.Hour)
		ctx := context.Background()

		// Consume the initial token so the next wait would block.
		if err := limiter.WaitIfNeeded(ctx); err != nil {
			t.Fatalf("WaitIfNeeded failed: %v", err)
		}

		cancelCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		if err := limiter.WaitIfNeeded(cancelCtx); err == nil {
			t.Error("expected error when context expires before the interval")
		}
	})
}
