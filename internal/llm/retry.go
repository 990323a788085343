// ABOUTME: Retry policy with exponential backoff and jitter for provider calls
// ABOUTME: Injected so tests can substitute a deterministic sleep
package llm

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// RetryPolicy retries an operation with exponential backoff. The zero value
// performs a single attempt, preserving fail-visible provider semantics.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration

	// Sleep is replaceable in tests. Nil means time.Sleep.
	Sleep func(time.Duration)
}

// Do runs op up to MaxRetries+1 times, sleeping between attempts. Context
// cancellation stops further attempts.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			sleep(Backoff(p.BaseDelay, attempt))
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if lastErr = op(); lastErr == nil {
			return nil
		}
	}

	if p.MaxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("after %d attempts: %w", p.MaxRetries+1, lastErr)
}

// Backoff returns exponential backoff with up to 25% jitter, capped at 30s.
func Backoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 || baseDelay <= 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}
	backoff := baseDelay * time.Duration(1<<uint(attempt))
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(backoff)/2)) - backoff/4
	return backoff + jitter
}
