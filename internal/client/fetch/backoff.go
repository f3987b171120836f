package fetch

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	baseDelay = 500 * time.Millisecond
	maxDelay  = 2 * time.Second
)

// Backoff returns the delay before retry number attempt (0 for the first retry):
// min(500ms * 2^attempt, 2s).
func Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 3 {
		return maxDelay
	}
	return min(baseDelay<<attempt, maxDelay)
}

// Schedule yields the Backoff delays for at most maxRetries retries, then stops.
func Schedule(maxRetries int) retry.Backoff {
	if maxRetries < 0 {
		maxRetries = 0
	}
	b := retry.NewExponential(baseDelay)
	b = retry.WithCappedDuration(maxDelay, b)
	return retry.WithMaxRetries(uint64(maxRetries), b)
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
