package object_store

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

const (
	defaultMinRetryDelay = 25 * time.Millisecond
	defaultMaxRetryDelay = 30 * time.Second
)

// BackoffDelayer matches the aws retry.BackoffDelayer interface so the same
// backoff drives both SDK level and per-object retries
type BackoffDelayer interface {
	BackoffDelay(attempt int, err error) (time.Duration, error)
}

// ExponentialJitterBackoff provides backoff delays with jitter based on the
// number of attempts.
type ExponentialJitterBackoff struct {
	minDelay time.Duration
	maxDelay time.Duration
}

// NewExponentialJitterBackoff returns an ExponentialJitterBackoff with delays capped at maxDelay.
func NewExponentialJitterBackoff(minDelay, maxDelay time.Duration) *ExponentialJitterBackoff {
	if minDelay <= 0 {
		minDelay = defaultMinRetryDelay
	}
	if maxDelay < minDelay {
		maxDelay = defaultMaxRetryDelay
	}
	return &ExponentialJitterBackoff{minDelay: minDelay, maxDelay: maxDelay}
}

// BackoffDelay returns the duration to wait before the next attempt, where attempt
// is the 1-based number of the attempt which just failed. The delay triples per attempt.
func (j *ExponentialJitterBackoff) BackoffDelay(attempt int, err error) (time.Duration, error) {
	if attempt < 1 {
		attempt = 1
	}
	// The calculated jitter will be between [0.8, 1.2)
	jitter := float64(rand.Intn(120-80)+80) / 100

	retryTime := time.Duration(float64(j.minDelay.Nanoseconds()) * math.Pow(3, float64(attempt-1)) * jitter)
	if retryTime > j.maxDelay || retryTime <= 0 {
		retryTime = j.maxDelay
	}

	slog.Debug("BackoffDelay", "attempt", attempt, "retry_time", retryTime.String(), "error", err)
	return retryTime, nil
}

// sleep waits for d, returning early with the context error if ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
