package rate_limiter

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// APILimiter throttles calls to an object store: a token bucket bounds the request rate
// and a weighted semaphore bounds the number of requests in flight.
// A nil *APILimiter does not limit anything.
type APILimiter struct {
	Name string

	// underlying rate limiter
	limiter *rate.Limiter
	// semaphore to control concurrency
	sem            *semaphore.Weighted
	maxConcurrency int64
}

func NewAPILimiter(d *Definition) *APILimiter {
	res := &APILimiter{
		Name:           d.Name,
		maxConcurrency: d.MaxConcurrency,
	}
	if d.FillRate > 0 {
		res.limiter = rate.NewLimiter(rate.Limit(d.FillRate), int(d.BucketSize))
	}
	if d.MaxConcurrency > 0 {
		res.sem = semaphore.NewWeighted(d.MaxConcurrency)
	}
	return res
}

func (l *APILimiter) String() string {
	if l == nil {
		return "unlimited"
	}
	limiterString := "Limit(/s): unlimited"
	if l.limiter != nil {
		limiterString = fmt.Sprintf("Limit(/s): %v, Burst: %d", l.limiter.Limit(), l.limiter.Burst())
	}
	return fmt.Sprintf("%s MaxConcurrency: %d", limiterString, l.maxConcurrency)
}

// Acquire blocks until a request may be made, returning a func which must be
// called once the request completes
func (l *APILimiter) Acquire(ctx context.Context) (func(), error) {
	if l == nil {
		return func() {}, nil
	}
	if l.sem != nil {
		if err := l.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
	}
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			l.release()
			return nil, err
		}
	}
	return l.release, nil
}

func (l *APILimiter) release() {
	if l.sem == nil {
		return
	}
	l.sem.Release(1)
}
