package object_store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponentialJitterBackoff_BackoffDelay(t *testing.T) {
	b := NewExponentialJitterBackoff(100*time.Millisecond, time.Second)

	tests := []struct {
		attempt int
		min     time.Duration
		max     time.Duration
	}{
		{attempt: 1, min: 80 * time.Millisecond, max: 120 * time.Millisecond},
		{attempt: 2, min: 240 * time.Millisecond, max: 360 * time.Millisecond},
		{attempt: 3, min: 720 * time.Millisecond, max: time.Second},
		// capped
		{attempt: 10, min: time.Second, max: time.Second},
	}
	for _, tt := range tests {
		for i := 0; i < 20; i++ {
			d, err := b.BackoffDelay(tt.attempt, nil)
			assert.NoError(t, err)
			assert.GreaterOrEqual(t, d, tt.min, "attempt %d", tt.attempt)
			assert.LessOrEqual(t, d, tt.max, "attempt %d", tt.attempt)
		}
	}
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	err := sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
