package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlidingWindowLimit(t *testing.T) {
	sw := NewSlidingWindow(3, time.Minute)
	for i := 0; i < 3; i++ {
		assert.True(t, sw.Allow())
	}
	assert.False(t, sw.Allow())
	assert.Equal(t, 0, sw.GetRemaining())
}

func TestSlidingWindowExpires(t *testing.T) {
	sw := NewSlidingWindow(1, 20*time.Millisecond)
	assert.True(t, sw.Allow())
	assert.False(t, sw.Allow())

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, sw.GetRemaining())
	assert.True(t, sw.Allow())
}

func TestSlidingWindowWaitRespectsContext(t *testing.T) {
	sw := NewSlidingWindow(1, time.Hour)
	assert.True(t, sw.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, sw.Wait(ctx), context.DeadlineExceeded)
}

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(2, 0, 10*time.Millisecond)
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
	assert.Equal(t, 0, tb.GetRemaining())
}

func TestManagerFallsBackToGeneral(t *testing.T) {
	m := NewRateLimitManager(0)
	assert.Equal(t, m.GetLimiter(KeyGeneral), m.GetLimiter("unknown:endpoint"))
	assert.Equal(t, 100, m.GetRemaining(KeyOrdersGet))
	assert.Equal(t, 10, m.GetRemaining(KeyOrderPost))

	m.SetLimiter(KeyOrdersGet, NewSlidingWindow(1, time.Hour))
	assert.True(t, m.Allow(KeyOrdersGet))
	assert.False(t, m.Allow(KeyOrdersGet))
	assert.NoError(t, m.Wait(context.Background(), KeyBalancesGet))
}
