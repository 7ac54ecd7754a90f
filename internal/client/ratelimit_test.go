package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// recordingSleeper captures requested waits without blocking.
type recordingSleeper struct {
	waits []time.Duration
	err   error
}

func (s *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return s.err
}

func newTestLimiter(perSecond float64, clock *fakeClock, sleeper *recordingSleeper) *RateLimiter {
	rl := NewRateLimiter(perSecond)
	rl.clock = clock.Now
	rl.lastRefill = clock.Now()
	if sleeper != nil {
		rl.sleep = sleeper.sleep
	}
	return rl
}

func TestRateLimiterAllowsBurst(t *testing.T) {
	clock := newFakeClock()
	sleeper := &recordingSleeper{}
	rl := newTestLimiter(10, clock, sleeper)

	for i := 0; i < 10; i++ {
		require.NoError(t, rl.Acquire(context.Background()))
	}

	require.Empty(t, sleeper.waits, "a full bucket admits capacity calls without waiting")
}

func TestRateLimiterPacesBeyondBurst(t *testing.T) {
	clock := newFakeClock()
	sleeper := &recordingSleeper{}
	rl := newTestLimiter(10, clock, sleeper)

	// 15 calls against capacity 10: first 10 are free, the remaining 5
	// are paced one token (100ms) apart.
	for i := 0; i < 15; i++ {
		require.NoError(t, rl.Acquire(context.Background()))
	}

	require.Len(t, sleeper.waits, 5)
	for i, wait := range sleeper.waits {
		expected := time.Duration(i+1) * 100 * time.Millisecond
		require.Equal(t, expected, wait, "wait %d", i)
	}
}

func TestRateLimiterTokensCappedAfterIdle(t *testing.T) {
	clock := newFakeClock()
	rl := newTestLimiter(10, clock, &recordingSleeper{})

	for i := 0; i < 10; i++ {
		require.NoError(t, rl.Acquire(context.Background()))
	}
	require.InDelta(t, 0, rl.Tokens(), 1e-9)

	clock.Advance(100 * time.Second)
	require.InDelta(t, 10, rl.Tokens(), 1e-9, "idle refill must not exceed capacity")
}

func TestRateLimiterRefillProportionalToElapsed(t *testing.T) {
	clock := newFakeClock()
	rl := newTestLimiter(10, clock, &recordingSleeper{})

	for i := 0; i < 10; i++ {
		require.NoError(t, rl.Acquire(context.Background()))
	}

	clock.Advance(250 * time.Millisecond)
	require.InDelta(t, 2.5, rl.Tokens(), 1e-9)
}

func TestRateLimiterCancelledWhileWaiting(t *testing.T) {
	clock := newFakeClock()
	sleeper := &recordingSleeper{err: context.Canceled}
	rl := newTestLimiter(10, clock, sleeper)

	for i := 0; i < 10; i++ {
		require.NoError(t, rl.Acquire(context.Background()))
	}

	err := rl.Acquire(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	// The reserved token must be returned on cancellation.
	require.InDelta(t, 0, rl.Tokens(), 1e-9)
}

func TestRateLimiterCancelledBeforeWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rl := NewRateLimiter(10)
	err := rl.Acquire(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.InDelta(t, 10, rl.Tokens(), 1e-6, "no token consumed on early cancellation")
}
