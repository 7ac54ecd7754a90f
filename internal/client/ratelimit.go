package client

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket gating outbound API calls. Tokens refill at
// capacity per second up to capacity; each admitted request consumes one.
//
// Waiters reserve their token up front, so admission is FIFO: a caller that
// started waiting earlier is always admitted earlier. Cancellation while
// waiting returns the reserved token to the bucket.
type RateLimiter struct {
	capacity float64

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time

	clock func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRateLimiter creates a limiter admitting perSecond requests per second,
// with a burst of perSecond tokens available from a full bucket.
func NewRateLimiter(perSecond float64) *RateLimiter {
	if perSecond <= 0 {
		perSecond = 10
	}
	now := time.Now().UTC()
	return &RateLimiter{
		capacity:   perSecond,
		tokens:     perSecond,
		lastRefill: now,
		clock:      func() time.Time { return time.Now().UTC() },
		sleep:      sleepContext,
	}
}

// Acquire blocks until a token is available or ctx is done. It returns
// ctx.Err() on cancellation, in which case no token has been consumed.
func (rl *RateLimiter) Acquire(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	rl.mu.Lock()
	rl.refillLocked()

	if rl.tokens >= 1 {
		rl.tokens--
		rl.mu.Unlock()
		return nil
	}

	// Reserve the token now; the deficit paces later arrivals behind us.
	wait := time.Duration((1 - rl.tokens) / rl.capacity * float64(time.Second))
	rl.tokens--
	rl.mu.Unlock()

	if err := rl.sleep(ctx, wait); err != nil {
		rl.mu.Lock()
		rl.tokens++
		rl.mu.Unlock()
		return err
	}

	return nil
}

// Tokens reports the currently available tokens after refill. Negative
// values indicate queued waiters holding reservations.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillLocked()
	return rl.tokens
}

func (rl *RateLimiter) refillLocked() {
	now := rl.clock()
	elapsed := now.Sub(rl.lastRefill)
	rl.lastRefill = now

	rl.tokens += elapsed.Seconds() * rl.capacity
	if rl.tokens > rl.capacity {
		rl.tokens = rl.capacity
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
