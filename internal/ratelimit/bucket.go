// Package ratelimit provides the local token bucket gating external calls.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Bucket is a non-blocking token bucket. It refills continuously at a
// per-minute rate up to a fixed capacity. Callers that get false back must
// apply their own backoff or rejection policy; the bucket never blocks.
type Bucket struct {
	mu      sync.Mutex
	limiter *rate.Limiter

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewBucket creates a full bucket with the given capacity that refills at
// refillPerMinute tokens per minute.
func NewBucket(capacity int, refillPerMinute float64) *Bucket {
	if capacity <= 0 {
		capacity = 1
	}
	if refillPerMinute <= 0 {
		refillPerMinute = 1
	}
	return &Bucket{
		limiter: rate.NewLimiter(rate.Limit(refillPerMinute/60.0), capacity),
		nowFunc: time.Now,
	}
}

// TryConsume takes n tokens if available and reports whether it succeeded.
// On false no tokens are consumed.
func (b *Bucket) TryConsume(n int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.limiter.AllowN(b.nowFunc(), n)
}

// Tokens returns the current token count after refill, capped at capacity.
func (b *Bucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.limiter.TokensAt(b.nowFunc())
}

// Capacity returns the bucket's maximum token count.
func (b *Bucket) Capacity() int {
	return b.limiter.Burst()
}
