package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBucket_ConsumeUntilEmpty(t *testing.T) {
	now := time.Now()
	b := NewBucket(3, 60)
	b.nowFunc = func() time.Time { return now }

	assert.True(t, b.TryConsume(1))
	assert.True(t, b.TryConsume(1))
	assert.True(t, b.TryConsume(1))
	assert.False(t, b.TryConsume(1))
}

func TestBucket_OverdrawLeavesTokensUnchanged(t *testing.T) {
	now := time.Now()
	b := NewBucket(5, 60)
	b.nowFunc = func() time.Time { return now }

	before := b.Tokens()
	assert.False(t, b.TryConsume(6))
	assert.InDelta(t, before, b.Tokens(), 0.001)
}

func TestBucket_RefillsOverTime(t *testing.T) {
	now := time.Now()
	b := NewBucket(2, 60) // one token per second
	b.nowFunc = func() time.Time { return now }

	assert.True(t, b.TryConsume(2))
	assert.False(t, b.TryConsume(1))

	// One second of refill at 60/min restores one token.
	now = now.Add(time.Second)
	assert.True(t, b.TryConsume(1))
	assert.False(t, b.TryConsume(1))
}

func TestBucket_RefillCappedAtCapacity(t *testing.T) {
	now := time.Now()
	b := NewBucket(4, 60)
	b.nowFunc = func() time.Time { return now }

	assert.True(t, b.TryConsume(4))

	// Far longer than capacity/rate: tokens clamp at capacity.
	now = now.Add(time.Hour)
	assert.InDelta(t, 4, b.Tokens(), 0.001)
	assert.True(t, b.TryConsume(4))
	assert.False(t, b.TryConsume(1))
}

func TestBucket_TokensNeverNegative(t *testing.T) {
	now := time.Now()
	b := NewBucket(2, 6)
	b.nowFunc = func() time.Time { return now }

	for range 10 {
		b.TryConsume(1)
		assert.GreaterOrEqual(t, b.Tokens(), 0.0)
	}
}

func TestBucket_StartsFull(t *testing.T) {
	b := NewBucket(7, 10)
	assert.Equal(t, 7, b.Capacity())
	assert.InDelta(t, 7, b.Tokens(), 0.001)
}
