package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_BurstThenBlocked(t *testing.T) {
	rl := NewRateLimiter()
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	for i := 0; i < 5; i++ {
		ok, _ := rl.Allow("u1", ActionChallenge)
		assert.True(t, ok, "attempt %d", i+1)
	}

	ok, wait := rl.Allow("u1", ActionChallenge)
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))

	// Other users and actions have their own buckets.
	ok, _ = rl.Allow("u2", ActionChallenge)
	assert.True(t, ok)
	ok, _ = rl.Allow("u1", ActionVote)
	assert.True(t, ok)
}

func TestRateLimiter_Refills(t *testing.T) {
	rl := NewRateLimiter()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		rl.Allow("u1", ActionChallenge)
	}
	ok, _ := rl.Allow("u1", ActionChallenge)
	assert.False(t, ok)

	now = now.Add(12 * time.Minute)
	ok, _ = rl.Allow("u1", ActionChallenge)
	assert.True(t, ok)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("u1", ActionVote)
	now = now.Add(2 * time.Hour)
	rl.Cleanup()

	assert.Empty(t, rl.buckets)
}
