package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	ActionRate      = "rate"
	ActionVouch     = "vouch"
	ActionChallenge = "challenge"
	ActionVote      = "vote"
	ActionCreatePin = "create_pin"
	ActionInteract  = "interact"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter manages rate limiting for different users and actions
type RateLimiter struct {
	buckets map[string]*bucket
	mutex   sync.Mutex
	now     func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func limitFor(action string) (rate.Limit, int) {
	switch action {
	case ActionRate:
		// 10 ratings per minute
		return rate.Every(6 * time.Second), 10
	case ActionVouch:
		// vouch toggles, 30 per minute
		return rate.Every(2 * time.Second), 30
	case ActionChallenge:
		// 5 challenge submissions per hour
		return rate.Every(12 * time.Minute), 5
	case ActionVote:
		return rate.Every(time.Second), 20
	case ActionCreatePin:
		return rate.Every(time.Minute), 10
	case ActionInteract:
		// likes, favorites and flags, 60 per minute
		return rate.Every(time.Second), 30
	default:
		// 20 actions per minute
		return rate.Every(3 * time.Second), 20
	}
}

// Allow checks if a user action is allowed and consumes a token if so. When
// it is not, the returned duration is how long until the next token.
func (rl *RateLimiter) Allow(userID, action string) (bool, time.Duration) {
	key := userID + ":" + action
	now := rl.now()

	rl.mutex.Lock()
	b, exists := rl.buckets[key]
	if !exists {
		limit, burst := limitFor(action)
		b = &bucket{limiter: rate.NewLimiter(limit, burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	rl.mutex.Unlock()

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		return false, wait
	}
	return true, 0
}

// Cleanup removes buckets that haven't been used for an hour
func (rl *RateLimiter) Cleanup() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > time.Hour {
			delete(rl.buckets, key)
		}
	}
}

// StartCleanupRoutine starts a cleanup routine that runs until stop is closed
func (rl *RateLimiter) StartCleanupRoutine(stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-stop:
				return
			}
		}
	}()
}
