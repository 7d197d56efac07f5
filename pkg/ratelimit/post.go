package ratelimit

import (
	"sync"
	"time"
)

type postBucket struct {
	count         int
	windowStart   time.Time
	cooldownUntil time.Time // zero: no cooldown
}

// PostRateLimiter throttles how fast one user can create threads and
// comments. Exceeding maxPosts inside window puts the user on cooldown;
// every attempt during the cooldown is rejected.
type PostRateLimiter struct {
	mu       sync.RWMutex
	buckets  map[string]*postBucket
	maxPosts int
	window   time.Duration
	cooldown time.Duration

	stopCleanup chan struct{}
	stopOnce    sync.Once
}

func NewPostRateLimiter(maxPosts int, window, cooldown time.Duration) *PostRateLimiter {
	rl := &PostRateLimiter{
		buckets:     make(map[string]*postBucket),
		maxPosts:    maxPosts,
		window:      window,
		cooldown:    cooldown,
		stopCleanup: make(chan struct{}),
	}

	go cleanupLoop(30*time.Second, rl.stopCleanup, rl.cleanup)

	return rl
}

// Allow records a post attempt for userID.
func (rl *PostRateLimiter) Allow(userID string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[userID]
	if !exists {
		rl.buckets[userID] = &postBucket{count: 1, windowStart: now}
		return true
	}

	if !b.cooldownUntil.IsZero() {
		if now.Before(b.cooldownUntil) {
			return false
		}
		// Cooldown over: start a fresh window.
		*b = postBucket{count: 1, windowStart: now}
		return true
	}

	if now.Sub(b.windowStart) > rl.window {
		b.count = 1
		b.windowStart = now
		return true
	}

	b.count++
	if b.count > rl.maxPosts {
		b.cooldownUntil = now.Add(rl.cooldown)
		return false
	}
	return true
}

// CooldownSeconds is the remaining cooldown for userID, rounded up.
func (rl *PostRateLimiter) CooldownSeconds(userID string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	b, exists := rl.buckets[userID]
	if !exists || b.cooldownUntil.IsZero() {
		return 0
	}

	remaining := time.Until(b.cooldownUntil)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1
}

func (rl *PostRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

func (rl *PostRateLimiter) cleanup() {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for userID, b := range rl.buckets {
		windowExpired := now.Sub(b.windowStart) > rl.window
		cooldownExpired := b.cooldownUntil.IsZero() || now.After(b.cooldownUntil)
		if windowExpired && cooldownExpired {
			delete(rl.buckets, userID)
		}
	}
}
