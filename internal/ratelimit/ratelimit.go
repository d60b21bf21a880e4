// Package ratelimit provides a per-client token bucket used to throttle
// write requests.
package ratelimit

import (
	"sync"
	"time"
)

// RateLimiter implements token bucket algorithm for rate limiting.
// Thread-safe implementation using mutex for concurrent access.
type RateLimiter struct {
	// Map of identifier (client IP) to bucket state
	limiters map[string]*bucketState
	mu       sync.Mutex

	maxTokens  int           // Maximum tokens in bucket
	refillRate time.Duration // Time between token refills
	idleTTL    time.Duration // Buckets untouched this long are dropped

	now func() time.Time

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	stopOnce      sync.Once
}

type bucketState struct {
	tokens     int
	lastRefill time.Time
	lastSeen   time.Time
	mu         sync.Mutex
}

// New creates a rate limiter allowing maxTokens requests per identifier in a
// burst and one more every refillRate.
//
// Example:
//
//	// Allow 60 writes per minute
//	limiter := ratelimit.New(60, time.Second)
func New(maxTokens int, refillRate time.Duration) *RateLimiter {
	rl := newLimiter(maxTokens, refillRate, time.Now)

	rl.cleanupTicker = time.NewTicker(10 * time.Minute)
	go rl.cleanup()

	return rl
}

func newLimiter(maxTokens int, refillRate time.Duration, now func() time.Time) *RateLimiter {
	if maxTokens < 1 {
		maxTokens = 1
	}
	if refillRate <= 0 {
		refillRate = time.Second
	}
	return &RateLimiter{
		limiters:    make(map[string]*bucketState),
		maxTokens:   maxTokens,
		refillRate:  refillRate,
		idleTTL:     time.Hour,
		now:         now,
		stopCleanup: make(chan struct{}),
	}
}

// Allow reports whether a request from identifier may proceed and consumes a
// token if so.
func (rl *RateLimiter) Allow(identifier string) bool {
	now := rl.now()

	rl.mu.Lock()
	bucket, exists := rl.limiters[identifier]
	if !exists {
		bucket = &bucketState{tokens: rl.maxTokens, lastRefill: now}
		rl.limiters[identifier] = bucket
	}
	rl.mu.Unlock()

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	bucket.lastSeen = now
	if refills := int(now.Sub(bucket.lastRefill) / rl.refillRate); refills > 0 {
		bucket.tokens += refills
		if bucket.tokens > rl.maxTokens {
			bucket.tokens = rl.maxTokens
		}
		// keep the fractional remainder so partial intervals still count
		bucket.lastRefill = bucket.lastRefill.Add(time.Duration(refills) * rl.refillRate)
	}

	if bucket.tokens > 0 {
		bucket.tokens--
		return true
	}
	return false
}

// RetryAfter returns how long until identifier gets its next token.
func (rl *RateLimiter) RetryAfter(identifier string) time.Duration {
	rl.mu.Lock()
	bucket, exists := rl.limiters[identifier]
	rl.mu.Unlock()
	if !exists {
		return 0
	}

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	if bucket.tokens > 0 {
		return 0
	}
	wait := rl.refillRate - rl.now().Sub(bucket.lastRefill)
	if wait < 0 {
		return 0
	}
	return wait
}

// Reset removes the rate limit state for a given identifier.
func (rl *RateLimiter) Reset(identifier string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.limiters, identifier)
}

func (rl *RateLimiter) cleanup() {
	for {
		select {
		case <-rl.cleanupTicker.C:
			rl.sweep()
		case <-rl.stopCleanup:
			return
		}
	}
}

// sweep drops buckets idle for longer than idleTTL.
func (rl *RateLimiter) sweep() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for id, bucket := range rl.limiters {
		bucket.mu.Lock()
		if now.Sub(bucket.lastSeen) > rl.idleTTL {
			delete(rl.limiters, id)
		}
		bucket.mu.Unlock()
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		if rl.cleanupTicker != nil {
			rl.cleanupTicker.Stop()
		}
		close(rl.stopCleanup)
	})
}
