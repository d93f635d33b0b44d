package http

import (
	"sync"
	"time"
)

// rateLimiter is a per-connection token bucket. A nil limiter or zero burst allows everything.
type rateLimiter struct {
	mu        sync.Mutex
	tokens    float64
	capacity  float64
	rate      float64 // tokens per second
	lastCheck time.Time
	now       func() time.Time
}

func newRateLimiter(burst int, interval time.Duration) *rateLimiter {
	if burst <= 0 {
		return nil
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &rateLimiter{
		tokens:    float64(burst),
		capacity:  float64(burst),
		rate:      float64(burst) / interval.Seconds(),
		lastCheck: time.Now(),
		now:       time.Now,
	}
}

func (r *rateLimiter) allow() bool {
	if r == nil {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if elapsed := now.Sub(r.lastCheck).Seconds(); elapsed > 0 {
		r.tokens = min(r.capacity, r.tokens+elapsed*r.rate)
	}
	r.lastCheck = now

	if r.tokens < 1 {
		return false
	}
	r.tokens--
	return true
}
