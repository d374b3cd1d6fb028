// Package ratelimit provides a per-key token bucket. Buckets refill
// continuously and decisions are immediate; a denied caller gets a
// retry hint instead of blocking.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"github.com/KirkDiggler/rpg-table/internal/clock"
)

// Decision reports the outcome of one Allow call.
type Decision struct {
	Allowed bool

	// Remaining counts the whole tokens left after this call.
	Remaining int

	// RetryAfter hints when the next call could succeed. Zero when
	// allowed, at least one second when denied.
	RetryAfter time.Duration
}

type bucket struct {
	tokens     float64
	lastUpdate time.Time
}

// Limiter is a token bucket limiter keyed by caller identity.
type Limiter struct {
	rate  int
	burst int
	clock clock.Clock

	mu      sync.Mutex
	buckets map[string]*bucket
}

// Config holds the limiter settings.
type Config struct {
	// Rate is the sustained allowance in requests per minute.
	Rate int

	// Burst is the bucket capacity. A fresh key starts full.
	Burst int

	// Clock is optional and defaults to the wall clock.
	Clock clock.Clock
}

// New creates a limiter.
func New(cfg *Config) *Limiter {
	if cfg == nil {
		panic("ratelimit config is required")
	}
	if cfg.Rate < 1 {
		panic("ratelimit rate must be at least 1 per minute")
	}
	if cfg.Burst < 1 {
		panic("ratelimit burst must be at least 1")
	}

	l := &Limiter{
		rate:    cfg.Rate,
		burst:   cfg.Burst,
		clock:   cfg.Clock,
		buckets: make(map[string]*bucket),
	}
	if l.clock == nil {
		l.clock = clock.New()
	}
	return l
}

// Allow spends one token for key, refilling the bucket for the time
// elapsed since its last call first.
func (l *Limiter) Allow(key string) Decision {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.burst), lastUpdate: now}
		l.buckets[key] = b
	}

	perSecond := float64(l.rate) / 60
	if elapsed := now.Sub(b.lastUpdate).Seconds(); elapsed > 0 {
		b.tokens = math.Min(float64(l.burst), b.tokens+elapsed*perSecond)
	}
	b.lastUpdate = now

	if b.tokens >= 1 {
		b.tokens--
		return Decision{Allowed: true, Remaining: int(b.tokens)}
	}

	// Whole seconds, the way a Retry-After header reads.
	seconds := math.Ceil((1 - b.tokens) / perSecond)
	if seconds < 1 {
		seconds = 1
	}
	return Decision{Allowed: false, RetryAfter: time.Duration(seconds) * time.Second}
}

// Reset forgets a key; its next call starts with a full bucket.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// Sweep drops buckets idle for at least maxIdle and reports how many
// were removed. A bucket idle that long has refilled to burst,
// matching a fresh key.
func (l *Limiter) Sweep(maxIdle time.Duration) int {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, b := range l.buckets {
		if now.Sub(b.lastUpdate) >= maxIdle {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Size reports how many keys currently hold a bucket.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
