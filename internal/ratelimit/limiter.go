// Package ratelimit implements fixed-window request limiting shared by every
// API route. Counters live in process memory; under horizontal scaling each
// process keeps independent windows. The Checker interface exists so a
// shared-store implementation can replace the in-memory one without touching
// call sites.
package ratelimit

import (
	"math/rand"
	"sync"
	"time"
)

// Config describes one rate-limit policy.
type Config struct {
	Window      time.Duration
	MaxRequests int
	KeyPrefix   string
}

// Result reports the effect of a single check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Checker is the narrow contract the pipeline depends on.
type Checker interface {
	Check(key string, cfg Config) Result
}

type counter struct {
	count   int
	resetAt time.Time
}

// Limiter is an in-memory fixed-window Checker. Instances are independent so
// tests and alternate policies can run isolated.
type Limiter struct {
	mu       sync.Mutex
	counters map[string]*counter
	now      func() time.Time
	// sweepEvery N checks on average; expired counters are garbage-collected
	// opportunistically, not deterministically.
	sweepChance int
}

// NewLimiter constructs a Limiter using the wall clock.
func NewLimiter() *Limiter {
	return NewLimiterWithClock(time.Now)
}

// NewLimiterWithClock constructs a Limiter with an injected clock.
func NewLimiterWithClock(now func() time.Time) *Limiter {
	return &Limiter{
		counters:    make(map[string]*counter),
		now:         now,
		sweepChance: 100,
	}
}

// Check applies the fixed-window algorithm for (cfg.KeyPrefix, key).
// A missing or expired counter starts a fresh window. Rejected calls do not
// increment the counter. Remaining is reported as of after this call.
func (l *Limiter) Check(key string, cfg Config) Result {
	now := l.now()
	mapKey := cfg.KeyPrefix + ":" + key

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.counters[mapKey]
	if !ok || !now.Before(c.resetAt) {
		c = &counter{count: 0, resetAt: now.Add(cfg.Window)}
		l.counters[mapKey] = c
	}

	if c.count >= cfg.MaxRequests {
		l.maybeSweep(now)
		return Result{
			Allowed:   false,
			Limit:     cfg.MaxRequests,
			Remaining: 0,
			ResetAt:   c.resetAt,
		}
	}

	c.count++
	remaining := cfg.MaxRequests - c.count
	if remaining < 0 {
		remaining = 0
	}
	l.maybeSweep(now)
	return Result{
		Allowed:   true,
		Limit:     cfg.MaxRequests,
		Remaining: remaining,
		ResetAt:   c.resetAt,
	}
}

// Reset drops the counter for (cfg.KeyPrefix, key).
func (l *Limiter) Reset(key string, cfg Config) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.counters, cfg.KeyPrefix+":"+key)
}

// maybeSweep removes expired counters on roughly 1-in-sweepChance checks.
// Caller must hold l.mu.
func (l *Limiter) maybeSweep(now time.Time) {
	if l.sweepChance <= 0 || rand.Intn(l.sweepChance) != 0 {
		return
	}
	for key, c := range l.counters {
		if !now.Before(c.resetAt) {
			delete(l.counters, key)
		}
	}
}

// Len reports the number of live counters. Used by tests and metrics.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.counters)
}
