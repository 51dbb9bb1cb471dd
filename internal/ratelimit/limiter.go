// Package ratelimit wraps golang.org/x/time/rate for named and per-client limiters.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter with a name for logging/debugging.
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// PerMinute creates a limiter allowing requestsPerMinute requests with the given burst.
func PerMinute(name string, requestsPerMinute, burst int) *Limiter {
	return Per(name, requestsPerMinute, time.Minute, burst)
}

// Per creates a limiter allowing requests per window, refilled evenly across it.
func Per(name string, requests int, window time.Duration, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Every(window/time.Duration(max(requests, 1))), burst),
		name:    name,
	}
}

// Wait blocks until the rate limiter allows a request to proceed.
// Returns an error if the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w", l.name, err)
	}
	return nil
}

// Allow reports whether a request can proceed without blocking.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Name returns the name of this rate limiter.
func (l *Limiter) Name() string {
	return l.name
}

type keyedEntry struct {
	limiter  *Limiter
	lastSeen time.Time
}

// Keyed hands out one Limiter per key (typically a client address).
// Entries idle for longer than the idle window are dropped by Prune.
type Keyed struct {
	mu       sync.Mutex
	entries  map[string]*keyedEntry
	requests int
	window   time.Duration
	burst    int
	idle     time.Duration
	now      func() time.Time
}

// NewKeyed creates a per-key limiter set allowing requestsPerMinute per key.
func NewKeyed(requestsPerMinute, burst int, idle time.Duration) *Keyed {
	return NewKeyedPer(requestsPerMinute, time.Minute, burst, idle)
}

// NewKeyedPer creates a per-key limiter set allowing requests per window per key.
// idle should be at least the window so pruning never hands a client a fresh quota early.
func NewKeyedPer(requests int, window time.Duration, burst int, idle time.Duration) *Keyed {
	return &Keyed{
		entries:  make(map[string]*keyedEntry),
		requests: requests,
		window:   window,
		burst:    burst,
		idle:     idle,
		now:      time.Now,
	}
}

// Interval is the time it takes one key to earn back a single request.
func (k *Keyed) Interval() time.Duration {
	return k.window / time.Duration(max(k.requests, 1))
}

// Allow reports whether the client identified by key may make a request now.
func (k *Keyed) Allow(key string) bool {
	return k.get(key).Allow()
}

func (k *Keyed) get(key string) *Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	entry, ok := k.entries[key]
	if !ok {
		entry = &keyedEntry{limiter: Per(key, k.requests, k.window, k.burst)}
		k.entries[key] = entry
	}
	entry.lastSeen = k.now()
	return entry.limiter
}

// Prune removes limiters that have not been used within the idle window and
// returns how many were dropped.
func (k *Keyed) Prune() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	dropped := 0
	cutoff := k.now().Add(-k.idle)
	for key, entry := range k.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(k.entries, key)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of tracked keys.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
