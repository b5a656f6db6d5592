// Package ratelimit implements a lock-free token bucket used to pace calls
// against provider quotas.
package ratelimit

import (
	"context"
	"sync/atomic"
	"time"
)

// Limiter is a token bucket refilled at a fixed rate, implemented with atomic
// operations so concurrent pipelines share it without a mutex.
type Limiter struct {
	tokens       int64 // atomic
	maxTokens    int64
	refillRate   int64
	intervalNs   int64
	lastRefillNs int64 // atomic (UnixNano)
}

// New creates a limiter allowing ratePerInterval calls per interval.
func New(ratePerInterval int, interval time.Duration) *Limiter {
	tokens := int64(ratePerInterval)
	return &Limiter{
		tokens:       tokens,
		maxTokens:    tokens,
		refillRate:   tokens,
		intervalNs:   int64(interval),
		lastRefillNs: time.Now().UnixNano(),
	}
}

// Allow consumes a token if one is available.
func (l *Limiter) Allow() bool {
	now := time.Now().UnixNano()
	lastRefill := atomic.LoadInt64(&l.lastRefillNs)

	elapsed := now - lastRefill
	if elapsed >= l.intervalNs {
		intervals := elapsed / l.intervalNs
		tokensToAdd := intervals * l.refillRate

		if atomic.CompareAndSwapInt64(&l.lastRefillNs, lastRefill, now) {
			for {
				current := atomic.LoadInt64(&l.tokens)
				newTokens := current + tokensToAdd
				if newTokens > l.maxTokens {
					newTokens = l.maxTokens
				}
				if atomic.CompareAndSwapInt64(&l.tokens, current, newTokens) {
					break
				}
			}
		}
	}

	for {
		current := atomic.LoadInt64(&l.tokens)
		if current <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt64(&l.tokens, current, current-1) {
			return true
		}
	}
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		if l.Allow() {
			return nil
		}
		timer := time.NewTimer(50 * time.Millisecond)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
