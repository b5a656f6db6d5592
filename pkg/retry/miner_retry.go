// Package retry implements the cross-cutting retry controller applied to
// outbound network calls and storage batch writes.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"jobminer/pkg/apperr"
)

// Config holds retry policy. Delay before attempt n (0-based) is
// BaseDelay * Multiplier^n plus a small jitter, capped at MaxDelay. A
// warming-up error overrides the computed delay with the provider hint.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
}

// DefaultConfig returns the stock policy: 3 attempts, 1s base, doubling.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Multiplier:  2,
		MaxDelay:    30 * time.Second,
	}
}

func (c Config) normalized() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Second
	}
	if c.Multiplier < 1 {
		c.Multiplier = 2
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	return c
}

// Do runs fn up to MaxAttempts times. Every error is treated as retryable;
// permanent failures (auth) burn attempts like any other. Returns the last
// error when the budget is exhausted, or ctx.Err() on cancellation.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	cfg = cfg.normalized()

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := cfg.delayFor(attempt-1, lastErr)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}

// delayFor computes the backoff before the retry following failed attempt n.
// A warm-up hint is honored uncapped: retrying a still-loading model before
// its own estimate only burns the attempt budget.
func (c Config) delayFor(n int, err error) time.Duration {
	if hint, ok := apperr.WarmupHint(err); ok && hint > 0 {
		return hint
	}

	backoff := time.Duration(float64(c.BaseDelay) * math.Pow(c.Multiplier, float64(n)))
	if backoff > c.MaxDelay {
		backoff = c.MaxDelay
	}
	// Jitter prevents thundering herd across concurrent pipelines.
	jitter := time.Duration(rand.Int63n(int64(100 * time.Millisecond)))
	return backoff + jitter
}
