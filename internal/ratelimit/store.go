// Package ratelimit bounds request volume per client key per endpoint with
// a fixed-window counter. The window state lives behind the Store interface
// so single-instance deployments can use the in-memory map while scaled
// deployments share state through Redis.
package ratelimit

import (
	"context"
	"time"
)

// Store holds fixed-window counters. Increment records one request against
// key in the current window, creating a fresh window when none exists or
// the previous one has expired, and returns the resulting count together
// with the window expiry.
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int, resetAt time.Time, err error)
}

// Result is the outcome of a limiter check for one request.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
}

// Limiter applies a fixed (limit, window) policy over a Store.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
}

// NewLimiter creates a limiter allowing limit requests per window per key.
func NewLimiter(store Store, limit int, window time.Duration) *Limiter {
	return &Limiter{store: store, limit: limit, window: window}
}

// Allow records the request and reports whether it fits in the current
// window. On rejection RetryAfter holds the time remaining until the window
// resets, never zero.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	count, resetAt, err := l.store.Increment(ctx, key, l.window)
	if err != nil {
		return Result{}, err
	}

	res := Result{ResetAt: resetAt}
	if count > l.limit {
		res.RetryAfter = time.Until(resetAt)
		if res.RetryAfter <= 0 {
			res.RetryAfter = time.Second
		}
		return res, nil
	}
	res.Allowed = true
	res.Remaining = l.limit - count
	return res, nil
}
