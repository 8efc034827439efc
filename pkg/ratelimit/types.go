package ratelimit

import (
	"context"
	"time"
)

// Result contains the result of a rate limit check.
type Result struct {
	// Allowed indicates whether the request is allowed.
	Allowed bool

	// Limit is the maximum number of requests allowed in the window.
	Limit int

	// Remaining is the number of requests remaining in the current window.
	Remaining int

	// ResetAt is the time when the rate limit window resets.
	ResetAt time.Time

	// Degraded is set when the store failed and the policy allowed the request anyway.
	Degraded bool

	decidedAt time.Time
}

// RetryAfter returns how long to wait before the next request is allowed.
// Returns 0 if the current request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	now := r.decidedAt
	if now.IsZero() {
		now = time.Now()
	}
	if d := r.ResetAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Store defines the interface for rate limit counter backends.
// Implementations must increment atomically per key.
type Store interface {
	// IncrementAndGet atomically increments the counter for the given key,
	// setting its expiry to window when the key is created, and returns the
	// new value along with the remaining TTL.
	IncrementAndGet(ctx context.Context, key string, incr int, window time.Duration) (current int64, ttl time.Duration, err error)
}
