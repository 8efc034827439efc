// Package ratelimit implements per-tenant fixed-window request limits.
//
// Each Policy names a limit and a window. Limiter.CheckAndConsume increments
// the counter rl:{policy}:{tenant}:{window} in a Store and reports whether
// the request fits. Counters are created on first use and expire with their
// window, so no background reset is needed.
//
// Two stores are provided: MemoryStore for a single process and RedisStore,
// which increments and sets the expiry in one Lua script so that all
// processes share the same counters.
//
// Store failures are handled per policy. A fail-open policy admits the
// request and logs a warning; a fail-closed policy returns
// ErrLimiterUnavailable so the caller can answer 503.
//
// Policies come from a compact string:
//
//	ps, err := ratelimit.ParsePolicies("api=100/10s,auth=10/1m!closed")
//
// or from a YAML file via LoadPolicies.
package ratelimit
