package ratelimit

import "errors"

var (
	ErrRateLimited        = errors.New("ratelimit: rate limit exceeded")
	ErrLimiterUnavailable = errors.New("ratelimit: limiter unavailable")
	ErrInvalidPolicy      = errors.New("ratelimit: invalid policy")
	ErrUnknownPolicy      = errors.New("ratelimit: unknown policy")
	ErrKeyRequired        = errors.New("ratelimit: key is required")
	ErrStoreRequired      = errors.New("ratelimit: store is required")
)
