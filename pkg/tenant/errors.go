package tenant

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/tenantgate/pkg/ratelimit"
)

var (
	// ErrUnrecognizedHost is returned when the request host maps to no route.
	ErrUnrecognizedHost = errors.New("tenant: unrecognized host")

	// ErrTenantNotFound is returned when no tenant has the requested slug.
	ErrTenantNotFound = errors.New("tenant: not found")

	// ErrTenantSuspended is returned when the tenant exists but is suspended
	// or pending deletion.
	ErrTenantSuspended = errors.New("tenant: suspended")

	// ErrStoreUnavailable is returned when the durable store could not answer
	// within its time budget. Callers should treat it as retryable.
	ErrStoreUnavailable = errors.New("tenant: store unavailable")

	// ErrCacheUnavailable marks a failed cache tier call. It is logged and
	// never returned to request handlers.
	ErrCacheUnavailable = errors.New("tenant: cache unavailable")

	// ErrInvalidSlug is returned for slugs that do not match the label syntax.
	ErrInvalidSlug = errors.New("tenant: invalid slug")

	// ErrReservedSlug is returned for slugs on the reserved list.
	ErrReservedSlug = errors.New("tenant: reserved slug")

	// ErrNoTenantInContext is returned when a handler requires a tenant but
	// the request was not routed to one.
	ErrNoTenantInContext = errors.New("tenant: no tenant in context")
)

// RateLimitedError is returned when the tenant exhausted its request budget.
type RateLimitedError struct {
	Policy     string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("tenant: rate limited by policy %q, retry after %s", e.Policy, e.RetryAfter)
}

func (e *RateLimitedError) Unwrap() error {
	return ratelimit.ErrRateLimited
}
