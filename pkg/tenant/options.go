package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/tenantgate/pkg/ratelimit"
	"github.com/dmitrymomot/tenantgate/pkg/telemetry"
)

// ErrorHandler writes the response for a rejected request.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// RateLimiter is the per-tenant limiter consulted after a tenant resolves.
type RateLimiter interface {
	CheckAndConsume(ctx context.Context, tenantID string, p ratelimit.Policy) (*ratelimit.Result, error)
}

// PolicyFunc selects the rate limit policy for a request.
type PolicyFunc func(r *http.Request) ratelimit.Policy

// config holds middleware configuration.
type config struct {
	limiter          RateLimiter
	policyFunc       PolicyFunc
	errorHandler     ErrorHandler
	skipPaths        []string
	concealSuspended bool
	logger           *slog.Logger
	metrics          *telemetry.Metrics
}

// Option configures the middleware.
type Option func(*config)

// WithRateLimiter enables per-tenant rate limiting. policy picks the policy per request.
func WithRateLimiter(l RateLimiter, policy PolicyFunc) Option {
	return func(c *config) {
		c.limiter = l
		c.policyFunc = policy
	}
}

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *config) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithSkipPaths sets path prefixes that bypass tenant resolution, such as
// health probes. Trusted headers are still stripped on those paths.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) {
		c.skipPaths = append(c.skipPaths, paths...)
	}
}

// WithConcealSuspended answers suspended tenants with 404 instead of 403 so
// that tenant existence is not revealed.
func WithConcealSuspended(conceal bool) Option {
	return func(c *config) {
		c.concealSuspended = conceal
	}
}

// WithLogger sets a custom logger for the middleware.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics counts rejected requests by reason.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// StatusCode maps a rejection to its HTTP status.
func StatusCode(err error, concealSuspended bool) int {
	var rl *RateLimitedError
	switch {
	case errors.Is(err, ErrUnrecognizedHost),
		errors.Is(err, ErrTenantNotFound),
		errors.Is(err, ErrNoTenantInContext):
		return http.StatusNotFound
	case errors.Is(err, ErrTenantSuspended):
		if concealSuspended {
			return http.StatusNotFound
		}
		return http.StatusForbidden
	case errors.As(err, &rl):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ratelimit.ErrLimiterUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// DefaultErrorHandler writes a generic JSON body and the matching status.
// Retry-After is set for rate limited and unavailable responses.
func DefaultErrorHandler(conceal bool) ErrorHandler {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		status := StatusCode(err, conceal)

		var rl *RateLimitedError
		switch {
		case errors.As(err, &rl):
			w.Header().Set("Retry-After", strconv.Itoa(ratelimit.RetryAfterSeconds(rl.RetryAfter)))
		case status == http.StatusServiceUnavailable:
			w.Header().Set("Retry-After", "1")
		}

		writeJSONError(w, status, http.StatusText(status))
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
