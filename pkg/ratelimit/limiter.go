package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/tenantgate/pkg/logger"
	"github.com/dmitrymomot/tenantgate/pkg/telemetry"
)

// DefaultTimeout bounds a single store call.
const DefaultTimeout = 50 * time.Millisecond

// Limiter enforces policies against a shared Store. Safe for concurrent use.
type Limiter struct {
	store   Store
	timeout time.Duration
	log     *slog.Logger
	metrics *telemetry.Metrics
	now     func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithTimeout bounds each store call.
func WithTimeout(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithLogger sets the logger used for degraded decisions.
func WithLogger(log *slog.Logger) Option {
	return func(l *Limiter) {
		if log != nil {
			l.log = log
		}
	}
}

// WithMetrics records decisions.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(l *Limiter) {
		l.metrics = m
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLimiter creates a limiter backed by store.
func NewLimiter(store Store, opts ...Option) (*Limiter, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	l := &Limiter{
		store:   store,
		timeout: DefaultTimeout,
		log:     logger.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// CheckAndConsume counts one request for tenantID under p and reports whether
// it is within the limit. Tenants never share counters.
//
// On store failure a fail-open policy returns an allowed, degraded result;
// a fail-closed policy returns ErrLimiterUnavailable.
func (l *Limiter) CheckAndConsume(ctx context.Context, tenantID string, p Policy) (*Result, error) {
	if tenantID == "" {
		return nil, ErrKeyRequired
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	now := l.now()
	windowID, resetAt := Window(now, p.Window)

	storeCtx, cancel := context.WithTimeout(ctx, l.timeout)
	count, _, err := l.store.IncrementAndGet(storeCtx, Key(p.Name, tenantID, windowID), 1, p.Window)
	cancel()

	if err != nil {
		if p.FailOpen {
			l.log.WarnContext(ctx, "rate limiter unavailable, failing open",
				logger.Policy(p.Name),
				logger.TenantID(tenantID),
				logger.Error(err),
			)
			l.metrics.RateLimitDecision(ctx, p.Name, "degraded")
			return &Result{
				Allowed:   true,
				Limit:     p.Limit,
				Remaining: p.Limit,
				ResetAt:   resetAt,
				Degraded:  true,
				decidedAt: now,
			}, nil
		}
		l.metrics.RateLimitDecision(ctx, p.Name, "unavailable")
		return nil, errors.Join(ErrLimiterUnavailable, err)
	}

	res := &Result{
		Allowed:   count <= int64(p.Limit),
		Limit:     p.Limit,
		Remaining: max(p.Limit-int(count), 0),
		ResetAt:   resetAt,
		decidedAt: now,
	}
	if res.Allowed {
		l.metrics.RateLimitDecision(ctx, p.Name, "allowed")
	} else {
		l.metrics.RateLimitDecision(ctx, p.Name, "denied")
	}
	return res, nil
}
