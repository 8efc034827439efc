package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/dmitrymomot/tenantgate"

// Metrics holds the pipeline instruments. All methods are safe on a nil receiver.
type Metrics struct {
	resolutions   metric.Int64Counter
	cacheErrors   metric.Int64Counter
	storeDuration metric.Float64Histogram
	rateDecisions metric.Int64Counter
	scopes        metric.Int64Counter
	rejections    metric.Int64Counter
}

// NewMetrics creates all instruments on meter, or on the global meter provider when meter is nil.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}
	m := &Metrics{}
	var err error

	m.resolutions, err = meter.Int64Counter("tenantgate.tenant.resolutions",
		metric.WithDescription("Tenant lookups by outcome and source"))
	if err != nil {
		return nil, err
	}

	m.cacheErrors, err = meter.Int64Counter("tenantgate.tenant.cache_errors",
		metric.WithDescription("Failed cache tier calls; the directory fell back to the store"))
	if err != nil {
		return nil, err
	}

	m.storeDuration, err = meter.Float64Histogram("tenantgate.tenant.store_duration_seconds",
		metric.WithDescription("Durable store lookup latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.rateDecisions, err = meter.Int64Counter("tenantgate.ratelimit.decisions",
		metric.WithDescription("Rate limiter decisions by policy"))
	if err != nil {
		return nil, err
	}

	m.scopes, err = meter.Int64Counter("tenantgate.scope.opened",
		metric.WithDescription("Tenant-scoped transactions opened by result"))
	if err != nil {
		return nil, err
	}

	m.rejections, err = meter.Int64Counter("tenantgate.tenant.rejections",
		metric.WithDescription("Requests rejected by the tenant middleware by reason"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// TenantResolved records a directory lookup. Source is "cache" or "store".
func (m *Metrics) TenantResolved(ctx context.Context, outcome, source string) {
	if m == nil {
		return
	}
	m.resolutions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("source", source),
	))
}

// CacheError records a failed cache call.
func (m *Metrics) CacheError(ctx context.Context, op string) {
	if m == nil {
		return
	}
	m.cacheErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

// StoreLookup records the latency of a durable store lookup.
func (m *Metrics) StoreLookup(ctx context.Context, d time.Duration, ok bool) {
	if m == nil {
		return
	}
	m.storeDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.Bool("ok", ok)))
}

// RateLimitDecision records a limiter verdict: "allowed", "denied" or "degraded".
func (m *Metrics) RateLimitDecision(ctx context.Context, policy, decision string) {
	if m == nil {
		return
	}
	m.rateDecisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("policy", policy),
		attribute.String("decision", decision),
	))
}

// ScopeOpened records an attempt to open a tenant scope.
func (m *Metrics) ScopeOpened(ctx context.Context, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.scopes.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// Rejected records a request the tenant middleware turned away.
func (m *Metrics) Rejected(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.rejections.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
