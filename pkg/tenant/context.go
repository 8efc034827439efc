package tenant

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Trusted headers set on forwarded requests. Client-supplied values are
// always stripped first.
const (
	HeaderTenantID   = "X-Tenant-Id"
	HeaderTenantSlug = "X-Tenant-Slug"
)

// RequestContext is the verified routing decision for a request. TenantID,
// Slug and Plan are set only when Kind is RouteTenant.
type RequestContext struct {
	Kind     RouteKind
	TenantID uuid.UUID
	Slug     string
	Plan     string
}

// IsTenant reports whether the request was routed to a verified tenant.
func (rc RequestContext) IsTenant() bool {
	return rc.Kind == RouteTenant && rc.TenantID != uuid.Nil
}

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// WithContext stores rc in ctx.
func WithContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

// FromContext retrieves the routing decision from the context.
func FromContext(ctx context.Context) (RequestContext, bool) {
	rc, ok := ctx.Value(contextKey{}).(RequestContext)
	return rc, ok
}

// IDFromContext returns the verified tenant id. It is the only supported way
// for downstream code to learn which tenant a request belongs to.
func IDFromContext(ctx context.Context) (uuid.UUID, bool) {
	rc, ok := FromContext(ctx)
	if !ok || !rc.IsTenant() {
		return uuid.Nil, false
	}
	return rc.TenantID, true
}

// MustIDFromContext is like IDFromContext but panics when no tenant is present.
func MustIDFromContext(ctx context.Context) uuid.UUID {
	id, ok := IDFromContext(ctx)
	if !ok {
		panic("tenant: no tenant in context")
	}
	return id
}

// LoggerExtractor returns a ContextExtractor for the logger that extracts
// tenant id and slug from context.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		rc, ok := FromContext(ctx)
		if !ok || !rc.IsTenant() {
			return slog.Attr{}, false
		}
		return slog.Group("tenant",
			slog.String("id", rc.TenantID.String()),
			slog.String("slug", rc.Slug),
		), true
	}
}
