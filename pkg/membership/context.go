package membership

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// AuthorizedContext is the result of a successful membership check.
type AuthorizedContext struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Role     Role
}

type contextKey struct{}

// WithContext stores ac in ctx.
func WithContext(ctx context.Context, ac *AuthorizedContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

// FromContext returns the authorized context set by Require.
func FromContext(ctx context.Context) (*AuthorizedContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(*AuthorizedContext)
	return ac, ok && ac != nil
}

// LoggerExtractor returns a ContextExtractor for the logger that extracts the member role.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if ac, ok := FromContext(ctx); ok {
			return slog.String("role", string(ac.Role)), true
		}
		return slog.Attr{}, false
	}
}
