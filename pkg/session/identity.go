package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Identity is the user a valid session belongs to.
type Identity struct {
	UserID    uuid.UUID
	SessionID string
	ExpiresAt time.Time
}

// Validator checks a session token.
type Validator interface {
	// Validate returns the identity behind token or one of ErrSessionNotFound,
	// ErrInvalidSession, ErrSessionExpired.
	Validate(ctx context.Context, token string) (*Identity, error)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(ctx context.Context, token string) (*Identity, error)

func (f ValidatorFunc) Validate(ctx context.Context, token string) (*Identity, error) {
	return f(ctx, token)
}

type identityKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the validated identity, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}

// LoggerExtractor returns a ContextExtractor for the logger that extracts the user id.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := IdentityFromContext(ctx); ok {
			return slog.String("user_id", id.UserID.String()), true
		}
		return slog.Attr{}, false
	}
}
