package membership

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantgate/pkg/logger"
	"github.com/dmitrymomot/tenantgate/pkg/session"
)

// DefaultStoreTimeout bounds a membership lookup.
const DefaultStoreTimeout = 500 * time.Millisecond

// Authorizer verifies that a session belongs to a member of a tenant.
// Memberships are read from the store on every call so revocations apply immediately.
type Authorizer struct {
	validator session.Validator
	store     Store
	timeout   time.Duration
	log       *slog.Logger
}

// Option configures an Authorizer.
type Option func(*Authorizer)

// WithStoreTimeout bounds each membership lookup.
func WithStoreTimeout(d time.Duration) Option {
	return func(a *Authorizer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithLogger sets the authorizer logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *Authorizer) {
		if log != nil {
			a.log = log
		}
	}
}

// NewAuthorizer creates an authorizer.
func NewAuthorizer(validator session.Validator, store Store, opts ...Option) *Authorizer {
	a := &Authorizer{
		validator: validator,
		store:     store,
		timeout:   DefaultStoreTimeout,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authorize validates token and then checks that its user is a member of
// tenantID. The session is always validated first, so a caller without a
// valid session learns nothing about memberships.
func (a *Authorizer) Authorize(ctx context.Context, token string, tenantID uuid.UUID) (*AuthorizedContext, error) {
	if tenantID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	id, err := a.validator.Validate(ctx, token)
	if err != nil {
		return nil, errors.Join(ErrUnauthenticated, err)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	m, err := a.store.FindMembership(lookupCtx, tenantID, id.UserID)
	switch {
	case errors.Is(err, ErrNotAMember):
		return nil, ErrNotAMember
	case err != nil:
		return nil, errors.Join(ErrStoreUnavailable, err)
	case m == nil || m.TenantID != tenantID || m.UserID != id.UserID:
		return nil, ErrNotAMember
	}

	return &AuthorizedContext{
		UserID:   id.UserID,
		TenantID: tenantID,
		Role:     m.Role,
	}, nil
}
