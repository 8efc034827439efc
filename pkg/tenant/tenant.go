package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a tenant. Tenants are never physically
// deleted by the request path; removal is expressed through StatusPendingDeletion.
type Status string

const (
	StatusActive          Status = "active"
	StatusSuspended       Status = "suspended"
	StatusPendingDeletion Status = "pending_deletion"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusPendingDeletion:
		return true
	}
	return false
}

// Tenant is the snapshot of tenant metadata needed to route a request.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
}

// IsActive reports whether requests for the tenant may be served.
// Unknown statuses are treated as inactive.
func (t *Tenant) IsActive() bool {
	return t != nil && t.Status == StatusActive
}

// Store is the durable source of truth for tenant metadata.
type Store interface {
	// FindTenantBySlug returns the tenant with the given slug regardless of
	// its status, or ErrTenantNotFound.
	FindTenantBySlug(ctx context.Context, slug string) (*Tenant, error)
}

// StoreFunc adapts a function to the Store interface.
type StoreFunc func(ctx context.Context, slug string) (*Tenant, error)

func (f StoreFunc) FindTenantBySlug(ctx context.Context, slug string) (*Tenant, error) {
	return f(ctx, slug)
}
