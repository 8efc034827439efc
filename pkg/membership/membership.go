package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is a member's role within one tenant.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

var roleRank = map[Role]int{
	RoleMember: 1,
	RoleAdmin:  2,
	RoleOwner:  3,
}

// ParseRole returns the role named s.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r ranks at or above min. Unknown roles rank below everything.
func (r Role) AtLeast(min Role) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	return have >= roleRank[min]
}

func (r Role) String() string {
	return string(r)
}

// Membership links a user to a tenant.
type Membership struct {
	TenantID  uuid.UUID
	UserID    uuid.UUID
	Role      Role
	CreatedAt time.Time
}

// Store looks memberships up in the durable store.
type Store interface {
	// FindMembership returns the membership of userID in tenantID or ErrNotAMember.
	FindMembership(ctx context.Context, tenantID, userID uuid.UUID) (*Membership, error)
}

// StoreFunc adapts a function to the Store interface.
type StoreFunc func(ctx context.Context, tenantID, userID uuid.UUID) (*Membership, error)

func (f StoreFunc) FindMembership(ctx context.Context, tenantID, userID uuid.UUID) (*Membership, error) {
	return f(ctx, tenantID, userID)
}
