package pgstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/tenantgate/pkg/membership"
	"github.com/dmitrymomot/tenantgate/pkg/pg"
	"github.com/dmitrymomot/tenantgate/pkg/tenant"
)

// DB is the subset of *pgxpool.Pool used by Store.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the PostgreSQL implementation of tenant.Store and membership.Store
// plus the admin mutations behind the CLI. Tenants and memberships are global
// tables read before any tenant scope exists; they carry no row-level policy.
type Store struct {
	db DB
}

var (
	_ tenant.Store     = (*Store)(nil)
	_ membership.Store = (*Store)(nil)
)

// New returns a Store backed by db.
func New(db DB) *Store {
	return &Store{db: db}
}

const tenantColumns = "id, slug, name, status, plan, created_at"

func scanTenant(row pgx.Row) (*tenant.Tenant, error) {
	var (
		t      tenant.Tenant
		status string
	)
	if err := row.Scan(&t.ID, &t.Slug, &t.Name, &status, &t.Plan, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Status = tenant.Status(status)
	return &t, nil
}

// FindTenantBySlug returns the tenant regardless of status or tenant.ErrTenantNotFound.
func (s *Store) FindTenantBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	t, err := scanTenant(s.db.QueryRow(ctx,
		"SELECT "+tenantColumns+" FROM tenants WHERE slug = $1", slug))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, fmt.Errorf("pgstore: find tenant %q: %w", slug, err)
	}
	return t, nil
}

// FindMembership returns the user's membership in the tenant or membership.ErrNotAMember.
func (s *Store) FindMembership(ctx context.Context, tenantID, userID uuid.UUID) (*membership.Membership, error) {
	var (
		m    membership.Membership
		role string
	)
	err := s.db.QueryRow(ctx,
		"SELECT tenant_id, user_id, role, created_at FROM tenant_memberships WHERE tenant_id = $1 AND user_id = $2",
		tenantID, userID,
	).Scan(&m.TenantID, &m.UserID, &role, &m.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, membership.ErrNotAMember
		}
		return nil, fmt.Errorf("pgstore: find membership: %w", err)
	}
	m.Role = membership.Role(role)
	return &m, nil
}

// CreateTenantParams describes a new tenant. Slug must already be validated.
type CreateTenantParams struct {
	Slug string
	Name string
	Plan string
}

// CreateTenant inserts an active tenant.
func (s *Store) CreateTenant(ctx context.Context, p CreateTenantParams) (*tenant.Tenant, error) {
	plan := strings.TrimSpace(p.Plan)
	if plan == "" {
		plan = "free"
	}
	t, err := scanTenant(s.db.QueryRow(ctx,
		"INSERT INTO tenants (slug, name, plan, status) VALUES ($1, $2, $3, $4) RETURNING "+tenantColumns,
		p.Slug, p.Name, plan, string(tenant.StatusActive),
	))
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %q", ErrSlugTaken, p.Slug)
		}
		return nil, fmt.Errorf("pgstore: create tenant: %w", err)
	}
	return t, nil
}

// SetTenantStatus changes the tenant's lifecycle status. Callers must
// invalidate the directory cache for the slug afterwards.
func (s *Store) SetTenantStatus(ctx context.Context, slug string, status tenant.Status) (*tenant.Tenant, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	t, err := scanTenant(s.db.QueryRow(ctx,
		"UPDATE tenants SET status = $2, updated_at = now() WHERE slug = $1 RETURNING "+tenantColumns,
		slug, string(status),
	))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, fmt.Errorf("pgstore: set tenant status: %w", err)
	}
	return t, nil
}

// AddMember grants role to the user, replacing any previous role.
func (s *Store) AddMember(ctx context.Context, tenantID, userID uuid.UUID, role membership.Role) (*membership.Membership, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", membership.ErrInvalidRole, role)
	}
	m := membership.Membership{TenantID: tenantID, UserID: userID, Role: role}
	err := s.db.QueryRow(ctx, `
		INSERT INTO tenant_memberships (tenant_id, user_id, role) VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id, user_id) DO UPDATE SET role = EXCLUDED.role
		RETURNING created_at`,
		tenantID, userID, string(role),
	).Scan(&m.CreatedAt)
	if err != nil {
		if pg.IsForeignKeyViolationError(err) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, fmt.Errorf("pgstore: add member: %w", err)
	}
	return &m, nil
}

// RemoveMember revokes the membership. The next request of that user fails
// authorization because memberships are never cached.
func (s *Store) RemoveMember(ctx context.Context, tenantID, userID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		"DELETE FROM tenant_memberships WHERE tenant_id = $1 AND user_id = $2",
		tenantID, userID,
	)
	if err != nil {
		return fmt.Errorf("pgstore: remove member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return membership.ErrNotAMember
	}
	return nil
}

// ListMembers returns the tenant's memberships ordered by creation time.
func (s *Store) ListMembers(ctx context.Context, tenantID uuid.UUID) ([]membership.Membership, error) {
	rows, err := s.db.Query(ctx,
		"SELECT tenant_id, user_id, role, created_at FROM tenant_memberships WHERE tenant_id = $1 ORDER BY created_at, user_id",
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list members: %w", err)
	}
	members, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (membership.Membership, error) {
		var (
			m    membership.Membership
			role string
		)
		err := row.Scan(&m.TenantID, &m.UserID, &role, &m.CreatedAt)
		m.Role = membership.Role(role)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("pgstore: list members: %w", err)
	}
	return members, nil
}
