package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/tenantgate/pkg/pg"
	"github.com/dmitrymomot/tenantgate/pkg/tenantdb"
)

const maxNameLength = 200

var (
	ErrNotFound      = errors.New("projects: not found")
	ErrInvalidName   = errors.New("projects: invalid name")
	ErrAlreadyExists = errors.New("projects: name already exists")
)

// Project is a tenant-owned record. Visibility is enforced by the
// projects_tenant_isolation row policy, not by the queries below.
type Project struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

const columns = "id, tenant_id, name, created_at"

func scan(row pgx.Row) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.CreatedAt)
	return p, err
}

// List returns the projects visible in the scope.
func List(ctx context.Context, s *tenantdb.Scope) ([]Project, error) {
	rows, err := s.Query(ctx, "SELECT "+columns+" FROM projects ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("projects: list: %w", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Project, error) {
		return scan(row)
	})
	if err != nil {
		return nil, fmt.Errorf("projects: list: %w", err)
	}
	return list, nil
}

// Get returns one project or ErrNotFound, including when it belongs to another tenant.
func Get(ctx context.Context, s *tenantdb.Scope, id uuid.UUID) (Project, error) {
	p, err := scan(s.QueryRow(ctx, "SELECT "+columns+" FROM projects WHERE id = $1", id))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return Project{}, ErrNotFound
		}
		return Project{}, fmt.Errorf("projects: get: %w", err)
	}
	return p, nil
}

// Create inserts a project owned by the scope's tenant.
func Create(ctx context.Context, s *tenantdb.Scope, name string) (Project, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return Project{}, ErrInvalidName
	}

	p, err := scan(s.QueryRow(ctx,
		"INSERT INTO projects (tenant_id, name) VALUES ($1, $2) RETURNING "+columns,
		s.TenantID(), name,
	))
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return Project{}, ErrAlreadyExists
		}
		return Project{}, fmt.Errorf("projects: create: %w", err)
	}
	return p, nil
}

// Delete removes a project of the scope's tenant.
func Delete(ctx context.Context, s *tenantdb.Scope, id uuid.UUID) error {
	tag, err := s.Exec(ctx, "DELETE FROM projects WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("projects: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
