package tenantdb

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Scope is a transaction bound to one tenant. It exists only inside
// Gate.WithTenantScope and must not be retained or shared between goroutines.
type Scope struct {
	tx       pgx.Tx
	tenantID uuid.UUID
	closed   atomic.Bool
}

// TenantID returns the tenant the scope is bound to.
func (s *Scope) TenantID() uuid.UUID {
	return s.tenantID
}

// Exec runs sql inside the scoped transaction.
func (s *Scope) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if s.closed.Load() {
		return pgconn.CommandTag{}, ErrScopeClosed
	}
	return s.tx.Exec(ctx, sql, args...)
}

// Query runs sql inside the scoped transaction.
func (s *Scope) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if s.closed.Load() {
		return nil, ErrScopeClosed
	}
	return s.tx.Query(ctx, sql, args...)
}

// QueryRow runs sql inside the scoped transaction.
func (s *Scope) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if s.closed.Load() {
		return errRow{err: ErrScopeClosed}
	}
	return s.tx.QueryRow(ctx, sql, args...)
}

func (s *Scope) close() {
	s.closed.Store(true)
}

type errRow struct {
	err error
}

func (r errRow) Scan(...any) error {
	return r.err
}
