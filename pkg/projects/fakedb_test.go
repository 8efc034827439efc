package projects_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const setting = "app.current_tenant_id"

// fakeDB is an in-memory projects table that applies the row policy the way
// Postgres does: rows are visible only when their tenant_id equals the
// transaction-local setting, and an unset setting matches nothing.
type fakeDB struct {
	mu   sync.Mutex
	rows []row
	now  time.Time
}

type row struct {
	id        uuid.UUID
	tenantID  uuid.UUID
	name      string
	createdAt time.Time
}

func newFakeDB() *fakeDB {
	return &fakeDB{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (db *fakeDB) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	return &fakeTx{db: db}, nil
}

type fakeTx struct {
	pgx.Tx

	db     *fakeDB
	tenant string
	done   bool
}

func (tx *fakeTx) visible(r row) bool {
	return tx.tenant != "" && r.tenantID.String() == tx.tenant
}

func (tx *fakeTx) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	db := tx.db
	db.mu.Lock()
	defer db.mu.Unlock()

	switch {
	case strings.HasPrefix(sql, "SELECT set_config("):
		tx.tenant = args[1].(string)
		return fakeRow{vals: []any{tx.tenant}}
	case strings.HasPrefix(sql, "SELECT current_setting("):
		return fakeRow{vals: []any{tx.tenant}}
	case strings.HasPrefix(sql, "INSERT INTO projects"):
		tenantID, name := args[0].(uuid.UUID), args[1].(string)
		if tenantID.String() != tx.tenant {
			return fakeRow{err: &pgconn.PgError{Code: "42501", Message: "new row violates row-level security policy"}}
		}
		for _, r := range db.rows {
			if r.tenantID == tenantID && r.name == name {
				return fakeRow{err: &pgconn.PgError{Code: "23505"}}
			}
		}
		db.now = db.now.Add(time.Second)
		r := row{id: uuid.New(), tenantID: tenantID, name: name, createdAt: db.now}
		db.rows = append(db.rows, r)
		return fakeRow{vals: r.values()}
	case strings.Contains(sql, "FROM projects WHERE id = $1"):
		id := args[0].(uuid.UUID)
		for _, r := range db.rows {
			if r.id == id && tx.visible(r) {
				return fakeRow{vals: r.values()}
			}
		}
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{err: fmt.Errorf("unexpected query %q", sql)}
}

func (tx *fakeTx) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	if !strings.Contains(sql, "FROM projects ORDER BY") {
		return nil, fmt.Errorf("unexpected query %q", sql)
	}
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()

	out := &fakeRows{}
	for _, r := range tx.db.rows {
		if tx.visible(r) {
			out.rows = append(out.rows, r.values())
		}
	}
	return out, nil
}

func (tx *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if !strings.HasPrefix(sql, "DELETE FROM projects") {
		return pgconn.CommandTag{}, fmt.Errorf("unexpected statement %q", sql)
	}
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()

	id := args[0].(uuid.UUID)
	for i, r := range tx.db.rows {
		if r.id == id && tx.visible(r) {
			tx.db.rows = append(tx.db.rows[:i], tx.db.rows[i+1:]...)
			return pgconn.NewCommandTag("DELETE 1"), nil
		}
	}
	return pgconn.NewCommandTag("DELETE 0"), nil
}

func (tx *fakeTx) Commit(context.Context) error {
	if tx.done {
		return pgx.ErrTxClosed
	}
	tx.done = true
	return nil
}

func (tx *fakeTx) Rollback(context.Context) error {
	if tx.done {
		return pgx.ErrTxClosed
	}
	tx.done = true
	return nil
}

func (r row) values() []any {
	return []any{r.id, r.tenantID, r.name, r.createdAt}
}

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.vals, dest)
}

func assign(vals, dest []any) error {
	if len(vals) != len(dest) {
		return fmt.Errorf("scan: %d values into %d destinations", len(vals), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = vals[i].(string)
		case *uuid.UUID:
			*p = vals[i].(uuid.UUID)
		case *time.Time:
			*p = vals[i].(time.Time)
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

type fakeRows struct {
	pgx.Rows

	rows [][]any
	cur  int
}

func (r *fakeRows) Next() bool {
	if r.cur >= len(r.rows) {
		return false
	}
	r.cur++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	if r.cur == 0 {
		return errors.New("scan called before next")
	}
	return assign(r.rows[r.cur-1], dest)
}

func (r *fakeRows) Values() ([]any, error)                       { return r.rows[r.cur-1], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) Close()                                       {}
