package tenantdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/tenantgate/pkg/logger"
	"github.com/dmitrymomot/tenantgate/pkg/telemetry"
)

// DefaultSetting is the session variable read by the row level security policies.
const DefaultSetting = "app.current_tenant_id"

// TxBeginner starts transactions. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// Gate is the only supported way to reach tenant-scoped tables.
type Gate struct {
	db        TxBeginner
	setting   string
	txOptions pgx.TxOptions
	log       *slog.Logger
	metrics   *telemetry.Metrics
}

// Option configures a Gate.
type Option func(*Gate)

// WithSetting overrides the session variable name.
func WithSetting(name string) Option {
	return func(g *Gate) {
		if name != "" {
			g.setting = name
		}
	}
}

// WithTxOptions sets the options used for scoped transactions.
func WithTxOptions(opts pgx.TxOptions) Option {
	return func(g *Gate) {
		g.txOptions = opts
	}
}

// WithLogger sets the gate logger.
func WithLogger(log *slog.Logger) Option {
	return func(g *Gate) {
		if log != nil {
			g.log = log
		}
	}
}

// WithMetrics records scope openings.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(g *Gate) {
		g.metrics = m
	}
}

// NewGate creates a gate over db.
func NewGate(db TxBeginner, opts ...Option) *Gate {
	g := &Gate{
		db:      db,
		setting: DefaultSetting,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.With(logger.Component("tenantdb"))
	return g
}

// WithTenantScope runs fn in a transaction whose first statement binds the
// tenant setting with set_config(..., true). The setting is transaction-local,
// so it is discarded on commit or rollback and a pooled connection never
// carries it into another request.
//
// The transaction commits when fn returns nil and rolls back when fn returns
// an error or panics. If the setting cannot be applied and read back, fn is
// not called and ErrScopeNotSet is returned.
func (g *Gate) WithTenantScope(ctx context.Context, tenantID uuid.UUID, fn func(ctx context.Context, s *Scope) error) (err error) {
	if tenantID == uuid.Nil {
		return ErrInvalidTenantID
	}

	tx, err := g.db.BeginTx(ctx, g.txOptions)
	if err != nil {
		g.metrics.ScopeOpened(ctx, false)
		return errors.Join(ErrScopeNotSet, fmt.Errorf("begin: %w", err))
	}

	scope := &Scope{tx: tx, tenantID: tenantID}

	defer func() {
		scope.close()

		if p := recover(); p != nil {
			g.rollback(ctx, tx, tenantID)
			panic(p)
		}
		if err != nil {
			g.rollback(ctx, tx, tenantID)
			return
		}
		if cerr := tx.Commit(ctx); cerr != nil {
			err = fmt.Errorf("tenantdb: commit: %w", cerr)
		}
	}()

	if err = g.bind(ctx, tx, tenantID); err != nil {
		g.metrics.ScopeOpened(ctx, false)
		g.log.ErrorContext(ctx, "failed to bind tenant scope",
			logger.TenantID(tenantID.String()),
			logger.Error(err),
		)
		return err
	}
	g.metrics.ScopeOpened(ctx, true)

	return fn(ctx, scope)
}

func (g *Gate) bind(ctx context.Context, tx pgx.Tx, tenantID uuid.UUID) error {
	want := tenantID.String()

	var applied string
	if err := tx.QueryRow(ctx, "SELECT set_config($1, $2, true)", g.setting, want).Scan(&applied); err != nil {
		return errors.Join(ErrScopeNotSet, err)
	}

	var current string
	if err := tx.QueryRow(ctx, "SELECT current_setting($1, true)", g.setting).Scan(&current); err != nil {
		return errors.Join(ErrScopeNotSet, err)
	}
	if applied != want || current != want {
		return fmt.Errorf("%w: setting %s is %q", ErrScopeNotSet, g.setting, current)
	}
	return nil
}

func (g *Gate) rollback(ctx context.Context, tx pgx.Tx, tenantID uuid.UUID) {
	// Roll back even when the request context is already cancelled.
	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		g.log.WarnContext(ctx, "tenant scope rollback failed",
			logger.TenantID(tenantID.String()),
			logger.Error(err),
		)
	}
}

// VerifyRole fails with ErrRLSBypass when the connected role is a superuser
// or has BYPASSRLS, since row level security would not apply to it.
// Call it at startup.
func (g *Gate) VerifyRole(ctx context.Context) error {
	tx, err := g.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("tenantdb: verify role: %w", err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	var (
		name             string
		super, bypassRLS bool
	)
	err = tx.QueryRow(ctx,
		"SELECT rolname, rolsuper, rolbypassrls FROM pg_roles WHERE rolname = current_user",
	).Scan(&name, &super, &bypassRLS)
	if err != nil {
		return fmt.Errorf("tenantdb: verify role: %w", err)
	}
	if super || bypassRLS {
		return fmt.Errorf("%w: %q (superuser=%t, bypassrls=%t)", ErrRLSBypass, name, super, bypassRLS)
	}
	return nil
}
