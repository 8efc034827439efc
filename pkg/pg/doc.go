// Package pg bootstraps the PostgreSQL connection pool used by the tenant
// directory, the membership store and the scoped data gate.
//
// Connect builds a pgxpool.Pool from Config and pings it, retrying with
// exponential backoff (github.com/sethvargo/go-retry) while the database is
// coming up. Migrate applies goose migrations from an fs.FS, typically the
// files embedded by package pgstore, optionally as a separate owner role given
// by PG_MIGRATIONS_URL:
//
//	cfg := config.MustLoad[pg.Config]()
//	if err := pg.Migrate(ctx, cfg, pgstore.Migrations, pgstore.MigrationsDir, log); err != nil {
//		return err
//	}
//	pool, err := pg.Connect(ctx, cfg)
//
// Healthcheck adapts the pool to the func(context.Context) error shape used by
// the HTTP server's readiness probe. The Is*Error helpers classify pgx and
// pgconn errors without leaking driver types into callers.
package pg
