package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tenantgate/pkg/logger"
	"github.com/dmitrymomot/tenantgate/pkg/pg"
	"github.com/dmitrymomot/tenantgate/pkg/pgstore"
	"github.com/dmitrymomot/tenantgate/pkg/redis"
	"github.com/dmitrymomot/tenantgate/pkg/tenant"
)

// admin bundles what the tenant and member commands operate on.
type admin struct {
	cfg   adminConfig
	store *pgstore.Store
	cache tenant.Cache
	log   *slog.Logger
	out   io.Writer
}

// withAdmin connects to Postgres and, best effort, to Redis for cache
// invalidation. Without Redis, cached entries expire on their own TTL.
func withAdmin(ctx context.Context, fn func(ctx context.Context, a *admin) error) error {
	cfg, err := loadConfig[adminConfig]()
	if err != nil {
		return err
	}
	log := newLogger(cfg.Log, os.Stderr)

	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()

	a := &admin{cfg: cfg, store: pgstore.New(pool), log: log, out: os.Stdout}

	var rdb *goredis.Client
	if cfg.Redis.ConnectionURL != "" {
		rdb, err = redis.Connect(ctx, cfg.Redis)
		if err != nil {
			log.WarnContext(ctx, "redis unavailable, cache entries will expire by TTL", logger.Error(err))
		} else {
			defer func() { _ = rdb.Close() }()
			a.cache = tenant.NewRedisCache(rdb)
		}
	}

	return fn(ctx, a)
}

// invalidate drops the slug from the shared cache and notifies replicas.
func (a *admin) invalidate(ctx context.Context, slug string) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Invalidate(ctx, slug); err != nil {
		a.log.WarnContext(ctx, "cache invalidation failed", logger.TenantSlug(slug), logger.Error(err))
	}
}

func (a *admin) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runAdmin(fn func(ctx context.Context, a *admin) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		return withAdmin(cmd.Context(), fn)
	}
}

func notFound(slug string, err error) error {
	if errors.Is(err, tenant.ErrTenantNotFound) {
		return fmt.Errorf("tenant %q not found", slug)
	}
	return err
}
