package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/dmitrymomot/tenantgate/pkg/httpserver"
	"github.com/dmitrymomot/tenantgate/pkg/logger"
	"github.com/dmitrymomot/tenantgate/pkg/membership"
	"github.com/dmitrymomot/tenantgate/pkg/pg"
	"github.com/dmitrymomot/tenantgate/pkg/pgstore"
	"github.com/dmitrymomot/tenantgate/pkg/ratelimit"
	"github.com/dmitrymomot/tenantgate/pkg/redis"
	"github.com/dmitrymomot/tenantgate/pkg/telemetry"
	"github.com/dmitrymomot/tenantgate/pkg/tenant"
	"github.com/dmitrymomot/tenantgate/pkg/tenantdb"
)

func newServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig[serveConfig]()
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return serve(ctx, cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply database migrations before serving")
	return cmd
}

func serve(ctx context.Context, cfg serveConfig, migrate bool) error {
	log := newLogger(cfg.Log, os.Stdout)

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTelemetry(context.WithoutCancel(ctx)); err != nil {
			log.Warn("telemetry shutdown", logger.Error(err))
		}
	}()
	metrics, err := telemetry.NewMetrics(otel.Meter("github.com/dmitrymomot/tenantgate"))
	if err != nil {
		return err
	}

	if migrate {
		if err := pg.Migrate(ctx, cfg.PG, pgstore.Migrations, pgstore.MigrationsDir, log); err != nil {
			return err
		}
	}

	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()

	gate := tenantdb.NewGate(pool, tenantdb.WithLogger(log), tenantdb.WithMetrics(metrics))
	if err := gate.VerifyRole(ctx); err != nil {
		return err
	}

	rdb, err := connectRedis(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	shared := tenant.NewRedisCache(rdb)
	cache, err := tenant.NewTieredCache(shared,
		tenant.WithL1TTL(cfg.Tenant.L1TTL),
		tenant.WithL1Size(cfg.Tenant.L1Size),
	)
	if err != nil {
		return err
	}
	defer cache.Close()

	// Admin mutations publish the slug; every replica drops its L1 copy.
	go followInvalidations(ctx, shared, cache.Evict, log)

	store := pgstore.New(pool)
	directory := tenant.NewDirectory(store, cache, append(cfg.Tenant.DirectoryOptions(),
		tenant.WithDirectoryLogger(log),
		tenant.WithDirectoryMetrics(metrics),
	)...)

	policies, err := cfg.RateLimit.LoadPolicies()
	if err != nil {
		return err
	}
	defaultPolicy, err := policies.Get(cfg.RateLimit.DefaultPolicy)
	if err != nil {
		return fmt.Errorf("RATELIMIT_DEFAULT_POLICY: %w", err)
	}
	limiter, err := ratelimit.NewLimiter(ratelimit.NewRedisStore(rdb),
		ratelimit.WithTimeout(cfg.RateLimit.Timeout),
		ratelimit.WithLogger(log),
		ratelimit.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}

	validator, err := cfg.Session.Validator()
	if err != nil {
		return err
	}
	authorizer := membership.NewAuthorizer(validator, store,
		membership.WithStoreTimeout(cfg.Tenant.StoreTimeout),
		membership.WithLogger(log),
	)

	gw := &gateway{
		resolver:         cfg.Tenant.HostResolver(),
		directory:        directory,
		limiter:          limiter,
		policies:         policies,
		defaultPolicy:    defaultPolicy,
		concealSuspended: cfg.Tenant.ConcealSuspended,
		authorizer:       authorizer,
		extractor:        cfg.Session.Extractor(),
		gate:             gate,
		checks:           readinessChecks(pool, rdb),
		readinessTimeout: cfg.HTTP.ReadinessTimeout,
		log:              log,
		metrics:          metrics,
	}

	log.Info("starting gateway",
		slog.String("root_domain", cfg.Tenant.RootDomain),
		slog.Any("policies", policies.Names()),
	)

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	return srv.Run(ctx, gw.routes())
}

// connectRedis waits for Redis like the other dependencies but does not fail
// startup when it stays down: the directory degrades to store-only lookups and
// fail-open policies keep admitting requests until the client reconnects.
func connectRedis(ctx context.Context, cfg redis.Config, log *slog.Logger) (*goredis.Client, error) {
	rdb, err := redis.Connect(ctx, cfg)
	if err == nil {
		return rdb, nil
	}
	if !errors.Is(err, redis.ErrRedisNotReady) {
		return nil, err
	}
	log.Warn("redis unavailable at startup, serving without the shared cache", logger.Error(err))
	return redis.Open(cfg)
}

// readinessChecks gates readiness on Postgres only. Redis is reported but
// optional, so a cache outage never drains the fleet.
func readinessChecks(db pg.Pinger, rdb goredis.UniversalClient) []httpserver.Check {
	return []httpserver.Check{
		{Name: "postgres", Check: pg.Healthcheck(db)},
		{Name: "redis", Check: redis.Healthcheck(rdb), Optional: true},
	}
}

// followInvalidations keeps the invalidation subscription alive across Redis
// outages until ctx is done. Entries missed while disconnected age out by L1 TTL.
func followInvalidations(ctx context.Context, shared *tenant.RedisCache, evict func(slug string), log *slog.Logger) {
	backoff := retry.WithCappedDuration(30*time.Second, retry.NewExponential(time.Second))

	_ = retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := shared.SubscribeInvalidations(ctx, evict)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			err = errors.New("channel closed")
		}
		log.Warn("cache invalidation subscription lost, retrying", logger.Error(err))
		return retry.RetryableError(fmt.Errorf("subscribe invalidations: %w", err))
	})
}
