package tenant

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/tenantgate/pkg/logger"
	"github.com/dmitrymomot/tenantgate/pkg/telemetry"
)

// Directory defaults.
const (
	DefaultPositiveTTL  = 60 * time.Second
	DefaultNegativeTTL  = 15 * time.Second
	DefaultSuspendedTTL = 30 * time.Second
	DefaultCacheTimeout = 150 * time.Millisecond
	DefaultStoreTimeout = 500 * time.Millisecond
	DefaultStoreRetries = 1
	DefaultRetryBackoff = 25 * time.Millisecond
)

// Directory answers slug lookups with a read-through cache over the durable
// store. Misses are negatively cached so unknown slugs do not reach the store
// on every request. Safe for concurrent use.
type Directory struct {
	store   Store
	cache   Cache
	cfg     directoryConfig
	group   singleflight.Group
	log     *slog.Logger
	metrics *telemetry.Metrics
}

type directoryConfig struct {
	positiveTTL  time.Duration
	negativeTTL  time.Duration
	suspendedTTL time.Duration
	cacheTimeout time.Duration
	storeTimeout time.Duration
	storeRetries uint64
	retryBackoff time.Duration
}

// DirectoryOption configures a Directory.
type DirectoryOption func(*Directory)

// WithPositiveTTL sets how long active tenants are cached.
func WithPositiveTTL(d time.Duration) DirectoryOption {
	return func(dir *Directory) {
		if d > 0 {
			dir.cfg.positiveTTL = d
		}
	}
}

// WithNegativeTTL sets how long unknown slugs are cached.
func WithNegativeTTL(d time.Duration) DirectoryOption {
	return func(dir *Directory) {
		if d > 0 {
			dir.cfg.negativeTTL = d
		}
	}
}

// WithSuspendedTTL sets how long suspended tenants are cached.
func WithSuspendedTTL(d time.Duration) DirectoryOption {
	return func(dir *Directory) {
		if d > 0 {
			dir.cfg.suspendedTTL = d
		}
	}
}

// WithCacheTimeout bounds each cache call.
func WithCacheTimeout(d time.Duration) DirectoryOption {
	return func(dir *Directory) {
		if d > 0 {
			dir.cfg.cacheTimeout = d
		}
	}
}

// WithStoreTimeout bounds each store attempt.
func WithStoreTimeout(d time.Duration) DirectoryOption {
	return func(dir *Directory) {
		if d > 0 {
			dir.cfg.storeTimeout = d
		}
	}
}

// WithStoreRetry sets how many times a failed store lookup is retried and the
// base backoff between attempts.
func WithStoreRetry(retries int, backoff time.Duration) DirectoryOption {
	return func(dir *Directory) {
		if retries >= 0 {
			dir.cfg.storeRetries = uint64(retries)
		}
		if backoff > 0 {
			dir.cfg.retryBackoff = backoff
		}
	}
}

// WithDirectoryLogger sets the directory logger.
func WithDirectoryLogger(log *slog.Logger) DirectoryOption {
	return func(dir *Directory) {
		if log != nil {
			dir.log = log
		}
	}
}

// WithDirectoryMetrics records lookups.
func WithDirectoryMetrics(m *telemetry.Metrics) DirectoryOption {
	return func(dir *Directory) {
		dir.metrics = m
	}
}

// NewDirectory creates a directory over store. A nil cache disables caching.
func NewDirectory(store Store, cache Cache, opts ...DirectoryOption) *Directory {
	d := &Directory{
		store: store,
		cache: cache,
		cfg: directoryConfig{
			positiveTTL:  DefaultPositiveTTL,
			negativeTTL:  DefaultNegativeTTL,
			suspendedTTL: DefaultSuspendedTTL,
			cacheTimeout: DefaultCacheTimeout,
			storeTimeout: DefaultStoreTimeout,
			storeRetries: DefaultStoreRetries,
			retryBackoff: DefaultRetryBackoff,
		},
		log: logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With(logger.Component("tenant.directory"))
	return d
}

// Resolve returns the active tenant for slug, ErrTenantNotFound,
// ErrTenantSuspended, or ErrStoreUnavailable when the store cannot answer in
// time. Cache failures never fail the lookup; the store is consulted instead.
func (d *Directory) Resolve(ctx context.Context, slug string) (*Tenant, error) {
	if !validLabel(slug) {
		return nil, ErrTenantNotFound
	}

	if entry, ok := d.cached(ctx, slug); ok {
		t, err := entry.result()
		d.metrics.TenantResolved(ctx, outcome(err), "cache")
		return t, err
	}

	// Concurrent misses for the same slug share one store lookup. The lookup
	// runs detached from any single caller's cancellation and is bounded by
	// its own deadline instead.
	ch := d.group.DoChan(slug, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.loadBudget())
		defer cancel()
		return d.load(loadCtx, slug)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Tenant), nil
	}
}

// Invalidate evicts slug so the next lookup reads the store. Admin mutations
// of tenant status must call it.
func (d *Directory) Invalidate(ctx context.Context, slug string) error {
	d.group.Forget(slug)
	if d.cache == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, d.cfg.cacheTimeout)
	defer cancel()
	return d.cache.Invalidate(ctx, slug)
}

func (d *Directory) load(ctx context.Context, slug string) (*Tenant, error) {
	start := time.Now()
	t, err := d.find(ctx, slug)
	d.metrics.StoreLookup(ctx, time.Since(start), err == nil || errors.Is(err, ErrTenantNotFound))

	switch {
	case errors.Is(err, ErrTenantNotFound):
		d.storeNegative(ctx, slug, EntryNotFound, d.cfg.negativeTTL)
		d.metrics.TenantResolved(ctx, outcome(ErrTenantNotFound), "store")
		return nil, ErrTenantNotFound

	case err != nil:
		d.log.ErrorContext(ctx, "tenant store unavailable",
			logger.TenantSlug(slug),
			logger.Error(err),
		)
		d.metrics.TenantResolved(ctx, outcome(ErrStoreUnavailable), "store")
		return nil, errors.Join(ErrStoreUnavailable, err)

	case !t.IsActive():
		d.storeNegative(ctx, slug, EntrySuspended, d.cfg.suspendedTTL)
		d.metrics.TenantResolved(ctx, outcome(ErrTenantSuspended), "store")
		return nil, ErrTenantSuspended
	}

	d.storePositive(ctx, t)
	d.metrics.TenantResolved(ctx, outcome(nil), "store")
	return t, nil
}

// find queries the store, retrying transient failures. ErrTenantNotFound is final.
func (d *Directory) find(ctx context.Context, slug string) (*Tenant, error) {
	var found *Tenant
	backoff := retry.WithMaxRetries(d.cfg.storeRetries, retry.NewExponential(d.cfg.retryBackoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, d.cfg.storeTimeout)
		defer cancel()

		t, err := d.store.FindTenantBySlug(attemptCtx, slug)
		switch {
		case errors.Is(err, ErrTenantNotFound):
			return err
		case err != nil:
			return retry.RetryableError(err)
		case t == nil:
			return ErrTenantNotFound
		}
		found = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// loadBudget is the total time a shared store lookup may take.
func (d *Directory) loadBudget() time.Duration {
	attempts := time.Duration(d.cfg.storeRetries + 1)
	return attempts*d.cfg.storeTimeout + attempts*d.cfg.retryBackoff
}

func (d *Directory) cached(ctx context.Context, slug string) (Entry, bool) {
	if d.cache == nil {
		return Entry{}, false
	}
	ctx, cancel := context.WithTimeout(ctx, d.cfg.cacheTimeout)
	defer cancel()

	entry, ok, err := d.cache.Get(ctx, slug)
	if err != nil {
		d.cacheFailed(ctx, "get", slug, err)
		return Entry{}, false
	}
	return entry, ok
}

func (d *Directory) storePositive(ctx context.Context, t *Tenant) {
	if d.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, d.cfg.cacheTimeout)
	defer cancel()
	if err := d.cache.SetPositive(ctx, t, d.cfg.positiveTTL); err != nil {
		d.cacheFailed(ctx, "set", t.Slug, err)
	}
}

func (d *Directory) storeNegative(ctx context.Context, slug string, kind EntryKind, ttl time.Duration) {
	if d.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, d.cfg.cacheTimeout)
	defer cancel()
	if err := d.cache.SetNegative(ctx, slug, kind, ttl); err != nil {
		d.cacheFailed(ctx, "set", slug, err)
	}
}

func (d *Directory) cacheFailed(ctx context.Context, op, slug string, err error) {
	d.log.WarnContext(ctx, "tenant cache unavailable, using store",
		slog.String("op", op),
		logger.TenantSlug(slug),
		logger.Error(errors.Join(ErrCacheUnavailable, err)),
	)
	d.metrics.CacheError(ctx, op)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "found"
	case errors.Is(err, ErrTenantNotFound):
		return "not_found"
	case errors.Is(err, ErrTenantSuspended):
		return "suspended"
	default:
		return "unavailable"
	}
}
