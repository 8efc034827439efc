package tenant

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// DefaultL1TTL caps how long an entry lives in the process-local tier.
const DefaultL1TTL = 5 * time.Second

// TieredCache puts a process-local ristretto cache (L1) in front of a shared
// cache (L2). L1 entries live at most l1TTL, so an entry can be stale for
// at most the L2 TTL plus l1TTL when an invalidation broadcast is missed.
type TieredCache struct {
	l1    *ristretto.Cache[string, Entry]
	l2    Cache
	l1TTL time.Duration
}

// TieredCacheOption configures a TieredCache.
type TieredCacheOption func(*tieredConfig)

type tieredConfig struct {
	l1TTL       time.Duration
	numCounters int64
	maxCost     int64
}

// WithL1TTL sets the L1 entry lifetime.
func WithL1TTL(d time.Duration) TieredCacheOption {
	return func(c *tieredConfig) {
		if d > 0 {
			c.l1TTL = d
		}
	}
}

// WithL1Size sets the maximum number of L1 entries.
func WithL1Size(n int64) TieredCacheOption {
	return func(c *tieredConfig) {
		if n > 0 {
			c.maxCost = n
			c.numCounters = n * 10
		}
	}
}

// NewTieredCache creates an L1 cache in front of l2.
func NewTieredCache(l2 Cache, opts ...TieredCacheOption) (*TieredCache, error) {
	cfg := tieredConfig{
		l1TTL:       DefaultL1TTL,
		numCounters: DefaultCacheSize * 10,
		maxCost:     DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	l1, err := ristretto.NewCache(&ristretto.Config[string, Entry]{
		NumCounters: cfg.numCounters,
		MaxCost:     cfg.maxCost,
		BufferItems: 64,

		// Each entry costs 1 so MaxCost is an entry count.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("tenant: create l1 cache: %w", err)
	}

	return &TieredCache{l1: l1, l2: l2, l1TTL: cfg.l1TTL}, nil
}

// Get checks L1 first, then L2, backfilling L1 on an L2 hit.
func (c *TieredCache) Get(ctx context.Context, slug string) (Entry, bool, error) {
	if e, ok := c.l1.Get(slug); ok {
		return e, true, nil
	}

	e, ok, err := c.l2.Get(ctx, slug)
	if err != nil || !ok {
		return Entry{}, false, err
	}

	c.l1.SetWithTTL(slug, e, 1, c.l1TTL)
	return e, true, nil
}

// SetPositive writes both tiers.
func (c *TieredCache) SetPositive(ctx context.Context, t *Tenant, ttl time.Duration) error {
	c.l1.SetWithTTL(t.Slug, Entry{Kind: EntryFound, Tenant: t}, 1, min(ttl, c.l1TTL))
	return c.l2.SetPositive(ctx, t, ttl)
}

// SetNegative writes both tiers.
func (c *TieredCache) SetNegative(ctx context.Context, slug string, kind EntryKind, ttl time.Duration) error {
	c.l1.SetWithTTL(slug, Entry{Kind: kind}, 1, min(ttl, c.l1TTL))
	return c.l2.SetNegative(ctx, slug, kind, ttl)
}

// Invalidate drops slug from both tiers.
func (c *TieredCache) Invalidate(ctx context.Context, slug string) error {
	c.l1.Del(slug)
	return c.l2.Invalidate(ctx, slug)
}

// Evict drops slug from L1 only. It is the handler for invalidations
// broadcast by other processes.
func (c *TieredCache) Evict(slug string) {
	c.l1.Del(slug)
}

// Wait blocks until buffered L1 writes are applied.
func (c *TieredCache) Wait() {
	c.l1.Wait()
}

// Close releases the L1 cache.
func (c *TieredCache) Close() {
	c.l1.Close()
}
