package tenant

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// EntryKind distinguishes positive and negative cache entries.
type EntryKind uint8

const (
	EntryFound EntryKind = iota + 1
	EntryNotFound
	EntrySuspended
)

func (k EntryKind) String() string {
	switch k {
	case EntryFound:
		return "found"
	case EntryNotFound:
		return "not_found"
	case EntrySuspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// Entry is a cached directory answer. Tenant is set only for EntryFound.
type Entry struct {
	Kind   EntryKind
	Tenant *Tenant
}

// result converts an entry into the value Directory.Resolve returns.
func (e Entry) result() (*Tenant, error) {
	switch e.Kind {
	case EntryFound:
		if e.Tenant != nil {
			return e.Tenant, nil
		}
	case EntrySuspended:
		return nil, ErrTenantSuspended
	}
	return nil, ErrTenantNotFound
}

// Cache is the interface for tenant directory cache tiers.
// Implementations must be safe for concurrent use and atomic per key.
type Cache interface {
	// Get returns the entry for slug. ok is false on a miss.
	Get(ctx context.Context, slug string) (entry Entry, ok bool, err error)

	// SetPositive caches an active tenant under its slug.
	SetPositive(ctx context.Context, t *Tenant, ttl time.Duration) error

	// SetNegative caches a not-found or suspended answer for slug.
	SetNegative(ctx context.Context, slug string, kind EntryKind, ttl time.Duration) error

	// Invalidate removes slug from the cache.
	Invalidate(ctx context.Context, slug string) error
}

// MemoryCache is an in-process LRU cache with per-entry expiry.
type MemoryCache struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	lru     *list.List
	maxSize int
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

type memoryItem struct {
	slug      string
	entry     Entry
	expiresAt time.Time
}

// DefaultCacheSize is the default maximum number of items in the cache.
const DefaultCacheSize = 10_000

// NewMemoryCache creates a new in-memory cache with automatic cleanup.
// Non-positive maxSize falls back to DefaultCacheSize.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}

	c := &MemoryCache{
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		maxSize: maxSize,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	go c.cleanup()

	return c
}

// Get retrieves an entry from cache.
func (c *MemoryCache) Get(ctx context.Context, slug string) (Entry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[slug]
	if !ok {
		return Entry{}, false, nil
	}

	item := el.Value.(*memoryItem)
	if !time.Now().Before(item.expiresAt) {
		c.remove(el)
		return Entry{}, false, nil
	}

	c.lru.MoveToFront(el)
	return item.entry, true, nil
}

// SetPositive stores an active tenant.
func (c *MemoryCache) SetPositive(ctx context.Context, t *Tenant, ttl time.Duration) error {
	c.set(t.Slug, Entry{Kind: EntryFound, Tenant: t}, ttl)
	return nil
}

// SetNegative stores a negative answer.
func (c *MemoryCache) SetNegative(ctx context.Context, slug string, kind EntryKind, ttl time.Duration) error {
	c.set(slug, Entry{Kind: kind}, ttl)
	return nil
}

// Invalidate removes slug from cache.
func (c *MemoryCache) Invalidate(ctx context.Context, slug string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[slug]; ok {
		c.remove(el)
	}
	return nil
}

// Len returns the number of cached entries, including expired ones not yet swept.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Close stops the cleanup goroutine.
func (c *MemoryCache) Close() error {
	c.once.Do(func() {
		close(c.stop)
		<-c.done
	})
	return nil
}

func (c *MemoryCache) set(slug string, entry Entry, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Add(ttl)
	if el, ok := c.items[slug]; ok {
		item := el.Value.(*memoryItem)
		item.entry = entry
		item.expiresAt = expiresAt
		c.lru.MoveToFront(el)
		return
	}

	if c.lru.Len() >= c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.remove(oldest)
		}
	}

	c.items[slug] = c.lru.PushFront(&memoryItem{slug: slug, entry: entry, expiresAt: expiresAt})
}

// remove must be called with c.mu held.
func (c *MemoryCache) remove(el *list.Element) {
	c.lru.Remove(el)
	delete(c.items, el.Value.(*memoryItem).slug)
}

func (c *MemoryCache) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *MemoryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for el := c.lru.Back(); el != nil; {
		prev := el.Prev()
		if !now.Before(el.Value.(*memoryItem).expiresAt) {
			c.remove(el)
		}
		el = prev
	}
}
