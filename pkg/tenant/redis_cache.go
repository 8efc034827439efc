package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultRedisKeyPrefix namespaces cache keys: tenant:slug:<slug>.
	DefaultRedisKeyPrefix = "tenant:slug:"

	// DefaultInvalidationChannel carries slugs evicted by admin mutations.
	DefaultInvalidationChannel = "tenant:invalidate"
)

// RedisCache is the shared networked cache tier.
type RedisCache struct {
	client  redis.UniversalClient
	prefix  string
	channel string
}

// RedisCacheOption configures a RedisCache.
type RedisCacheOption func(*RedisCache)

// WithRedisKeyPrefix overrides the key prefix.
func WithRedisKeyPrefix(prefix string) RedisCacheOption {
	return func(c *RedisCache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithInvalidationChannel overrides the pub/sub channel used for invalidations.
func WithInvalidationChannel(channel string) RedisCacheOption {
	return func(c *RedisCache) {
		if channel != "" {
			c.channel = channel
		}
	}
}

// NewRedisCache creates a cache tier on client.
func NewRedisCache(client redis.UniversalClient, opts ...RedisCacheOption) *RedisCache {
	c := &RedisCache{
		client:  client,
		prefix:  DefaultRedisKeyPrefix,
		channel: DefaultInvalidationChannel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type redisEntry struct {
	Kind   string  `json:"kind"`
	Tenant *Tenant `json:"tenant,omitempty"`
}

// Get retrieves an entry. Undecodable values are treated as misses.
func (c *RedisCache) Get(ctx context.Context, slug string) (Entry, bool, error) {
	data, err := c.client.Get(ctx, c.key(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, errors.Join(ErrCacheUnavailable, err)
	}

	var v redisEntry
	if err := json.Unmarshal(data, &v); err != nil {
		return Entry{}, false, nil
	}

	switch v.Kind {
	case EntryFound.String():
		if v.Tenant == nil {
			return Entry{}, false, nil
		}
		return Entry{Kind: EntryFound, Tenant: v.Tenant}, true, nil
	case EntryNotFound.String():
		return Entry{Kind: EntryNotFound}, true, nil
	case EntrySuspended.String():
		return Entry{Kind: EntrySuspended}, true, nil
	}
	return Entry{}, false, nil
}

// SetPositive stores an active tenant.
func (c *RedisCache) SetPositive(ctx context.Context, t *Tenant, ttl time.Duration) error {
	return c.set(ctx, t.Slug, redisEntry{Kind: EntryFound.String(), Tenant: t}, ttl)
}

// SetNegative stores a negative answer.
func (c *RedisCache) SetNegative(ctx context.Context, slug string, kind EntryKind, ttl time.Duration) error {
	return c.set(ctx, slug, redisEntry{Kind: kind.String()}, ttl)
}

// Invalidate deletes the key and broadcasts the slug so peers drop local copies.
func (c *RedisCache) Invalidate(ctx context.Context, slug string) error {
	if err := c.client.Del(ctx, c.key(slug)).Err(); err != nil {
		return errors.Join(ErrCacheUnavailable, err)
	}
	if err := c.client.Publish(ctx, c.channel, slug).Err(); err != nil {
		return errors.Join(ErrCacheUnavailable, err)
	}
	return nil
}

// SubscribeInvalidations calls fn for every slug published on the invalidation
// channel until ctx is done.
func (c *RedisCache) SubscribeInvalidations(ctx context.Context, fn func(slug string)) error {
	sub := c.client.Subscribe(ctx, c.channel)
	defer sub.Close()

	// Receive blocks until the server confirms the subscription.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("tenant: subscribe invalidations: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			fn(msg.Payload)
		}
	}
}

func (c *RedisCache) set(ctx context.Context, slug string, v redisEntry, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("tenant: encode cache entry: %w", err)
	}
	if err := c.client.Set(ctx, c.key(slug), data, ttl).Err(); err != nil {
		return errors.Join(ErrCacheUnavailable, err)
	}
	return nil
}

func (c *RedisCache) key(slug string) string {
	return c.prefix + slug
}
