package tenant

import "time"

// Config holds tenant routing and directory settings loaded from the environment.
type Config struct {
	RootDomain       string        `env:"ROOT_DOMAIN,required"`
	ReservedSlugs    []string      `env:"RESERVED_SLUGS" envSeparator:","`
	AdminSlugs       []string      `env:"ADMIN_SLUGS" envSeparator:","`
	PositiveTTL      time.Duration `env:"TENANT_CACHE_POSITIVE_TTL" envDefault:"60s"`
	NegativeTTL      time.Duration `env:"TENANT_CACHE_NEGATIVE_TTL" envDefault:"15s"`
	SuspendedTTL     time.Duration `env:"TENANT_CACHE_SUSPENDED_TTL" envDefault:"30s"`
	CacheTimeout     time.Duration `env:"TENANT_CACHE_TIMEOUT" envDefault:"150ms"`
	StoreTimeout     time.Duration `env:"TENANT_STORE_TIMEOUT" envDefault:"500ms"`
	StoreRetries     int           `env:"TENANT_STORE_RETRIES" envDefault:"1"`
	L1TTL            time.Duration `env:"TENANT_CACHE_L1_TTL" envDefault:"5s"`
	L1Size           int64         `env:"TENANT_CACHE_L1_SIZE" envDefault:"10000"`
	ConcealSuspended bool          `env:"TENANT_CONCEAL_SUSPENDED" envDefault:"false"`
}

// Reserved returns the configured reserved slugs, or DefaultReservedSlugs.
func (c Config) Reserved() []string {
	if len(c.ReservedSlugs) == 0 {
		return DefaultReservedSlugs
	}
	return c.ReservedSlugs
}

// HostResolver builds a resolver from the config.
func (c Config) HostResolver() *HostResolver {
	return NewHostResolver(c.RootDomain,
		WithReservedSlugs(c.Reserved()...),
		WithAdminSlugs(c.AdminSlugs...),
	)
}

// DirectoryOptions returns the directory options matching the config.
func (c Config) DirectoryOptions() []DirectoryOption {
	return []DirectoryOption{
		WithPositiveTTL(c.PositiveTTL),
		WithNegativeTTL(c.NegativeTTL),
		WithSuspendedTTL(c.SuspendedTTL),
		WithCacheTimeout(c.CacheTimeout),
		WithStoreTimeout(c.StoreTimeout),
		WithStoreRetry(c.StoreRetries, 0),
	}
}
