package main

import (
	"github.com/dmitrymomot/tenantgate/pkg/config"
	"github.com/dmitrymomot/tenantgate/pkg/httpserver"
	"github.com/dmitrymomot/tenantgate/pkg/pg"
	"github.com/dmitrymomot/tenantgate/pkg/ratelimit"
	"github.com/dmitrymomot/tenantgate/pkg/redis"
	"github.com/dmitrymomot/tenantgate/pkg/session"
	"github.com/dmitrymomot/tenantgate/pkg/telemetry"
	"github.com/dmitrymomot/tenantgate/pkg/tenant"
)

// dotenvFiles is set from --env-file; empty means ".env" if present.
var dotenvFiles []string

type logConfig struct {
	Env    string `env:"APP_ENV" envDefault:"development"`
	Level  string `env:"LOG_LEVEL"`
	Format string `env:"LOG_FORMAT"`
}

// serveConfig is the complete gateway configuration. It is loaded once and
// handed to constructors by value.
type serveConfig struct {
	Log       logConfig
	Tenant    tenant.Config
	RateLimit ratelimit.Config
	Session   session.Config
	PG        pg.Config
	Redis     redis.Config
	HTTP      httpserver.Config
	Telemetry telemetry.Config
}

// adminConfig is what the admin commands need. It does not require ROOT_DOMAIN.
type adminConfig struct {
	Log           logConfig
	PG            pg.Config
	Redis         redis.Config
	ReservedSlugs []string `env:"RESERVED_SLUGS" envSeparator:","`
	AdminSlugs    []string `env:"ADMIN_SLUGS" envSeparator:","`
}

// reserved mirrors tenant.Config.Reserved plus the admin slugs so that the
// CLI rejects exactly the slugs the router would never route to a tenant.
func (c adminConfig) reserved() []string {
	base := tenant.Config{ReservedSlugs: c.ReservedSlugs}.Reserved()
	out := make([]string, 0, len(base)+len(c.AdminSlugs)+1)
	out = append(out, base...)
	out = append(out, "admin")
	return append(out, c.AdminSlugs...)
}

func loadConfig[T any]() (T, error) {
	return config.Load[T](dotenvFiles...)
}
