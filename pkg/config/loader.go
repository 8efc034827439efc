package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var dotenvOnce sync.Once

// Load parses environment variables into a new value of T using `env` and
// `envDefault` struct tags. The .env file in the working directory (if any) is
// loaded once per process before the first parse; real environment variables
// always win over .env values.
//
// The returned value is meant to be built once at startup and passed to
// constructors explicitly.
//
// Example:
//
//	type TenantConfig struct {
//		RootDomain  string        `env:"ROOT_DOMAIN,required"`
//		PositiveTTL time.Duration `env:"TENANT_CACHE_POSITIVE_TTL" envDefault:"60s"`
//	}
//
//	cfg, err := config.Load[TenantConfig]()
func Load[T any](files ...string) (T, error) {
	dotenvOnce.Do(func() {
		// The .env file is optional.
		_ = godotenv.Load(files...)
	})

	var v T
	if err := env.Parse(&v); err != nil {
		return v, errors.Join(ErrParsingConfig, err)
	}
	return v, nil
}

// LoadInto parses environment variables into an existing value, keeping fields
// that have no matching variable and no default.
func LoadInto[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any](files ...string) T {
	v, err := Load[T](files...)
	if err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
	return v
}
