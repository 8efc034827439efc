package ratelimit

import "time"

// Config holds rate limiter settings loaded from the environment.
type Config struct {
	Policies      string        `env:"RATELIMIT_POLICIES" envDefault:"api=300/1m,auth=20/1m!closed"`
	PoliciesFile  string        `env:"RATELIMIT_POLICIES_FILE"`
	DefaultPolicy string        `env:"RATELIMIT_DEFAULT_POLICY" envDefault:"api"`
	Timeout       time.Duration `env:"RATELIMIT_TIMEOUT" envDefault:"50ms"`
}

// LoadPolicies returns the configured policies. A policy file takes precedence
// over the inline list.
func (c Config) LoadPolicies() (Policies, error) {
	if c.PoliciesFile != "" {
		return LoadPolicies(c.PoliciesFile)
	}
	return ParsePolicies(c.Policies)
}
