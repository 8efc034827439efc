package ratelimit

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Policy is a named fixed-window limit applied per tenant.
type Policy struct {
	Name   string        `yaml:"name"`
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`

	// FailOpen allows requests when the counter store is unreachable.
	// When false the limiter returns ErrLimiterUnavailable instead.
	FailOpen bool `yaml:"fail_open"`
}

// Validate checks that the policy can be enforced.
func (p Policy) Validate() error {
	switch {
	case p.Name == "" || strings.ContainsAny(p.Name, ": "):
		return fmt.Errorf("%w: bad name %q", ErrInvalidPolicy, p.Name)
	case p.Limit <= 0:
		return fmt.Errorf("%w: %s: limit must be positive", ErrInvalidPolicy, p.Name)
	case p.Window < time.Second:
		return fmt.Errorf("%w: %s: window must be at least 1s", ErrInvalidPolicy, p.Name)
	}
	return nil
}

func (p Policy) String() string {
	s := fmt.Sprintf("%s=%d/%s", p.Name, p.Limit, p.Window)
	if !p.FailOpen {
		s += "!closed"
	}
	return s
}

// Policies is a set of policies keyed by name.
type Policies map[string]Policy

// Get returns the named policy.
func (ps Policies) Get(name string) (Policy, error) {
	p, ok := ps[name]
	if !ok {
		return Policy{}, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
	return p, nil
}

// Names returns the policy names in sorted order.
func (ps Policies) Names() []string {
	names := make([]string, 0, len(ps))
	for name := range ps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParsePolicies parses a comma separated policy list such as
// "api=100/10s,auth=10/1m!closed". Policies fail open unless suffixed with
// "!closed"; "!open" is accepted for symmetry.
func ParsePolicies(s string) (Policies, error) {
	ps := make(Policies)
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		p, err := parsePolicy(item)
		if err != nil {
			return nil, err
		}
		if _, dup := ps[p.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate policy %q", ErrInvalidPolicy, p.Name)
		}
		ps[p.Name] = p
	}
	if len(ps) == 0 {
		return nil, fmt.Errorf("%w: no policies defined", ErrInvalidPolicy)
	}
	return ps, nil
}

func parsePolicy(item string) (Policy, error) {
	p := Policy{FailOpen: true}

	if rule, mode, ok := strings.Cut(item, "!"); ok {
		switch strings.ToLower(mode) {
		case "closed":
			p.FailOpen = false
		case "open":
		default:
			return Policy{}, fmt.Errorf("%w: %q: unknown failure mode %q", ErrInvalidPolicy, item, mode)
		}
		item = rule
	}

	name, rate, ok := strings.Cut(item, "=")
	if !ok {
		return Policy{}, fmt.Errorf("%w: %q: expected name=limit/window", ErrInvalidPolicy, item)
	}
	limit, window, ok := strings.Cut(rate, "/")
	if !ok {
		return Policy{}, fmt.Errorf("%w: %q: expected limit/window", ErrInvalidPolicy, item)
	}

	n, err := strconv.Atoi(strings.TrimSpace(limit))
	if err != nil {
		return Policy{}, fmt.Errorf("%w: %q: %w", ErrInvalidPolicy, item, err)
	}
	d, err := time.ParseDuration(strings.TrimSpace(window))
	if err != nil {
		return Policy{}, fmt.Errorf("%w: %q: %w", ErrInvalidPolicy, item, err)
	}

	p.Name = strings.TrimSpace(name)
	p.Limit = n
	p.Window = d
	return p, p.Validate()
}

type policyFile struct {
	Policies []Policy `yaml:"policies"`
}

// LoadPolicies reads policies from a YAML file:
//
//	policies:
//	  - name: api
//	    limit: 100
//	    window: 10s
//	    fail_open: true
func LoadPolicies(path string) (Policies, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: read policy file: %w", err)
	}
	return DecodePolicies(data)
}

// DecodePolicies parses YAML policy file contents.
func DecodePolicies(data []byte) (Policies, error) {
	var f policyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Join(ErrInvalidPolicy, err)
	}
	ps := make(Policies, len(f.Policies))
	for _, p := range f.Policies {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := ps[p.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate policy %q", ErrInvalidPolicy, p.Name)
		}
		ps[p.Name] = p
	}
	if len(ps) == 0 {
		return nil, fmt.Errorf("%w: no policies defined", ErrInvalidPolicy)
	}
	return ps, nil
}
