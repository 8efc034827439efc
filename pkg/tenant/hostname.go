package tenant

import (
	"net"
	"strings"
)

// RouteKind classifies a request host.
type RouteKind uint8

const (
	RouteUnrecognized RouteKind = iota
	RouteRoot
	RouteAdmin
	RouteTenant
)

func (k RouteKind) String() string {
	switch k {
	case RouteRoot:
		return "root"
	case RouteAdmin:
		return "admin"
	case RouteTenant:
		return "tenant"
	default:
		return "unrecognized"
	}
}

// Route is the result of classifying a host. Slug is set only for RouteTenant.
type Route struct {
	Kind RouteKind
	Slug string
}

// maxSlugLength is the DNS label limit.
const maxSlugLength = 63

// DefaultReservedSlugs can never be used as tenant slugs.
var DefaultReservedSlugs = []string{
	"www", "api", "admin", "app", "mail", "static", "assets",
	"cdn", "status", "support", "docs", "auth", "login",
}

// HostResolver maps request hosts to routes under a single root domain.
// It is immutable after construction and safe for concurrent use.
type HostResolver struct {
	root     string
	reserved map[string]struct{}
	admin    map[string]struct{}
}

// HostOption configures a HostResolver.
type HostOption func(*HostResolver)

// WithReservedSlugs replaces the reserved slug list.
func WithReservedSlugs(slugs ...string) HostOption {
	return func(h *HostResolver) {
		h.reserved = toSet(slugs)
	}
}

// WithAdminSlugs adds labels that route to the admin surface in addition to "admin".
func WithAdminSlugs(slugs ...string) HostOption {
	return func(h *HostResolver) {
		for _, s := range slugs {
			if s = normalizeLabel(s); s != "" {
				h.admin[s] = struct{}{}
			}
		}
	}
}

// NewHostResolver creates a resolver for hosts under rootDomain (e.g. "example.com").
func NewHostResolver(rootDomain string, opts ...HostOption) *HostResolver {
	h := &HostResolver{
		root:     strings.TrimSuffix(strings.ToLower(strings.TrimSpace(rootDomain)), "."),
		reserved: toSet(DefaultReservedSlugs),
		admin:    map[string]struct{}{"admin": {}},
	}
	for _, opt := range opts {
		opt(h)
	}
	// Admin labels must never resolve as tenants, even if the reserved list omits them.
	for s := range h.admin {
		h.reserved[s] = struct{}{}
	}
	return h
}

// RootDomain returns the normalized root domain.
func (h *HostResolver) RootDomain() string {
	return h.root
}

// Classify maps a Host header value to a route. It performs no I/O.
func (h *HostResolver) Classify(host string) Route {
	host = normalizeHost(host)
	if host == "" || h.root == "" {
		return Route{Kind: RouteUnrecognized}
	}

	if host == h.root || host == "www."+h.root {
		return Route{Kind: RouteRoot}
	}

	label, ok := strings.CutSuffix(host, "."+h.root)
	if !ok || label == "" || strings.Contains(label, ".") {
		return Route{Kind: RouteUnrecognized}
	}

	if _, ok := h.admin[label]; ok {
		return Route{Kind: RouteAdmin}
	}
	if _, ok := h.reserved[label]; ok {
		return Route{Kind: RouteUnrecognized}
	}
	if !validLabel(label) {
		return Route{Kind: RouteUnrecognized}
	}

	return Route{Kind: RouteTenant, Slug: label}
}

// ValidateSlug checks a slug against the label syntax and the reserved list.
// The tenant creation flow must use the same list as the HostResolver.
func ValidateSlug(slug string, reserved []string) error {
	if !validLabel(slug) {
		return ErrInvalidSlug
	}
	for _, r := range reserved {
		if strings.EqualFold(r, slug) {
			return ErrReservedSlug
		}
	}
	return nil
}

// ValidSlug reports whether s matches the slug syntax, ignoring reservations.
func ValidSlug(s string) bool {
	return validLabel(s)
}

// validLabel accepts 1-63 lowercase alphanumerics and hyphens, not starting or
// ending with a hyphen.
func validLabel(s string) bool {
	if len(s) == 0 || len(s) > maxSlugLength {
		return false
	}
	if s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return false
		}
	}
	return true
}

func normalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimPrefix(strings.TrimSuffix(host, "]"), "[")
	return strings.TrimSuffix(strings.ToLower(host), ".")
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		if s = normalizeLabel(s); s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}
