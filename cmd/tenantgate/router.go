package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/tenantgate/pkg/httpserver"
	"github.com/dmitrymomot/tenantgate/pkg/membership"
	"github.com/dmitrymomot/tenantgate/pkg/projects"
	"github.com/dmitrymomot/tenantgate/pkg/ratelimit"
	"github.com/dmitrymomot/tenantgate/pkg/requestid"
	"github.com/dmitrymomot/tenantgate/pkg/session"
	"github.com/dmitrymomot/tenantgate/pkg/telemetry"
	"github.com/dmitrymomot/tenantgate/pkg/tenant"
	"github.com/dmitrymomot/tenantgate/pkg/tenantdb"
)

// gateway holds the constructed pipeline components the router is built from.
type gateway struct {
	resolver         *tenant.HostResolver
	directory        *tenant.Directory
	limiter          tenant.RateLimiter
	policies         ratelimit.Policies
	defaultPolicy    ratelimit.Policy
	concealSuspended bool
	authorizer       *membership.Authorizer
	extractor        session.Extractor
	gate             *tenantdb.Gate
	checks           []httpserver.Check
	readinessTimeout time.Duration
	log              *slog.Logger
	metrics          *telemetry.Metrics
}

// routes builds the request pipeline:
// request id → recoverer → tenant resolution and rate limit → membership → scoped data access.
func (g *gateway) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		chimw.RealIP,
		requestid.Middleware(),
		chimw.Recoverer,
		telemetry.HTTPMiddleware("tenantgate"),
	)

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(g.log, g.readinessTimeout, g.checks...))

	tenantErrors := tenant.DefaultErrorHandler(g.concealSuspended)
	opts := []tenant.Option{
		tenant.WithSkipPaths("/healthz", "/readyz"),
		tenant.WithConcealSuspended(g.concealSuspended),
		tenant.WithErrorHandler(tenantErrors),
		tenant.WithLogger(g.log),
		tenant.WithMetrics(g.metrics),
	}
	if g.limiter != nil {
		opts = append(opts, tenant.WithRateLimiter(g.limiter, policySelector(g.policies, g.defaultPolicy)))
	}

	r.Group(func(r chi.Router) {
		r.Use(tenant.Middleware(g.resolver, g.directory, opts...))

		r.Get("/", index)

		r.Route("/api", func(r chi.Router) {
			r.Use(tenant.RequireTenant(tenantErrors))

			authz := func(role membership.Role) func(http.Handler) http.Handler {
				return membership.Require(g.authorizer, g.extractor, role,
					membership.WithMiddlewareLogger(g.log))
			}
			h := projects.NewHandler(g.gate, g.log)

			r.Route("/projects", func(r chi.Router) {
				r.With(authz(membership.RoleMember)).Get("/", h.List)
				r.With(authz(membership.RoleMember)).Get("/{id}", h.Get)
				r.With(authz(membership.RoleAdmin)).Post("/", h.Create)
				r.With(authz(membership.RoleAdmin)).Delete("/{id}", h.Delete)
			})
		})
	})

	return r
}

// policySelector picks the policy named after the first path segment
// ("/auth/login" → "auth") and falls back to the default policy.
func policySelector(ps ratelimit.Policies, fallback ratelimit.Policy) tenant.PolicyFunc {
	return func(r *http.Request) ratelimit.Policy {
		segment, _, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
		if p, err := ps.Get(segment); err == nil {
			return p
		}
		return fallback
	}
}

// index describes where the request was routed. Tenant hosts see only their
// own slug and plan; ids stay internal.
func index(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"route": tenant.RouteUnrecognized.String()}
	if rc, ok := tenant.FromContext(r.Context()); ok {
		body["route"] = rc.Kind.String()
		if rc.IsTenant() {
			body["tenant"] = rc.Slug
			body["plan"] = rc.Plan
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}
