package tenant

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/tenantgate/pkg/logger"
	"github.com/dmitrymomot/tenantgate/pkg/ratelimit"
)

// Middleware is the single place a tenant identity enters the request
// pipeline. It classifies the host, resolves tenant hosts through the
// directory, applies the tenant's rate limit and forwards the request with a
// RequestContext. Root and admin hosts are forwarded without a tenant.
//
// Client-supplied X-Tenant-Id and X-Tenant-Slug headers are removed from every
// request; for tenant hosts they are replaced with the verified values.
func Middleware(resolver *HostResolver, dir *Directory, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.errorHandler == nil {
		cfg.errorHandler = DefaultErrorHandler(cfg.concealSuspended)
	}
	log := cfg.logger.With(logger.Component("tenant.middleware"))

	reject := func(w http.ResponseWriter, r *http.Request, route Route, err error) {
		level := slog.LevelInfo
		if StatusCode(err, cfg.concealSuspended) >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.Log(r.Context(), level, "request rejected",
			logger.Host(r.Host),
			slog.String("route", route.Kind.String()),
			logger.TenantSlug(route.Slug),
			logger.Reason(reason(err)),
			logger.Error(err),
		)
		cfg.metrics.Rejected(r.Context(), reason(err))
		cfg.errorHandler(w, r, err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Header.Del(HeaderTenantID)
			r.Header.Del(HeaderTenantSlug)

			if skipped(r.URL.Path, cfg.skipPaths) {
				next.ServeHTTP(w, r)
				return
			}

			route := resolver.Classify(r.Host)
			ctx := r.Context()

			switch route.Kind {
			case RouteRoot, RouteAdmin:
				next.ServeHTTP(w, r.WithContext(WithContext(ctx, RequestContext{Kind: route.Kind})))
				return
			case RouteUnrecognized:
				reject(w, r, route, ErrUnrecognizedHost)
				return
			}

			t, err := dir.Resolve(ctx, route.Slug)
			if err != nil {
				reject(w, r, route, err)
				return
			}

			if cfg.limiter != nil && cfg.policyFunc != nil {
				policy := cfg.policyFunc(r)
				res, err := cfg.limiter.CheckAndConsume(ctx, t.ID.String(), policy)
				if err != nil {
					reject(w, r, route, err)
					return
				}
				ratelimit.SetHeaders(w, res)
				if !res.Allowed {
					reject(w, r, route, &RateLimitedError{Policy: policy.Name, RetryAfter: res.RetryAfter()})
					return
				}
			}

			r.Header.Set(HeaderTenantID, t.ID.String())
			r.Header.Set(HeaderTenantSlug, t.Slug)

			ctx = WithContext(ctx, RequestContext{
				Kind:     RouteTenant,
				TenantID: t.ID,
				Slug:     t.Slug,
				Plan:     t.Plan,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireTenant rejects requests that were not routed to a verified tenant.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = DefaultErrorHandler(false)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := IDFromContext(r.Context()); !ok {
				errorHandler(w, r, ErrNoTenantInContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// skipped matches a skip path exactly or as a parent segment, so "/healthz"
// covers "/healthz/db" but not "/healthzx".
func skipped(path string, skips []string) bool {
	for _, skip := range skips {
		if path == skip || strings.HasPrefix(path, strings.TrimSuffix(skip, "/")+"/") {
			return true
		}
	}
	return false
}

func reason(err error) string {
	var rl *RateLimitedError
	switch {
	case errors.Is(err, ErrUnrecognizedHost):
		return "unrecognized_host"
	case errors.Is(err, ErrTenantNotFound):
		return "not_found"
	case errors.Is(err, ErrTenantSuspended):
		return "suspended"
	case errors.As(err, &rl):
		return "rate_limited"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ratelimit.ErrLimiterUnavailable):
		return "limiter_unavailable"
	default:
		return "error"
	}
}
