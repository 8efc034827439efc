// Package tenant routes requests to isolated tenants by hostname.
//
// A request passes through three steps before any application handler runs:
//
//  1. HostResolver classifies the Host header as root, admin, a tenant
//     subdomain or unrecognized. Reserved labels such as "www" or "api" can
//     never become tenant slugs; ValidateSlug applies the same rule when a
//     tenant is created.
//  2. Directory resolves a slug to an active Tenant. It reads through a Cache
//     and caches negative answers (unknown and suspended slugs) with their own
//     shorter TTLs, so repeated lookups of missing slugs never reach the
//     store. Concurrent misses for the same slug share one store query. When
//     the cache tier fails the directory falls back to the store; when the
//     store fails it returns ErrStoreUnavailable instead of hanging.
//  3. Middleware applies the tenant's rate limit and forwards the request
//     with a RequestContext. It is the only place tenant identity enters
//     the pipeline; handlers read IDFromContext and never the hostname.
//
// # Caches
//
// MemoryCache serves a single process. RedisCache is the shared tier and
// broadcasts invalidations over pub/sub. TieredCache puts a short-lived
// ristretto cache in front of any other Cache.
//
// # Usage
//
//	hosts := tenant.NewHostResolver("example.com")
//	dir := tenant.NewDirectory(store, tenant.NewRedisCache(rdb))
//
//	r := chi.NewRouter()
//	r.Use(tenant.Middleware(hosts, dir,
//		tenant.WithRateLimiter(limiter, policyFor),
//		tenant.WithLogger(log),
//	))
//
//	r.Get("/api/projects", func(w http.ResponseWriter, r *http.Request) {
//		id, _ := tenant.IDFromContext(r.Context())
//		// ...
//	})
//
// # Errors
//
// Rejections carry typed errors: ErrUnrecognizedHost and ErrTenantNotFound
// (404), ErrTenantSuspended (403, or 404 with WithConcealSuspended),
// *RateLimitedError (429 with Retry-After) and ErrStoreUnavailable (503).
package tenant
