package tenant_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/dmitrymomot/tenantgate/pkg/ratelimit"
	"github.com/dmitrymomot/tenantgate/pkg/telemetry"
	"github.com/dmitrymomot/tenantgate/pkg/tenant"
)

type seen struct {
	called bool
	rc     tenant.RequestContext
	hasRC  bool
	id     string
	slug   string
}

func recordingHandler(s *seen) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.called = true
		s.rc, s.hasRC = tenant.FromContext(r.Context())
		s.id = r.Header.Get(tenant.HeaderTenantID)
		s.slug = r.Header.Get(tenant.HeaderTenantSlug)
		w.WriteHeader(http.StatusOK)
	})
}

type unavailableLimiter struct{}

func (unavailableLimiter) CheckAndConsume(context.Context, string, ratelimit.Policy) (*ratelimit.Result, error) {
	return nil, ratelimit.ErrLimiterUnavailable
}

func serve(h http.Handler, host, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Host = host
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["error"]
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	acme := newTenant("acme", tenant.StatusActive)
	frozen := newTenant("frozen", tenant.StatusSuspended)
	hosts := tenant.NewHostResolver("example.com")

	newDir := func(t *testing.T) *tenant.Directory {
		return tenant.NewDirectory(newCountingStore(acme, frozen), newMemoryCache(t))
	}

	t.Run("tenant host is forwarded with verified context", func(t *testing.T) {
		t.Parallel()
		var s seen
		h := tenant.Middleware(hosts, newDir(t))(recordingHandler(&s))

		rec := serve(h, "acme.example.com", "/api/projects", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.True(t, s.called)
		require.True(t, s.hasRC)
		assert.Equal(t, tenant.RouteTenant, s.rc.Kind)
		assert.Equal(t, acme.ID, s.rc.TenantID)
		assert.Equal(t, "acme", s.rc.Slug)
		assert.Equal(t, "pro", s.rc.Plan)
		assert.Equal(t, acme.ID.String(), s.id)
		assert.Equal(t, "acme", s.slug)

		assert.Empty(t, rec.Header().Get(tenant.HeaderTenantID))
		assert.Empty(t, rec.Header().Get(tenant.HeaderTenantSlug))
	})

	t.Run("root and admin hosts are forwarded without tenant", func(t *testing.T) {
		t.Parallel()
		for host, kind := range map[string]tenant.RouteKind{
			"example.com":       tenant.RouteRoot,
			"www.example.com":   tenant.RouteRoot,
			"admin.example.com": tenant.RouteAdmin,
		} {
			var s seen
			h := tenant.Middleware(hosts, newDir(t))(recordingHandler(&s))
			rec := serve(h, host, "/", nil)
			assert.Equal(t, http.StatusOK, rec.Code, host)
			assert.Equal(t, kind, s.rc.Kind, host)
			assert.False(t, s.rc.IsTenant(), host)
		}
	})

	t.Run("spoofed tenant headers are stripped", func(t *testing.T) {
		t.Parallel()
		spoof := map[string]string{
			tenant.HeaderTenantID:   uuid.NewString(),
			tenant.HeaderTenantSlug: "victim",
		}

		var s seen
		h := tenant.Middleware(hosts, newDir(t))(recordingHandler(&s))
		serve(h, "admin.example.com", "/", spoof)
		assert.Empty(t, s.id)
		assert.Empty(t, s.slug)

		s = seen{}
		serve(h, "acme.example.com", "/", spoof)
		assert.Equal(t, acme.ID.String(), s.id)
		assert.Equal(t, "acme", s.slug)
	})

	rejections := []struct {
		name   string
		host   string
		opts   []tenant.Option
		status int
	}{
		{"unknown tenant", "ghost.example.com", nil, http.StatusNotFound},
		{"unrecognized host", "evil.org", nil, http.StatusNotFound},
		{"nested subdomain", "a.acme.example.com", nil, http.StatusNotFound},
		{"reserved label", "api.example.com", nil, http.StatusNotFound},
		{"suspended tenant", "frozen.example.com", nil, http.StatusForbidden},
		{"concealed suspended tenant", "frozen.example.com", []tenant.Option{tenant.WithConcealSuspended(true)}, http.StatusNotFound},
	}
	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var s seen
			h := tenant.Middleware(hosts, newDir(t), tt.opts...)(recordingHandler(&s))

			rec := serve(h, tt.host, "/", nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, s.called)
			assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.Equal(t, http.StatusText(tt.status), errorBody(t, rec))
		})
	}

	t.Run("rate limited tenant gets 429 with retry after", func(t *testing.T) {
		t.Parallel()
		store := ratelimit.NewMemoryStore()
		defer store.Close()
		limiter, err := ratelimit.NewLimiter(store)
		require.NoError(t, err)
		policy := ratelimit.Policy{Name: "api", Limit: 2, Window: time.Hour, FailOpen: true}

		var s seen
		h := tenant.Middleware(hosts, newDir(t),
			tenant.WithRateLimiter(limiter, func(*http.Request) ratelimit.Policy { return policy }),
		)(recordingHandler(&s))

		for range 2 {
			rec := serve(h, "acme.example.com", "/", nil)
			require.Equal(t, http.StatusOK, rec.Code)
		}
		rec := serve(h, "acme.example.com", "/", nil)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("store outage is 503 and retryable", func(t *testing.T) {
		t.Parallel()
		store := newCountingStore()
		store.err = errors.New("db down")
		dir := tenant.NewDirectory(store, nil, tenant.WithStoreRetry(0, time.Millisecond))

		var s seen
		h := tenant.Middleware(hosts, dir)(recordingHandler(&s))
		rec := serve(h, "acme.example.com", "/", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("Retry-After"))
		assert.False(t, s.called)
	})

	t.Run("fail closed limiter outage is 503", func(t *testing.T) {
		t.Parallel()
		var s seen
		h := tenant.Middleware(hosts, newDir(t),
			tenant.WithRateLimiter(unavailableLimiter{}, func(*http.Request) ratelimit.Policy {
				return ratelimit.Policy{Name: "auth", Limit: 1, Window: time.Minute}
			}),
		)(recordingHandler(&s))

		rec := serve(h, "acme.example.com", "/", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.False(t, s.called)
	})

	t.Run("skip paths bypass resolution", func(t *testing.T) {
		t.Parallel()
		var s seen
		h := tenant.Middleware(hosts, newDir(t), tenant.WithSkipPaths("/healthz"))(recordingHandler(&s))

		rec := serve(h, "ghost.example.com", "/healthz", map[string]string{tenant.HeaderTenantID: "spoof"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, s.hasRC)
		assert.Empty(t, s.id)

		rec = serve(h, "ghost.example.com", "/healthz/deep", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("skip paths match on segment boundaries", func(t *testing.T) {
		t.Parallel()
		var s seen
		h := tenant.Middleware(hosts, newDir(t), tenant.WithSkipPaths("/healthz"))(recordingHandler(&s))

		rec := serve(h, "ghost.example.com", "/healthzanything", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.False(t, s.called)
	})

	t.Run("rejections are counted by reason", func(t *testing.T) {
		t.Parallel()
		reader := sdkmetric.NewManualReader()
		m, err := telemetry.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
		require.NoError(t, err)

		h := tenant.Middleware(hosts, newDir(t), tenant.WithMetrics(m))(recordingHandler(&seen{}))
		assert.Equal(t, http.StatusNotFound, serve(h, "a.b.example.com", "/", nil).Code)
		assert.Equal(t, http.StatusNotFound, serve(h, "ghost.example.com", "/", nil).Code)
		assert.Equal(t, http.StatusOK, serve(h, "acme.example.com", "/", nil).Code)

		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(context.Background(), &rm))

		counts := map[string]int64{}
		for _, sm := range rm.ScopeMetrics {
			for _, metric := range sm.Metrics {
				if metric.Name != "tenantgate.tenant.rejections" {
					continue
				}
				sum, ok := metric.Data.(metricdata.Sum[int64])
				require.True(t, ok)
				for _, dp := range sum.DataPoints {
					r, _ := dp.Attributes.Value("reason")
					counts[r.AsString()] += dp.Value
				}
			}
		}
		assert.Equal(t, map[string]int64{"unrecognized_host": 1, "not_found": 1}, counts)
	})

	t.Run("custom error handler", func(t *testing.T) {
		t.Parallel()
		var got error
		h := tenant.Middleware(hosts, newDir(t), tenant.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			got = err
			w.WriteHeader(http.StatusTeapot)
		}))(recordingHandler(&seen{}))

		rec := serve(h, "ghost.example.com", "/", nil)
		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.ErrorIs(t, got, tenant.ErrTenantNotFound)
	})
}

func TestRequireTenant(t *testing.T) {
	t.Parallel()

	h := tenant.RequireTenant(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(tenant.WithContext(req.Context(), tenant.RequestContext{Kind: tenant.RouteRoot})))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	ctx := tenant.WithContext(req.Context(), tenant.RequestContext{Kind: tenant.RouteTenant, TenantID: uuid.New(), Slug: "acme"})
	h.ServeHTTP(rec, req.WithContext(ctx))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestStatusCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusTooManyRequests, tenant.StatusCode(&tenant.RateLimitedError{Policy: "api", RetryAfter: time.Second}, false))
	assert.Equal(t, http.StatusServiceUnavailable, tenant.StatusCode(errors.Join(tenant.ErrStoreUnavailable, errors.New("x")), false))
	assert.Equal(t, http.StatusServiceUnavailable, tenant.StatusCode(context.DeadlineExceeded, false))
	assert.Equal(t, http.StatusInternalServerError, tenant.StatusCode(errors.New("boom"), false))
	assert.ErrorIs(t, &tenant.RateLimitedError{}, ratelimit.ErrRateLimited)
}
