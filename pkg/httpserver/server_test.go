package httpserver_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantgate/pkg/httpserver"
)

const localAddr = "127.0.0.1:0"

func startServer(t *testing.T, ctx context.Context, srv *httpserver.Server, h http.Handler, started <-chan string) (string, <-chan error) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, h) }()
	select {
	case addr := <-started:
		return addr, done
	case err := <-done:
		t.Fatalf("run returned early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not start")
	}
	return "", done
}

func waitDone(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err, "run")
	case <-time.After(2 * time.Second):
		require.Fail(t, "run did not finish")
	}
}

func startedHook() (httpserver.Option, <-chan string) {
	ch := make(chan string, 1)
	return httpserver.WithStartHook(func(_ context.Context, addr string) { ch <- addr }), ch
}

func TestRunAndCancel(t *testing.T) {
	t.Parallel()

	hook, started := startedHook()
	srv := httpserver.New(httpserver.WithAddr(localAddr), httpserver.WithShutdownTimeout(100*time.Millisecond), hook)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, done := startServer(t, ctx, srv, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), started)
	assert.Equal(t, addr, srv.Addr())

	resp, err := http.Get("http://" + addr)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	cancel()
	waitDone(t, done)
	require.NoError(t, srv.Shutdown(context.Background()), "shutdown after run is a no-op")
}

func TestManualShutdown(t *testing.T) {
	t.Parallel()

	hook, started := startedHook()
	srv := httpserver.New(httpserver.WithAddr(localAddr), httpserver.WithShutdownTimeout(100*time.Millisecond), hook)
	_, done := startServer(t, context.Background(), srv, http.NewServeMux(), started)

	require.NoError(t, srv.Shutdown(context.Background()), "first shutdown")
	require.NoError(t, srv.Shutdown(context.Background()), "second shutdown")
	waitDone(t, done)
}

func TestStartError(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", localAddr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	var started atomic.Bool
	srv := httpserver.New(
		httpserver.WithAddr(ln.Addr().String()),
		httpserver.WithStartHook(func(context.Context, string) { started.Store(true) }),
	)
	err = srv.Run(context.Background(), nil)
	require.ErrorIs(t, err, httpserver.ErrStart)
	assert.False(t, started.Load(), "start hook must not run when bind fails")
}

func TestAlreadyRunning(t *testing.T) {
	t.Parallel()

	hook, started := startedHook()
	srv := httpserver.New(httpserver.WithAddr(localAddr), httpserver.WithShutdownTimeout(50*time.Millisecond), hook)
	ctx, cancel := context.WithCancel(context.Background())
	_, done := startServer(t, ctx, srv, http.NewServeMux(), started)

	err := srv.Run(context.Background(), http.NewServeMux())
	require.ErrorIs(t, err, httpserver.ErrStart)
	require.ErrorIs(t, err, httpserver.ErrAlreadyRunning)

	cancel()
	waitDone(t, done)
}

func TestStopHook(t *testing.T) {
	t.Parallel()

	var stoppedAddr atomic.Value
	hook, started := startedHook()
	srv := httpserver.New(
		httpserver.WithAddr(localAddr),
		hook,
		httpserver.WithStopHook(func(_ context.Context, addr string) { stoppedAddr.Store(addr) }),
	)
	ctx, cancel := context.WithCancel(context.Background())
	addr, done := startServer(t, ctx, srv, nil, started)

	cancel()
	waitDone(t, done)
	assert.Equal(t, addr, stoppedAddr.Load())
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	hook, started := startedHook()
	srv := httpserver.NewFromConfig(httpserver.Config{
		Addr:            localAddr,
		ReadTimeout:     time.Second,
		ShutdownTimeout: 50 * time.Millisecond,
	}, hook, httpserver.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	ctx, cancel := context.WithCancel(context.Background())
	addr, done := startServer(t, ctx, srv, nil, started)

	resp, err := http.Get("http://" + addr)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "nil handler serves 404")

	cancel()
	waitDone(t, done)
}

func TestOptionPanics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   func()
	}{
		{"addr", func() { httpserver.WithAddr("") }},
		{"read", func() { httpserver.WithReadTimeout(-time.Second) }},
		{"read header", func() { httpserver.WithReadHeaderTimeout(0) }},
		{"write", func() { httpserver.WithWriteTimeout(-time.Second) }},
		{"idle", func() { httpserver.WithIdleTimeout(-time.Second) }},
		{"shutdown", func() { httpserver.WithShutdownTimeout(-time.Second) }},
		{"start hook", func() { httpserver.WithStartHook(nil) }},
		{"stop hook", func() { httpserver.WithStopHook(nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Panics(t, tt.fn)
		})
	}

	assert.NotPanics(t, func() { httpserver.WithLogger(nil) })
}

func TestLivenessHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	httpserver.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}

func TestReadinessHandler(t *testing.T) {
	t.Parallel()

	ok := httpserver.Check{Name: "postgres", Check: func(context.Context) error { return nil }}
	down := httpserver.Check{Name: "redis", Check: func(context.Context) error { return errors.New("dial tcp: refused") }}
	slow := httpserver.Check{Name: "slow", Check: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}

	t.Run("all healthy", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		httpserver.ReadinessHandler(nil, time.Second, ok)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ready","checks":{"postgres":"ok"}}`, rec.Body.String())
	})

	t.Run("dependency down", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		httpserver.ReadinessHandler(nil, time.Second, ok, down)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.JSONEq(t, `{"status":"not_ready","checks":{"postgres":"ok","redis":"fail"}}`, rec.Body.String())
		assert.NotContains(t, rec.Body.String(), "refused")
	})

	t.Run("optional dependency down keeps the instance ready", func(t *testing.T) {
		t.Parallel()
		cache := down
		cache.Optional = true
		rec := httptest.NewRecorder()
		httpserver.ReadinessHandler(nil, time.Second, ok, cache)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ready","checks":{"postgres":"ok","redis":"degraded"}}`, rec.Body.String())
	})

	t.Run("check timeout", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		httpserver.ReadinessHandler(nil, 20*time.Millisecond, slow)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
