package ratelimit_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantgate/pkg/ratelimit"
)

type failingStore struct{}

func (failingStore) IncrementAndGet(context.Context, string, int, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("connection refused")
}

// fixedClock returns a time in the middle of a 10s window.
func fixedClock() time.Time {
	return time.Unix(1_700_000_005, 0)
}

func newLimiter(t *testing.T, store ratelimit.Store) *ratelimit.Limiter {
	t.Helper()
	l, err := ratelimit.NewLimiter(store, ratelimit.WithClock(fixedClock))
	require.NoError(t, err)
	return l
}

func TestLimiter_CheckAndConsume(t *testing.T) {
	t.Parallel()

	policy := ratelimit.Policy{Name: "api", Limit: 5, Window: 10 * time.Second, FailOpen: true}

	t.Run("sixth request in window is denied", func(t *testing.T) {
		t.Parallel()
		store := ratelimit.NewMemoryStore()
		defer store.Close()
		l := newLimiter(t, store)
		ctx := context.Background()

		for i := range 5 {
			res, err := l.CheckAndConsume(ctx, "tenant-a", policy)
			require.NoError(t, err)
			assert.True(t, res.Allowed, "request %d", i+1)
			assert.Equal(t, 4-i, res.Remaining)
		}

		res, err := l.CheckAndConsume(ctx, "tenant-a", policy)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Equal(t, 0, res.Remaining)
		assert.Equal(t, 5*time.Second, res.RetryAfter())
		assert.LessOrEqual(t, res.RetryAfter(), policy.Window)

		other, err := l.CheckAndConsume(ctx, "tenant-b", policy)
		require.NoError(t, err)
		assert.True(t, other.Allowed)
		assert.Equal(t, 4, other.Remaining)
	})

	t.Run("policies count separately", func(t *testing.T) {
		t.Parallel()
		store := ratelimit.NewMemoryStore()
		defer store.Close()
		l := newLimiter(t, store)
		ctx := context.Background()

		strict := ratelimit.Policy{Name: "auth", Limit: 1, Window: time.Minute}
		res, err := l.CheckAndConsume(ctx, "tenant-a", strict)
		require.NoError(t, err)
		assert.True(t, res.Allowed)

		res, err = l.CheckAndConsume(ctx, "tenant-a", strict)
		require.NoError(t, err)
		assert.False(t, res.Allowed)

		res, err = l.CheckAndConsume(ctx, "tenant-a", policy)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("new window resets the count", func(t *testing.T) {
		t.Parallel()
		store := ratelimit.NewMemoryStore()
		defer store.Close()

		now := fixedClock()
		var mu sync.Mutex
		clock := func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return now
		}
		l, err := ratelimit.NewLimiter(store, ratelimit.WithClock(clock))
		require.NoError(t, err)
		ctx := context.Background()

		p := ratelimit.Policy{Name: "api", Limit: 1, Window: 10 * time.Second}
		res, err := l.CheckAndConsume(ctx, "t", p)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		res, err = l.CheckAndConsume(ctx, "t", p)
		require.NoError(t, err)
		assert.False(t, res.Allowed)

		mu.Lock()
		now = now.Add(10 * time.Second)
		mu.Unlock()

		res, err = l.CheckAndConsume(ctx, "t", p)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("fail open on store error", func(t *testing.T) {
		t.Parallel()
		l := newLimiter(t, failingStore{})

		res, err := l.CheckAndConsume(context.Background(), "tenant-a", policy)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.True(t, res.Degraded)
	})

	t.Run("fail closed on store error", func(t *testing.T) {
		t.Parallel()
		l := newLimiter(t, failingStore{})

		closed := policy
		closed.FailOpen = false
		res, err := l.CheckAndConsume(context.Background(), "tenant-a", closed)
		assert.ErrorIs(t, err, ratelimit.ErrLimiterUnavailable)
		assert.Nil(t, res)
	})

	t.Run("invalid input", func(t *testing.T) {
		t.Parallel()
		l := newLimiter(t, ratelimit.NewMemoryStore())

		_, err := l.CheckAndConsume(context.Background(), "", policy)
		assert.ErrorIs(t, err, ratelimit.ErrKeyRequired)

		_, err = l.CheckAndConsume(context.Background(), "t", ratelimit.Policy{Name: "x"})
		assert.ErrorIs(t, err, ratelimit.ErrInvalidPolicy)
	})

	t.Run("concurrent requests never exceed the limit", func(t *testing.T) {
		t.Parallel()
		store := ratelimit.NewMemoryStore()
		defer store.Close()
		l := newLimiter(t, store)

		p := ratelimit.Policy{Name: "api", Limit: 50, Window: time.Minute}
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			allowed int
		)
		for range 200 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := l.CheckAndConsume(context.Background(), "t", p)
				if err == nil && res.Allowed {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 50, allowed)
	})
}

func TestNewLimiterRequiresStore(t *testing.T) {
	t.Parallel()
	_, err := ratelimit.NewLimiter(nil)
	assert.ErrorIs(t, err, ratelimit.ErrStoreRequired)
}

func TestSetHeaders(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore()
	defer store.Close()
	l := newLimiter(t, store)
	p := ratelimit.Policy{Name: "api", Limit: 1, Window: 10 * time.Second}

	_, err := l.CheckAndConsume(context.Background(), "t", p)
	require.NoError(t, err)
	res, err := l.CheckAndConsume(context.Background(), "t", p)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	ratelimit.SetHeaders(rec, res)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))

	assert.Equal(t, 1, ratelimit.RetryAfterSeconds(0))
	assert.Equal(t, 2, ratelimit.RetryAfterSeconds(1100*time.Millisecond))
}
