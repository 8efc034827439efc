package tenant_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantgate/pkg/tenant"
)

// countingStore is an in-memory tenant.Store that counts lookups.
type countingStore struct {
	mu      sync.RWMutex
	tenants map[string]*tenant.Tenant
	calls   atomic.Int64
	err     error
	delay   time.Duration
	block   chan struct{}
}

func newCountingStore(tenants ...*tenant.Tenant) *countingStore {
	s := &countingStore{tenants: make(map[string]*tenant.Tenant)}
	for _, t := range tenants {
		s.tenants[t.Slug] = t
	}
	return s
}

func (s *countingStore) FindTenantBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	s.calls.Add(1)

	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[slug]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *countingStore) setStatus(slug string, status tenant.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[slug].Status = status
}

func newTenant(slug string, status tenant.Status) *tenant.Tenant {
	return &tenant.Tenant{
		ID:        uuid.New(),
		Slug:      slug,
		Name:      slug + " Inc",
		Status:    status,
		Plan:      "pro",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

// brokenCache fails every call.
type brokenCache struct {
	calls atomic.Int64
}

var errCacheDown = errors.New("cache down")

func (c *brokenCache) Get(context.Context, string) (tenant.Entry, bool, error) {
	c.calls.Add(1)
	return tenant.Entry{}, false, errCacheDown
}

func (c *brokenCache) SetPositive(context.Context, *tenant.Tenant, time.Duration) error {
	c.calls.Add(1)
	return errCacheDown
}

func (c *brokenCache) SetNegative(context.Context, string, tenant.EntryKind, time.Duration) error {
	c.calls.Add(1)
	return errCacheDown
}

func (c *brokenCache) Invalidate(context.Context, string) error {
	c.calls.Add(1)
	return errCacheDown
}
