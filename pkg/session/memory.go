package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryValidator maps opaque tokens to users. Intended for tests and local development.
type MemoryValidator struct {
	mu       sync.RWMutex
	sessions map[string]Identity
	now      func() time.Time
}

// NewMemoryValidator creates an empty validator.
func NewMemoryValidator() *MemoryValidator {
	return &MemoryValidator{
		sessions: make(map[string]Identity),
		now:      time.Now,
	}
}

// Add registers token for userID. A zero ttl never expires.
func (v *MemoryValidator) Add(token string, userID uuid.UUID, ttl time.Duration) {
	id := Identity{UserID: userID, SessionID: token}
	if ttl > 0 {
		id.ExpiresAt = v.now().Add(ttl)
	}
	v.mu.Lock()
	v.sessions[token] = id
	v.mu.Unlock()
}

// Revoke removes token.
func (v *MemoryValidator) Revoke(token string) {
	v.mu.Lock()
	delete(v.sessions, token)
	v.mu.Unlock()
}

// Validate looks token up.
func (v *MemoryValidator) Validate(_ context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	v.mu.RLock()
	id, ok := v.sessions[token]
	v.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidSession
	}
	if !id.ExpiresAt.IsZero() && !v.now().Before(id.ExpiresAt) {
		return nil, ErrSessionExpired
	}
	return &id, nil
}
