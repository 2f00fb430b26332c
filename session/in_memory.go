package session

import (
	"context"
	"sync"
	"time"

	"github.com/convosuite/mcpcore/core"
)

type entry struct {
	session   *core.Session
	expiresAt time.Time // zero means no expiry
}

// InMemoryStore is a volatile core.SessionStore keeping sessions in a
// process-local map with per-entry TTL. It is safe for concurrent access.
// Sessions are cloned on both read and write so callers never share mutable
// state with the store.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]entry
	now      func() time.Time
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]entry), now: time.Now}
}

// Get returns a clone of the stored session. Expired or unknown ids yield a
// wrapped core.ErrNotFound.
func (s *InMemoryStore) Get(_ context.Context, sessionID string) (*core.Session, error) {
	s.mu.RLock()
	e, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, core.NotFoundf("session %s", sessionID)
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		return nil, core.NotFoundf("session %s expired", sessionID)
	}
	return e.session.Clone(), nil
}

// Set stores a clone of the session. A zero ttl stores it without expiry.
func (s *InMemoryStore) Set(_ context.Context, sess *core.Session, ttl time.Duration) error {
	if sess == nil || sess.ID == "" {
		return core.Validationf("session missing id")
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.sessions[sess.ID] = entry{session: sess.Clone(), expiresAt: expiresAt}
	s.mu.Unlock()
	return nil
}

// Delete removes the session. Deleting an unknown id is not an error.
func (s *InMemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored (possibly expired) sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
