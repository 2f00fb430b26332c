package core

import (
	"context"
	"time"
)

// SessionStore is the durable get/set/delete-by-id capability with TTL.
// Implementations return clones; mutating a returned session does not affect
// the stored copy until Set commits it. Get returns ErrNotFound (wrapped)
// for unknown or expired ids.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*Session, error)
	Set(ctx context.Context, session *Session, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
}

// RecordStore is the relational persistence capability: simple keyed storage
// for sessions, per-user preference defaults and knowledge entries. Store
// failures surface as ErrExternalService to callers.
type RecordStore interface {
	SaveSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	SaveUserPreferences(ctx context.Context, userID string, prefs map[string]string) error
	GetUserPreferences(ctx context.Context, userID string) (map[string]string, error)
	SaveKnowledge(ctx context.Context, sessionID string, k Knowledge) error
	ListKnowledge(ctx context.Context, sessionID string) ([]Knowledge, error)
	Close() error
}

// Embedder converts text into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// SimilaritySearcher retrieves the knowledge entries most similar to a query
// vector, bounded by limit.
type SimilaritySearcher interface {
	FindSimilar(ctx context.Context, vector []float64, limit int) ([]Knowledge, error)
}

// KnowledgeIndexer accepts new knowledge entries with their vectors so they
// become retrievable through the searcher.
type KnowledgeIndexer interface {
	Index(ctx context.Context, k Knowledge, vector []float64) error
}

// Observer receives lifecycle notifications from the context manager. It is
// strictly for progress and telemetry; no business logic may depend on it
// and implementations must not block.
type Observer interface {
	SessionCreated(session *Session)
	ContextUpdated(sessionID string, message Message)
}

// NoOpObserver ignores all notifications.
type NoOpObserver struct{}

// SessionCreated implements Observer.
func (NoOpObserver) SessionCreated(*Session) {}

// ContextUpdated implements Observer.
func (NoOpObserver) ContextUpdated(string, Message) {}
