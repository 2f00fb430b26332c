// Package redis implements core.SessionStore on top of a Redis server using
// go-redis. Sessions are stored as JSON values under a namespaced key with a
// per-entry TTL, making the store suitable for multi-instance deployments
// where sessions must survive process restarts.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/convosuite/mcpcore/core"
)

// Options configures the store.
type Options struct {
	// Prefix namespaces all keys, default "mcp:session".
	Prefix string
	// DefaultTTL applies when Set is called with a zero ttl. Zero means no
	// expiry.
	DefaultTTL time.Duration
}

// Store is a durable core.SessionStore backed by Redis.
type Store struct {
	client redis.UniversalClient
	opts   Options
}

// New creates a session store over an existing Redis client (Client,
// ClusterClient or Ring).
func New(client redis.UniversalClient, optFns ...func(o *Options)) *Store {
	opts := Options{Prefix: "mcp:session"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{client: client, opts: opts}
}

func (s *Store) key(sessionID string) string {
	return fmt.Sprintf("%s:%s", s.opts.Prefix, sessionID)
}

// Get implements core.SessionStore. Unknown or expired keys yield a wrapped
// core.ErrNotFound; transport failures surface as core.ErrExternalService.
func (s *Store) Get(ctx context.Context, sessionID string) (*core.Session, error) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, core.NotFoundf("session %s", sessionID)
	}
	if err != nil {
		return nil, core.ExternalServicef(err, "redis get session %s", sessionID)
	}
	var sess core.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, core.ExternalServicef(err, "decode session %s", sessionID)
	}
	return &sess, nil
}

// Set implements core.SessionStore.
func (s *Store) Set(ctx context.Context, sess *core.Session, ttl time.Duration) error {
	if sess == nil || sess.ID == "" {
		return core.Validationf("session missing id")
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return core.ExternalServicef(err, "encode session %s", sess.ID)
	}
	if ttl <= 0 {
		ttl = s.opts.DefaultTTL
	}
	if err := s.client.Set(ctx, s.key(sess.ID), raw, ttl).Err(); err != nil {
		return core.ExternalServicef(err, "redis set session %s", sess.ID)
	}
	return nil
}

// Delete implements core.SessionStore. Deleting an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return core.ExternalServicef(err, "redis delete session %s", sessionID)
	}
	return nil
}
