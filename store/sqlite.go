// Package store provides the relational persistence capability
// (core.RecordStore) using SQLite via the pure-Go modernc.org/sqlite driver.
// It keeps simple keyed records for sessions, per-user preference defaults
// and knowledge entries; the schema is created automatically on open.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/convosuite/mcpcore/core"
	"github.com/convosuite/mcpcore/logging"
)

// SQLiteStore implements core.RecordStore using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger logging.Logger
}

// Options configures a SQLiteStore.
type Options struct {
	Logger logging.Logger
}

// NewSQLiteStore opens (and if needed creates) a SQLite database at the given
// path. Parent directories are created if needed; ":memory:" is accepted for
// tests.
func NewSQLiteStore(path string, optFns ...func(o *Options)) (*SQLiteStore, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL improves concurrent read behavior
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, logger: opts.Logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	opts.Logger.Info("sqlite record store initialized", "path", path)
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			type TEXT NOT NULL,
			active INTEGER NOT NULL,
			data TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);

		CREATE TABLE IF NOT EXISTS user_preferences (
			user_id TEXT PRIMARY KEY,
			prefs TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS knowledge (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			tags TEXT,
			confidence REAL NOT NULL,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_knowledge_session_id ON knowledge(session_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveSession upserts the session row. The full session is serialized into
// the data column; the indexed columns exist for lookups and retention jobs.
func (s *SQLiteStore) SaveSession(ctx context.Context, sess *core.Session) error {
	if sess == nil || sess.ID == "" {
		return core.Validationf("session missing id")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return core.ExternalServicef(err, "encode session %s", sess.ID)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, type, active, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			active = excluded.active,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		sess.ID, sess.UserID, string(sess.Type), boolToInt(sess.Active),
		string(data), sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return core.ExternalServicef(err, "save session %s", sess.ID)
	}
	return nil
}

// GetSession loads a session row by id.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*core.Session, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM sessions WHERE id = ?", sessionID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFoundf("session %s", sessionID)
	}
	if err != nil {
		return nil, core.ExternalServicef(err, "get session %s", sessionID)
	}
	var sess core.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, core.ExternalServicef(err, "decode session %s", sessionID)
	}
	return &sess, nil
}

// SaveUserPreferences upserts the preference defaults for a user.
func (s *SQLiteStore) SaveUserPreferences(ctx context.Context, userID string, prefs map[string]string) error {
	if userID == "" {
		return core.Validationf("missing user id")
	}
	data, err := json.Marshal(prefs)
	if err != nil {
		return core.ExternalServicef(err, "encode preferences for %s", userID)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, prefs, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			prefs = excluded.prefs,
			updated_at = excluded.updated_at`,
		userID, string(data), time.Now().UTC())
	if err != nil {
		return core.ExternalServicef(err, "save preferences for %s", userID)
	}
	return nil
}

// GetUserPreferences loads the preference defaults for a user.
func (s *SQLiteStore) GetUserPreferences(ctx context.Context, userID string) (map[string]string, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT prefs FROM user_preferences WHERE user_id = ?", userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFoundf("preferences for user %s", userID)
	}
	if err != nil {
		return nil, core.ExternalServicef(err, "get preferences for %s", userID)
	}
	prefs := map[string]string{}
	if err := json.Unmarshal([]byte(data), &prefs); err != nil {
		return nil, core.ExternalServicef(err, "decode preferences for %s", userID)
	}
	return prefs, nil
}

// SaveKnowledge inserts a knowledge entry. Entries are immutable; inserting
// an existing id is a validation error.
func (s *SQLiteStore) SaveKnowledge(ctx context.Context, sessionID string, k core.Knowledge) error {
	if k.ID == "" {
		return core.Validationf("knowledge missing id")
	}
	tags, err := json.Marshal(k.Tags)
	if err != nil {
		return core.ExternalServicef(err, "encode tags for knowledge %s", k.ID)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO knowledge (id, session_id, title, content, tags, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		k.ID, sessionID, k.Title, k.Content, string(tags), k.Confidence, k.CreatedAt)
	if err != nil {
		return core.ExternalServicef(err, "save knowledge %s", k.ID)
	}
	return nil
}

// ListKnowledge returns all knowledge entries stored for a session in
// insertion order.
func (s *SQLiteStore) ListKnowledge(ctx context.Context, sessionID string) ([]core.Knowledge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, tags, confidence, created_at
		FROM knowledge WHERE session_id = ? ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, core.ExternalServicef(err, "list knowledge for %s", sessionID)
	}
	defer rows.Close()

	var out []core.Knowledge
	for rows.Next() {
		var k core.Knowledge
		var tags sql.NullString
		if err := rows.Scan(&k.ID, &k.Title, &k.Content, &tags, &k.Confidence, &k.CreatedAt); err != nil {
			return nil, core.ExternalServicef(err, "scan knowledge for %s", sessionID)
		}
		if tags.Valid && tags.String != "" {
			if err := json.Unmarshal([]byte(tags.String), &k.Tags); err != nil {
				return nil, core.ExternalServicef(err, "decode tags for knowledge %s", k.ID)
			}
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, core.ExternalServicef(err, "list knowledge for %s", sessionID)
	}
	return out, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
