package contextmgr

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/convosuite/mcpcore/core"
	"github.com/convosuite/mcpcore/logging"
	"github.com/convosuite/mcpcore/session"
)

// Config holds the tunables of the context manager. Zero values are replaced
// by the defaults below.
type Config struct {
	// HistoryTrimThreshold is the history length above which optimization
	// runs.
	HistoryTrimThreshold int
	// RetainRecent is the number of most recent messages always kept.
	RetainRecent int
	// RetainImportant caps how many older messages flagged important are
	// kept in addition to the recent window.
	RetainImportant int
	// SummaryInterval triggers a conversation summary every N appended
	// messages.
	SummaryInterval int
	// SessionTTL is passed to the session store on every commit.
	SessionTTL time.Duration
}

// DefaultConfig mirrors the production tuning of the retention pipeline.
var DefaultConfig = Config{
	HistoryTrimThreshold: 100,
	RetainRecent:         50,
	RetainImportant:      20,
	SummaryInterval:      20,
	SessionTTL:           24 * time.Hour,
}

func (c *Config) applyDefaults() {
	if c.HistoryTrimThreshold == 0 {
		c.HistoryTrimThreshold = DefaultConfig.HistoryTrimThreshold
	}
	if c.RetainRecent == 0 {
		c.RetainRecent = DefaultConfig.RetainRecent
	}
	if c.RetainImportant == 0 {
		c.RetainImportant = DefaultConfig.RetainImportant
	}
	if c.SummaryInterval == 0 {
		c.SummaryInterval = DefaultConfig.SummaryInterval
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = DefaultConfig.SessionTTL
	}
}

// Options configures a Manager.
type Options struct {
	Config Config
	// SessionStore persists sessions; defaults to an in-memory store.
	SessionStore core.SessionStore
	// RecordStore provides preference defaults and durable knowledge
	// persistence. Optional.
	RecordStore core.RecordStore
	// Embedder / Searcher / Indexer provide semantic knowledge retrieval.
	// Optional; without them FindRelevantContext falls back to the
	// substring scan only.
	Embedder core.Embedder
	Searcher core.SimilaritySearcher
	Indexer  core.KnowledgeIndexer
	// Observer receives creation / commit notifications.
	Observer core.Observer
	Logger   logging.Logger
}

// Manager is the exclusive owner of session state. All exported methods are
// safe for concurrent use; mutations to one session are serialized by a
// per-session mutex.
type Manager struct {
	cfg      Config
	sessions core.SessionStore
	records  core.RecordStore
	embedder core.Embedder
	searcher core.SimilaritySearcher
	indexer  core.KnowledgeIndexer
	observer core.Observer
	logger   logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager constructs a Manager with in-memory defaults for any unset
// service.
func NewManager(optFns ...func(o *Options)) *Manager {
	opts := Options{
		Config:       DefaultConfig,
		SessionStore: session.NewInMemoryStore(),
		Observer:     core.NoOpObserver{},
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Config.applyDefaults()
	if opts.Observer == nil {
		opts.Observer = core.NoOpObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Manager{
		cfg:      opts.Config,
		sessions: opts.SessionStore,
		records:  opts.RecordStore,
		embedder: opts.Embedder,
		searcher: opts.Searcher,
		indexer:  opts.Indexer,
		observer: opts.Observer,
		logger:   opts.Logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

// sessionLock returns the mutex serializing mutations for one session id.
func (m *Manager) sessionLock(sessionID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[sessionID] = l
	}
	return l
}

// CreateSession creates and persists a new session for the user. Preference
// defaults are loaded from the record store when available; a missing
// preference row falls back to hard defaults.
func (m *Manager) CreateSession(ctx context.Context, userID string, sessionType core.SessionType, metadata map[string]any) (*core.Session, error) {
	if userID == "" {
		return nil, core.Validationf("missing user id")
	}
	if sessionType == "" {
		sessionType = core.SessionTypeChat
	}

	sess := core.NewSession(userID, sessionType)
	for k, v := range metadata {
		sess.Context.Metadata[k] = v
	}
	sess.Context.UserPreferences = m.loadPreferenceDefaults(ctx, userID)

	if err := m.sessions.Set(ctx, sess, m.cfg.SessionTTL); err != nil {
		return nil, err
	}
	if m.records != nil {
		if err := m.records.SaveSession(ctx, sess); err != nil {
			return nil, err
		}
	}

	m.observer.SessionCreated(sess.Clone())
	m.logger.Info("session created", "session_id", sess.ID, "user_id", userID, "type", string(sessionType))
	return sess, nil
}

func (m *Manager) loadPreferenceDefaults(ctx context.Context, userID string) map[string]string {
	prefs := map[string]string{
		"communication_style": "neutral",
		"format":              "standard",
	}
	if m.records == nil {
		return prefs
	}
	stored, err := m.records.GetUserPreferences(ctx, userID)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			m.logger.Warn("loading preference defaults failed", "user_id", userID, "error", err)
		}
		return prefs
	}
	for k, v := range stored {
		prefs[k] = v
	}
	return prefs
}

// GetSession returns a snapshot of the session.
func (m *Manager) GetSession(ctx context.Context, sessionID string) (*core.Session, error) {
	return m.sessions.Get(ctx, sessionID)
}

// UpdateContext appends the message to the session's history, merges intent
// and entities, runs best-effort long-term memory processing, applies history
// optimization and commits. It returns the committed session snapshot.
//
// Long-term processing failures never block the commit; they are logged and
// swallowed. A missing session yields core.ErrNotFound.
func (m *Manager) UpdateContext(ctx context.Context, sessionID string, msg core.Message, intent string, entities []core.Entity) (*core.Session, error) {
	if strings.TrimSpace(msg.Content) == "" {
		return nil, core.Validationf("message content is empty")
	}
	if msg.Role == "" {
		msg.Role = core.RoleUser
	}
	if !msg.Role.Valid() {
		return nil, core.Validationf("unknown role %q", msg.Role)
	}
	if msg.ID == "" {
		msg.ID = core.NewID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := m.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.Context.Messages = append(sess.Context.Messages, msg)
	if intent != "" {
		sess.Context.CurrentIntent = intent
	}
	sess.Context.Entities = append(sess.Context.Entities, entities...)

	m.processLongTerm(ctx, sess, msg, entities)
	m.optimizeHistory(sess)
	sess.Touch()

	if err := m.sessions.Set(ctx, sess, m.cfg.SessionTTL); err != nil {
		return nil, err
	}
	if m.records != nil {
		if err := m.records.SaveSession(ctx, sess); err != nil {
			// Relational persistence is secondary to the session store;
			// the commit already succeeded.
			m.logger.Warn("record store save failed", "session_id", sessionID, "error", err)
		}
	}

	m.observer.ContextUpdated(sessionID, msg)
	return sess, nil
}

// processLongTerm runs the memory consolidation pipeline. Every stage is
// best effort: errors are logged and swallowed so a processing failure can
// never prevent the context update from committing.
func (m *Manager) processLongTerm(ctx context.Context, sess *core.Session, msg core.Message, entities []core.Entity) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("long-term processing panicked", "session_id", sess.ID, "panic", r)
		}
	}()

	m.detectPatterns(sess)
	m.extractPreferences(sess, msg)

	if len(sess.Context.Messages)%m.cfg.SummaryInterval == 0 {
		m.summarizeRecent(sess)
	}

	if msg.Role == core.RoleUser && (len(entities) > 0 || len(msg.Content) > 100) {
		if err := m.captureKnowledge(ctx, sess, msg, entities); err != nil {
			m.logger.Warn("knowledge capture failed", "session_id", sess.ID, "error", err)
		}
	}
}

// captureKnowledge appends a knowledge entry derived from a substantive user
// message, persists it and indexes it for semantic retrieval.
func (m *Manager) captureKnowledge(ctx context.Context, sess *core.Session, msg core.Message, entities []core.Entity) error {
	tags := make([]string, 0, len(entities))
	for _, e := range entities {
		tags = append(tags, string(e.Type))
	}
	k := core.Knowledge{
		ID:         core.NewID(),
		Title:      titleFromContent(msg.Content),
		Content:    msg.Content,
		Tags:       tags,
		Confidence: 0.6,
		CreatedAt:  msg.Timestamp,
	}
	sess.Memory.LongTerm.KnowledgeBase = append(sess.Memory.LongTerm.KnowledgeBase, k)

	if m.records != nil {
		if err := m.records.SaveKnowledge(ctx, sess.ID, k); err != nil {
			return err
		}
	}
	if m.embedder != nil && m.indexer != nil {
		vec, err := m.embedder.Embed(ctx, k.Title+" "+k.Content)
		if err != nil {
			return err
		}
		if err := m.indexer.Index(ctx, k, vec); err != nil {
			return err
		}
	}
	return nil
}

func titleFromContent(content string) string {
	words := strings.Fields(content)
	if len(words) > 8 {
		words = words[:8]
	}
	return strings.Join(words, " ")
}

var urgencyPattern = regexp.MustCompile(`(?i)\b(urgent|asap|immediately|critical|emergency|urgente|inmediatamente|crítico|emergencia)\b`)

// important reports whether an older message qualifies for retention during
// history optimization.
func important(msg core.Message) bool {
	if msg.Metadata != nil {
		if msg.Metadata.Confidence > 0.8 {
			return true
		}
		if len(msg.Metadata.Entities) > 0 {
			return true
		}
	}
	if len(msg.Content) > 100 {
		return true
	}
	return urgencyPattern.MatchString(msg.Content)
}

// optimizeHistory trims the history once it exceeds the threshold: the last
// RetainRecent messages are always kept, plus up to RetainImportant older
// messages that qualify as important, preferring the most recent qualifiers.
// The surviving history stays in chronological order.
func (m *Manager) optimizeHistory(sess *core.Session) {
	msgs := sess.Context.Messages
	if len(msgs) <= m.cfg.HistoryTrimThreshold {
		return
	}

	split := len(msgs) - m.cfg.RetainRecent
	older, recent := msgs[:split], msgs[split:]

	// Walk older messages newest-first so the most recent qualifiers win.
	kept := make([]core.Message, 0, m.cfg.RetainImportant)
	for i := len(older) - 1; i >= 0 && len(kept) < m.cfg.RetainImportant; i-- {
		if important(older[i]) {
			kept = append(kept, older[i])
		}
	}
	// Restore chronological order of the kept qualifiers.
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}

	optimized := make([]core.Message, 0, len(kept)+len(recent))
	optimized = append(optimized, kept...)
	optimized = append(optimized, recent...)
	sess.Context.Messages = optimized

	m.logger.Debug("history optimized", "session_id", sess.ID,
		"kept_important", len(kept), "kept_recent", len(recent))
}

// FindRelevantContext merges semantic search results with a substring match
// over the session's own knowledge base. Each source is independently capped
// by limit; duplicates (by id) are dropped.
func (m *Manager) FindRelevantContext(ctx context.Context, sessionID, query string, limit int) ([]core.Knowledge, error) {
	if limit <= 0 {
		return nil, nil
	}
	sess, err := m.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var merged []core.Knowledge
	seen := map[string]bool{}

	if m.embedder != nil && m.searcher != nil {
		vec, err := m.embedder.Embed(ctx, query)
		if err != nil {
			m.logger.Warn("query embedding failed", "session_id", sessionID, "error", err)
		} else {
			similar, err := m.searcher.FindSimilar(ctx, vec, limit)
			if err != nil {
				m.logger.Warn("semantic search failed", "session_id", sessionID, "error", err)
			}
			for _, k := range similar {
				if !seen[k.ID] {
					seen[k.ID] = true
					merged = append(merged, k)
				}
			}
		}
	}

	needle := strings.ToLower(query)
	matched := 0
	for _, k := range sess.Memory.LongTerm.KnowledgeBase {
		if matched >= limit {
			break
		}
		if !matchesKnowledge(k, needle) {
			continue
		}
		matched++
		if !seen[k.ID] {
			seen[k.ID] = true
			merged = append(merged, k)
		}
	}
	return merged, nil
}

func matchesKnowledge(k core.Knowledge, needle string) bool {
	if strings.Contains(strings.ToLower(k.Title), needle) ||
		strings.Contains(strings.ToLower(k.Content), needle) {
		return true
	}
	for _, tag := range k.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}
