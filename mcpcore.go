// Package mcpcore provides a high-level façade over the conversational
// orchestration core: context management, the agent registry and the
// reasoning engine. Most applications interact with this package by:
//  1. Creating an MCP via New() (optionally overriding default in-memory services)
//  2. Creating sessions for users (CreateSession)
//  3. Processing user messages (ProcessRequest), which appends the exchange
//     to the session history and routes generation through the best agent
//
// All defaults are safe for local development and testing; production
// deployments typically supply a Redis session store, a SQLite record store,
// a real model adapter and a structured logger.
package mcpcore

import (
	"context"
	"fmt"

	"github.com/convosuite/mcpcore/agentmgr"
	"github.com/convosuite/mcpcore/contextmgr"
	"github.com/convosuite/mcpcore/core"
	"github.com/convosuite/mcpcore/logging"
	"github.com/convosuite/mcpcore/model"
	"github.com/convosuite/mcpcore/reasoning"
)

// Options configures the MCP instance.
type Options struct {
	// ContextConfig holds the retention and summarization tunables.
	ContextConfig contextmgr.Config

	// Stores (default to in-memory implementations if not provided).
	SessionStore core.SessionStore
	RecordStore  core.RecordStore

	// Semantic knowledge retrieval (optional).
	Embedder core.Embedder
	Searcher core.SimilaritySearcher
	Indexer  core.KnowledgeIndexer

	// Observer receives session lifecycle notifications.
	Observer core.Observer

	// Agents overrides the default catalog; a general assistant must be
	// present.
	Agents []core.Agent

	// Model performs generation for every agent (defaults to a MockModel).
	Model model.Model

	// CacheCapacity bounds the reasoning result cache.
	CacheCapacity int

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// MCP is the high-level façade aggregating the context manager, the agent
// registry and the reasoning engine.
type MCP struct {
	contexts *contextmgr.Manager
	agents   *agentmgr.Manager
	reasoner *reasoning.Engine
	logger   logging.Logger
}

// New creates a new MCP instance with optional overrides. Any unset service
// is initialized with an in-memory implementation. The only failure mode is
// an invalid agent catalog.
func New(optFns ...func(o *Options)) (*MCP, error) {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	agents, err := agentmgr.NewManager(func(o *agentmgr.Options) {
		if opts.Agents != nil {
			o.Agents = opts.Agents
		}
		if opts.Model != nil {
			o.Model = opts.Model
		}
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}

	contexts := contextmgr.NewManager(func(o *contextmgr.Options) {
		o.Config = opts.ContextConfig
		if opts.SessionStore != nil {
			o.SessionStore = opts.SessionStore
		}
		o.RecordStore = opts.RecordStore
		o.Embedder = opts.Embedder
		o.Searcher = opts.Searcher
		o.Indexer = opts.Indexer
		if opts.Observer != nil {
			o.Observer = opts.Observer
		}
		o.Logger = opts.Logger
	})

	reasoner, err := reasoning.NewEngine(func(o *reasoning.Options) {
		o.Agents = agents
		o.CacheCapacity = opts.CacheCapacity
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}

	return &MCP{
		contexts: contexts,
		agents:   agents,
		reasoner: reasoner,
		logger:   opts.Logger,
	}, nil
}

// CreateSession creates and persists a session for the user.
func (m *MCP) CreateSession(ctx context.Context, userID string, sessionType core.SessionType, metadata map[string]any) (*core.Session, error) {
	return m.contexts.CreateSession(ctx, userID, sessionType, metadata)
}

// GetSession returns a snapshot of the session.
func (m *MCP) GetSession(ctx context.Context, sessionID string) (*core.Session, error) {
	return m.contexts.GetSession(ctx, sessionID)
}

// UpdateContext appends a message to the session history without running the
// reasoning pipeline. Useful for importing history or recording side-channel
// messages.
func (m *MCP) UpdateContext(ctx context.Context, sessionID string, msg core.Message, intent string, entities []core.Entity) (*core.Session, error) {
	return m.contexts.UpdateContext(ctx, sessionID, msg, intent, entities)
}

// ProcessRequest handles one user message end to end: the message is
// analyzed and committed to the session, the reasoning engine produces a
// response, and the assistant turn is committed with its generation
// metadata. The returned result contains the response, the reasoning trace
// and the confidence.
func (m *MCP) ProcessRequest(ctx context.Context, sessionID, message string) (*core.ReasoningResult, error) {
	analysis := reasoning.Analyze(message)

	userMsg := core.NewMessage(core.RoleUser, message)
	userMsg.Metadata = &core.MessageMetadata{
		Intent:   analysis.Primary(),
		Entities: analysis.Entities,
	}
	sess, err := m.contexts.UpdateContext(ctx, sessionID, userMsg, analysis.Primary(), analysis.Entities)
	if err != nil {
		return nil, err
	}

	result, err := m.reasoner.ProcessRequest(ctx, sess, userMsg)
	if err != nil {
		return nil, err
	}

	assistantMsg := core.NewMessage(core.RoleAssistant, result.Response)
	assistantMsg.Metadata = &core.MessageMetadata{
		AgentID:    result.AgentID,
		Confidence: result.Confidence,
		Intent:     analysis.Primary(),
		Degraded:   !result.Success,
	}
	if _, err := m.contexts.UpdateContext(ctx, sessionID, assistantMsg, "", nil); err != nil {
		// The reasoning outcome is already in hand; surface the lost
		// history commit on the result instead of discarding the response.
		m.logger.Warn("assistant turn commit failed", "session_id", sessionID, "error", err)
		result.Error = fmt.Sprintf("assistant turn was not committed to the session history: %v", err)
	}

	return result, nil
}

// FindRelevantContext returns knowledge entries relevant to the query from
// the session's memory and the semantic index.
func (m *MCP) FindRelevantContext(ctx context.Context, sessionID, query string, limit int) ([]core.Knowledge, error) {
	return m.contexts.FindRelevantContext(ctx, sessionID, query, limit)
}

// GetAgent returns the agent registered for the role.
func (m *MCP) GetAgent(role core.AgentRole) (core.Agent, error) {
	return m.agents.GetAgent(role)
}

// GetActiveAgents returns the full agent catalog.
func (m *MCP) GetActiveAgents() []core.Agent {
	return m.agents.GetActiveAgents()
}

// GetPerformanceMetrics returns a snapshot of the role's performance
// counters.
func (m *MCP) GetPerformanceMetrics(role core.AgentRole) (core.Performance, error) {
	return m.agents.GetPerformanceMetrics(role)
}
