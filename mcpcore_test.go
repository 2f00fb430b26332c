package mcpcore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convosuite/mcpcore/core"
	"github.com/convosuite/mcpcore/memory"
	"github.com/convosuite/mcpcore/model"
	"github.com/convosuite/mcpcore/session"
)

type failingTestModel struct{}

func (failingTestModel) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	respCh := make(chan model.Response)
	errCh := make(chan error, 1)
	go func() {
		defer close(respCh)
		defer close(errCh)
		errCh <- errors.New("provider down")
	}()
	return respCh, errCh
}

func (failingTestModel) Info() model.Info { return model.Info{Name: "failing", Provider: "mock"} }

// countingSetStore fails every Set beyond failAfter, simulating a session
// store that goes down mid conversation.
type countingSetStore struct {
	inner     core.SessionStore
	failAfter int
	sets      int
}

func (s *countingSetStore) Get(ctx context.Context, id string) (*core.Session, error) {
	return s.inner.Get(ctx, id)
}

func (s *countingSetStore) Set(ctx context.Context, sess *core.Session, ttl time.Duration) error {
	s.sets++
	if s.sets > s.failAfter {
		return core.ExternalServicef(errors.New("connection refused"), "session store write failed")
	}
	return s.inner.Set(ctx, sess, ttl)
}

func (s *countingSetStore) Delete(ctx context.Context, id string) error {
	return s.inner.Delete(ctx, id)
}

func TestNew_Defaults(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	assert.Len(t, m.GetActiveAgents(), 6)
}

func TestNew_InvalidCatalog(t *testing.T) {
	_, err := New(func(o *Options) {
		o.Agents = []core.Agent{{ID: "only", Role: core.RoleDataAnalyst}}
	})
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestProcessRequest_EndToEnd(t *testing.T) {
	ctx := context.Background()
	m, err := New()
	require.NoError(t, err)

	sess, err := m.CreateSession(ctx, "user-1", core.SessionTypeChat, nil)
	require.NoError(t, err)

	result, err := m.ProcessRequest(ctx, sess.ID, "Quiero crear un artículo sobre IA")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, core.RoleContentCreator, result.AgentRole)
	assert.NotEmpty(t, result.Steps)
	assert.GreaterOrEqual(t, result.Confidence, 0.0)
	assert.LessOrEqual(t, result.Confidence, 1.0)

	// Both turns landed in the history: user first, assistant second.
	got, err := m.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, got.Context.Messages, 2)
	assert.Equal(t, core.RoleUser, got.Context.Messages[0].Role)
	assert.Equal(t, core.RoleAssistant, got.Context.Messages[1].Role)
	require.NotNil(t, got.Context.Messages[1].Metadata)
	assert.Equal(t, result.AgentID, got.Context.Messages[1].Metadata.AgentID)
	assert.Equal(t, "content_creation", got.Context.CurrentIntent)

	perf, err := m.GetPerformanceMetrics(core.RoleContentCreator)
	require.NoError(t, err)
	assert.Equal(t, int64(1), perf.TotalInteractions)
}

func TestProcessRequest_ComplexRequest(t *testing.T) {
	ctx := context.Background()
	m, err := New()
	require.NoError(t, err)
	sess, err := m.CreateSession(ctx, "user-1", core.SessionTypeChat, nil)
	require.NoError(t, err)

	result, err := m.ProcessRequest(ctx, sess.ID, "analizar datos y optimizar el workflow completo")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.SubTasks)

	var types []string
	for _, s := range result.Steps {
		types = append(types, s.Type)
	}
	assert.Contains(t, types, core.StepDecomposition)
	assert.Contains(t, types, core.StepSynthesis)
}

func TestProcessRequest_MissingSession(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	_, err = m.ProcessRequest(context.Background(), "missing", "hello")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestFindRelevantContext_ThroughFacade(t *testing.T) {
	ctx := context.Background()
	idx := memory.NewInMemoryIndex()
	m, err := New(func(o *Options) {
		o.Embedder = idx
		o.Searcher = idx
		o.Indexer = idx
	})
	require.NoError(t, err)
	sess, err := m.CreateSession(ctx, "user-1", core.SessionTypeChat, nil)
	require.NoError(t, err)

	long := "the quarterly billing report shows a recurring invoice discrepancy for enterprise accounts that needs attention"
	_, err = m.UpdateContext(ctx, sess.ID, core.NewMessage(core.RoleUser, long), "", nil)
	require.NoError(t, err)

	results, err := m.FindRelevantContext(ctx, sess.ID, "billing", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestProcessRequest_LostAssistantCommitSurfacesOnResult(t *testing.T) {
	ctx := context.Background()
	// CreateSession and the user turn each write once; the assistant turn's
	// write is the third and fails.
	store := &countingSetStore{inner: session.NewInMemoryStore(), failAfter: 2}
	m, err := New(func(o *Options) { o.SessionStore = store })
	require.NoError(t, err)
	sess, err := m.CreateSession(ctx, "user-1", core.SessionTypeChat, nil)
	require.NoError(t, err)

	result, err := m.ProcessRequest(ctx, sess.ID, "hello there")
	require.NoError(t, err, "the reasoning outcome is still returned")
	assert.NotEmpty(t, result.Response)
	assert.Contains(t, result.Error, "assistant turn was not committed")

	// Only the user turn made it into the history.
	got, err := m.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, got.Context.Messages, 1)
	assert.Equal(t, core.RoleUser, got.Context.Messages[0].Role)
}

func TestDegradedGenerationStillCommitsTurn(t *testing.T) {
	ctx := context.Background()
	m, err := New(func(o *Options) { o.Model = failingTestModel{} })
	require.NoError(t, err)
	sess, err := m.CreateSession(ctx, "user-1", core.SessionTypeChat, nil)
	require.NoError(t, err)

	result, err := m.ProcessRequest(ctx, sess.ID, "hello")
	require.NoError(t, err, "generation failure is contained, not surfaced")
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Response)

	got, err := m.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, got.Context.Messages, 2)
	require.NotNil(t, got.Context.Messages[1].Metadata)
	assert.True(t, got.Context.Messages[1].Metadata.Degraded)
}
