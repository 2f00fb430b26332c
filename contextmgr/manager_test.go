package contextmgr

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convosuite/mcpcore/core"
	"github.com/convosuite/mcpcore/memory"
)

// failingRecords simulates a broken relational store so we can assert that
// memory processing failures never block the context update.
type failingRecords struct{}

func (failingRecords) SaveSession(context.Context, *core.Session) error { return nil }
func (failingRecords) GetSession(context.Context, string) (*core.Session, error) {
	return nil, core.NotFoundf("no session")
}
func (failingRecords) SaveUserPreferences(context.Context, string, map[string]string) error {
	return nil
}
func (failingRecords) GetUserPreferences(context.Context, string) (map[string]string, error) {
	return map[string]string{"language": "es"}, nil
}
func (failingRecords) SaveKnowledge(context.Context, string, core.Knowledge) error {
	return errors.New("disk full")
}
func (failingRecords) ListKnowledge(context.Context, string) ([]core.Knowledge, error) {
	return nil, errors.New("disk full")
}
func (failingRecords) Close() error { return nil }

func newTestManager(optFns ...func(o *Options)) *Manager {
	return NewManager(optFns...)
}

func TestCreateSession_Defaults(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	sess, err := m.CreateSession(ctx, "u1", "", map[string]any{"channel": "web"})
	require.NoError(t, err)
	assert.Equal(t, core.SessionTypeChat, sess.Type)
	assert.True(t, sess.Active)
	assert.Equal(t, "web", sess.Context.Metadata["channel"])
	assert.NotEmpty(t, sess.Context.UserPreferences["communication_style"])

	got, err := m.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
}

func TestCreateSession_LoadsStoredPreferences(t *testing.T) {
	m := newTestManager(func(o *Options) { o.RecordStore = failingRecords{} })
	sess, err := m.CreateSession(context.Background(), "u1", core.SessionTypeChat, nil)
	require.NoError(t, err)
	assert.Equal(t, "es", sess.Context.UserPreferences["language"])
}

func TestCreateSession_RequiresUser(t *testing.T) {
	m := newTestManager()
	_, err := m.CreateSession(context.Background(), "", core.SessionTypeChat, nil)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestUpdateContext_AppendsInOrder(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	sess, err := m.CreateSession(ctx, "u1", core.SessionTypeChat, nil)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := m.UpdateContext(ctx, sess.ID, core.NewMessage(core.RoleUser, fmt.Sprintf("message %d", i)), "", nil)
		require.NoError(t, err)
	}

	got, err := m.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, got.Context.Messages, 5)
	for i, msg := range got.Context.Messages {
		assert.Equal(t, fmt.Sprintf("message %d", i), msg.Content)
	}
}

func TestUpdateContext_MissingSession(t *testing.T) {
	m := newTestManager()
	_, err := m.UpdateContext(context.Background(), "missing", core.NewMessage(core.RoleUser, "hi"), "", nil)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUpdateContext_RejectsEmptyAndUnknownRole(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	sess, err := m.CreateSession(ctx, "u1", core.SessionTypeChat, nil)
	require.NoError(t, err)

	_, err = m.UpdateContext(ctx, sess.ID, core.Message{Role: core.RoleUser, Content: "   "}, "", nil)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = m.UpdateContext(ctx, sess.ID, core.Message{Role: "robot", Content: "hi"}, "", nil)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestUpdateContext_MergesIntentAndEntities(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	sess, err := m.CreateSession(ctx, "u1", core.SessionTypeChat, nil)
	require.NoError(t, err)

	got, err := m.UpdateContext(ctx, sess.ID, core.NewMessage(core.RoleUser, "contact me"), "customer_support",
		[]core.Entity{{Type: core.EntityEmail, Value: "a@b.com"}})
	require.NoError(t, err)
	assert.Equal(t, "customer_support", got.Context.CurrentIntent)
	require.Len(t, got.Context.Entities, 1)

	// Entities accumulate; intent stays when not provided.
	got, err = m.UpdateContext(ctx, sess.ID, core.NewMessage(core.RoleUser, "see https://example.com"), "",
		[]core.Entity{{Type: core.EntityURL, Value: "https://example.com"}})
	require.NoError(t, err)
	assert.Equal(t, "customer_support", got.Context.CurrentIntent)
	assert.Len(t, got.Context.Entities, 2)
}

func TestUpdateContext_UpdatedAtMonotonic(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	sess, err := m.CreateSession(ctx, "u1", core.SessionTypeChat, nil)
	require.NoError(t, err)

	prev := sess.UpdatedAt
	for i := 0; i < 10; i++ {
		got, err := m.UpdateContext(ctx, sess.ID, core.NewMessage(core.RoleUser, "tick"), "", nil)
		require.NoError(t, err)
		assert.False(t, got.UpdatedAt.Before(prev))
		prev = got.UpdatedAt
	}
}

func TestUpdateContext_ProcessingFailureDoesNotBlockCommit(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(func(o *Options) { o.RecordStore = failingRecords{} })
	sess, err := m.CreateSession(ctx, "u1", core.SessionTypeChat, nil)
	require.NoError(t, err)

	// Long message with entities triggers knowledge capture, whose record
	// store write fails; the update must still commit.
	long := make([]byte, 150)
	for i := range long {
		long[i] = 'x'
	}
	got, err := m.UpdateContext(ctx, sess.ID, core.NewMessage(core.RoleUser, string(long)), "",
		[]core.Entity{{Type: core.EntityNumber, Value: "42"}})
	require.NoError(t, err)
	assert.Len(t, got.Context.Messages, 1)
}

func TestHistoryOptimization_LengthFormula(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	sess, err := m.CreateSession(ctx, "u1", core.SessionTypeChat, nil)
	require.NoError(t, err)

	// 101 short unimportant messages: only the recent window survives.
	var got *core.Session
	for i := 0; i < 101; i++ {
		got, err = m.UpdateContext(ctx, sess.ID, core.NewMessage(core.RoleUser, fmt.Sprintf("m%d", i)), "", nil)
		require.NoError(t, err)
	}
	assert.Len(t, got.Context.Messages, m.cfg.RetainRecent)
	// Ordering preserved inside the retained window.
	last := got.Context.Messages[len(got.Context.Messages)-1]
	assert.Equal(t, "m100", last.Content)
}

func TestHistoryOptimization_KeepsImportantOlder(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	sess, err := m.CreateSession(ctx, "u1", core.SessionTypeChat, nil)
	require.NoError(t, err)

	var got *core.Session
	for i := 0; i < 101; i++ {
		content := fmt.Sprintf("m%d", i)
		if i < 30 && i%10 == 0 {
			content = fmt.Sprintf("URGENT m%d", i) // qualifies via urgency keyword
		}
		got, err = m.UpdateContext(ctx, sess.ID, core.NewMessage(core.RoleUser, content), "", nil)
		require.NoError(t, err)
	}

	// 3 urgent older messages qualify: 50 recent + 3 important.
	assert.Len(t, got.Context.Messages, m.cfg.RetainRecent+3)
	assert.Contains(t, got.Context.Messages[0].Content, "URGENT")
	// Chronological order across the boundary.
	assert.Equal(t, "URGENT m0", got.Context.Messages[0].Content)
	assert.Equal(t, "m100", got.Context.Messages[len(got.Context.Messages)-1].Content)
}

// Scenario: 21 sequential messages produce exactly one summary, created
// after the 20th message.
func TestSummarization_Every20thMessage(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	sess, err := m.CreateSession(ctx, "u1", core.SessionTypeChat, nil)
	require.NoError(t, err)

	var got *core.Session
	for i := 0; i < 19; i++ {
		got, err = m.UpdateContext(ctx, sess.ID, core.NewMessage(core.RoleUser, fmt.Sprintf("mensaje %d", i)), "", nil)
		require.NoError(t, err)
		assert.Empty(t, got.Memory.LongTerm.ConversationSummaries, "no summary before message 20")
	}

	got, err = m.UpdateContext(ctx, sess.ID, core.NewMessage(core.RoleUser, "mensaje 19"), "", nil)
	require.NoError(t, err)
	assert.Len(t, got.Memory.LongTerm.ConversationSummaries, 1, "summary after the 20th message")

	got, err = m.UpdateContext(ctx, sess.ID, core.NewMessage(core.RoleUser, "mensaje 20"), "", nil)
	require.NoError(t, err)
	assert.Len(t, got.Memory.LongTerm.ConversationSummaries, 1, "still exactly one summary after 21 messages")

	s := got.Memory.LongTerm.ConversationSummaries[0]
	assert.Equal(t, 20, s.MessageCount)
	assert.GreaterOrEqual(t, s.Importance, 0.0)
	assert.LessOrEqual(t, s.Importance, 1.0)
	assert.GreaterOrEqual(t, s.Sentiment, -1.0)
	assert.LessOrEqual(t, s.Sentiment, 1.0)
}

// Scenario: two concurrent updates on the same session must both commit,
// each exactly once.
func TestUpdateContext_ConcurrentWritersBothCommit(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	sess, err := m.CreateSession(ctx, "u1", core.SessionTypeChat, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, content := range []string{"first writer", "second writer"} {
		wg.Add(1)
		go func(c string) {
			defer wg.Done()
			_, err := m.UpdateContext(ctx, sess.ID, core.NewMessage(core.RoleUser, c), "", nil)
			assert.NoError(t, err)
		}(content)
	}
	wg.Wait()

	got, err := m.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, got.Context.Messages, 2)
	contents := []string{got.Context.Messages[0].Content, got.Context.Messages[1].Content}
	assert.Contains(t, contents, "first writer")
	assert.Contains(t, contents, "second writer")
	assert.False(t, got.UpdatedAt.Before(sess.UpdatedAt))
}

func TestFindRelevantContext_MergesSourcesWithIndependentCaps(t *testing.T) {
	ctx := context.Background()
	idx := memory.NewInMemoryIndex()
	m := newTestManager(func(o *Options) {
		o.Embedder = idx
		o.Searcher = idx
		o.Indexer = idx
	})
	sess, err := m.CreateSession(ctx, "u1", core.SessionTypeChat, nil)
	require.NoError(t, err)

	// Long billing-related messages land in the knowledge base and the index.
	for i := 0; i < 3; i++ {
		content := fmt.Sprintf("billing invoice number %d is overdue and the customer keeps asking about the billing cycle status for this account", i)
		_, err := m.UpdateContext(ctx, sess.ID, core.NewMessage(core.RoleUser, content), "",
			[]core.Entity{{Type: core.EntityNumber, Value: fmt.Sprint(i)}})
		require.NoError(t, err)
	}

	results, err := m.FindRelevantContext(ctx, sess.ID, "billing", 2)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	// Both sources are capped at limit; after dedupe the merged result can
	// not exceed twice the limit.
	assert.LessOrEqual(t, len(results), 4)
	seen := map[string]bool{}
	for _, k := range results {
		assert.False(t, seen[k.ID], "no duplicate knowledge ids")
		seen[k.ID] = true
	}
}

func TestFindRelevantContext_MissingSession(t *testing.T) {
	m := newTestManager()
	_, err := m.FindRelevantContext(context.Background(), "missing", "q", 3)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
