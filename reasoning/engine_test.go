package reasoning

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convosuite/mcpcore/agentmgr"
	"github.com/convosuite/mcpcore/core"
	"github.com/convosuite/mcpcore/model"
)

// flakyModel fails any generation whose prompt contains failOn and answers
// everything else.
type flakyModel struct {
	failOn string
}

func (f flakyModel) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	respCh := make(chan model.Response, 1)
	errCh := make(chan error, 1)
	go func() {
		defer close(respCh)
		defer close(errCh)
		if f.failOn != "" && strings.Contains(req.Prompt, f.failOn) {
			errCh <- errors.New("simulated failure")
			return
		}
		respCh <- model.Response{Content: "done", FinishReason: "stop", Usage: &model.TokenUsage{TotalTokens: 4}}
	}()
	return respCh, errCh
}

func (f flakyModel) Info() model.Info { return model.Info{Name: "flaky", Provider: "mock"} }

func newTestEngine(t *testing.T, m model.Model) *Engine {
	t.Helper()
	agents, err := agentmgr.NewManager(func(o *agentmgr.Options) {
		if m != nil {
			o.Model = m
		}
	})
	require.NoError(t, err)
	e, err := NewEngine(func(o *Options) { o.Agents = agents })
	require.NoError(t, err)
	return e
}

func TestNewEngine_RequiresRegistry(t *testing.T) {
	_, err := NewEngine()
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestProcessRequest_Validation(t *testing.T) {
	e := newTestEngine(t, nil)
	sess := core.NewSession("u1", core.SessionTypeChat)

	_, err := e.ProcessRequest(context.Background(), nil, core.NewMessage(core.RoleUser, "hi"))
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = e.ProcessRequest(context.Background(), sess, core.NewMessage(core.RoleUser, "  "))
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestProcessRequest_SimplePath(t *testing.T) {
	e := newTestEngine(t, nil)
	sess := core.NewSession("u1", core.SessionTypeChat)

	result, err := e.ProcessRequest(context.Background(), sess,
		core.NewMessage(core.RoleUser, "Quiero crear un artículo sobre IA"))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, core.RoleContentCreator, result.AgentRole)
	assert.NotEmpty(t, result.Response)
	require.NotEmpty(t, result.Steps)
	assert.GreaterOrEqual(t, result.Confidence, 0.0)
	assert.LessOrEqual(t, result.Confidence, 1.0)
	assert.Empty(t, result.SubTasks)

	// Confidence is the product of the recorded step confidences.
	expected := 1.0
	for _, s := range result.Steps {
		expected *= s.Confidence
	}
	assert.InDelta(t, expected, result.Confidence, 1e-9)
}

func TestProcessRequest_ComplexPathStepOrder(t *testing.T) {
	e := newTestEngine(t, nil)
	sess := core.NewSession("u1", core.SessionTypeChat)

	result, err := e.ProcessRequest(context.Background(), sess,
		core.NewMessage(core.RoleUser, "analizar datos y optimizar el workflow completo"))
	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotEmpty(t, result.SubTasks)

	var types []string
	for _, s := range result.Steps {
		types = append(types, s.Type)
	}
	wantOrder := []string{
		core.StepAnalysis, core.StepDecomposition, core.StepDependencyAnalysis,
		core.StepPlanning, core.StepExecution, core.StepSynthesis, core.StepRecommendation,
	}
	pos := 0
	for _, typ := range types {
		if pos < len(wantOrder) && typ == wantOrder[pos] {
			pos++
		}
	}
	assert.Equal(t, len(wantOrder), pos, "step types appear in pipeline order, got %v", types)

	for _, s := range result.Steps {
		assert.GreaterOrEqual(t, s.Confidence, 0.0)
		assert.LessOrEqual(t, s.Confidence, 1.0)
	}
}

func TestProcessRequest_ComplexConfidenceIsSubTaskProduct(t *testing.T) {
	e := newTestEngine(t, nil)
	sess := core.NewSession("u1", core.SessionTypeChat)

	result, err := e.ProcessRequest(context.Background(), sess,
		core.NewMessage(core.RoleUser, "analizar datos y optimizar el workflow completo"))
	require.NoError(t, err)
	require.NotEmpty(t, result.SubTasks)

	expected := 1.0
	for _, task := range result.SubTasks {
		if task.Status == core.SubTaskFailed {
			expected *= 0.5
		} else {
			expected *= task.Confidence
		}
	}
	assert.InDelta(t, expected, result.Confidence, 1e-9)
}

func TestProcessRequest_SubTaskFailureContinues(t *testing.T) {
	e := newTestEngine(t, flakyModel{failOn: "clean and prepare"})
	sess := core.NewSession("u1", core.SessionTypeChat)

	result, err := e.ProcessRequest(context.Background(), sess,
		core.NewMessage(core.RoleUser, "analizar los datos"),
		func(o *RequestOptions) { o.MultiStep = true })
	require.NoError(t, err)

	require.Len(t, result.SubTasks, 4)
	var failed, completed int
	for _, task := range result.SubTasks {
		switch task.Status {
		case core.SubTaskFailed:
			failed++
			assert.Zero(t, task.Confidence)
		case core.SubTaskCompleted:
			completed++
			assert.NotEmpty(t, task.Result)
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, 3, completed)
	assert.True(t, result.Success, "one failed subtask does not fail the run")

	expected := 0.5
	for _, task := range result.SubTasks {
		if task.Status == core.SubTaskCompleted {
			expected *= task.Confidence
		}
	}
	assert.InDelta(t, expected, result.Confidence, 1e-9)
}

func TestProcessRequest_SubTaskExecutionAdvancesCounters(t *testing.T) {
	agents, err := agentmgr.NewManager(func(o *agentmgr.Options) {
		o.Model = flakyModel{failOn: "clean and prepare"}
	})
	require.NoError(t, err)
	e, err := NewEngine(func(o *Options) { o.Agents = agents })
	require.NoError(t, err)
	sess := core.NewSession("u1", core.SessionTypeChat)

	result, err := e.ProcessRequest(context.Background(), sess,
		core.NewMessage(core.RoleUser, "analizar los datos"),
		func(o *RequestOptions) { o.MultiStep = true })
	require.NoError(t, err)
	require.Len(t, result.SubTasks, 4)

	// Each executed subtask is a counted selection: 4 interactions, of
	// which three succeeded and one failed.
	// rate: 1 -> 1*(2-1)/2 = 0.5 -> (0.5*2+1)/3 = 2/3 -> (2/3*3+1)/4 = 3/4
	perf, err := agents.GetPerformanceMetrics(core.RoleDataAnalyst)
	require.NoError(t, err)
	assert.Equal(t, int64(4), perf.TotalInteractions)
	assert.InDelta(t, 0.75, perf.SuccessRate, 1e-9)
}

func TestProcessRequest_AllSubTasksFailed(t *testing.T) {
	e := newTestEngine(t, flakyModel{failOn: "Original request"})
	sess := core.NewSession("u1", core.SessionTypeChat)

	result, err := e.ProcessRequest(context.Background(), sess,
		core.NewMessage(core.RoleUser, "analizar los datos"),
		func(o *RequestOptions) { o.MultiStep = true })
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Response, "failure response stays well formed")
	assert.Contains(t, result.Recommendations, "Confidence in this result is low; please review it or rephrase the request.")
}

func TestProcessRequest_AutomationRecommendation(t *testing.T) {
	e := newTestEngine(t, nil)
	sess := core.NewSession("u1", core.SessionTypeChat)

	result, err := e.ProcessRequest(context.Background(), sess,
		core.NewMessage(core.RoleUser, "automatizar el flujo de facturación"),
		func(o *RequestOptions) { o.MultiStep = true })
	require.NoError(t, err)
	assert.Contains(t, result.Recommendations, "This process could become a reusable workflow; consider saving it.")
}

func TestProcessRequest_CachesBySessionAndMessage(t *testing.T) {
	e := newTestEngine(t, nil)
	sess := core.NewSession("u1", core.SessionTypeChat)
	msg := core.NewMessage(core.RoleUser, "hello there")

	first, err := e.ProcessRequest(context.Background(), sess, msg)
	require.NoError(t, err)
	second, err := e.ProcessRequest(context.Background(), sess, msg)
	require.NoError(t, err)
	assert.Same(t, first, second)

	other := core.NewSession("u2", core.SessionTypeChat)
	third, err := e.ProcessRequest(context.Background(), other, msg)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}
