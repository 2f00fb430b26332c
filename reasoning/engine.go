package reasoning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/convosuite/mcpcore/agentmgr"
	"github.com/convosuite/mcpcore/core"
	"github.com/convosuite/mcpcore/logging"
)

// complexityThreshold routes a request to the decomposition path.
const complexityThreshold = 0.7

// Options configures an Engine.
type Options struct {
	// Agents performs selection and generation; required.
	Agents *agentmgr.Manager
	Logger logging.Logger
	// CacheCapacity bounds the result cache; defaults to 100.
	CacheCapacity int
}

// RequestOptions tune a single ProcessRequest call.
type RequestOptions struct {
	// MultiStep forces the decomposition path regardless of the computed
	// complexity.
	MultiStep bool
}

// Engine turns a request into a ReasoningResult: analysis, then either a
// single generation or a decomposed multi-step run. Results are cached per
// (session, message).
type Engine struct {
	agents *agentmgr.Manager
	logger logging.Logger
	cache  *resultCache
}

// NewEngine constructs an Engine. A registry must be provided.
func NewEngine(optFns ...func(o *Options)) (*Engine, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Agents == nil {
		return nil, core.Configurationf("reasoning engine requires an agent registry")
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Engine{
		agents: opts.Agents,
		logger: opts.Logger,
		cache:  newResultCache(opts.CacheCapacity),
	}, nil
}

// ProcessRequest reasons over one message in the session. The session is a
// snapshot owned by the caller. Generation failures are contained inside the
// result; the returned error covers only invalid input and fatal
// configuration problems.
func (e *Engine) ProcessRequest(ctx context.Context, sess *core.Session, msg core.Message, optFns ...func(o *RequestOptions)) (*core.ReasoningResult, error) {
	if sess == nil {
		return nil, core.Validationf("missing session")
	}
	if strings.TrimSpace(msg.Content) == "" {
		return nil, core.Validationf("message content is empty")
	}
	var reqOpts RequestOptions
	for _, fn := range optFns {
		fn(&reqOpts)
	}

	if msg.ID != "" {
		if cached, ok := e.cache.get(sess.ID, msg.ID); ok {
			e.logger.Debug("reasoning cache hit", "session_id", sess.ID, "message_id", msg.ID)
			return cached, nil
		}
	}

	start := time.Now()
	analysisStart := start
	analysis := Analyze(msg.Content)
	steps := []core.ReasoningStep{{
		ID:   core.NewID(),
		Type: core.StepAnalysis,
		Description: fmt.Sprintf("detected %d intent(s), %d entit(ies), complexity %.2f, domain %s",
			len(analysis.Intents), len(analysis.Entities), analysis.Complexity, analysis.Domain),
		Output:     analysis.Primary(),
		Confidence: analysis.Intents[0].Confidence,
		Duration:   time.Since(analysisStart),
	}}

	complex := analysis.Complexity > complexityThreshold ||
		len(analysis.Intents) > 1 ||
		reqOpts.MultiStep

	var (
		result *core.ReasoningResult
		err    error
	)
	if complex {
		result = e.processComplex(ctx, sess, msg, analysis, steps)
	} else {
		result, err = e.processSimple(ctx, sess, msg, analysis, steps)
		if err != nil {
			return nil, err
		}
	}

	result.ProcessingTime = time.Since(start)
	if msg.ID != "" {
		e.cache.put(sess.ID, msg.ID, result)
	}
	return result, nil
}

// processSimple runs selection and a single generation.
func (e *Engine) processSimple(ctx context.Context, sess *core.Session, msg core.Message, analysis Analysis, steps []core.ReasoningStep) (*core.ReasoningResult, error) {
	selStart := time.Now()
	agent, err := e.agents.SelectBestAgent(sess.Type, msg.Content, analysis.Primary())
	if err != nil {
		return nil, err
	}
	steps = append(steps, core.ReasoningStep{
		ID:          core.NewID(),
		Type:        core.StepAgentSelection,
		Description: fmt.Sprintf("selected %s (%s)", agent.Name, agent.Role),
		Output:      string(agent.Role),
		Confidence:  0.9,
		Duration:    time.Since(selStart),
	})

	genStart := time.Now()
	resp := e.agents.ProcessWithAgent(ctx, agent, sess, msg.Content)
	steps = append(steps, core.ReasoningStep{
		ID:          core.NewID(),
		Type:        core.StepGeneration,
		Description: fmt.Sprintf("generated response with %s", agent.Model),
		Confidence:  resp.Confidence,
		Duration:    time.Since(genStart),
	})

	confidence := 1.0
	for _, s := range steps {
		confidence *= s.Confidence
	}

	return &core.ReasoningResult{
		Success:    !resp.Degraded,
		Confidence: clamp01(confidence),
		Reasoning:  fmt.Sprintf("simple request routed to %s", agent.Role),
		Response:   resp.Content,
		Steps:      steps,
		AgentID:    agent.ID,
		AgentRole:  agent.Role,
		Metadata: map[string]any{
			"domain":     analysis.Domain,
			"complexity": analysis.Complexity,
			"tokens":     resp.Tokens,
			"cost":       resp.Cost,
			"degraded":   resp.Degraded,
		},
	}, nil
}

// processComplex runs the decomposition pipeline. Subtask failures never
// abort the run: the failed task is recorded with zero confidence, the
// overall confidence takes a 0.5 penalty factor, and execution continues.
func (e *Engine) processComplex(ctx context.Context, sess *core.Session, msg core.Message, analysis Analysis, steps []core.ReasoningStep) *core.ReasoningResult {
	decompStart := time.Now()
	tasks := Decompose(analysis)
	steps = append(steps, core.ReasoningStep{
		ID:          core.NewID(),
		Type:        core.StepDecomposition,
		Description: fmt.Sprintf("decomposed request into %d subtasks", len(tasks)),
		Confidence:  0.85,
		Duration:    time.Since(decompStart),
	})

	steps = append(steps, core.ReasoningStep{
		ID:          core.NewID(),
		Type:        core.StepDependencyAnalysis,
		Description: fmt.Sprintf("linear dependency chain across %d subtasks", len(tasks)),
		Confidence:  0.9,
	})

	steps = append(steps, core.ReasoningStep{
		ID:          core.NewID(),
		Type:        core.StepPlanning,
		Description: "sequential execution in dependency order",
		Confidence:  0.85,
	})

	confidence := 1.0
	var outputs []string
	for i := range tasks {
		task := &tasks[i]
		execStart := time.Now()
		resp := e.executeSubTask(ctx, sess, msg, task)

		if resp.Degraded {
			task.Status = core.SubTaskFailed
			task.Confidence = 0
			confidence *= 0.5
			e.logger.Warn("subtask failed", "session_id", sess.ID, "description", task.Description)
		} else {
			task.Status = core.SubTaskCompleted
			task.Result = resp.Content
			task.Confidence = resp.Confidence
			confidence *= resp.Confidence
			outputs = append(outputs, resp.Content)
		}
		steps = append(steps, core.ReasoningStep{
			ID:          core.NewID(),
			Type:        core.StepExecution,
			Description: task.Description,
			Output:      task.Status,
			Confidence:  task.Confidence,
			Duration:    time.Since(execStart),
		})
	}

	succeeded := len(outputs)
	synthesisConfidence := 0.0
	if len(tasks) > 0 {
		synthesisConfidence = float64(succeeded) / float64(len(tasks))
	}
	response := strings.Join(outputs, "\n\n")
	if succeeded == 0 {
		response = "The request could not be completed; every step of the plan failed. Please try again."
	}
	steps = append(steps, core.ReasoningStep{
		ID:          core.NewID(),
		Type:        core.StepSynthesis,
		Description: fmt.Sprintf("combined %d of %d subtask results", succeeded, len(tasks)),
		Confidence:  synthesisConfidence,
	})

	recommendations := e.recommend(analysis, clamp01(confidence))
	steps = append(steps, core.ReasoningStep{
		ID:          core.NewID(),
		Type:        core.StepRecommendation,
		Description: fmt.Sprintf("produced %d recommendation(s)", len(recommendations)),
		Confidence:  0.8,
	})

	return &core.ReasoningResult{
		Success:         succeeded > 0,
		Confidence:      clamp01(confidence),
		Reasoning:       fmt.Sprintf("complex request decomposed into %d subtasks, %d succeeded", len(tasks), succeeded),
		Response:        response,
		Steps:           steps,
		SubTasks:        tasks,
		Recommendations: recommendations,
		Metadata: map[string]any{
			"domain":     analysis.Domain,
			"complexity": analysis.Complexity,
			"intents":    len(analysis.Intents),
		},
	}
}

// executeSubTask runs one subtask through a counted agent selection, so the
// registry's interaction counters advance once per generation.
func (e *Engine) executeSubTask(ctx context.Context, sess *core.Session, msg core.Message, task *core.SubTask) agentmgr.AgentResponse {
	agent, err := e.agents.SelectBestAgent(sess.Type, task.Description, task.Intent)
	if err != nil {
		// Selection fails only on a broken catalog; treat as a failed task.
		return agentmgr.AgentResponse{Degraded: true}
	}
	task.AgentRole = agent.Role
	prompt := fmt.Sprintf("%s\n\nOriginal request: %s", task.Description, msg.Content)
	return e.agents.ProcessWithAgent(ctx, agent, sess, prompt)
}

// recommend applies the rule table to the finished run.
func (e *Engine) recommend(analysis Analysis, confidence float64) []string {
	var out []string
	if analysis.Complexity > 0.8 {
		out = append(out, "Consider splitting this request into smaller separate requests.")
	}
	if analysis.Domain == "automation" {
		out = append(out, "This process could become a reusable workflow; consider saving it.")
	}
	if confidence < 0.4 {
		out = append(out, "Confidence in this result is low; please review it or rephrase the request.")
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
