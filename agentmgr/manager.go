package agentmgr

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/convosuite/mcpcore/core"
	"github.com/convosuite/mcpcore/logging"
	"github.com/convosuite/mcpcore/model"
)

// selectionCategories is the fixed-priority keyword table driving agent
// selection. The first category with a keyword hit wins; order matters.
var selectionCategories = []struct {
	role     core.AgentRole
	keywords []string
}{
	{core.RoleContentCreator, []string{
		"write", "draft", "article", "blog", "post", "copy", "content",
		"escribir", "redactar", "crear", "artículo", "articulo", "contenido", "publicación",
	}},
	{core.RoleDataAnalyst, []string{
		"analyze", "analysis", "data", "metric", "statistic", "chart", "report",
		"analizar", "análisis", "analisis", "datos", "métrica", "metrica", "estadística", "informe",
	}},
	{core.RoleCustomerSupport, []string{
		"help", "issue", "problem", "refund", "complaint", "billing", "account",
		"ayuda", "problema", "reembolso", "queja", "factura", "cuenta", "soporte",
	}},
	{core.RoleWorkflowAutomation, []string{
		"automate", "automation", "workflow", "schedule", "integrate", "pipeline",
		"automatizar", "automatización", "flujo", "programar", "integrar",
	}},
	{core.RoleTechnicalSupport, []string{
		"terminal", "command", "shell", "install", "debug", "stack trace",
		"comando", "instalar", "consola", "depurar",
	}},
}

// intentRoles maps a caller-provided intent to a role when no keyword
// category matched.
var intentRoles = map[string]core.AgentRole{
	"content_creation":  core.RoleContentCreator,
	"data_analysis":     core.RoleDataAnalyst,
	"customer_support":  core.RoleCustomerSupport,
	"automation":        core.RoleWorkflowAutomation,
	"technical_support": core.RoleTechnicalSupport,
}

// agentState pairs an immutable agent with its live performance counters.
// TotalInteractions is bumped atomically on selection; the rate and timing
// math runs under the mutex.
type agentState struct {
	agent core.Agent

	total atomic.Int64

	mu          sync.Mutex
	successRate float64
	avgResponse float64 // milliseconds
	lastUpdated time.Time
}

func (s *agentState) snapshot() core.Performance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Performance{
		TotalInteractions:   s.total.Load(),
		SuccessRate:         s.successRate,
		AverageResponseTime: s.avgResponse,
		LastUpdated:         s.lastUpdated,
	}
}

// Options configures a Manager.
type Options struct {
	// Agents is the catalog to register; defaults to DefaultCatalog.
	Agents []core.Agent
	// Model performs generation for every agent; defaults to a MockModel.
	Model  model.Model
	Logger logging.Logger
}

// Manager is the agent registry. The catalog is fixed after construction;
// all methods are safe for concurrent use.
type Manager struct {
	agents map[core.AgentRole]*agentState
	model  model.Model
	logger logging.Logger
}

// NewManager registers the catalog and validates it. A catalog without a
// general assistant is a fatal configuration error.
func NewManager(optFns ...func(o *Options)) (*Manager, error) {
	opts := Options{
		Model:  model.NewMockModel("mock-default", "mock"),
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Agents == nil {
		opts.Agents = DefaultCatalog(opts.Model.Info().Name)
	}

	agents := make(map[core.AgentRole]*agentState, len(opts.Agents))
	for _, a := range opts.Agents {
		if a.Role == "" {
			return nil, core.Configurationf("agent %q has no role", a.ID)
		}
		if _, dup := agents[a.Role]; dup {
			return nil, core.Configurationf("duplicate agent for role %q", a.Role)
		}
		agents[a.Role] = &agentState{agent: a, successRate: 1, lastUpdated: time.Now().UTC()}
	}
	if _, ok := agents[core.RoleGeneralAssistant]; !ok {
		return nil, core.Configurationf("catalog is missing the %s role", core.RoleGeneralAssistant)
	}

	return &Manager{agents: agents, model: opts.Model, logger: opts.Logger}, nil
}

// GetAgent returns the agent registered for the role.
func (m *Manager) GetAgent(role core.AgentRole) (core.Agent, error) {
	s, ok := m.agents[role]
	if !ok {
		return core.Agent{}, core.NotFoundf("no agent for role %q", role)
	}
	return s.agent, nil
}

// GetActiveAgents returns the full catalog.
func (m *Manager) GetActiveAgents() []core.Agent {
	out := make([]core.Agent, 0, len(m.agents))
	for _, s := range m.agents {
		out = append(out, s.agent)
	}
	return out
}

// GetPerformanceMetrics returns a snapshot of the role's counters.
func (m *Manager) GetPerformanceMetrics(role core.AgentRole) (core.Performance, error) {
	s, ok := m.agents[role]
	if !ok {
		return core.Performance{}, core.NotFoundf("no agent for role %q", role)
	}
	return s.snapshot(), nil
}

// SelectBestAgent picks the agent for a message: keyword categories in fixed
// priority order, then the intent table, then the general assistant. The
// selected agent's interaction counter is incremented. Selection only fails
// when the resolved role is unregistered, which for the final fallback means
// a broken catalog.
func (m *Manager) SelectBestAgent(sessionType core.SessionType, message, intent string) (core.Agent, error) {
	role := m.resolveRole(sessionType, message, intent)
	s, ok := m.agents[role]
	if !ok {
		// Role matched by keywords or intent but not registered: degrade to
		// the general assistant rather than failing the request.
		s, ok = m.agents[core.RoleGeneralAssistant]
		if !ok {
			return core.Agent{}, core.Configurationf("no agent for role %q and no general assistant", role)
		}
	}
	s.total.Inc()
	m.logger.Debug("agent selected", "role", string(s.agent.Role), "intent", intent)
	return s.agent, nil
}

func (m *Manager) resolveRole(sessionType core.SessionType, message, intent string) core.AgentRole {
	lower := strings.ToLower(message)
	for _, cat := range selectionCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				return cat.role
			}
		}
	}
	// Terminal sessions are the last category: an explicit keyword match
	// above wins even inside a terminal session.
	if sessionType == core.SessionTypeTerminal {
		return core.RoleTechnicalSupport
	}
	if role, ok := intentRoles[intent]; ok {
		return role
	}
	return core.RoleGeneralAssistant
}

// AgentResponse is the contained outcome of one generation call. Degraded
// responses are still well formed; Degraded marks them.
type AgentResponse struct {
	Content      string        `json:"content"`
	Model        string        `json:"model"`
	AgentID      string        `json:"agent_id"`
	Confidence   float64       `json:"confidence"`
	Tokens       int           `json:"tokens"`
	Cost         float64       `json:"cost"`
	FinishReason string        `json:"finish_reason"`
	Degraded     bool          `json:"degraded,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// ProcessWithAgent generates a reply for the message using the agent's
// persona and the session snapshot. It never returns an error: model
// failures yield a degraded response and a recorded failure. The session is
// a snapshot; no lock is held across the model call.
func (m *Manager) ProcessWithAgent(ctx context.Context, agent core.Agent, sess *core.Session, message string) AgentResponse {
	start := time.Now()
	req := m.buildRequest(agent, sess, message, false)

	respCh, errCh := m.model.Generate(ctx, req)
	resp, err := model.Collect(respCh, errCh)
	elapsed := time.Since(start)

	if err != nil {
		m.recordFailure(agent.Role)
		m.logger.Warn("generation failed, degrading", "agent_id", agent.ID, "error", err)
		return m.degradedResponse(agent, elapsed)
	}

	m.recordSuccess(agent.Role, elapsed)
	out := AgentResponse{
		Content:      resp.Content,
		Model:        agent.Model,
		AgentID:      agent.ID,
		Confidence:   0.9,
		FinishReason: resp.FinishReason,
		Cost:         resp.Cost,
		Duration:     elapsed,
	}
	if resp.Usage != nil {
		out.Tokens = resp.Usage.TotalTokens
	}
	return out
}

// ProcessWithAgentStream is the streaming variant. Chunks are forwarded on
// the first channel as the model emits them; the final AgentResponse arrives
// on the second channel and contains exactly the content flushed to the
// caller. Cancellation stops delivery and finishes the response with reason
// "cancelled"; whatever was flushed before cancellation is what gets
// committed.
func (m *Manager) ProcessWithAgentStream(ctx context.Context, agent core.Agent, sess *core.Session, message string) (<-chan model.Response, <-chan AgentResponse) {
	chunks := make(chan model.Response)
	final := make(chan AgentResponse, 1)

	go func() {
		defer close(chunks)
		defer close(final)
		start := time.Now()

		req := m.buildRequest(agent, sess, message, true)
		respCh, errCh := m.model.Generate(ctx, req)

		var flushed strings.Builder
		out := AgentResponse{
			Model:      agent.Model,
			AgentID:    agent.ID,
			Confidence: 0.9,
		}

		finish := func(reason string, degraded bool) {
			out.Content = flushed.String()
			out.FinishReason = reason
			out.Degraded = degraded
			out.Duration = time.Since(start)
			if degraded {
				m.recordFailure(agent.Role)
			} else {
				m.recordSuccess(agent.Role, out.Duration)
			}
			final <- out
		}

		for {
			select {
			case <-ctx.Done():
				finish("cancelled", false)
				return
			case err, ok := <-errCh:
				if !ok {
					errCh = nil
					continue
				}
				m.logger.Warn("stream generation failed, degrading", "agent_id", agent.ID, "error", err)
				if flushed.Len() == 0 {
					flushed.WriteString(m.degradedContent(agent))
				}
				finish("error", true)
				return
			case resp, ok := <-respCh:
				if !ok {
					// The producer closes both channels together; check for
					// a terminal error before treating this as completion.
					var err error
					if errCh != nil {
						err = <-errCh
					}
					if err != nil {
						m.logger.Warn("stream generation failed, degrading", "agent_id", agent.ID, "error", err)
						if flushed.Len() == 0 {
							flushed.WriteString(m.degradedContent(agent))
						}
						finish("error", true)
						return
					}
					finish("stop", false)
					return
				}
				if resp.Partial {
					select {
					case chunks <- resp:
						flushed.WriteString(resp.Content)
					case <-ctx.Done():
						finish("cancelled", false)
						return
					}
					continue
				}
				// Terminal chunk: adopt accounting, prefer the accumulated
				// flushed prefix when chunks were delivered.
				if flushed.Len() == 0 {
					flushed.WriteString(resp.Content)
				}
				if resp.Usage != nil {
					out.Tokens = resp.Usage.TotalTokens
				}
				out.Cost = resp.Cost
				reason := resp.FinishReason
				if reason == "" {
					reason = "stop"
				}
				finish(reason, false)
				return
			}
		}
	}()

	return chunks, final
}

func (m *Manager) buildRequest(agent core.Agent, sess *core.Session, message string, stream bool) model.Request {
	return model.Request{
		Model:        agent.Model,
		SystemPrompt: systemPrompt(agent, sess),
		Prompt:       contextualPrompt(sess, message),
		Temperature:  temperatureFor(agent.Role),
		MaxTokens:    1024,
		Stream:       stream,
	}
}

func (m *Manager) degradedResponse(agent core.Agent, elapsed time.Duration) AgentResponse {
	return AgentResponse{
		Content:      m.degradedContent(agent),
		Model:        agent.Model,
		AgentID:      agent.ID,
		Confidence:   0.1,
		FinishReason: "error",
		Degraded:     true,
		Duration:     elapsed,
	}
}

func (m *Manager) degradedContent(agent core.Agent) string {
	return fmt.Sprintf("I am %s and I could not complete that request right now. Please try again in a moment.", agent.Name)
}

// recordSuccess folds one successful interaction into the counters:
// rate moves toward 1 weighted by the interaction count, the response time
// keeps a rolling average of the previous value and the new sample.
func (m *Manager) recordSuccess(role core.AgentRole, elapsed time.Duration) {
	s, ok := m.agents[role]
	if !ok {
		return
	}
	n := s.total.Load()
	if n == 0 {
		n = s.total.Inc()
	}
	ms := float64(elapsed.Milliseconds())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.successRate = (s.successRate*float64(n-1) + 1) / float64(n)
	if s.avgResponse == 0 {
		s.avgResponse = ms
	} else {
		s.avgResponse = (s.avgResponse + ms) / 2
	}
	s.lastUpdated = time.Now().UTC()
}

func (m *Manager) recordFailure(role core.AgentRole) {
	s, ok := m.agents[role]
	if !ok {
		return
	}
	n := s.total.Load()
	if n == 0 {
		n = s.total.Inc()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.successRate = s.successRate * float64(n-1) / float64(n)
	s.lastUpdated = time.Now().UTC()
}
