package core

import "time"

// Reasoning step types, emitted in the order the engine performs them.
const (
	StepAnalysis           = "analysis"
	StepAgentSelection     = "agent_selection"
	StepGeneration         = "generation"
	StepDecomposition      = "decomposition"
	StepDependencyAnalysis = "dependency_analysis"
	StepPlanning           = "planning"
	StepExecution          = "execution"
	StepSynthesis          = "synthesis"
	StepRecommendation     = "recommendation"
)

// ReasoningStep records one unit of the engine's work on a request.
type ReasoningStep struct {
	ID          string        `json:"id"`
	Type        string        `json:"type"`
	Description string        `json:"description"`
	Output      string        `json:"output,omitempty"`
	Confidence  float64       `json:"confidence"` // in [0,1]
	Duration    time.Duration `json:"duration"`
}

// SubTask statuses.
const (
	SubTaskPending   = "pending"
	SubTaskCompleted = "completed"
	SubTaskFailed    = "failed"
)

// SubTask is one ordered unit of a decomposed multi-step plan. DependsOn
// names the immediate predecessor; the dependency graph is strictly a linear
// chain.
type SubTask struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Intent      string    `json:"intent"`
	AgentRole   AgentRole `json:"agent_role"`
	DependsOn   string    `json:"depends_on,omitempty"`
	Status      string    `json:"status"`
	Result      string    `json:"result,omitempty"`
	Confidence  float64   `json:"confidence"` // in [0,1]
}

// ReasoningResult is the outcome of processing one request, simple or
// decomposed. Confidence of a complex run is the product of per-subtask
// confidences (failures contribute a 0.5 penalty factor).
type ReasoningResult struct {
	Success         bool            `json:"success"`
	Confidence      float64         `json:"confidence"` // in [0,1]
	Reasoning       string          `json:"reasoning"`
	Response        string          `json:"response"`
	Steps           []ReasoningStep `json:"steps"`
	SubTasks        []SubTask       `json:"sub_tasks,omitempty"`
	Recommendations []string        `json:"recommendations,omitempty"`
	ProcessingTime  time.Duration   `json:"processing_time"`
	AgentID         string          `json:"agent_id,omitempty"`
	AgentRole       AgentRole       `json:"agent_role,omitempty"`
	Error           string          `json:"error,omitempty"`
	Metadata        map[string]any  `json:"metadata,omitempty"`
}
