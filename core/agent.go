package core

import "time"

// AgentRole is the fixed role enum for the agent catalog. One active agent
// is registered per role.
type AgentRole string

// Catalog roles.
const (
	RoleGeneralAssistant   AgentRole = "general_assistant"
	RoleContentCreator     AgentRole = "content_creator"
	RoleDataAnalyst        AgentRole = "data_analyst"
	RoleCustomerSupport    AgentRole = "customer_support"
	RoleWorkflowAutomation AgentRole = "workflow_automation"
	RoleTechnicalSupport   AgentRole = "technical_support"
)

// Personality governs how an agent's system prompt is rendered.
type Personality struct {
	Tone      string   `json:"tone"`
	Style     string   `json:"style"`
	Expertise []string `json:"expertise,omitempty"`
	Traits    []string `json:"traits,omitempty"`
}

// Performance is a point-in-time snapshot of an agent's shared counters.
// TotalInteractions only increases; SuccessRate stays in [0,1];
// AverageResponseTime is in milliseconds. The live counters are owned by the
// agent registry and updated under per-agent mutual exclusion.
type Performance struct {
	TotalInteractions   int64     `json:"total_interactions"`
	SuccessRate         float64   `json:"success_rate"`
	AverageResponseTime float64   `json:"average_response_time_ms"`
	LastUpdated         time.Time `json:"last_updated"`
}

// Agent is a role-specialized persona configuration. Agents are registered
// once at startup and are immutable afterwards; only their performance
// counters (held by the registry) change.
type Agent struct {
	ID           string      `json:"id"`
	Role         AgentRole   `json:"role"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Capabilities []string    `json:"capabilities,omitempty"`
	Model        string      `json:"model"`
	Personality  Personality `json:"personality"`
}
