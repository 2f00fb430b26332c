package core

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the conversational author of a message.
type Role string

// Conversation roles. Only these three are accepted by the context manager.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether the role is one of the accepted conversation roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant || r == RoleSystem
}

// EntityType classifies a structured span extracted from message text.
type EntityType string

// Entity types recognized by the request analyzer.
const (
	EntityEmail  EntityType = "email"
	EntityURL    EntityType = "url"
	EntityNumber EntityType = "number"
	EntityDate   EntityType = "date"
	EntityTime   EntityType = "time"
)

// Entity is a structured span extracted from text. Entities accumulate on a
// session's context and are append-only.
type Entity struct {
	Type  EntityType `json:"type"`
	Value string     `json:"value"`
}

// MessageMetadata carries the optional, typed annotations attached to a
// message: which model and agent produced it, what it cost, and how the
// analyzer classified it. A nil pointer means no annotations.
type MessageMetadata struct {
	Model      string   `json:"model,omitempty"`
	AgentID    string   `json:"agent_id,omitempty"`
	Cost       float64  `json:"cost,omitempty"`
	Tokens     int      `json:"tokens,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
	Intent     string   `json:"intent,omitempty"`
	Entities   []Entity `json:"entities,omitempty"`
	Degraded   bool     `json:"degraded,omitempty"`
}

// Message is one ordered element of a session's conversation history. After
// appending it should be treated as immutable.
type Message struct {
	ID        string           `json:"id"`
	Role      Role             `json:"role"`
	Content   string           `json:"content"`
	Timestamp time.Time        `json:"timestamp"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

// NewMessage constructs a message with a fresh id and UTC timestamp.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        NewID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewID generates a new unique identifier for sessions, messages, patterns
// and reasoning artifacts.
func NewID() string { return uuid.NewString() }
