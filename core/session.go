package core

import "time"

// SessionType labels the interaction channel a session is bound to. The
// agent selector treats "terminal" sessions specially.
type SessionType string

// Known session types. Arbitrary values are accepted; these are the ones the
// selector and catalog are aware of.
const (
	SessionTypeChat     SessionType = "chat"
	SessionTypeTerminal SessionType = "terminal"
	SessionTypeWorkflow SessionType = "workflow"
)

// Context is the working conversational state of a session: the ordered
// message history, the most recent classified intent, accumulated entities
// (append-only) and merged user preferences.
type Context struct {
	Messages        []Message         `json:"messages"`
	CurrentIntent   string            `json:"current_intent,omitempty"`
	Entities        []Entity          `json:"entities,omitempty"`
	UserPreferences map[string]string `json:"user_preferences,omitempty"`
	Metadata        map[string]any    `json:"metadata,omitempty"`
}

// Session is a bounded conversational container scoped to one user and
// channel. It is exclusively owned by the context manager: all mutations go
// through it, serialized per session id. Instances handed out by stores are
// clones, so callers never share mutable state.
type Session struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Type      SessionType `json:"type"`
	Context   Context     `json:"context"`
	Memory    Memory      `json:"memory"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NewSession creates an active session with a fresh id and empty context.
func NewSession(userID string, sessionType SessionType) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:     NewID(),
		UserID: userID,
		Type:   sessionType,
		Context: Context{
			Messages:        []Message{},
			UserPreferences: map[string]string{},
			Metadata:        map[string]any{},
		},
		Memory:    NewMemory(),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch advances UpdatedAt, keeping it monotonically non-decreasing even
// when the wall clock steps backwards.
func (s *Session) Touch() {
	now := time.Now().UTC()
	if now.After(s.UpdatedAt) {
		s.UpdatedAt = now
	} else {
		s.UpdatedAt = s.UpdatedAt.Add(time.Nanosecond)
	}
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Context.Messages = append([]Message(nil), s.Context.Messages...)
	clone.Context.Entities = append([]Entity(nil), s.Context.Entities...)
	clone.Context.UserPreferences = make(map[string]string, len(s.Context.UserPreferences))
	for k, v := range s.Context.UserPreferences {
		clone.Context.UserPreferences[k] = v
	}
	clone.Context.Metadata = make(map[string]any, len(s.Context.Metadata))
	for k, v := range s.Context.Metadata {
		clone.Context.Metadata[k] = v
	}
	clone.Memory = s.Memory.Clone()
	return &clone
}

// History returns a defensive copy of the message history.
func (s *Session) History() []Message {
	msgs := make([]Message, len(s.Context.Messages))
	copy(msgs, s.Context.Messages)
	return msgs
}

// LastMessages returns up to n most recent messages in chronological order.
func (s *Session) LastMessages(n int) []Message {
	msgs := s.Context.Messages
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
