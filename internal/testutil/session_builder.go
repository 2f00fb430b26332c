package testutil

import (
	"github.com/convosuite/mcpcore/core"
)

// SessionBuilder helps construct sessions with fluent chaining for tests.
// Example:
//
//	sess := NewSessionBuilder("user-1").User("hi").Assistant("hello").Build()
type SessionBuilder struct {
	userID      string
	sessionType core.SessionType
	messages    []core.Message
	preferences map[string]string
	knowledge   []core.Knowledge
}

// NewSessionBuilder creates a new builder for a session owned by userID.
// Use chainable methods then call Build.
func NewSessionBuilder(userID string) *SessionBuilder {
	return &SessionBuilder{
		userID:      userID,
		sessionType: core.SessionTypeChat,
		preferences: map[string]string{},
	}
}

// Type sets the session type (chainable).
func (b *SessionBuilder) Type(t core.SessionType) *SessionBuilder {
	b.sessionType = t
	return b
}

// User appends a user message (chainable).
func (b *SessionBuilder) User(content string) *SessionBuilder {
	b.messages = append(b.messages, core.NewMessage(core.RoleUser, content))
	return b
}

// Assistant appends an assistant message (chainable).
func (b *SessionBuilder) Assistant(content string) *SessionBuilder {
	b.messages = append(b.messages, core.NewMessage(core.RoleAssistant, content))
	return b
}

// Message appends an arbitrary message (chainable).
func (b *SessionBuilder) Message(msg core.Message) *SessionBuilder {
	b.messages = append(b.messages, msg)
	return b
}

// Preference sets a user preference (chainable).
func (b *SessionBuilder) Preference(category, value string) *SessionBuilder {
	b.preferences[category] = value
	return b
}

// Knowledge appends a long-term knowledge entry (chainable).
func (b *SessionBuilder) Knowledge(title, content string) *SessionBuilder {
	b.knowledge = append(b.knowledge, core.Knowledge{
		ID:      core.NewID(),
		Title:   title,
		Content: content,
	})
	return b
}

// Build returns a *core.Session with the accumulated history, preferences
// and knowledge.
func (b *SessionBuilder) Build() *core.Session {
	s := core.NewSession(b.userID, b.sessionType)
	s.Context.Messages = append(s.Context.Messages, b.messages...)
	for k, v := range b.preferences {
		s.Context.UserPreferences[k] = v
	}
	s.Memory.LongTerm.KnowledgeBase = append(s.Memory.LongTerm.KnowledgeBase, b.knowledge...)
	return s
}
