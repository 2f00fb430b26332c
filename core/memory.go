package core

import "time"

// Pattern is a recurring behavior detected in a user's conversation history
// (temporal, content or intent based). Immutable once created.
type Pattern struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"` // temporal, content, intent
	Description string    `json:"description"`
	Confidence  float64   `json:"confidence"` // in [0,1]
	Occurrences int       `json:"occurrences"`
	DetectedAt  time.Time `json:"detected_at"`
}

// Preference is a learned user preference (communication style, response
// format, topical interest). Immutable once created.
type Preference struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"` // communication_style, format, interest
	Value       string    `json:"value"`
	Confidence  float64   `json:"confidence"` // in [0,1]
	ExtractedAt time.Time `json:"extracted_at"`
}

// Knowledge is a stored fact or snippet usable for retrieval-augmented
// prompting. Entries are never mutated after insertion.
type Knowledge struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Tags       []string  `json:"tags,omitempty"`
	Confidence float64   `json:"confidence"` // in [0,1]
	CreatedAt  time.Time `json:"created_at"`
}

// ConversationSummary condenses a window of messages into a searchable
// record with sentiment and importance scores. Immutable once created.
type ConversationSummary struct {
	ID           string    `json:"id"`
	Summary      string    `json:"summary"`
	KeyTopics    []string  `json:"key_topics,omitempty"`
	Sentiment    float64   `json:"sentiment"`  // in [-1,1]
	Importance   float64   `json:"importance"` // in [0,1]
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// LongTermMemory groups the four append-only logs consolidated from
// conversation history. Entries are appended by the context manager's
// best-effort processing and never rewritten.
type LongTermMemory struct {
	UserPatterns          []Pattern             `json:"user_patterns,omitempty"`
	LearnedPreferences    []Preference          `json:"learned_preferences,omitempty"`
	ConversationSummaries []ConversationSummary `json:"conversation_summaries,omitempty"`
	KnowledgeBase         []Knowledge           `json:"knowledge_base,omitempty"`
}

// Memory is a session's two-tier memory: a short-term scratch map plus the
// consolidated long-term logs.
type Memory struct {
	ShortTerm map[string]any `json:"short_term,omitempty"`
	LongTerm  LongTermMemory `json:"long_term"`
}

// NewMemory returns an empty memory with an initialized scratch map.
func NewMemory() Memory {
	return Memory{ShortTerm: map[string]any{}}
}

// Clone returns a deep copy of the memory safe for independent mutation.
func (m Memory) Clone() Memory {
	c := Memory{ShortTerm: make(map[string]any, len(m.ShortTerm))}
	for k, v := range m.ShortTerm {
		c.ShortTerm[k] = v
	}
	c.LongTerm = LongTermMemory{
		UserPatterns:          append([]Pattern(nil), m.LongTerm.UserPatterns...),
		LearnedPreferences:    append([]Preference(nil), m.LongTerm.LearnedPreferences...),
		ConversationSummaries: append([]ConversationSummary(nil), m.LongTerm.ConversationSummaries...),
		KnowledgeBase:         append([]Knowledge(nil), m.LongTerm.KnowledgeBase...),
	}
	return c
}
