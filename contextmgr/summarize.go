package contextmgr

import (
	"fmt"
	"strings"
	"time"

	"github.com/convosuite/mcpcore/core"
)

var (
	positiveWords = []string{
		"good", "great", "thanks", "perfect", "excellent", "love", "happy",
		"bien", "gracias", "perfecto", "excelente", "genial", "bueno",
	}
	negativeWords = []string{
		"bad", "wrong", "problem", "error", "hate", "angry", "broken", "fail",
		"mal", "fallo", "roto", "enfadado",
	}
)

// summarizeRecent condenses the last SummaryInterval messages into a
// ConversationSummary appended to long-term memory.
func (m *Manager) summarizeRecent(sess *core.Session) {
	window := sess.LastMessages(m.cfg.SummaryInterval)
	if len(window) == 0 {
		return
	}

	userTurns, assistantTurns := 0, 0
	var allText strings.Builder
	totalLen := 0
	hasEntities := false
	for _, msg := range window {
		totalLen += len(msg.Content)
		allText.WriteString(msg.Content)
		allText.WriteString(" ")
		switch msg.Role {
		case core.RoleUser:
			userTurns++
		case core.RoleAssistant:
			assistantTurns++
		}
		if msg.Metadata != nil && len(msg.Metadata.Entities) > 0 {
			hasEntities = true
		}
	}

	topics := extractTopics(allText.String(), 5)

	summary := fmt.Sprintf("%d user and %d assistant messages", userTurns, assistantTurns)
	if len(topics) > 0 {
		summary += " about " + strings.Join(topics, ", ")
	}

	importance := 0.5
	if totalLen/len(window) > 100 {
		importance += 0.2
	}
	if hasEntities {
		importance += 0.3
	}

	sess.Memory.LongTerm.ConversationSummaries = append(sess.Memory.LongTerm.ConversationSummaries, core.ConversationSummary{
		ID:           core.NewID(),
		Summary:      summary,
		KeyTopics:    topics,
		Sentiment:    sentimentScore(allText.String()),
		Importance:   clamp01(importance),
		MessageCount: len(window),
		CreatedAt:    time.Now().UTC(),
	})
}

// sentimentScore returns a word-list based score in [-1,1]: the balance of
// positive vs negative matches.
func sentimentScore(text string) float64 {
	lower := strings.ToLower(text)
	pos, neg := 0, 0
	for _, w := range positiveWords {
		pos += strings.Count(lower, w)
	}
	for _, w := range negativeWords {
		neg += strings.Count(lower, w)
	}
	total := pos + neg
	if total == 0 {
		return 0
	}
	return float64(pos-neg) / float64(total)
}
