package contextmgr

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/convosuite/mcpcore/core"
)

var (
	formalWords = []string{
		"please", "kindly", "regards", "sincerely", "would", "could",
		"por favor", "cordialmente", "atentamente", "usted", "quisiera",
	}
	casualWords = []string{
		"hey", "yeah", "cool", "thanks", "thx", "lol", "ok",
		"hola", "vale", "genial", "gracias", "guay",
	}

	listMarkerPattern = regexp.MustCompile(`(?m)^\s*([-*•]|\d+[.)])\s+`)
)

// extractPreferences derives communication style, format and topical
// interest preferences from one user message, appending them to the
// long-term log and merging them into the context's preference map.
func (m *Manager) extractPreferences(sess *core.Session, msg core.Message) {
	if msg.Role != core.RoleUser {
		return
	}

	var prefs []core.Preference
	if p, ok := stylePreference(msg.Content); ok {
		prefs = append(prefs, p)
	}
	prefs = append(prefs, formatPreferences(msg.Content)...)
	prefs = append(prefs, interestPreferences(msg.Content)...)

	for _, p := range prefs {
		sess.Memory.LongTerm.LearnedPreferences = append(sess.Memory.LongTerm.LearnedPreferences, p)
		sess.Context.UserPreferences[p.Category] = p.Value
	}
}

// stylePreference scores the message against formal and casual word lists.
// Confidence is the winning side's share of the total matches.
func stylePreference(content string) (core.Preference, bool) {
	lower := strings.ToLower(content)
	formal, casual := 0, 0
	for _, w := range formalWords {
		if strings.Contains(lower, w) {
			formal++
		}
	}
	for _, w := range casualWords {
		if strings.Contains(lower, w) {
			casual++
		}
	}
	total := formal + casual
	if total == 0 || formal == casual {
		return core.Preference{}, false
	}

	value, matches := "formal", formal
	if casual > formal {
		value, matches = "casual", casual
	}
	return core.Preference{
		ID:          core.NewID(),
		Category:    "communication_style",
		Value:       value,
		Confidence:  float64(matches) / float64(total),
		ExtractedAt: time.Now().UTC(),
	}, true
}

// formatPreferences inspects structure and length: list markers suggest a
// preference for lists, very long messages for detailed answers, very short
// ones for concise answers.
func formatPreferences(content string) []core.Preference {
	var out []core.Preference
	now := time.Now().UTC()
	if listMarkerPattern.MatchString(content) {
		out = append(out, core.Preference{
			ID: core.NewID(), Category: "format", Value: "lists",
			Confidence: 0.8, ExtractedAt: now,
		})
	}
	switch {
	case len(content) > 200:
		out = append(out, core.Preference{
			ID: core.NewID(), Category: "format", Value: "detailed",
			Confidence: 0.7, ExtractedAt: now,
		})
	case len(content) < 50:
		out = append(out, core.Preference{
			ID: core.NewID(), Category: "format", Value: "concise",
			Confidence: 0.7, ExtractedAt: now,
		})
	}
	return out
}

// interestPreferences records each extracted topic as a topical interest.
func interestPreferences(content string) []core.Preference {
	now := time.Now().UTC()
	var out []core.Preference
	for _, topic := range extractTopics(content, 3) {
		out = append(out, core.Preference{
			ID: core.NewID(), Category: "interest", Value: topic,
			Confidence: 0.6, ExtractedAt: now,
		})
	}
	return out
}

// extractTopics returns up to max distinct salient tokens of the text,
// preferring longer tokens.
func extractTopics(content string, max int) []string {
	tokens := contentTokens(content)
	seen := map[string]bool{}
	distinct := tokens[:0]
	for _, tok := range tokens {
		if !seen[tok] {
			seen[tok] = true
			distinct = append(distinct, tok)
		}
	}
	// Longer tokens tend to carry the topic; stable to keep input order on ties.
	sortTokensByLength(distinct)
	if len(distinct) > max {
		distinct = distinct[:max]
	}
	return distinct
}

func sortTokensByLength(tokens []string) {
	sort.SliceStable(tokens, func(i, j int) bool { return len(tokens[i]) > len(tokens[j]) })
}
