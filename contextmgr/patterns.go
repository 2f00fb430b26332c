package contextmgr

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/convosuite/mcpcore/core"
)

// Window of recent messages inspected for recurring content topics.
const contentPatternWindow = 10

var stopwords = map[string]bool{
	// English
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "to": true,
	"of": true, "in": true, "on": true, "for": true, "with": true, "at": true,
	"it": true, "this": true, "that": true, "i": true, "you": true, "my": true,
	"me": true, "we": true, "do": true, "can": true, "not": true, "no": true,
	"what": true, "how": true, "want": true, "need": true, "please": true,
	// Spanish
	"el": true, "la": true, "los": true, "las": true, "un": true, "una": true,
	"y": true, "o": true, "pero": true, "es": true, "son": true, "de": true,
	"en": true, "por": true, "para": true, "con": true, "que": true, "se": true,
	"su": true, "mi": true, "yo": true, "tu": true, "lo": true, "al": true,
	"del": true, "como": true, "más": true, "quiero": true, "sobre": true,
}

// detectPatterns appends newly observed temporal, content and intent
// patterns to the session's long-term memory. Already recorded patterns
// (same type and description) are skipped, keeping the log append-only
// without unbounded duplication.
func (m *Manager) detectPatterns(sess *core.Session) {
	existing := map[string]bool{}
	for _, p := range sess.Memory.LongTerm.UserPatterns {
		existing[p.Type+"|"+p.Description] = true
	}

	var found []core.Pattern
	found = append(found, temporalPatterns(sess.Context.Messages)...)
	found = append(found, contentPatterns(sess.Context.Messages)...)
	found = append(found, intentPatterns(sess.Context.Messages)...)

	for _, p := range found {
		key := p.Type + "|" + p.Description
		if existing[key] {
			continue
		}
		existing[key] = true
		sess.Memory.LongTerm.UserPatterns = append(sess.Memory.LongTerm.UserPatterns, p)
	}
}

// temporalPatterns reports the top-3 busiest hours by message count.
func temporalPatterns(msgs []core.Message) []core.Pattern {
	counts := map[int]int{}
	for _, msg := range msgs {
		counts[msg.Timestamp.Hour()]++
	}
	type hourCount struct{ hour, count int }
	ranked := make([]hourCount, 0, len(counts))
	for h, c := range counts {
		ranked = append(ranked, hourCount{h, c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].hour < ranked[j].hour
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	out := make([]core.Pattern, 0, len(ranked))
	for _, hc := range ranked {
		out = append(out, core.Pattern{
			ID:          core.NewID(),
			Type:        "temporal",
			Description: fmt.Sprintf("active at hour %02d", hc.hour),
			Confidence:  clamp01(float64(hc.count) / float64(total)),
			Occurrences: hc.count,
			DetectedAt:  time.Now().UTC(),
		})
	}
	return out
}

// contentPatterns finds topics recurring at least twice among the last
// contentPatternWindow messages using stopword-filtered tokenization.
func contentPatterns(msgs []core.Message) []core.Pattern {
	if len(msgs) > contentPatternWindow {
		msgs = msgs[len(msgs)-contentPatternWindow:]
	}
	counts := map[string]int{}
	for _, msg := range msgs {
		if msg.Role != core.RoleUser {
			continue
		}
		seenInMsg := map[string]bool{}
		for _, tok := range contentTokens(msg.Content) {
			if !seenInMsg[tok] {
				seenInMsg[tok] = true
				counts[tok]++
			}
		}
	}

	topics := make([]string, 0, len(counts))
	for tok, c := range counts {
		if c >= 2 {
			topics = append(topics, tok)
		}
	}
	sort.Strings(topics)

	out := make([]core.Pattern, 0, len(topics))
	for _, topic := range topics {
		out = append(out, core.Pattern{
			ID:          core.NewID(),
			Type:        "content",
			Description: "recurring topic: " + topic,
			Confidence:  clamp01(float64(counts[topic]) / float64(contentPatternWindow)),
			Occurrences: counts[topic],
			DetectedAt:  time.Now().UTC(),
		})
	}
	return out
}

// intentPatterns finds intents repeated at least twice in message metadata.
func intentPatterns(msgs []core.Message) []core.Pattern {
	counts := map[string]int{}
	for _, msg := range msgs {
		if msg.Metadata != nil && msg.Metadata.Intent != "" {
			counts[msg.Metadata.Intent]++
		}
	}
	intents := make([]string, 0, len(counts))
	for intent, c := range counts {
		if c >= 2 {
			intents = append(intents, intent)
		}
	}
	sort.Strings(intents)

	out := make([]core.Pattern, 0, len(intents))
	for _, intent := range intents {
		out = append(out, core.Pattern{
			ID:          core.NewID(),
			Type:        "intent",
			Description: "repeated intent: " + intent,
			Confidence:  clamp01(float64(counts[intent]) / float64(len(msgs))),
			Occurrences: counts[intent],
			DetectedAt:  time.Now().UTC(),
		})
	}
	return out
}

// contentTokens lowercases, splits and stopword-filters message text.
func contentTokens(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && !(r >= 'à' && r <= 'ÿ')
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > 2 && !stopwords[f] {
			out = append(out, f)
		}
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
