package agentmgr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/convosuite/mcpcore/core"
)

const (
	maxKnowledgeSnippets = 3
	maxHistoryTurns      = 5
	maxSnippetLength     = 200
)

// systemPrompt renders the agent's persona plus the user's stored
// preferences into generation instructions.
func systemPrompt(agent core.Agent, sess *core.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, %s.\n", agent.Name, agent.Description)
	fmt.Fprintf(&b, "Tone: %s. Style: %s.\n", agent.Personality.Tone, agent.Personality.Style)
	if len(agent.Personality.Expertise) > 0 {
		fmt.Fprintf(&b, "Expertise: %s.\n", strings.Join(agent.Personality.Expertise, ", "))
	}
	if len(agent.Personality.Traits) > 0 {
		fmt.Fprintf(&b, "Traits: %s.\n", strings.Join(agent.Personality.Traits, ", "))
	}
	if len(agent.Capabilities) > 0 {
		fmt.Fprintf(&b, "Capabilities: %s.\n", strings.Join(agent.Capabilities, ", "))
	}
	if sess != nil && len(sess.Context.UserPreferences) > 0 {
		b.WriteString("User preferences:\n")
		for _, k := range sortedKeys(sess.Context.UserPreferences) {
			fmt.Fprintf(&b, "- %s: %s\n", k, sess.Context.UserPreferences[k])
		}
	}
	return b.String()
}

// contextualPrompt combines up to maxKnowledgeSnippets relevant knowledge
// entries and the last maxHistoryTurns raw turns with the new message.
func contextualPrompt(sess *core.Session, message string) string {
	var b strings.Builder

	if sess != nil {
		if snippets := relevantKnowledge(sess, message, maxKnowledgeSnippets); len(snippets) > 0 {
			b.WriteString("Relevant knowledge:\n")
			for _, s := range snippets {
				fmt.Fprintf(&b, "- %s\n", truncate(s, maxSnippetLength))
			}
			b.WriteString("\n")
		}
		if turns := sess.LastMessages(maxHistoryTurns); len(turns) > 0 {
			b.WriteString("Recent conversation:\n")
			for _, msg := range turns {
				fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "User message: %s", message)
	return b.String()
}

// relevantKnowledge ranks the session's knowledge base by token overlap with
// the message and returns the top entries' content.
func relevantKnowledge(sess *core.Session, message string, limit int) []string {
	base := sess.Memory.LongTerm.KnowledgeBase
	if len(base) == 0 || limit <= 0 {
		return nil
	}
	queryTokens := map[string]bool{}
	for _, tok := range strings.Fields(strings.ToLower(message)) {
		queryTokens[tok] = true
	}

	type scored struct {
		content string
		overlap int
	}
	ranked := make([]scored, 0, len(base))
	for _, k := range base {
		overlap := 0
		for _, tok := range strings.Fields(strings.ToLower(k.Title + " " + k.Content)) {
			if queryTokens[tok] {
				overlap++
			}
		}
		if overlap > 0 {
			ranked = append(ranked, scored{content: k.Content, overlap: overlap})
		}
	}
	// Highest overlap first, stable over insertion order.
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].overlap > ranked[j].overlap })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]string, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.content)
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
