package reasoning

import (
	"regexp"
	"sort"
	"strings"

	"github.com/convosuite/mcpcore/core"
)

// Intent is one detected intent with its confidence.
type Intent struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"` // in [0,1]
}

// Analysis is the structured reading of one request.
type Analysis struct {
	Intents    []Intent      `json:"intents"`
	Entities   []core.Entity `json:"entities,omitempty"`
	Complexity float64       `json:"complexity"` // in [0,1]
	Domain     string        `json:"domain"`
}

// Primary returns the highest-confidence intent name, "general" when the
// analysis is empty.
func (a Analysis) Primary() string {
	if len(a.Intents) == 0 {
		return "general"
	}
	return a.Intents[0].Name
}

// intentKeywords drives intent detection. An intent is reported once any of
// its keywords appears; extra hits raise confidence.
var intentKeywords = map[string][]string{
	"content_creation": {
		"write", "draft", "article", "blog", "post", "content",
		"escribir", "redactar", "crear", "artículo", "articulo", "contenido",
	},
	"data_analysis": {
		"analyze", "analysis", "data", "metric", "statistic", "report",
		"analizar", "análisis", "analisis", "datos", "métrica", "informe",
	},
	"customer_support": {
		"help", "issue", "problem", "refund", "complaint", "billing",
		"ayuda", "problema", "reembolso", "queja", "factura", "soporte",
	},
	"automation": {
		"automate", "automation", "workflow", "schedule", "integrate", "pipeline", "optimize",
		"automatizar", "automatización", "flujo", "programar", "integrar", "optimizar",
	},
	"technical_support": {
		"install", "command", "terminal", "debug", "crash", "shell",
		"instalar", "comando", "consola", "depurar",
	},
}

// complexKeywords signal explicitly multi-part requests.
var complexKeywords = []string{
	"and then", "after that", "step by step", "multiple", "several",
	"everything", "complete", "end to end",
	"y luego", "después", "paso a paso", "varios", "todo", "completo",
}

var entityPatterns = []struct {
	typ core.EntityType
	re  *regexp.Regexp
}{
	{core.EntityEmail, regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)},
	{core.EntityURL, regexp.MustCompile(`https?://[^\s]+`)},
	{core.EntityDate, regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b|\b\d{1,2}/\d{1,2}/\d{2,4}\b`)},
	{core.EntityTime, regexp.MustCompile(`\b\d{1,2}:\d{2}(?::\d{2})?\s?(?:am|pm|AM|PM)?\b`)},
	{core.EntityNumber, regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)},
}

// domainKeywords feeds the keyword-overlap argmax for the request domain.
var domainKeywords = map[string][]string{
	"content":    {"article", "blog", "write", "copy", "artículo", "escribir", "contenido"},
	"data":       {"data", "metric", "statistic", "dataset", "datos", "métrica", "análisis"},
	"support":    {"refund", "complaint", "billing", "account", "reembolso", "queja", "factura", "cuenta"},
	"automation": {"workflow", "automate", "pipeline", "schedule", "flujo", "automatizar", "integrar"},
	"technical":  {"install", "command", "terminal", "crash", "instalar", "comando", "consola"},
}

// Analyze extracts intents, entities, a complexity score and a domain from
// the message text.
func Analyze(message string) Analysis {
	lower := strings.ToLower(message)

	intents := detectIntents(lower)
	entities := extractEntities(message)
	complexHits := countComplexKeywords(lower)

	complexity := minf(float64(len(message))/1000, 0.3) +
		minf(float64(len(intents))*0.2, 0.4) +
		minf(float64(len(entities))*0.1, 0.3) +
		minf(float64(complexHits)*0.15, 0.3)

	return Analysis{
		Intents:    intents,
		Entities:   entities,
		Complexity: minf(complexity, 1),
		Domain:     detectDomain(lower),
	}
}

func detectIntents(lower string) []Intent {
	var out []Intent
	for name, keywords := range intentKeywords {
		hits := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		out = append(out, Intent{
			Name:       name,
			Confidence: minf(0.6+0.1*float64(hits-1), 0.95),
		})
	}
	if len(out) == 0 {
		return []Intent{{Name: "general", Confidence: 0.6}}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func extractEntities(message string) []core.Entity {
	var out []core.Entity
	taken := map[string]bool{}
	for _, p := range entityPatterns {
		for _, match := range p.re.FindAllString(message, -1) {
			// A number inside an already captured date or time stays one
			// entity.
			if p.typ == core.EntityNumber && coveredByEarlier(out, match) {
				continue
			}
			key := string(p.typ) + "|" + match
			if taken[key] {
				continue
			}
			taken[key] = true
			out = append(out, core.Entity{Type: p.typ, Value: match})
		}
	}
	return out
}

func coveredByEarlier(entities []core.Entity, value string) bool {
	for _, e := range entities {
		if strings.Contains(e.Value, value) {
			return true
		}
	}
	return false
}

func countComplexKeywords(lower string) int {
	hits := 0
	for _, kw := range complexKeywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	return hits
}

func detectDomain(lower string) string {
	best, bestCount := "general", 0
	// Deterministic iteration keeps ties stable.
	names := make([]string, 0, len(domainKeywords))
	for name := range domainKeywords {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		count := 0
		for _, kw := range domainKeywords[name] {
			if strings.Contains(lower, kw) {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = name, count
		}
	}
	return best
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
