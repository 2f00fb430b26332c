// Package memory contains the embedding / similarity search capability used
// for knowledge retrieval. The contracts (core.Embedder,
// core.SimilaritySearcher, core.KnowledgeIndexer) live in the core package;
// select an implementation at wiring time. The in-memory index below embeds
// text as a deterministic hashed bag-of-words vector and ranks stored
// knowledge by cosine similarity. Swap in a real embedding model plus vector
// database for production retrieval without changing any calling code.
package memory

import (
	"context"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/convosuite/mcpcore/core"
)

// Dimensions of the hashed bag-of-words embedding space.
const embeddingDim = 128

type indexed struct {
	knowledge core.Knowledge
	vector    []float64
}

// InMemoryIndex is a process-local embedder plus similarity index. It is
// safe for concurrent access. Indexed knowledge entries are never mutated.
type InMemoryIndex struct {
	mu      sync.RWMutex
	entries []indexed
}

// NewInMemoryIndex constructs an empty index.
func NewInMemoryIndex() *InMemoryIndex {
	return &InMemoryIndex{}
}

// Embed implements core.Embedder with a deterministic hashed bag-of-words
// projection normalized to unit length.
func (m *InMemoryIndex) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, embeddingDim)
	for _, tok := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%embeddingDim]++
	}
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

// Index implements core.KnowledgeIndexer.
func (m *InMemoryIndex) Index(_ context.Context, k core.Knowledge, vector []float64) error {
	if len(vector) != embeddingDim {
		return core.Validationf("vector dimension %d, want %d", len(vector), embeddingDim)
	}
	m.mu.Lock()
	m.entries = append(m.entries, indexed{knowledge: k, vector: append([]float64(nil), vector...)})
	m.mu.Unlock()
	return nil
}

// FindSimilar implements core.SimilaritySearcher, returning up to limit
// knowledge entries ordered by descending cosine similarity. Entries with no
// overlap at all are skipped.
func (m *InMemoryIndex) FindSimilar(_ context.Context, vector []float64, limit int) ([]core.Knowledge, error) {
	if limit <= 0 {
		return nil, nil
	}
	type scored struct {
		knowledge core.Knowledge
		score     float64
	}
	m.mu.RLock()
	candidates := make([]scored, 0, len(m.entries))
	for _, e := range m.entries {
		if s := dot(vector, e.vector); s > 0 {
			candidates = append(candidates, scored{knowledge: e.knowledge, score: s})
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]core.Knowledge, len(candidates))
	for i, c := range candidates {
		out[i] = c.knowledge
	}
	return out, nil
}

// Len reports the number of indexed entries.
func (m *InMemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var s float64
	for i := 0; i < n; i++ {
		s += a[i] * b[i]
	}
	return s
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && !(r >= 'à' && r <= 'ÿ')
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 1 {
			out = append(out, f)
		}
	}
	return out
}
