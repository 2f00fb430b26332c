package reasoning

import (
	"sync"

	"github.com/convosuite/mcpcore/core"
)

const defaultCacheCapacity = 100

type cacheKey struct {
	sessionID string
	messageID string
}

// resultCache is a fixed-capacity FIFO cache of reasoning results keyed by
// (session id, message id). Insertion beyond capacity evicts the oldest
// entry; re-inserting an existing key refreshes the value without changing
// its eviction position.
type resultCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[cacheKey]*core.ReasoningResult
	order    []cacheKey
}

func newResultCache(capacity int) *resultCache {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	return &resultCache{
		capacity: capacity,
		entries:  make(map[cacheKey]*core.ReasoningResult, capacity),
	}
}

func (c *resultCache) get(sessionID, messageID string) (*core.ReasoningResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[cacheKey{sessionID, messageID}]
	return r, ok
}

func (c *resultCache) put(sessionID, messageID string, r *core.ReasoningResult) {
	key := cacheKey{sessionID, messageID}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = r
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = r
	c.order = append(c.order, key)
}

func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
