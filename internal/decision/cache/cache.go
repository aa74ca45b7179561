// Package cache provides a bounded in-memory cache of decoded decision
// graphs, keyed by store revision id, so repeated loads skip decoding.
package cache

import (
	"sync"

	"github.com/mallornproject/mallorn/internal/decision"
)

type InMemory struct {
	mu    sync.RWMutex
	max   int
	items map[string]*decision.Graph
}

func NewInMemory(max int) *InMemory {
	return &InMemory{
		max:   max,
		items: make(map[string]*decision.Graph, max),
	}
}

// GetOrCompute returns the cached graph for key, computing and caching
// it on a miss. Concurrent callers for the same key compute once;
// errors are not cached. Graphs are immutable, so handing the same
// instance to every caller is safe.
func (c *InMemory) GetOrCompute(key string, fn func() (*decision.Graph, error)) (*decision.Graph, error) {
	c.mu.RLock()
	if g, ok := c.items[key]; ok {
		c.mu.RUnlock()
		return g, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if g, ok := c.items[key]; ok {
		return g, nil
	}

	g, err := fn()
	if err != nil {
		return nil, err
	}

	if len(c.items) < c.max {
		c.items[key] = g
	}

	return g, nil
}
