package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs hands out deterministic run IDs for tests.
//
// The first call to Generate returns "run-0001". Unlike the UUIDv7 generator
// used in production, SequentialIDs can be reset so the same test produces
// identical history rows on every execution.
//
// Thread-safety: all methods are safe for concurrent use.
type SequentialIDs struct {
	mu  sync.Mutex
	seq int
}

// NewSequentialIDs creates a generator starting at 0.
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{}
}

// Generate increments the counter and returns the next ID.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("run-%04d", g.seq)
}

// Current returns how many IDs have been handed out.
func (g *SequentialIDs) Current() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset makes the next Generate return "run-0001" again.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
