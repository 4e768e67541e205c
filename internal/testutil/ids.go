package testutil

import (
	"fmt"
	"sync"
)

// SequenceGenerator produces deterministic task IDs: prefix-1, prefix-2, ...
//
// Unlike tasks.UUIDv7Generator, SequenceGenerator can be reset for test
// reuse so the same test run yields identical IDs.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSequenceGenerator creates a generator starting at 0.
// If prefix is empty, "task" is used.
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "task"
	}
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next ID. Implements tasks.IDGenerator.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%d", g.prefix, g.seq)
}

// Current returns how many IDs have been generated.
func (g *SequenceGenerator) Current() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence. After Reset, Generate returns prefix-1.
func (g *SequenceGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
