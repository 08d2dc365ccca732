package testutil

import (
	"fmt"
	"sync"
)

// SequenceIDGenerator returns "<prefix>-1", "<prefix>-2", ... in order.
//
// This enables deterministic execution ids in history records and golden
// output.
//
// Thread-safety: SequenceIDGenerator is safe for concurrent use via internal mutex.
type SequenceIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceIDGenerator creates a generator with the given prefix.
// If prefix is empty, "exec" is used.
func NewSequenceIDGenerator(prefix string) *SequenceIDGenerator {
	if prefix == "" {
		prefix = "exec"
	}
	return &SequenceIDGenerator{prefix: prefix}
}

// Generate returns the next id.
func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
