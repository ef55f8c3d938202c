package testutil

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// TokenGenerator produces opaque tokens (lease tokens, run IDs).
type TokenGenerator interface {
	Token() string
}

// SequenceTokenGenerator returns "prefix-1", "prefix-2", ... in order.
//
// This enables deterministic test execution and golden snapshot comparison:
// the same scenario produces byte-identical token sequences on every run.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequenceTokenGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int64
}

// NewSequenceTokenGenerator creates a sequence generator. An empty prefix
// defaults to "token".
func NewSequenceTokenGenerator(prefix string) *SequenceTokenGenerator {
	if prefix == "" {
		prefix = "token"
	}
	return &SequenceTokenGenerator{prefix: prefix}
}

// Token returns the next token in the sequence.
func (g *SequenceTokenGenerator) Token() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// UUIDTokenGenerator returns random UUIDv4 tokens. Production edge only;
// golden-trace tests use SequenceTokenGenerator instead.
type UUIDTokenGenerator struct{}

// Token returns a fresh UUID string.
func (UUIDTokenGenerator) Token() string {
	return uuid.NewString()
}
