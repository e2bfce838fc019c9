// File: internal/trace/memory.go
package trace

import (
	"context"
	"sync"

	"github.com/xkilldash9x/agorasim/api/schemas"
)

// MemorySink retains records in memory. It backs dry runs and tests that
// assert on the exact record sequence a step produced.
type MemorySink struct {
	mu      sync.Mutex
	records []schemas.ActionRecord
}

var _ schemas.TraceSink = (*MemorySink)(nil)

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Append implements schemas.TraceSink.
func (s *MemorySink) Append(_ context.Context, rec schemas.ActionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// Flush implements schemas.TraceSink; memory needs no draining.
func (s *MemorySink) Flush(context.Context) error { return nil }

// Close implements schemas.TraceSink.
func (s *MemorySink) Close(context.Context) error { return nil }

// Records returns a copy of everything appended so far, in append order.
func (s *MemorySink) Records() []schemas.ActionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]schemas.ActionRecord, len(s.records))
	copy(out, s.records)
	return out
}
