// File: internal/trace/jsonl.go
package trace

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/agorasim/api/schemas"
)

// JSONLSink appends one JSON line per action record to a file. Writes are
// buffered; Flush forces them to disk and Close flushes then releases the
// file handle.
type JSONLSink struct {
	mu      sync.Mutex
	file    *os.File
	writer  *bufio.Writer
	logger  *zap.Logger
	pending int
	// bufferSize is the number of appends before an implicit flush.
	bufferSize int
	closed     bool
}

var _ schemas.TraceSink = (*JSONLSink)(nil)

// NewJSONLSink opens (or creates) the trace file for appending.
func NewJSONLSink(path string, bufferSize int, logger *zap.Logger) (*JSONLSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file %s: %w", path, err)
	}
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &JSONLSink{
		file:       f,
		writer:     bufio.NewWriter(f),
		logger:     logger.Named("trace.jsonl"),
		bufferSize: bufferSize,
	}, nil
}

// Append implements schemas.TraceSink.
func (s *JSONLSink) Append(_ context.Context, rec schemas.ActionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("append to closed trace sink")
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode action record %s: %w", rec.ID, err)
	}
	if _, err := s.writer.Write(line); err != nil {
		return fmt.Errorf("failed to write action record: %w", err)
	}
	if err := s.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write record terminator: %w", err)
	}

	s.pending++
	if s.pending >= s.bufferSize {
		return s.flushLocked()
	}
	return nil
}

// Flush implements schemas.TraceSink.
func (s *JSONLSink) Flush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return s.flushLocked()
}

func (s *JSONLSink) flushLocked() error {
	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush trace buffer: %w", err)
	}
	s.pending = 0
	return nil
}

// Close implements schemas.TraceSink. Idempotent.
func (s *JSONLSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	flushErr := s.writer.Flush()
	closeErr := s.file.Close()
	if flushErr != nil {
		return fmt.Errorf("failed to flush trace buffer on close: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close trace file: %w", closeErr)
	}
	s.logger.Debug("Trace file closed", zap.String("path", s.file.Name()))
	return nil
}
