// File: internal/trace/postgres.go
package trace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/xkilldash9x/agorasim/api/schemas"
)

// DBPool abstracts pgxpool.Pool so the sink can be mocked in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS action_records (
    id         TEXT PRIMARY KEY,
    run_id     TEXT NOT NULL,
    round      BIGINT NOT NULL,
    agent_id   BIGINT NOT NULL,
    seq        INT NOT NULL,
    type       TEXT,
    args       JSONB,
    status     TEXT NOT NULL,
    error_code TEXT,
    error      TEXT,
    deltas     JSONB,
    observed_at TIMESTAMPTZ NOT NULL
);`

// PostgresSink buffers action records and persists them in batches inside
// a transaction, using COPY for throughput.
type PostgresSink struct {
	pool       DBPool
	log        *zap.Logger
	mu         sync.Mutex
	buf        []schemas.ActionRecord
	bufferSize int
	closed     bool
}

var _ schemas.TraceSink = (*PostgresSink)(nil)

// NewPostgresSink verifies the connection, ensures the trace table exists,
// and returns a sink flushing every bufferSize records.
func NewPostgresSink(ctx context.Context, pool DBPool, bufferSize int, logger *zap.Logger) (*PostgresSink, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to ensure action_records table: %w", err)
	}
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &PostgresSink{
		pool:       pool,
		log:        logger.Named("trace.postgres"),
		bufferSize: bufferSize,
	}, nil
}

// Append implements schemas.TraceSink, flushing implicitly when the
// buffer fills.
func (s *PostgresSink) Append(ctx context.Context, rec schemas.ActionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("append to closed trace sink")
	}
	s.buf = append(s.buf, rec)
	if len(s.buf) >= s.bufferSize {
		return s.flushLocked(ctx)
	}
	return nil
}

// Flush implements schemas.TraceSink.
func (s *PostgresSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return s.flushLocked(ctx)
}

func (s *PostgresSink) flushLocked(ctx context.Context) error {
	if len(s.buf) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback after a successful commit reports ErrTxClosed; that is
		// the expected path, not a failure.
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	rows := make([][]any, len(s.buf))
	for i, rec := range s.buf {
		deltas, err := json.Marshal(rec.Deltas)
		if err != nil {
			return fmt.Errorf("failed to encode deltas for record %s: %w", rec.ID, err)
		}
		args := rec.Args
		if len(args) == 0 {
			args = json.RawMessage("{}")
		}
		rows[i] = []any{
			rec.ID, rec.RunID, rec.Round, int64(rec.AgentID), rec.Seq,
			string(rec.Type), args, string(rec.Status),
			string(rec.ErrorCode), rec.Error, deltas,
			rec.Timestamp.UTC(),
		}
	}

	copyCount, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"action_records"},
		[]string{"id", "run_id", "round", "agent_id", "seq", "type", "args", "status", "error_code", "error", "deltas", "observed_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy action records: %w", err)
	}
	if int(copyCount) != len(s.buf) {
		return fmt.Errorf("mismatch in copied record count: expected %d, got %d", len(s.buf), copyCount)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.log.Debug("Flushed action records", zap.Int("count", len(s.buf)))
	s.buf = s.buf[:0]
	return nil
}

// Close implements schemas.TraceSink, flushing any remaining records.
// Idempotent.
func (s *PostgresSink) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if err := s.flushLocked(ctx); err != nil {
		return err
	}
	s.closed = true
	return nil
}
