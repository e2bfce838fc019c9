// File: internal/engine/engine.go
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/agorasim/api/schemas"
	"github.com/xkilldash9x/agorasim/internal/config"
	"github.com/xkilldash9x/agorasim/internal/executor"
	"github.com/xkilldash9x/agorasim/internal/graph"
	"github.com/xkilldash9x/agorasim/internal/platform"
)

// Simulation is the round scheduler: it accepts a batch of per-agent
// requests, fans them out for concurrent resolution, applies the resolved
// actions in a deterministic order, and reports per-agent outcomes.
//
// The ordering contract: resolution of distinct agents runs concurrently,
// resolution of one agent's requests runs strictly in sequence, and
// application always proceeds in ascending agent-id order (request order
// within an agent), independent of which policy call finished first. That
// makes a round reproducible regardless of gateway timing jitter.
type Simulation struct {
	cfg      config.EngineConfig
	logger   *zap.Logger
	resolver *Resolver
	executor *executor.Executor
	store    *platform.Store
	sink     schemas.TraceSink
	runID    string

	// mu serializes Step, Reset, and Close; a step invocation is the unit
	// of simulated time and must never interleave with another.
	mu     sync.Mutex
	round  int64
	closed bool

	// Injection points for deterministic tests.
	newRecordID func() string
	now         func() time.Time
}

// resolution is the outcome of resolving one request, held until the
// application phase.
type resolution struct {
	action schemas.Action
	err    error
}

// New builds a simulation over the given agent graph, decision policy
// gateway, and trace sink.
func New(
	cfg *config.Config,
	logger *zap.Logger,
	g *graph.Graph,
	gateway schemas.PolicyGateway,
	sink schemas.TraceSink,
) (*Simulation, error) {
	available, err := cfg.Simulation.ActionSet()
	if err != nil {
		return nil, fmt.Errorf("invalid available-action set: %w", err)
	}

	store := platform.NewStore()
	exec := executor.New(store, g, logger, cfg.Simulation.FeedSize, cfg.Simulation.TrendSize)
	resolver := NewResolver(gateway, g, store, logger, available, cfg.Engine.PolicyTimeout, cfg.Simulation.FeedSize)

	return &Simulation{
		cfg:         cfg.Engine,
		logger:      logger.Named("engine"),
		resolver:    resolver,
		executor:    exec,
		store:       store,
		sink:        sink,
		runID:       uuid.NewString(),
		newRecordID: uuid.NewString,
		now:         time.Now,
	}, nil
}

// Round returns the current round ordinal.
func (s *Simulation) Round() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round
}

// Store exposes the platform state for read-only inspection (reports,
// tests). Mutation stays behind Step.
func (s *Simulation) Store() *platform.Store {
	return s.store
}

// Reset clears the platform state and restarts the round counter. The
// agent graph is an input to the simulation and survives a reset.
func (s *Simulation) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.round = 0
	s.store.Reset()
	s.logger.Info("Simulation reset", zap.String("run_id", s.runID))
}

// Step runs one round. Each agent's requests are resolved concurrently
// with other agents', then applied in ascending agent-id order. One
// ActionRecord reaches the trace sink per request, success or failure. A
// sink failure is fatal: it aborts the remainder of the step and surfaces
// as a StoreUnavailable error alongside the outcomes applied so far.
func (s *Simulation) Step(ctx context.Context, requests map[schemas.AgentID][]schemas.ActionRequest) (map[schemas.AgentID][]schemas.ActionOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("step on closed simulation")
	}

	// The round advances exactly once per invocation, before any action
	// is applied, and stamps everything resolved within this call.
	s.round++
	round := s.round

	agents := make([]schemas.AgentID, 0, len(requests))
	for id, reqs := range requests {
		if len(reqs) == 0 {
			// Absent or empty means the agent sits this round out; it
			// must not appear in the outcome map.
			continue
		}
		agents = append(agents, id)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i] < agents[j] })

	// -- Resolution phase: concurrent across agents, sequential within one.
	resolved := make(map[schemas.AgentID][]resolution, len(agents))
	for _, id := range agents {
		resolved[id] = make([]resolution, len(requests[id]))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ResolveConcurrency)
	for _, id := range agents {
		id := id
		reqs := requests[id]
		slots := resolved[id]
		g.Go(func() error {
			for i, req := range reqs {
				action, err := s.resolver.Resolve(gctx, id, req, round)
				slots[i] = resolution{action: action, err: err}
			}
			// Resolution failures are per-agent outcomes, never group
			// errors: one agent's failure must not cancel its siblings.
			return nil
		})
	}
	// Goroutines always return nil; Wait is for completion only.
	_ = g.Wait()

	// -- Application phase: deterministic order, one critical section per
	// mutation, one trace record per request.
	outcomes := make(map[schemas.AgentID][]schemas.ActionOutcome, len(agents))
	var applied, failed int
	for _, id := range agents {
		for seq, res := range resolved[id] {
			outcome := s.apply(id, seq, round, res)
			outcomes[id] = append(outcomes[id], outcome)
			if outcome.Status == schemas.OutcomeSuccess {
				applied++
			} else {
				failed++
			}

			if err := s.sink.Append(ctx, s.record(id, seq, round, res.action, outcome)); err != nil {
				// Once the sink is unreachable the audit guarantee for
				// subsequent ordered mutations is gone; abort the step.
				s.logger.Error("Trace sink append failed, aborting step",
					zap.Int64("round", round),
					zap.Int64("agent_id", int64(id)),
					zap.Error(err),
				)
				return outcomes, schemas.NewActionError(schemas.ErrCodeStoreUnavailable, "trace append failed in round %d: %v", round, err)
			}
		}
	}

	s.logger.Info("Round complete",
		zap.Int64("round", round),
		zap.Int("agents", len(agents)),
		zap.Int("applied", applied),
		zap.Int("failed", failed),
	)
	return outcomes, nil
}

// apply turns one resolution into an outcome, executing it if resolution
// succeeded. Any failure stays scoped to this agent's request.
func (s *Simulation) apply(id schemas.AgentID, seq int, round int64, res resolution) schemas.ActionOutcome {
	outcome := schemas.ActionOutcome{
		AgentID: id,
		Seq:     seq,
		Round:   round,
	}

	if res.err != nil {
		return failOutcome(outcome, res.err)
	}

	outcome.Type = res.action.Type()
	deltas, result, err := s.executor.Apply(id, res.action, round)
	if err != nil {
		return failOutcome(outcome, err)
	}

	outcome.Status = schemas.OutcomeSuccess
	outcome.Deltas = deltas
	outcome.Result = result
	return outcome
}

// record builds the immutable audit entry for one applied request.
func (s *Simulation) record(id schemas.AgentID, seq int, round int64, action schemas.Action, outcome schemas.ActionOutcome) schemas.ActionRecord {
	rec := schemas.ActionRecord{
		ID:        s.newRecordID(),
		RunID:     s.runID,
		Round:     round,
		AgentID:   id,
		Seq:       seq,
		Type:      outcome.Type,
		Status:    outcome.Status,
		ErrorCode: outcome.ErrorCode,
		Error:     outcome.Error,
		Deltas:    outcome.Deltas,
		Timestamp: s.now().UTC(),
	}
	if action != nil {
		rec.Args = schemas.EncodeActionArgs(action)
	}
	return rec
}

// Close drains the trace sink and releases resources. Idempotent.
func (s *Simulation) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.sink.Flush(ctx); err != nil {
		if closeErr := s.sink.Close(ctx); closeErr != nil {
			s.logger.Error("Trace sink close failed after flush failure", zap.Error(closeErr))
		}
		return fmt.Errorf("failed to flush trace sink: %w", err)
	}
	if err := s.sink.Close(ctx); err != nil {
		return fmt.Errorf("failed to close trace sink: %w", err)
	}
	s.logger.Info("Simulation closed", zap.String("run_id", s.runID), zap.Int64("rounds", s.round))
	return nil
}

func failOutcome(outcome schemas.ActionOutcome, err error) schemas.ActionOutcome {
	outcome.Status = schemas.OutcomeFailure
	if code, ok := schemas.CodeOf(err); ok {
		outcome.ErrorCode = code
	} else {
		outcome.ErrorCode = schemas.ErrCodeValidation
	}
	outcome.Error = err.Error()
	return outcome
}
