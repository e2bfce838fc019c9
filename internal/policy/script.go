// File: internal/policy/script.go
package policy

import (
	"context"
	"sync"

	"github.com/xkilldash9x/agorasim/api/schemas"
)

// ScriptedGateway is a deterministic decision policy for offline runs and
// tests: each agent consumes a per-agent queue of prepared actions, falling
// back to a default action when the queue is exhausted. Given identical
// scripts and inputs it always produces identical decisions, which is what
// the step engine's reproducibility guarantees are tested against.
type ScriptedGateway struct {
	mu       sync.Mutex
	queues   map[schemas.AgentID][]schemas.Action
	fallback schemas.Action
}

var _ schemas.PolicyGateway = (*ScriptedGateway)(nil)

// NewScriptedGateway creates a gateway that answers fallback for every
// agent with no queued actions. A nil fallback defaults to DO_NOTHING.
func NewScriptedGateway(fallback schemas.Action) *ScriptedGateway {
	if fallback == nil {
		fallback = schemas.DoNothingAction{}
	}
	return &ScriptedGateway{
		queues:   make(map[schemas.AgentID][]schemas.Action),
		fallback: fallback,
	}
}

// Enqueue appends actions to an agent's script.
func (g *ScriptedGateway) Enqueue(id schemas.AgentID, actions ...schemas.Action) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queues[id] = append(g.queues[id], actions...)
}

// Decide implements schemas.PolicyGateway by popping the agent's next
// scripted action.
func (g *ScriptedGateway) Decide(ctx context.Context, dc schemas.DecisionContext) (schemas.Action, error) {
	if err := ctx.Err(); err != nil {
		return nil, schemas.NewActionError(schemas.ErrCodePolicyUnavailable, "decision cancelled: %v", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	queue := g.queues[dc.Agent.ID]
	if len(queue) == 0 {
		return g.fallback, nil
	}
	next := queue[0]
	g.queues[dc.Agent.ID] = queue[1:]
	return next, nil
}
