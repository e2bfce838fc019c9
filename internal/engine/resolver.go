// File: internal/engine/resolver.go
package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/agorasim/api/schemas"
	"github.com/xkilldash9x/agorasim/internal/graph"
	"github.com/xkilldash9x/agorasim/internal/platform"
)

// Resolver turns one pending request into a concrete action: either the
// literal action supplied with a fixed request, or a fresh decision from
// the agent's policy gateway. It only reads shared state; it never mutates
// it, so resolutions for distinct agents can run concurrently.
type Resolver struct {
	gateway       schemas.PolicyGateway
	graph         *graph.Graph
	store         *platform.Store
	logger        *zap.Logger
	available     map[schemas.ActionType]struct{}
	availableList []schemas.ActionType
	policyTimeout time.Duration
	feedSize      int
}

// NewResolver creates a resolver enforcing the configured available-action
// set and per-call policy timeout.
func NewResolver(
	gateway schemas.PolicyGateway,
	g *graph.Graph,
	store *platform.Store,
	logger *zap.Logger,
	available []schemas.ActionType,
	policyTimeout time.Duration,
	feedSize int,
) *Resolver {
	set := make(map[schemas.ActionType]struct{}, len(available))
	for _, t := range available {
		set[t] = struct{}{}
	}
	if feedSize <= 0 {
		feedSize = 20
	}
	return &Resolver{
		gateway:       gateway,
		graph:         g,
		store:         store,
		logger:        logger.Named("resolver"),
		available:     set,
		availableList: available,
		policyTimeout: policyTimeout,
		feedSize:      feedSize,
	}
}

// Resolve produces the concrete action for one request. Failures are
// structured ActionErrors the scheduler folds into that agent's outcome.
func (r *Resolver) Resolve(ctx context.Context, agentID schemas.AgentID, req schemas.ActionRequest, round int64) (schemas.Action, error) {
	if !req.PolicyDriven {
		if req.Action == nil {
			return nil, schemas.NewActionError(schemas.ErrCodeValidation, "fixed request for agent %d carries no action", agentID)
		}
		if _, ok := r.available[req.Action.Type()]; !ok {
			return nil, schemas.NewActionError(schemas.ErrCodeInvalidAction, "action %s is not in the available-action set", req.Action.Type())
		}
		return req.Action, nil
	}

	profile, ok := r.graph.Agent(agentID)
	if !ok {
		return nil, schemas.NewActionError(schemas.ErrCodeNotFound, "unknown agent %d", agentID)
	}

	dc := schemas.DecisionContext{
		Round:            round,
		Agent:            profile,
		Feed:             r.feedFor(agentID),
		Following:        r.graph.Neighbors(agentID, graph.EdgeFollows),
		AvailableActions: r.availableList,
	}

	callCtx := ctx
	if r.policyTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.policyTimeout)
		defer cancel()
	}

	action, err := r.gateway.Decide(callCtx, dc)
	if err != nil {
		// Gateways report structured codes themselves (InvalidAction for
		// an out-of-set choice); everything else, timeouts included, is a
		// policy availability problem.
		if _, coded := schemas.CodeOf(err); coded {
			return nil, err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, schemas.NewActionError(schemas.ErrCodePolicyUnavailable, "decision for agent %d timed out after %s", agentID, r.policyTimeout)
		}
		return nil, schemas.NewActionError(schemas.ErrCodePolicyUnavailable, "decision for agent %d failed: %v", agentID, err)
	}
	if action == nil {
		return nil, schemas.NewActionError(schemas.ErrCodePolicyUnavailable, "gateway returned no action for agent %d", agentID)
	}
	if _, ok := r.available[action.Type()]; !ok {
		return nil, schemas.NewActionError(schemas.ErrCodeInvalidAction, "policy chose %s, which is not in the available-action set", action.Type())
	}
	return action, nil
}

// feedFor snapshots the agent's feed for decision context, hiding muted
// authors and resolving author names. The snapshot reflects committed
// state from prior rounds only.
func (r *Resolver) feedFor(agentID schemas.AgentID) []schemas.PostView {
	muted := r.graph.Neighbors(agentID, graph.EdgeMutes)
	exclude := make(map[schemas.AgentID]struct{}, len(muted))
	for _, id := range muted {
		exclude[id] = struct{}{}
	}
	feed := r.store.Feed(r.feedSize, exclude)
	for i := range feed {
		if p, ok := r.graph.Agent(feed[i].AuthorID); ok {
			feed[i].AuthorName = p.Name
		}
	}
	return feed
}
