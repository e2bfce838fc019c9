// File: api/schemas/records.go
package schemas

import (
	"encoding/json"
	"time"
)

// AgentID is the stable numeric identity of an agent. Identity is assigned
// at graph construction time and never changes during a simulation.
type AgentID int64

// OutcomeStatus distinguishes applied actions from captured failures.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailure OutcomeStatus = "failure"
)

// EntityKind names the class of platform entity a delta touched.
type EntityKind string

const (
	EntityPost    EntityKind = "post"
	EntityComment EntityKind = "comment"
	EntityEdge    EntityKind = "edge"
)

// DeltaKind classifies a single state mutation inside an action's effect.
type DeltaKind string

const (
	DeltaPostCreated    DeltaKind = "post_created"
	DeltaCommentCreated DeltaKind = "comment_created"
	DeltaVoteSet        DeltaKind = "vote_set"
	DeltaCounterAdjust  DeltaKind = "counter_adjust"
	DeltaEdgeUpserted   DeltaKind = "edge_upserted"
)

// StateDelta describes one component of an applied action's effect on the
// platform state store. Compound actions (a comment creation touching both
// the comment table and the parent post's comment count) emit one delta per
// touched entity, all committed atomically.
type StateDelta struct {
	Kind     DeltaKind  `json:"kind"`
	Entity   EntityKind `json:"entity"`
	EntityID int64      `json:"entity_id"`
	Field    string     `json:"field,omitempty"`
	Value    int64      `json:"value,omitempty"`
}

// ActionRequest is one pending action for one agent in one round. A fixed
// request carries the literal action to apply; a policy-driven request
// leaves Action nil and defers to the agent's decision policy gateway.
type ActionRequest struct {
	// Action, when non-nil, is applied verbatim after validation.
	Action Action
	// PolicyDriven requests obtain their concrete action from the gateway.
	PolicyDriven bool
}

// FixedRequest builds a request that applies the given action verbatim.
func FixedRequest(a Action) ActionRequest {
	return ActionRequest{Action: a}
}

// PolicyRequest builds a request resolved through the decision policy.
func PolicyRequest() ActionRequest {
	return ActionRequest{PolicyDriven: true}
}

// ActionOutcome is the per-request result handed back to the step caller.
// A failure outcome captures the error kind without aborting the round.
type ActionOutcome struct {
	AgentID   AgentID         `json:"agent_id"`
	Seq       int             `json:"seq"`
	Round     int64           `json:"round"`
	Type      ActionType      `json:"type,omitempty"`
	Status    OutcomeStatus   `json:"status"`
	ErrorCode ErrorCode       `json:"error_code,omitempty"`
	Error     string          `json:"error,omitempty"`
	Deltas    []StateDelta    `json:"deltas,omitempty"`
	// Result carries the payload of read-only actions (feeds, search hits).
	Result json.RawMessage `json:"result,omitempty"`
}

// ActionRecord is the immutable audit entry for one resolved action. It is
// produced exclusively by the step engine during application and owned by
// the trace sink once emitted.
type ActionRecord struct {
	ID        string          `json:"id"`
	RunID     string          `json:"run_id"`
	Round     int64           `json:"round"`
	AgentID   AgentID         `json:"agent_id"`
	Seq       int             `json:"seq"`
	Type      ActionType      `json:"type,omitempty"`
	Args      json.RawMessage `json:"args,omitempty"`
	Status    OutcomeStatus   `json:"status"`
	ErrorCode ErrorCode       `json:"error_code,omitempty"`
	Error     string          `json:"error,omitempty"`
	Deltas    []StateDelta    `json:"deltas,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
