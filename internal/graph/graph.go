// File: internal/graph/graph.go
package graph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/xkilldash9x/agorasim/api/schemas"
)

// EdgeType distinguishes the two directed social relations.
type EdgeType string

const (
	EdgeFollows EdgeType = "follows"
	EdgeMutes   EdgeType = "mutes"
)

// node is the arena entry for one agent: its read-only profile plus the
// outgoing adjacency sets. Agents reference each other by id only, so the
// structure stays cycle-safe no matter how tangled the social graph gets.
type node struct {
	profile schemas.AgentProfile
	follows map[schemas.AgentID]struct{}
	mutes   map[schemas.AgentID]struct{}
}

// Graph is the directed relationship structure over the agent population.
// Profiles are immutable after construction; edges are mutated only by the
// action executor in response to FOLLOW/MUTE actions.
type Graph struct {
	mu    sync.RWMutex
	nodes map[schemas.AgentID]*node
}

// New creates an empty agent graph.
func New() *Graph {
	return &Graph{nodes: make(map[schemas.AgentID]*node)}
}

// AddAgent registers a new agent node. Agent ids must be unique and positive.
func (g *Graph) AddAgent(profile schemas.AgentProfile) error {
	if profile.ID <= 0 {
		return fmt.Errorf("agent id must be positive, got %d", profile.ID)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.nodes[profile.ID]; exists {
		return fmt.Errorf("duplicate agent id %d", profile.ID)
	}
	g.nodes[profile.ID] = &node{
		profile: profile,
		follows: make(map[schemas.AgentID]struct{}),
		mutes:   make(map[schemas.AgentID]struct{}),
	}
	return nil
}

// Agent returns the profile for id, if present.
func (g *Graph) Agent(id schemas.AgentID) (schemas.AgentProfile, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return schemas.AgentProfile{}, false
	}
	return n.profile, true
}

// HasAgent reports whether id is a member of the population.
func (g *Graph) HasAgent(id schemas.AgentID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// Agents returns every profile in ascending id order.
func (g *Graph) Agents() []schemas.AgentProfile {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]schemas.AgentProfile, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n.profile)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the population size.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// AddEdge upserts a typed directed edge. It reports whether the edge was
// newly added; re-adding an existing edge is a no-op, not an error.
// Self-edges and edges touching unknown agents are rejected.
func (g *Graph) AddEdge(from, to schemas.AgentID, t EdgeType) (bool, error) {
	if from == to {
		return false, schemas.NewActionError(schemas.ErrCodeValidation, "agent %d cannot %s itself", from, t)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	src, ok := g.nodes[from]
	if !ok {
		return false, schemas.NewActionError(schemas.ErrCodeNotFound, "unknown agent %d", from)
	}
	if _, ok := g.nodes[to]; !ok {
		return false, schemas.NewActionError(schemas.ErrCodeNotFound, "unknown agent %d", to)
	}
	set := src.follows
	if t == EdgeMutes {
		set = src.mutes
	}
	if _, exists := set[to]; exists {
		return false, nil
	}
	set[to] = struct{}{}
	return true, nil
}

// HasEdge reports whether the typed directed edge exists.
func (g *Graph) HasEdge(from, to schemas.AgentID, t EdgeType) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[from]
	if !ok {
		return false
	}
	set := n.follows
	if t == EdgeMutes {
		set = n.mutes
	}
	_, exists := set[to]
	return exists
}

// Neighbors returns the targets of from's typed edges in ascending order.
func (g *Graph) Neighbors(from schemas.AgentID, t EdgeType) []schemas.AgentID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[from]
	if !ok {
		return nil
	}
	set := n.follows
	if t == EdgeMutes {
		set = n.mutes
	}
	out := make([]schemas.AgentID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
