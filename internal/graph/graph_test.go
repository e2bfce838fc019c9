// File: internal/graph/graph_test.go
package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/agorasim/api/schemas"
)

func buildGraph(t *testing.T, ids ...schemas.AgentID) *Graph {
	t.Helper()
	g := New()
	for _, id := range ids {
		require.NoError(t, g.AddAgent(schemas.AgentProfile{ID: id, Name: "agent"}))
	}
	return g
}

func TestAddAgent(t *testing.T) {
	g := New()
	require.NoError(t, g.AddAgent(schemas.AgentProfile{ID: 1, Name: "alice"}))

	profile, ok := g.Agent(1)
	require.True(t, ok)
	assert.Equal(t, "alice", profile.Name)
	assert.True(t, g.HasAgent(1))
	assert.Equal(t, 1, g.Len())
}

func TestAddAgent_RejectsDuplicateAndNonPositive(t *testing.T) {
	g := buildGraph(t, 1)

	err := g.AddAgent(schemas.AgentProfile{ID: 1, Name: "again"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	require.Error(t, g.AddAgent(schemas.AgentProfile{ID: 0}))
	require.Error(t, g.AddAgent(schemas.AgentProfile{ID: -5}))
}

func TestAgents_SortedByID(t *testing.T) {
	g := buildGraph(t, 3, 1, 2)
	profiles := g.Agents()
	require.Len(t, profiles, 3)
	assert.Equal(t, schemas.AgentID(1), profiles[0].ID)
	assert.Equal(t, schemas.AgentID(2), profiles[1].ID)
	assert.Equal(t, schemas.AgentID(3), profiles[2].ID)
}

func TestAddEdge(t *testing.T) {
	g := buildGraph(t, 1, 2)

	added, err := g.AddEdge(1, 2, EdgeFollows)
	require.NoError(t, err)
	assert.True(t, added)
	assert.True(t, g.HasEdge(1, 2, EdgeFollows))

	// Directed: the reverse edge does not exist.
	assert.False(t, g.HasEdge(2, 1, EdgeFollows))
	// Typed: the mute relation is independent.
	assert.False(t, g.HasEdge(1, 2, EdgeMutes))
}

func TestAddEdge_DuplicateIsNoOp(t *testing.T) {
	g := buildGraph(t, 1, 2)

	added, err := g.AddEdge(1, 2, EdgeMutes)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = g.AddEdge(1, 2, EdgeMutes)
	require.NoError(t, err)
	assert.False(t, added, "re-adding an existing edge must be a no-op, not an error")
}

func TestAddEdge_RejectsSelfEdge(t *testing.T) {
	g := buildGraph(t, 1)

	_, err := g.AddEdge(1, 1, EdgeFollows)
	require.Error(t, err)
	code, ok := schemas.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, schemas.ErrCodeValidation, code)
}

func TestAddEdge_RejectsUnknownAgents(t *testing.T) {
	g := buildGraph(t, 1)

	_, err := g.AddEdge(1, 42, EdgeFollows)
	require.Error(t, err)
	code, ok := schemas.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, schemas.ErrCodeNotFound, code)

	_, err = g.AddEdge(42, 1, EdgeFollows)
	require.Error(t, err)
}

func TestNeighbors_SortedAscending(t *testing.T) {
	g := buildGraph(t, 1, 2, 3, 4)
	for _, target := range []schemas.AgentID{4, 2, 3} {
		_, err := g.AddEdge(1, target, EdgeFollows)
		require.NoError(t, err)
	}

	assert.Equal(t, []schemas.AgentID{2, 3, 4}, g.Neighbors(1, EdgeFollows))
	assert.Empty(t, g.Neighbors(1, EdgeMutes))
	assert.Nil(t, g.Neighbors(99, EdgeFollows))
}
