// File: internal/policy/script_test.go
package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/agorasim/api/schemas"
)

func decisionContextFor(id schemas.AgentID) schemas.DecisionContext {
	return schemas.DecisionContext{
		Round:            1,
		Agent:            schemas.AgentProfile{ID: id, Name: "scripted"},
		AvailableActions: schemas.AllActionTypes(),
	}
}

func TestScriptedGateway_PopsInOrder(t *testing.T) {
	g := NewScriptedGateway(nil)
	g.Enqueue(1,
		schemas.CreatePostAction{Content: "first"},
		schemas.TrendAction{},
	)

	action, err := g.Decide(context.Background(), decisionContextFor(1))
	require.NoError(t, err)
	assert.Equal(t, schemas.CreatePostAction{Content: "first"}, action)

	action, err = g.Decide(context.Background(), decisionContextFor(1))
	require.NoError(t, err)
	assert.Equal(t, schemas.TrendAction{}, action)

	// Exhausted queue falls back to the default.
	action, err = g.Decide(context.Background(), decisionContextFor(1))
	require.NoError(t, err)
	assert.Equal(t, schemas.DoNothingAction{}, action)
}

func TestScriptedGateway_QueuesAreIndependent(t *testing.T) {
	g := NewScriptedGateway(nil)
	g.Enqueue(1, schemas.CreatePostAction{Content: "mine"})

	action, err := g.Decide(context.Background(), decisionContextFor(2))
	require.NoError(t, err)
	assert.Equal(t, schemas.DoNothingAction{}, action, "agent 2 must not consume agent 1's script")

	action, err = g.Decide(context.Background(), decisionContextFor(1))
	require.NoError(t, err)
	assert.Equal(t, schemas.CreatePostAction{Content: "mine"}, action)
}

func TestScriptedGateway_CustomFallback(t *testing.T) {
	g := NewScriptedGateway(schemas.RefreshAction{})

	action, err := g.Decide(context.Background(), decisionContextFor(5))
	require.NoError(t, err)
	assert.Equal(t, schemas.RefreshAction{}, action)
}

func TestScriptedGateway_CancelledContext(t *testing.T) {
	g := NewScriptedGateway(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Decide(ctx, decisionContextFor(1))
	require.Error(t, err)
	code, ok := schemas.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, schemas.ErrCodePolicyUnavailable, code)
}
