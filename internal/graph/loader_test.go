// File: internal/graph/loader_test.go
package graph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/agorasim/api/schemas"
)

func writeProfileFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeProfileFile(t, `[
		{"id": 1, "name": "alice", "attributes": {"persona": "optimist"}, "follows": [2]},
		{"id": 2, "name": "bob", "follows": [1]}
	]`)

	g, err := LoadFromFile(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())

	alice, ok := g.Agent(1)
	require.True(t, ok)
	assert.Equal(t, "alice", alice.Name)
	assert.Equal(t, "optimist", alice.Attributes["persona"])

	// Seed edges work in both directions despite the forward reference.
	assert.True(t, g.HasEdge(1, 2, EdgeFollows))
	assert.True(t, g.HasEdge(2, 1, EdgeFollows))
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.json"), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read profile file")
}

func TestLoadFromFile_MalformedJSON(t *testing.T) {
	path := writeProfileFile(t, `{"not": "an array"}`)
	_, err := LoadFromFile(path, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse profile file")
}

func TestLoadFromFile_RejectsBadSeedEdge(t *testing.T) {
	path := writeProfileFile(t, `[{"id": 1, "name": "loner", "follows": [99]}]`)
	_, err := LoadFromFile(path, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid seed edge")
}

func TestLoadFromFile_RejectsDuplicateAgent(t *testing.T) {
	path := writeProfileFile(t, `[{"id": 1, "name": "a"}, {"id": 1, "name": "b"}]`)
	_, err := LoadFromFile(path, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid profile entry")
}

func TestLoadFromFile_EmptyPopulation(t *testing.T) {
	path := writeProfileFile(t, `[]`)
	g, err := LoadFromFile(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 0, g.Len())
	assert.Empty(t, g.Agents())
	assert.False(t, g.HasAgent(schemas.AgentID(1)))
}
