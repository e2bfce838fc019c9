// File: internal/graph/loader.go
package graph

import (
	"fmt"
	"os"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/agorasim/api/schemas"
)

// profileEntry is the on-disk shape of one agent in a profile file.
type profileEntry struct {
	ID         int64             `json:"id"`
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes,omitempty"`
	// Follows seeds initial follow edges; targets must exist in the file.
	Follows []int64 `json:"follows,omitempty"`
}

// LoadFromFile materializes an agent graph from a JSON profile file. The
// file holds an array of agent entries; the core consumes only the graph
// built here, never the file format itself.
func LoadFromFile(path string, logger *zap.Logger) (*Graph, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	var entries []profileEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse profile file %s: %w", path, err)
	}

	g := New()
	for _, e := range entries {
		profile := schemas.AgentProfile{
			ID:         schemas.AgentID(e.ID),
			Name:       e.Name,
			Attributes: e.Attributes,
		}
		if err := g.AddAgent(profile); err != nil {
			return nil, fmt.Errorf("invalid profile entry: %w", err)
		}
	}

	// Seed edges in a second pass so forward references work.
	for _, e := range entries {
		for _, target := range e.Follows {
			if _, err := g.AddEdge(schemas.AgentID(e.ID), schemas.AgentID(target), EdgeFollows); err != nil {
				return nil, fmt.Errorf("invalid seed edge %d -> %d: %w", e.ID, target, err)
			}
		}
	}

	logger.Info("Agent graph materialized",
		zap.String("profile_file", path),
		zap.Int("agents", g.Len()),
	)
	return g, nil
}
