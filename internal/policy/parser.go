// File: internal/policy/parser.go
package policy

import (
	"fmt"
	"regexp"
	"strings"

	json "github.com/json-iterator/go"
)

// fencedObjectRegex extracts a JSON object wrapped in a markdown code
// fence. \x60 is a backtick; Go raw strings cannot contain them.
var fencedObjectRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*({.*})\\s*\x60\x60\x60")

// parseDecision extracts the decision object from an LLM response. Models
// routinely wrap JSON in markdown fences or conversational text, so the
// parser tolerates both before unmarshaling.
func parseDecision(response string) (*decision, error) {
	response = strings.TrimSpace(response)
	payload := response

	if strings.HasPrefix(response, "```") {
		if m := fencedObjectRegex.FindStringSubmatch(response); len(m) > 1 {
			payload = m[1]
		}
	} else if !strings.HasPrefix(response, "{") {
		first := strings.Index(response, "{")
		last := strings.LastIndex(response, "}")
		if first == -1 || last <= first {
			return nil, fmt.Errorf("no JSON object found in response")
		}
		payload = response[first : last+1]
	}

	var d decision
	if err := json.UnmarshalFromString(payload, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decision: %w (payload: %s)", err, truncate(payload, 200))
	}
	if d.Action == "" {
		return nil, fmt.Errorf("decision is missing the action field")
	}
	return &d, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
