// File: api/schemas/interfaces.go
package schemas

import "context"

// PolicyGateway chooses an action on behalf of an agent. Implementations
// wrap whatever reasoning mechanism backs the agent; the core depends only
// on this signature. Any transport, timeout, or malformed-response failure
// must surface as an ActionError with ErrCodePolicyUnavailable.
type PolicyGateway interface {
	Decide(ctx context.Context, dc DecisionContext) (Action, error)
}

// TraceSink receives one ActionRecord per applied action. Append must be
// called exactly once per record before the step returns; Flush drains
// buffered records and Close is called once at simulation teardown.
type TraceSink interface {
	Append(ctx context.Context, rec ActionRecord) error
	Flush(ctx context.Context) error
	Close(ctx context.Context) error
}

// GenerationRequest is the provider-agnostic input to an LLM call.
type GenerationRequest struct {
	SystemPrompt    string
	UserPrompt      string
	Temperature     float32
	ForceJSONFormat bool
}

// LLMClient abstracts a text-generation backend for the model-driven
// policy gateway, allowing scripted stand-ins in tests.
type LLMClient interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}
