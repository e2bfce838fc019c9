// File: internal/policy/gateway.go
package policy

import (
	"context"
	"fmt"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/agorasim/api/schemas"
	"github.com/xkilldash9x/agorasim/internal/config"
)

// decision is the JSON contract the model must answer with.
type decision struct {
	Action    string         `json:"action"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Reason    string         `json:"reason,omitempty"`
}

// LLMGateway is a model-driven decision policy: it renders the agent's
// context into a prompt, asks the LLM for a JSON decision, and decodes it
// into a typed action. All transport and malformed-response failures
// surface as PolicyUnavailable; a well-formed response naming an unknown
// action surfaces as InvalidAction.
type LLMGateway struct {
	client      schemas.LLMClient
	logger      *zap.Logger
	limiter     *rate.Limiter
	temperature float32
}

// Statically assert the gateway satisfies the core interface.
var _ schemas.PolicyGateway = (*LLMGateway)(nil)

// NewLLMGateway wraps an LLM client as a decision policy gateway. The
// optional rate limit is shared across all agents so concurrent resolution
// cannot stampede the provider.
func NewLLMGateway(client schemas.LLMClient, cfg config.PolicyConfig, logger *zap.Logger) *LLMGateway {
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return &LLMGateway{
		client:      client,
		logger:      logger.Named("policy.llm"),
		limiter:     limiter,
		temperature: cfg.LLM.Temperature,
	}
}

// Decide implements schemas.PolicyGateway.
func (g *LLMGateway) Decide(ctx context.Context, dc schemas.DecisionContext) (schemas.Action, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, schemas.NewActionError(schemas.ErrCodePolicyUnavailable, "rate limiter wait aborted: %v", err)
		}
	}

	req := schemas.GenerationRequest{
		SystemPrompt:    systemPrompt(dc.AvailableActions),
		UserPrompt:      userPrompt(dc),
		Temperature:     g.temperature,
		ForceJSONFormat: true,
	}

	raw, err := g.client.Generate(ctx, req)
	if err != nil {
		return nil, schemas.NewActionError(schemas.ErrCodePolicyUnavailable, "generation failed for agent %d: %v", dc.Agent.ID, err)
	}

	d, err := parseDecision(raw)
	if err != nil {
		g.logger.Warn("Malformed policy response",
			zap.Int64("agent_id", int64(dc.Agent.ID)),
			zap.Error(err),
		)
		return nil, schemas.NewActionError(schemas.ErrCodePolicyUnavailable, "malformed policy response: %v", err)
	}

	action, err := schemas.DecodeAction(schemas.ActionType(d.Action), d.Arguments)
	if err != nil {
		return nil, err
	}

	g.logger.Debug("Policy decision",
		zap.Int64("agent_id", int64(dc.Agent.ID)),
		zap.String("action", string(action.Type())),
		zap.String("reason", d.Reason),
	)
	return action, nil
}

// systemPrompt frames the model as one platform participant and pins the
// JSON response contract.
func systemPrompt(available []schemas.ActionType) string {
	names := make([]string, len(available))
	for i, t := range available {
		names[i] = string(t)
	}
	var b strings.Builder
	b.WriteString("You are one agent on a simulated social platform. ")
	b.WriteString("Each round you perform exactly one action.\n")
	b.WriteString("Permitted actions: ")
	b.WriteString(strings.Join(names, ", "))
	b.WriteString(".\n")
	b.WriteString("Argument names: content (CREATE_POST), post_id and content (CREATE_COMMENT), ")
	b.WriteString("post_id (LIKE_POST, DISLIKE_POST), comment_id (LIKE_COMMENT, DISLIKE_COMMENT), ")
	b.WriteString("target_id (FOLLOW, MUTE), query (SEARCH_POSTS, SEARCH_USER).\n")
	b.WriteString(`Respond with a single JSON object: {"action": "<TYPE>", "arguments": {...}, "reason": "<short>"}.`)
	return b.String()
}

// userPrompt renders the agent's view of the world for this round.
func userPrompt(dc schemas.DecisionContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Round %d. You are agent %d (%s).\n", dc.Round, dc.Agent.ID, dc.Agent.Name)
	if len(dc.Agent.Attributes) > 0 {
		if attrs, err := json.MarshalToString(dc.Agent.Attributes); err == nil {
			fmt.Fprintf(&b, "Your profile: %s\n", attrs)
		}
	}
	if len(dc.Following) > 0 {
		fmt.Fprintf(&b, "You follow agents %v.\n", dc.Following)
	}
	if len(dc.Feed) == 0 {
		b.WriteString("Your feed is empty.\n")
	} else {
		b.WriteString("Your feed (newest first):\n")
		for _, p := range dc.Feed {
			fmt.Fprintf(&b, "- post %d by %s (round %d, %d likes, %d dislikes, %d comments): %s\n",
				p.ID, p.AuthorName, p.Round, p.Likes, p.Dislikes, p.CommentCount, p.Content)
		}
	}
	b.WriteString("Choose your action for this round.")
	return b.String()
}
