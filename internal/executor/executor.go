// File: internal/executor/executor.go
package executor

import (
	encodingjson "encoding/json"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/agorasim/api/schemas"
	"github.com/xkilldash9x/agorasim/internal/graph"
	"github.com/xkilldash9x/agorasim/internal/platform"
)

// Executor validates a resolved action against the current platform state
// and the issuing agent, then applies its effect through the state store.
// Each mutation is a single atomic compound operation on the store; the
// executor itself holds no cross-entity locks.
type Executor struct {
	store     *platform.Store
	graph     *graph.Graph
	logger    *zap.Logger
	feedSize  int
	trendSize int
}

// New creates an executor bound to the platform store and agent graph.
func New(store *platform.Store, g *graph.Graph, logger *zap.Logger, feedSize, trendSize int) *Executor {
	if feedSize <= 0 {
		feedSize = 20
	}
	if trendSize <= 0 {
		trendSize = 10
	}
	return &Executor{
		store:     store,
		graph:     g,
		logger:    logger.Named("executor"),
		feedSize:  feedSize,
		trendSize: trendSize,
	}
}

// Apply executes one resolved action for one agent in the given round.
// It returns the state deltas of mutating actions, the payload of
// read-only actions, or a structured ActionError. Read-only actions never
// fail; empty results are successes.
func (e *Executor) Apply(agentID schemas.AgentID, action schemas.Action, round int64) ([]schemas.StateDelta, encodingjson.RawMessage, error) {
	if !e.graph.HasAgent(agentID) {
		return nil, nil, schemas.NewActionError(schemas.ErrCodeNotFound, "unknown acting agent %d", agentID)
	}

	switch a := action.(type) {
	case schemas.CreatePostAction:
		return e.applyCreatePost(agentID, a, round)
	case schemas.CreateCommentAction:
		return e.applyCreateComment(agentID, a, round)
	case schemas.LikePostAction:
		return e.applyVote(agentID, schemas.EntityPost, a.PostID, platform.VoteLike)
	case schemas.DislikePostAction:
		return e.applyVote(agentID, schemas.EntityPost, a.PostID, platform.VoteDislike)
	case schemas.LikeCommentAction:
		return e.applyVote(agentID, schemas.EntityComment, a.CommentID, platform.VoteLike)
	case schemas.DislikeCommentAction:
		return e.applyVote(agentID, schemas.EntityComment, a.CommentID, platform.VoteDislike)
	case schemas.FollowAction:
		return e.applyEdge(agentID, a.TargetID, graph.EdgeFollows)
	case schemas.MuteAction:
		return e.applyEdge(agentID, a.TargetID, graph.EdgeMutes)
	case schemas.SearchPostsAction:
		return e.readResult(e.store.SearchPosts(a.Query, e.feedSize))
	case schemas.SearchUserAction:
		return e.readResult(e.searchUsers(a.Query))
	case schemas.TrendAction:
		return e.readResult(e.store.Trending(e.trendSize))
	case schemas.RefreshAction:
		return e.readResult(e.feedFor(agentID))
	case schemas.DoNothingAction:
		return nil, nil, nil
	default:
		// DecodeAction seals the variant set; reaching this means a new
		// variant was added without executor support.
		return nil, nil, schemas.NewActionError(schemas.ErrCodeInvalidAction, "unsupported action type %q", action.Type())
	}
}

func (e *Executor) applyCreatePost(agentID schemas.AgentID, a schemas.CreatePostAction, round int64) ([]schemas.StateDelta, encodingjson.RawMessage, error) {
	if strings.TrimSpace(a.Content) == "" {
		return nil, nil, schemas.NewActionError(schemas.ErrCodeValidation, "post content must not be empty")
	}
	post, deltas := e.store.CreatePost(agentID, a.Content, round)
	e.logger.Debug("Post created",
		zap.Int64("post_id", post.ID),
		zap.Int64("author_id", int64(agentID)),
		zap.Int64("round", round),
	)
	return deltas, nil, nil
}

func (e *Executor) applyCreateComment(agentID schemas.AgentID, a schemas.CreateCommentAction, round int64) ([]schemas.StateDelta, encodingjson.RawMessage, error) {
	if a.PostID <= 0 {
		return nil, nil, schemas.NewActionError(schemas.ErrCodeValidation, "comment requires a post_id")
	}
	if strings.TrimSpace(a.Content) == "" {
		return nil, nil, schemas.NewActionError(schemas.ErrCodeValidation, "comment content must not be empty")
	}
	_, deltas, err := e.store.CreateComment(agentID, a.PostID, a.Content, round)
	if err != nil {
		return nil, nil, err
	}
	return deltas, nil, nil
}

func (e *Executor) applyVote(agentID schemas.AgentID, entity schemas.EntityKind, targetID int64, dir platform.VoteDirection) ([]schemas.StateDelta, encodingjson.RawMessage, error) {
	if targetID <= 0 {
		return nil, nil, schemas.NewActionError(schemas.ErrCodeValidation, "vote requires a target id")
	}
	deltas, err := e.store.SetVote(agentID, entity, targetID, dir)
	if err != nil {
		return nil, nil, err
	}
	return deltas, nil, nil
}

func (e *Executor) applyEdge(agentID, targetID schemas.AgentID, t graph.EdgeType) ([]schemas.StateDelta, encodingjson.RawMessage, error) {
	if targetID <= 0 {
		return nil, nil, schemas.NewActionError(schemas.ErrCodeValidation, "%s requires a target agent id", t)
	}
	added, err := e.graph.AddEdge(agentID, targetID, t)
	if err != nil {
		return nil, nil, err
	}
	if !added {
		// Duplicate edge is a no-op success.
		return nil, nil, nil
	}
	return []schemas.StateDelta{
		{Kind: schemas.DeltaEdgeUpserted, Entity: schemas.EntityEdge, EntityID: int64(targetID), Field: string(t), Value: int64(agentID)},
	}, nil, nil
}

// feedFor builds the agent's feed excerpt, hiding muted authors.
func (e *Executor) feedFor(agentID schemas.AgentID) []schemas.PostView {
	muted := e.graph.Neighbors(agentID, graph.EdgeMutes)
	exclude := make(map[schemas.AgentID]struct{}, len(muted))
	for _, id := range muted {
		exclude[id] = struct{}{}
	}
	return e.store.Feed(e.feedSize, exclude)
}

// searchUsers is a case-insensitive substring search over agent names.
func (e *Executor) searchUsers(query string) []schemas.AgentProfile {
	needle := strings.ToLower(query)
	out := make([]schemas.AgentProfile, 0)
	for _, p := range e.graph.Agents() {
		if needle == "" || strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
		}
	}
	return out
}

// readResult encodes a read-only action's payload. Read-only actions never
// mutate state and never fail.
func (e *Executor) readResult(payload any) ([]schemas.StateDelta, encodingjson.RawMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		// Payloads are slices of plain structs; treat a marshal failure as
		// an empty result rather than failing a read-only action.
		e.logger.Warn("Failed to encode read-only result", zap.Error(err))
		return nil, encodingjson.RawMessage("[]"), nil
	}
	return nil, encodingjson.RawMessage(raw), nil
}
