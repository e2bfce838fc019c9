// File: api/schemas/actions.go
package schemas

import (
	encodingjson "encoding/json"
	"fmt"

	json "github.com/json-iterator/go"
)

// ActionType identifies one kind of platform action. The set of types is
// closed: unknown kinds are rejected at the decode boundary, never deep in
// the executor.
type ActionType string

const (
	ActionCreatePost     ActionType = "CREATE_POST"
	ActionCreateComment  ActionType = "CREATE_COMMENT"
	ActionLikePost       ActionType = "LIKE_POST"
	ActionDislikePost    ActionType = "DISLIKE_POST"
	ActionLikeComment    ActionType = "LIKE_COMMENT"
	ActionDislikeComment ActionType = "DISLIKE_COMMENT"
	ActionFollow         ActionType = "FOLLOW"
	ActionMute           ActionType = "MUTE"
	ActionSearchPosts    ActionType = "SEARCH_POSTS"
	ActionSearchUser     ActionType = "SEARCH_USER"
	ActionTrend          ActionType = "TREND"
	ActionRefresh        ActionType = "REFRESH"
	ActionDoNothing      ActionType = "DO_NOTHING"
)

// AllActionTypes lists every action type the platform understands, in a
// stable order suitable for prompts and configuration validation.
func AllActionTypes() []ActionType {
	return []ActionType{
		ActionCreatePost, ActionCreateComment,
		ActionLikePost, ActionDislikePost,
		ActionLikeComment, ActionDislikeComment,
		ActionFollow, ActionMute,
		ActionSearchPosts, ActionSearchUser,
		ActionTrend, ActionRefresh,
		ActionDoNothing,
	}
}

// Action is the closed tagged-variant representation of a resolved action.
// Each variant carries only its statically typed arguments.
type Action interface {
	Type() ActionType
	// isAction seals the interface so only this package can add variants.
	isAction()
}

// CreatePostAction publishes a new post authored by the acting agent.
type CreatePostAction struct {
	Content string `json:"content"`
}

// CreateCommentAction attaches a comment to an existing, non-deleted post.
type CreateCommentAction struct {
	PostID  int64  `json:"post_id"`
	Content string `json:"content"`
}

// LikePostAction sets the acting agent's vote on a post to "like".
type LikePostAction struct {
	PostID int64 `json:"post_id"`
}

// DislikePostAction sets the acting agent's vote on a post to "dislike".
type DislikePostAction struct {
	PostID int64 `json:"post_id"`
}

// LikeCommentAction sets the acting agent's vote on a comment to "like".
type LikeCommentAction struct {
	CommentID int64 `json:"comment_id"`
}

// DislikeCommentAction sets the acting agent's vote on a comment to "dislike".
type DislikeCommentAction struct {
	CommentID int64 `json:"comment_id"`
}

// FollowAction upserts a follow edge from the acting agent to the target.
type FollowAction struct {
	TargetID AgentID `json:"target_id"`
}

// MuteAction upserts a mute edge from the acting agent to the target.
type MuteAction struct {
	TargetID AgentID `json:"target_id"`
}

// SearchPostsAction is a read-only substring search over post content.
type SearchPostsAction struct {
	Query string `json:"query"`
}

// SearchUserAction is a read-only search over agent names.
type SearchUserAction struct {
	Query string `json:"query"`
}

// TrendAction is a read-only request for the current trending posts.
type TrendAction struct{}

// RefreshAction is a read-only request for the acting agent's feed.
type RefreshAction struct{}

// DoNothingAction records that the agent deliberately sat this round out.
type DoNothingAction struct{}

func (CreatePostAction) Type() ActionType     { return ActionCreatePost }
func (CreateCommentAction) Type() ActionType  { return ActionCreateComment }
func (LikePostAction) Type() ActionType       { return ActionLikePost }
func (DislikePostAction) Type() ActionType    { return ActionDislikePost }
func (LikeCommentAction) Type() ActionType    { return ActionLikeComment }
func (DislikeCommentAction) Type() ActionType { return ActionDislikeComment }
func (FollowAction) Type() ActionType         { return ActionFollow }
func (MuteAction) Type() ActionType           { return ActionMute }
func (SearchPostsAction) Type() ActionType    { return ActionSearchPosts }
func (SearchUserAction) Type() ActionType     { return ActionSearchUser }
func (TrendAction) Type() ActionType          { return ActionTrend }
func (RefreshAction) Type() ActionType        { return ActionRefresh }
func (DoNothingAction) Type() ActionType      { return ActionDoNothing }

func (CreatePostAction) isAction()     {}
func (CreateCommentAction) isAction()  {}
func (LikePostAction) isAction()       {}
func (DislikePostAction) isAction()    {}
func (LikeCommentAction) isAction()    {}
func (DislikeCommentAction) isAction() {}
func (FollowAction) isAction()         {}
func (MuteAction) isAction()           {}
func (SearchPostsAction) isAction()    {}
func (SearchUserAction) isAction()     {}
func (TrendAction) isAction()          {}
func (RefreshAction) isAction()        {}
func (DoNothingAction) isAction()      {}

// DecodeAction converts a loosely typed (type, argument-bag) pair into the
// closed variant type for that kind. Unknown kinds fail with InvalidAction;
// an argument bag that cannot be bound to the variant's fields fails with
// ValidationError.
func DecodeAction(t ActionType, args map[string]any) (Action, error) {
	var target Action
	switch t {
	case ActionCreatePost:
		target = &CreatePostAction{}
	case ActionCreateComment:
		target = &CreateCommentAction{}
	case ActionLikePost:
		target = &LikePostAction{}
	case ActionDislikePost:
		target = &DislikePostAction{}
	case ActionLikeComment:
		target = &LikeCommentAction{}
	case ActionDislikeComment:
		target = &DislikeCommentAction{}
	case ActionFollow:
		target = &FollowAction{}
	case ActionMute:
		target = &MuteAction{}
	case ActionSearchPosts:
		target = &SearchPostsAction{}
	case ActionSearchUser:
		target = &SearchUserAction{}
	case ActionTrend:
		target = &TrendAction{}
	case ActionRefresh:
		target = &RefreshAction{}
	case ActionDoNothing:
		target = &DoNothingAction{}
	default:
		return nil, NewActionError(ErrCodeInvalidAction, "unrecognized action type %q", t)
	}

	if len(args) > 0 {
		raw, err := json.Marshal(args)
		if err != nil {
			return nil, NewActionError(ErrCodeValidation, "unencodable arguments for %s: %v", t, err)
		}
		if err := json.Unmarshal(raw, target); err != nil {
			return nil, NewActionError(ErrCodeValidation, "malformed arguments for %s: %v", t, err)
		}
	}

	return deref(target), nil
}

// EncodeActionArgs renders an action's arguments as canonical JSON for
// trace records. Argument-less actions encode as an empty object.
func EncodeActionArgs(a Action) encodingjson.RawMessage {
	raw, err := json.Marshal(a)
	if err != nil {
		// Variants are plain structs of scalars; marshal cannot fail in
		// practice, but the trace must never be left without arguments.
		return encodingjson.RawMessage(fmt.Sprintf(`{"encode_error":%q}`, err.Error()))
	}
	return encodingjson.RawMessage(raw)
}

// deref unwraps the pointer used during decoding so callers receive value
// variants and executor type switches stay pointer-free.
func deref(a Action) Action {
	switch v := a.(type) {
	case *CreatePostAction:
		return *v
	case *CreateCommentAction:
		return *v
	case *LikePostAction:
		return *v
	case *DislikePostAction:
		return *v
	case *LikeCommentAction:
		return *v
	case *DislikeCommentAction:
		return *v
	case *FollowAction:
		return *v
	case *MuteAction:
		return *v
	case *SearchPostsAction:
		return *v
	case *SearchUserAction:
		return *v
	case *TrendAction:
		return *v
	case *RefreshAction:
		return *v
	case *DoNothingAction:
		return *v
	default:
		return a
	}
}
