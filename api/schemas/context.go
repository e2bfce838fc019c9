// File: api/schemas/context.go
package schemas

// AgentProfile is the read-only identity and trait bag of one agent as the
// decision policy sees it. Profiles are fixed at graph construction time.
type AgentProfile struct {
	ID         AgentID           `json:"id"`
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// PostView is a read-only excerpt of one post, suitable for feeds, search
// results, and decision-policy context.
type PostView struct {
	ID           int64   `json:"id"`
	AuthorID     AgentID `json:"author_id"`
	AuthorName   string  `json:"author_name,omitempty"`
	Content      string  `json:"content"`
	Round        int64   `json:"round"`
	Likes        int64   `json:"likes"`
	Dislikes     int64   `json:"dislikes"`
	CommentCount int64   `json:"comment_count"`
}

// CommentView is a read-only excerpt of one comment.
type CommentView struct {
	ID       int64   `json:"id"`
	PostID   int64   `json:"post_id"`
	AuthorID AgentID `json:"author_id"`
	Content  string  `json:"content"`
	Round    int64   `json:"round"`
	Likes    int64   `json:"likes"`
	Dislikes int64   `json:"dislikes"`
}

// DecisionContext is the snapshot handed to a decision policy gateway when
// a policy-driven request must be resolved. It reflects committed state
// from prior rounds only; in-flight writes of the current round are not
// visible at resolution time.
type DecisionContext struct {
	Round            int64        `json:"round"`
	Agent            AgentProfile `json:"agent"`
	Feed             []PostView   `json:"feed,omitempty"`
	Following        []AgentID    `json:"following,omitempty"`
	AvailableActions []ActionType `json:"available_actions"`
}
