// File: internal/platform/store.go
package platform

import (
	"sync"

	"github.com/xkilldash9x/agorasim/api/schemas"
)

// VoteDirection is the per-(agent, target) vote state. An agent holds at
// most one active direction per target; re-voting replaces it.
type VoteDirection string

const (
	VoteLike    VoteDirection = "like"
	VoteDislike VoteDirection = "dislike"
)

// Post is the canonical record of one published post. Posts are never
// physically removed, only flagged deleted.
type Post struct {
	ID           int64
	AuthorID     schemas.AgentID
	Content      string
	Round        int64
	Likes        int64
	Dislikes     int64
	CommentCount int64
	Deleted      bool
}

// Comment is the canonical record of one comment on a post.
type Comment struct {
	ID       int64
	PostID   int64
	AuthorID schemas.AgentID
	Content  string
	Round    int64
	Likes    int64
	Dislikes int64
}

// voteKey identifies one (agent, target) vote relation.
type voteKey struct {
	agent  schemas.AgentID
	entity schemas.EntityKind
	id     int64
}

// Store owns the canonical mutable platform state. Every mutation is a
// single compound operation under one lock, so cross-entity effects (a
// comment touching both the comment table and its parent's counter) commit
// together or not at all, and concurrent id allocations never collide.
type Store struct {
	mu            sync.RWMutex
	posts         map[int64]*Post
	postOrder     []int64
	comments      map[int64]*Comment
	votes         map[voteKey]VoteDirection
	nextPostID    int64
	nextCommentID int64
}

// NewStore creates an empty platform state store. Id allocation is
// deterministic and sequential starting at 1 per fresh store.
func NewStore() *Store {
	s := &Store{}
	s.resetLocked()
	return s
}

// Reset clears all platform state and restarts id allocation at 1.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Store) resetLocked() {
	s.posts = make(map[int64]*Post)
	s.postOrder = nil
	s.comments = make(map[int64]*Comment)
	s.votes = make(map[voteKey]VoteDirection)
	s.nextPostID = 1
	s.nextCommentID = 1
}

// CreatePost allocates the next post id and stores the post with zeroed
// counters.
func (s *Store) CreatePost(author schemas.AgentID, content string, round int64) (Post, []schemas.StateDelta) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &Post{
		ID:       s.nextPostID,
		AuthorID: author,
		Content:  content,
		Round:    round,
	}
	s.nextPostID++
	s.posts[p.ID] = p
	s.postOrder = append(s.postOrder, p.ID)

	return *p, []schemas.StateDelta{
		{Kind: schemas.DeltaPostCreated, Entity: schemas.EntityPost, EntityID: p.ID},
	}
}

// CreateComment stores a comment against an existing, non-deleted post and
// bumps the parent's comment count in the same atomic operation.
func (s *Store) CreateComment(author schemas.AgentID, postID int64, content string, round int64) (Comment, []schemas.StateDelta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, ok := s.posts[postID]
	if !ok || parent.Deleted {
		return Comment{}, nil, schemas.NewActionError(schemas.ErrCodeNotFound, "post %d does not exist", postID)
	}

	c := &Comment{
		ID:       s.nextCommentID,
		PostID:   postID,
		AuthorID: author,
		Content:  content,
		Round:    round,
	}
	s.nextCommentID++
	s.comments[c.ID] = c
	parent.CommentCount++

	return *c, []schemas.StateDelta{
		{Kind: schemas.DeltaCommentCreated, Entity: schemas.EntityComment, EntityID: c.ID},
		{Kind: schemas.DeltaCounterAdjust, Entity: schemas.EntityPost, EntityID: postID, Field: "comment_count", Value: 1},
	}, nil
}

// SetVote replaces the agent's vote state on the target. The counters
// reflect only the most recent vote: an idempotent re-vote changes
// nothing, and a reversed vote moves one unit between the two counters
// atomically.
func (s *Store) SetVote(agent schemas.AgentID, entity schemas.EntityKind, targetID int64, dir VoteDirection) ([]schemas.StateDelta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	likes, dislikes, err := s.countersLocked(entity, targetID)
	if err != nil {
		return nil, err
	}

	key := voteKey{agent: agent, entity: entity, id: targetID}
	prev, had := s.votes[key]
	if had && prev == dir {
		// Idempotent re-vote: success, no counter movement.
		return nil, nil
	}

	var deltas []schemas.StateDelta
	if had {
		if prev == VoteLike {
			*likes--
			deltas = append(deltas, schemas.StateDelta{Kind: schemas.DeltaCounterAdjust, Entity: entity, EntityID: targetID, Field: "likes", Value: -1})
		} else {
			*dislikes--
			deltas = append(deltas, schemas.StateDelta{Kind: schemas.DeltaCounterAdjust, Entity: entity, EntityID: targetID, Field: "dislikes", Value: -1})
		}
	}
	if dir == VoteLike {
		*likes++
		deltas = append(deltas, schemas.StateDelta{Kind: schemas.DeltaCounterAdjust, Entity: entity, EntityID: targetID, Field: "likes", Value: 1})
	} else {
		*dislikes++
		deltas = append(deltas, schemas.StateDelta{Kind: schemas.DeltaCounterAdjust, Entity: entity, EntityID: targetID, Field: "dislikes", Value: 1})
	}
	s.votes[key] = dir

	deltas = append([]schemas.StateDelta{
		{Kind: schemas.DeltaVoteSet, Entity: entity, EntityID: targetID, Field: string(dir), Value: int64(agent)},
	}, deltas...)
	return deltas, nil
}

// countersLocked resolves the like/dislike counters of a vote target.
func (s *Store) countersLocked(entity schemas.EntityKind, targetID int64) (likes, dislikes *int64, err error) {
	switch entity {
	case schemas.EntityPost:
		p, ok := s.posts[targetID]
		if !ok || p.Deleted {
			return nil, nil, schemas.NewActionError(schemas.ErrCodeNotFound, "post %d does not exist", targetID)
		}
		return &p.Likes, &p.Dislikes, nil
	case schemas.EntityComment:
		c, ok := s.comments[targetID]
		if !ok {
			return nil, nil, schemas.NewActionError(schemas.ErrCodeNotFound, "comment %d does not exist", targetID)
		}
		return &c.Likes, &c.Dislikes, nil
	default:
		return nil, nil, schemas.NewActionError(schemas.ErrCodeValidation, "votes target posts or comments, not %q", entity)
	}
}

// MarkPostDeleted flags a post as deleted. The record stays in place so
// existing comment references keep resolving for audit purposes.
func (s *Store) MarkPostDeleted(postID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok || p.Deleted {
		return schemas.NewActionError(schemas.ErrCodeNotFound, "post %d does not exist", postID)
	}
	p.Deleted = true
	return nil
}

// GetPost returns a view of a non-deleted post.
func (s *Store) GetPost(id int64) (schemas.PostView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok || p.Deleted {
		return schemas.PostView{}, false
	}
	return postView(p), true
}

// GetComment returns a view of a comment.
func (s *Store) GetComment(id int64) (schemas.CommentView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok {
		return schemas.CommentView{}, false
	}
	return schemas.CommentView{
		ID:       c.ID,
		PostID:   c.PostID,
		AuthorID: c.AuthorID,
		Content:  c.Content,
		Round:    c.Round,
		Likes:    c.Likes,
		Dislikes: c.Dislikes,
	}, true
}

// Vote returns the agent's current vote direction on the target, if any.
func (s *Store) Vote(agent schemas.AgentID, entity schemas.EntityKind, targetID int64) (VoteDirection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dir, ok := s.votes[voteKey{agent: agent, entity: entity, id: targetID}]
	return dir, ok
}

// PostCount returns the number of non-deleted posts.
func (s *Store) PostCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.posts {
		if !p.Deleted {
			n++
		}
	}
	return n
}

func postView(p *Post) schemas.PostView {
	return schemas.PostView{
		ID:           p.ID,
		AuthorID:     p.AuthorID,
		Content:      p.Content,
		Round:        p.Round,
		Likes:        p.Likes,
		Dislikes:     p.Dislikes,
		CommentCount: p.CommentCount,
	}
}
