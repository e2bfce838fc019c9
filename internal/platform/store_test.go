// File: internal/platform/store_test.go
package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/agorasim/api/schemas"
)

func TestCreatePost_SequentialIDs(t *testing.T) {
	s := NewStore()

	p1, deltas := s.CreatePost(1, "first", 1)
	assert.Equal(t, int64(1), p1.ID)
	require.Len(t, deltas, 1)
	assert.Equal(t, schemas.DeltaPostCreated, deltas[0].Kind)
	assert.Equal(t, int64(1), deltas[0].EntityID)

	p2, _ := s.CreatePost(2, "second", 1)
	assert.Equal(t, int64(2), p2.ID)

	view, ok := s.GetPost(1)
	require.True(t, ok)
	assert.Equal(t, "first", view.Content)
	assert.Equal(t, schemas.AgentID(1), view.AuthorID)
	assert.Zero(t, view.Likes)
}

func TestCreateComment(t *testing.T) {
	s := NewStore()
	post, _ := s.CreatePost(1, "hello", 1)

	c, deltas, err := s.CreateComment(2, post.ID, "welcome", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ID)
	assert.Equal(t, post.ID, c.PostID)

	// Comment creation and the parent counter bump commit together.
	require.Len(t, deltas, 2)
	assert.Equal(t, schemas.DeltaCommentCreated, deltas[0].Kind)
	assert.Equal(t, schemas.DeltaCounterAdjust, deltas[1].Kind)
	assert.Equal(t, "comment_count", deltas[1].Field)

	view, ok := s.GetPost(post.ID)
	require.True(t, ok)
	assert.Equal(t, int64(1), view.CommentCount)
}

func TestCreateComment_MissingPost(t *testing.T) {
	s := NewStore()

	_, _, err := s.CreateComment(1, 999, "into the void", 1)
	require.Error(t, err)
	code, ok := schemas.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, schemas.ErrCodeNotFound, code)
}

func TestCreateComment_DeletedPost(t *testing.T) {
	s := NewStore()
	post, _ := s.CreatePost(1, "short-lived", 1)
	require.NoError(t, s.MarkPostDeleted(post.ID))

	_, _, err := s.CreateComment(2, post.ID, "too late", 2)
	require.Error(t, err)
	code, _ := schemas.CodeOf(err)
	assert.Equal(t, schemas.ErrCodeNotFound, code)

	_, ok := s.GetPost(post.ID)
	assert.False(t, ok, "deleted posts must not resolve")
}

func TestSetVote_Idempotent(t *testing.T) {
	s := NewStore()
	post, _ := s.CreatePost(1, "votable", 1)

	deltas, err := s.SetVote(2, schemas.EntityPost, post.ID, VoteLike)
	require.NoError(t, err)
	assert.NotEmpty(t, deltas)

	// Same agent, same direction: success with no counter movement.
	deltas, err = s.SetVote(2, schemas.EntityPost, post.ID, VoteLike)
	require.NoError(t, err)
	assert.Empty(t, deltas)

	view, _ := s.GetPost(post.ID)
	assert.Equal(t, int64(1), view.Likes)
	assert.Equal(t, int64(0), view.Dislikes)
}

func TestSetVote_ReversalMovesOneUnit(t *testing.T) {
	s := NewStore()
	post, _ := s.CreatePost(1, "contested", 1)

	_, err := s.SetVote(2, schemas.EntityPost, post.ID, VoteLike)
	require.NoError(t, err)

	deltas, err := s.SetVote(2, schemas.EntityPost, post.ID, VoteDislike)
	require.NoError(t, err)
	// vote_set plus two counter adjustments: likes -1, dislikes +1.
	require.Len(t, deltas, 3)
	assert.Equal(t, schemas.DeltaVoteSet, deltas[0].Kind)

	view, _ := s.GetPost(post.ID)
	assert.Equal(t, int64(0), view.Likes)
	assert.Equal(t, int64(1), view.Dislikes)

	dir, ok := s.Vote(2, schemas.EntityPost, post.ID)
	require.True(t, ok)
	assert.Equal(t, VoteDislike, dir)
}

func TestSetVote_CommentTarget(t *testing.T) {
	s := NewStore()
	post, _ := s.CreatePost(1, "parent", 1)
	c, _, err := s.CreateComment(2, post.ID, "child", 1)
	require.NoError(t, err)

	_, err = s.SetVote(3, schemas.EntityComment, c.ID, VoteDislike)
	require.NoError(t, err)

	view, ok := s.GetComment(c.ID)
	require.True(t, ok)
	assert.Equal(t, int64(1), view.Dislikes)
}

func TestSetVote_MissingTarget(t *testing.T) {
	s := NewStore()

	_, err := s.SetVote(1, schemas.EntityPost, 5, VoteLike)
	require.Error(t, err)
	code, _ := schemas.CodeOf(err)
	assert.Equal(t, schemas.ErrCodeNotFound, code)

	_, err = s.SetVote(1, schemas.EntityComment, 5, VoteLike)
	require.Error(t, err)

	_, err = s.SetVote(1, schemas.EntityEdge, 5, VoteLike)
	require.Error(t, err)
	code, _ = schemas.CodeOf(err)
	assert.Equal(t, schemas.ErrCodeValidation, code)
}

func TestReset_RestartsIDAllocation(t *testing.T) {
	s := NewStore()
	s.CreatePost(1, "before", 1)
	s.CreatePost(1, "more", 1)
	require.Equal(t, 2, s.PostCount())

	s.Reset()
	assert.Equal(t, 0, s.PostCount())

	p, _ := s.CreatePost(1, "after", 1)
	assert.Equal(t, int64(1), p.ID, "ids restart at 1 after a reset")
}

func TestMarkPostDeleted_Missing(t *testing.T) {
	s := NewStore()
	require.Error(t, s.MarkPostDeleted(1))

	post, _ := s.CreatePost(1, "x", 1)
	require.NoError(t, s.MarkPostDeleted(post.ID))
	// Deleting twice fails the same way as deleting a missing post.
	require.Error(t, s.MarkPostDeleted(post.ID))
}
