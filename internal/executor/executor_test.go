// File: internal/executor/executor_test.go
package executor

import (
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/agorasim/api/schemas"
	"github.com/xkilldash9x/agorasim/internal/graph"
	"github.com/xkilldash9x/agorasim/internal/platform"
)

// newTestExecutor rigs up an executor over a fresh store and a population
// of three agents.
func newTestExecutor(t *testing.T) (*Executor, *platform.Store, *graph.Graph) {
	t.Helper()
	store := platform.NewStore()
	g := graph.New()
	for id, name := range map[schemas.AgentID]string{1: "alice", 2: "bob", 3: "carol"} {
		require.NoError(t, g.AddAgent(schemas.AgentProfile{ID: id, Name: name}))
	}
	return New(store, g, zap.NewNop(), 20, 10), store, g
}

func assertCode(t *testing.T, err error, want schemas.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	code, ok := schemas.CodeOf(err)
	require.True(t, ok, "error carries no structured code: %v", err)
	assert.Equal(t, want, code)
}

func TestApply_UnknownAgent(t *testing.T) {
	e, _, _ := newTestExecutor(t)
	_, _, err := e.Apply(99, schemas.CreatePostAction{Content: "ghost"}, 1)
	assertCode(t, err, schemas.ErrCodeNotFound)
}

func TestApply_CreatePost(t *testing.T) {
	e, store, _ := newTestExecutor(t)

	deltas, result, err := e.Apply(1, schemas.CreatePostAction{Content: "Hello, world!"}, 1)
	require.NoError(t, err)
	assert.Nil(t, result)
	require.Len(t, deltas, 1)
	assert.Equal(t, schemas.DeltaPostCreated, deltas[0].Kind)

	view, ok := store.GetPost(deltas[0].EntityID)
	require.True(t, ok)
	assert.Equal(t, "Hello, world!", view.Content)
}

func TestApply_CreatePost_EmptyContent(t *testing.T) {
	e, _, _ := newTestExecutor(t)
	_, _, err := e.Apply(1, schemas.CreatePostAction{Content: "   "}, 1)
	assertCode(t, err, schemas.ErrCodeValidation)
}

func TestApply_CreateComment(t *testing.T) {
	e, store, _ := newTestExecutor(t)
	post, _ := store.CreatePost(1, "parent", 1)

	deltas, _, err := e.Apply(2, schemas.CreateCommentAction{PostID: post.ID, Content: "Welcome"}, 2)
	require.NoError(t, err)
	require.Len(t, deltas, 2)

	view, _ := store.GetPost(post.ID)
	assert.Equal(t, int64(1), view.CommentCount)
}

func TestApply_CreateComment_Validation(t *testing.T) {
	e, _, _ := newTestExecutor(t)

	_, _, err := e.Apply(1, schemas.CreateCommentAction{PostID: 0, Content: "x"}, 1)
	assertCode(t, err, schemas.ErrCodeValidation)

	_, _, err = e.Apply(1, schemas.CreateCommentAction{PostID: 1, Content: ""}, 1)
	assertCode(t, err, schemas.ErrCodeValidation)

	_, _, err = e.Apply(1, schemas.CreateCommentAction{PostID: 999, Content: "x"}, 1)
	assertCode(t, err, schemas.ErrCodeNotFound)
}

func TestApply_Votes(t *testing.T) {
	e, store, _ := newTestExecutor(t)
	post, _ := store.CreatePost(1, "votable", 1)

	_, _, err := e.Apply(2, schemas.LikePostAction{PostID: post.ID}, 1)
	require.NoError(t, err)
	_, _, err = e.Apply(3, schemas.DislikePostAction{PostID: post.ID}, 1)
	require.NoError(t, err)

	view, _ := store.GetPost(post.ID)
	assert.Equal(t, int64(1), view.Likes)
	assert.Equal(t, int64(1), view.Dislikes)

	_, _, err = e.Apply(2, schemas.LikePostAction{PostID: 0}, 1)
	assertCode(t, err, schemas.ErrCodeValidation)

	_, _, err = e.Apply(2, schemas.LikeCommentAction{CommentID: 7}, 1)
	assertCode(t, err, schemas.ErrCodeNotFound)
}

func TestApply_FollowAndMute(t *testing.T) {
	e, _, g := newTestExecutor(t)

	deltas, _, err := e.Apply(1, schemas.FollowAction{TargetID: 2}, 1)
	require.NoError(t, err)
	require.Len(t, deltas, 1)
	assert.Equal(t, schemas.DeltaEdgeUpserted, deltas[0].Kind)
	assert.True(t, g.HasEdge(1, 2, graph.EdgeFollows))

	// Duplicate follow is a success with no deltas.
	deltas, _, err = e.Apply(1, schemas.FollowAction{TargetID: 2}, 2)
	require.NoError(t, err)
	assert.Empty(t, deltas)

	_, _, err = e.Apply(1, schemas.MuteAction{TargetID: 3}, 1)
	require.NoError(t, err)
	assert.True(t, g.HasEdge(1, 3, graph.EdgeMutes))
}

func TestApply_SelfEdgeRejected(t *testing.T) {
	e, _, _ := newTestExecutor(t)

	_, _, err := e.Apply(1, schemas.FollowAction{TargetID: 1}, 1)
	assertCode(t, err, schemas.ErrCodeValidation)

	_, _, err = e.Apply(1, schemas.MuteAction{TargetID: 1}, 1)
	assertCode(t, err, schemas.ErrCodeValidation)

	_, _, err = e.Apply(1, schemas.FollowAction{TargetID: 0}, 1)
	assertCode(t, err, schemas.ErrCodeValidation)
}

func TestApply_Refresh_HidesMutedAuthors(t *testing.T) {
	e, store, _ := newTestExecutor(t)
	store.CreatePost(2, "from bob", 1)
	store.CreatePost(3, "from carol", 1)

	_, _, err := e.Apply(1, schemas.MuteAction{TargetID: 3}, 1)
	require.NoError(t, err)

	_, result, err := e.Apply(1, schemas.RefreshAction{}, 2)
	require.NoError(t, err)

	var feed []schemas.PostView
	require.NoError(t, json.Unmarshal(result, &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, schemas.AgentID(2), feed[0].AuthorID)
}

func TestApply_SearchPosts(t *testing.T) {
	e, store, _ := newTestExecutor(t)
	store.CreatePost(1, "all about gophers", 1)
	store.CreatePost(2, "unrelated", 1)

	_, result, err := e.Apply(1, schemas.SearchPostsAction{Query: "gopher"}, 2)
	require.NoError(t, err)

	var hits []schemas.PostView
	require.NoError(t, json.Unmarshal(result, &hits))
	require.Len(t, hits, 1)
	assert.Equal(t, "all about gophers", hits[0].Content)
}

func TestApply_SearchUser(t *testing.T) {
	e, _, _ := newTestExecutor(t)

	_, result, err := e.Apply(1, schemas.SearchUserAction{Query: "BOB"}, 1)
	require.NoError(t, err)

	var hits []schemas.AgentProfile
	require.NoError(t, json.Unmarshal(result, &hits))
	require.Len(t, hits, 1)
	assert.Equal(t, schemas.AgentID(2), hits[0].ID)

	// Empty result is a success, not an error.
	_, result, err = e.Apply(1, schemas.SearchUserAction{Query: "nobody"}, 1)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(result, &hits))
	assert.Empty(t, hits)
}

func TestApply_Trend(t *testing.T) {
	e, store, _ := newTestExecutor(t)
	store.CreatePost(1, "quiet", 1)
	hot, _ := store.CreatePost(2, "hot", 1)
	_, err := store.SetVote(3, schemas.EntityPost, hot.ID, platform.VoteLike)
	require.NoError(t, err)

	_, result, err := e.Apply(1, schemas.TrendAction{}, 2)
	require.NoError(t, err)

	var trending []schemas.PostView
	require.NoError(t, json.Unmarshal(result, &trending))
	require.Len(t, trending, 2)
	assert.Equal(t, "hot", trending[0].Content)
}

func TestApply_DoNothing(t *testing.T) {
	e, _, _ := newTestExecutor(t)
	deltas, result, err := e.Apply(1, schemas.DoNothingAction{}, 1)
	require.NoError(t, err)
	assert.Nil(t, deltas)
	assert.Nil(t, result)
}
