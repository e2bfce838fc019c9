// File: internal/platform/feed.go
package platform

import (
	"sort"
	"strings"

	"github.com/xkilldash9x/agorasim/api/schemas"
)

// Feed returns the most recent non-deleted posts, newest first, skipping
// authors in the exclude set (muted agents). Read-only: reflects committed
// state only.
func (s *Store) Feed(limit int, exclude map[schemas.AgentID]struct{}) []schemas.PostView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]schemas.PostView, 0, limit)
	for i := len(s.postOrder) - 1; i >= 0 && len(out) < limit; i-- {
		p := s.posts[s.postOrder[i]]
		if p.Deleted {
			continue
		}
		if _, muted := exclude[p.AuthorID]; muted {
			continue
		}
		out = append(out, postView(p))
	}
	return out
}

// SearchPosts is a case-insensitive substring search over non-deleted post
// content, oldest match first. An empty result is a success, not an error.
func (s *Store) SearchPosts(query string, limit int) []schemas.PostView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(query)
	out := make([]schemas.PostView, 0)
	for _, id := range s.postOrder {
		p := s.posts[id]
		if p.Deleted {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.Content), needle) {
			continue
		}
		out = append(out, postView(p))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Trending ranks non-deleted posts by net score (likes minus dislikes),
// ties broken by ascending id for determinism.
func (s *Store) Trending(limit int) []schemas.PostView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]schemas.PostView, 0, len(s.posts))
	for _, id := range s.postOrder {
		p := s.posts[id]
		if p.Deleted {
			continue
		}
		views = append(views, postView(p))
	}
	sort.SliceStable(views, func(i, j int) bool {
		si := views[i].Likes - views[i].Dislikes
		sj := views[j].Likes - views[j].Dislikes
		if si != sj {
			return si > sj
		}
		return views[i].ID < views[j].ID
	})
	if limit > 0 && len(views) > limit {
		views = views[:limit]
	}
	return views
}
