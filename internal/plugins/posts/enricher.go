package posts

import (
	"context"
	"fmt"

	"github.com/keyxmakerx/quillpad/internal/access"
)

// Enricher fills in the per-request fields of posts: whether the requester
// liked each post and, where they may see it, who liked it. LikesCount is
// computed by the repository query.
type Enricher struct {
	likes LikeLookup
}

// NewEnricher creates an Enricher reading likes through lookup.
func NewEnricher(lookup LikeLookup) *Enricher {
	return &Enricher{likes: lookup}
}

// Enrich updates posts in place for principal p. Every post gets LikedByMe;
// Likers is set to a non-nil slice only on posts p authored or when p is a
// manager, and reset to nil everywhere else.
func (e *Enricher) Enrich(ctx context.Context, posts []Post, p *access.Principal) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]int64, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
		posts[i].LikedByMe = false
		posts[i].Likers = nil
	}

	if profileID, ok := access.ResolveProfileID(p); ok {
		liked, err := e.likes.LikedPostIDs(ctx, profileID, ids)
		if err != nil {
			return fmt.Errorf("loading liked posts: %w", err)
		}
		for i := range posts {
			posts[i].LikedByMe = liked[posts[i].ID]
		}
	}

	var visible []int64
	for i := range posts {
		if CanSeeLikers(p, &posts[i]) {
			visible = append(visible, posts[i].ID)
		}
	}
	if len(visible) == 0 {
		return nil
	}

	likers, err := e.likes.RecentLikers(ctx, visible, maxLikers)
	if err != nil {
		return fmt.Errorf("loading likers: %w", err)
	}
	for i := range posts {
		if !CanSeeLikers(p, &posts[i]) {
			continue
		}
		posts[i].Likers = append([]Liker{}, likers[posts[i].ID]...)
	}
	return nil
}

// CanSeeLikers reports whether p may see who liked post: its author and
// managers may.
func CanSeeLikers(p *access.Principal, post *Post) bool {
	if access.IsManager(p) {
		return true
	}
	profileID, ok := access.ResolveProfileID(p)
	return ok && profileID == post.AuthorID
}
