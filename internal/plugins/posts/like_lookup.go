package posts

import (
	"context"

	"github.com/keyxmakerx/quillpad/internal/plugins/likes"
)

// LikeLookup is the read access the Enricher needs to likes. Defined here so
// the likes package never has to know about posts.
type LikeLookup interface {
	// LikedPostIDs reports which of postIDs the profile has liked.
	LikedPostIDs(ctx context.Context, profileID int64, postIDs []int64) (map[int64]bool, error)

	// RecentLikers returns up to limit likers per post, most recent first.
	RecentLikers(ctx context.Context, postIDs []int64, limit int) (map[int64][]Liker, error)
}

// LikeLookupAdapter wraps the likes repository to satisfy LikeLookup.
type LikeLookupAdapter struct {
	repo likes.LikeRepository
}

// NewLikeLookupAdapter creates a new adapter.
func NewLikeLookupAdapter(repo likes.LikeRepository) *LikeLookupAdapter {
	return &LikeLookupAdapter{repo: repo}
}

// LikedPostIDs implements LikeLookup.
func (a *LikeLookupAdapter) LikedPostIDs(ctx context.Context, profileID int64, postIDs []int64) (map[int64]bool, error) {
	return a.repo.LikedPostIDs(ctx, profileID, postIDs)
}

// RecentLikers implements LikeLookup.
func (a *LikeLookupAdapter) RecentLikers(ctx context.Context, postIDs []int64, limit int) (map[int64][]Liker, error) {
	batch, err := a.repo.RecentLikersBatch(ctx, postIDs, limit)
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]Liker, len(batch))
	for postID, likers := range batch {
		converted := make([]Liker, len(likers))
		for i, l := range likers {
			converted[i] = Liker{ID: l.ProfileID, Username: l.Username}
		}
		out[postID] = converted
	}
	return out, nil
}
