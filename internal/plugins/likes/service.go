package likes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/keyxmakerx/quillpad/internal/access"
	"github.com/keyxmakerx/quillpad/internal/apperror"
	"github.com/keyxmakerx/quillpad/internal/pagination"
)

// LikeService defines the business logic contract for likes.
type LikeService interface {
	// Like makes the caller's profile like postID. Repeating the call
	// returns the existing like with created=false.
	Like(ctx context.Context, p *access.Principal, postID int64, likeType string) (like *Like, created bool, err error)

	// Unlike removes the caller's like on postID.
	Unlike(ctx context.Context, p *access.Principal, postID int64) error

	Get(ctx context.Context, p *access.Principal, id int64) (*Like, error)
	Delete(ctx context.Context, p *access.Principal, id int64) error

	// List returns the caller's own likes, optionally for one post.
	List(ctx context.Context, p *access.Principal, postID int64, opts pagination.ListOptions) ([]Like, int, error)
}

// likeService implements LikeService.
type likeService struct {
	repo LikeRepository
}

// NewLikeService creates a new LikeService backed by the given repository.
func NewLikeService(repo LikeRepository) LikeService {
	return &likeService{repo: repo}
}

// Like implements LikeService. The like is always bound to the caller's own
// profile; no request field can name another one.
func (s *likeService) Like(ctx context.Context, p *access.Principal, postID int64, likeType string) (*Like, bool, error) {
	if err := access.Check(p, access.ResourceLike, access.ActionCreate, nil); err != nil {
		return nil, false, err
	}
	profileID, err := callerProfile(p)
	if err != nil {
		return nil, false, err
	}

	lt := TypeLike
	if likeType != "" {
		lt = LikeType(likeType)
		if !lt.IsValid() {
			return nil, false, apperror.NewFieldError("like_type", fmt.Sprintf("%q is not a valid choice.", likeType))
		}
	}

	like, created, err := s.repo.FindOrCreate(ctx, profileID, postID, lt)
	if errors.Is(err, ErrPostNotFound) {
		return nil, false, apperror.NewFieldError("post", fmt.Sprintf("Invalid pk %q - object does not exist.", fmt.Sprint(postID)))
	}
	if err != nil {
		return nil, false, wrapRepoErr(err)
	}

	if err := access.Check(p, access.ResourceLike, access.ActionCreate, like); err != nil {
		return nil, false, err
	}

	if created {
		slog.Info("post liked",
			slog.Int64("post_id", postID),
			slog.Int64("profile_id", profileID),
			slog.String("like_type", string(like.LikeType)),
		)
	}
	return like, created, nil
}

// Unlike implements LikeService.
func (s *likeService) Unlike(ctx context.Context, p *access.Principal, postID int64) error {
	if err := access.Check(p, access.ResourceLike, access.ActionDelete, nil); err != nil {
		return err
	}
	profileID, err := callerProfile(p)
	if err != nil {
		return err
	}

	like, err := s.repo.FindByProfileAndPost(ctx, profileID, postID)
	if err != nil {
		return wrapRepoErr(err)
	}
	return s.remove(ctx, p, like)
}

// Get implements LikeService. Any authenticated caller may read a like by ID.
func (s *likeService) Get(ctx context.Context, p *access.Principal, id int64) (*Like, error) {
	if err := access.Check(p, access.ResourceLike, access.ActionRead, nil); err != nil {
		return nil, err
	}
	like, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapRepoErr(err)
	}
	if err := access.Check(p, access.ResourceLike, access.ActionRead, like); err != nil {
		return nil, err
	}
	return like, nil
}

// Delete implements LikeService. Owner or manager only.
func (s *likeService) Delete(ctx context.Context, p *access.Principal, id int64) error {
	if err := access.Check(p, access.ResourceLike, access.ActionDelete, nil); err != nil {
		return err
	}
	like, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return wrapRepoErr(err)
	}
	return s.remove(ctx, p, like)
}

func (s *likeService) remove(ctx context.Context, p *access.Principal, like *Like) error {
	if err := access.Check(p, access.ResourceLike, access.ActionDelete, like); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, like.ID); err != nil {
		return wrapRepoErr(err)
	}
	slog.Info("like removed",
		slog.Int64("like_id", like.ID),
		slog.Int64("post_id", like.PostID),
		slog.Int64("profile_id", like.ProfileID),
	)
	return nil
}

// List implements LikeService. A caller without a profile has no likes.
func (s *likeService) List(ctx context.Context, p *access.Principal, postID int64, opts pagination.ListOptions) ([]Like, int, error) {
	if err := access.Check(p, access.ResourceLike, access.ActionRead, nil); err != nil {
		return nil, 0, err
	}
	profileID, ok := access.ResolveProfileID(p)
	if !ok {
		return nil, 0, nil
	}

	items, total, err := s.repo.ListByProfile(ctx, profileID, postID, opts.Offset(), opts.Limit())
	if err != nil {
		return nil, 0, apperror.NewInternal(err)
	}
	return items, total, nil
}

// callerProfile returns the profile a new like is bound to.
func callerProfile(p *access.Principal) (int64, error) {
	profileID, ok := access.ResolveProfileID(p)
	if !ok {
		return 0, apperror.NewForbidden("No profile is associated with this account.")
	}
	return profileID, nil
}

func wrapRepoErr(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.NewInternal(err)
}
