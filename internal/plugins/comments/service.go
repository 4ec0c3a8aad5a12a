package comments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/keyxmakerx/quillpad/internal/access"
	"github.com/keyxmakerx/quillpad/internal/apperror"
	"github.com/keyxmakerx/quillpad/internal/pagination"
	"github.com/keyxmakerx/quillpad/internal/sanitize"
)

// CommentService defines the business logic contract for comments.
type CommentService interface {
	List(ctx context.Context, postID int64, ordering string, opts pagination.ListOptions) ([]Comment, int, error)
	Get(ctx context.Context, id int64) (*Comment, error)
	Create(ctx context.Context, p *access.Principal, req CommentRequest) (*Comment, error)
	Update(ctx context.Context, p *access.Principal, id int64, req CommentRequest) (*Comment, error)
	Delete(ctx context.Context, p *access.Principal, id int64) error
}

// commentService implements CommentService.
type commentService struct {
	repo CommentRepository
}

// NewCommentService creates a new CommentService.
func NewCommentService(repo CommentRepository) CommentService {
	return &commentService{repo: repo}
}

// List implements CommentService. Comments are public.
func (s *commentService) List(ctx context.Context, postID int64, ordering string, opts pagination.ListOptions) ([]Comment, int, error) {
	items, total, err := s.repo.List(ctx, postID, ordering, opts.Offset(), opts.Limit())
	if err != nil {
		return nil, 0, apperror.NewInternal(err)
	}
	return items, total, nil
}

// Get implements CommentService.
func (s *commentService) Get(ctx context.Context, id int64) (*Comment, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapRepoErr(err)
	}
	return c, nil
}

// Create implements CommentService. The author is the caller's profile.
func (s *commentService) Create(ctx context.Context, p *access.Principal, req CommentRequest) (*Comment, error) {
	if err := access.Check(p, access.ResourceComment, access.ActionCreate, nil); err != nil {
		return nil, err
	}
	profileID, ok := access.ResolveProfileID(p)
	if !ok {
		return nil, apperror.NewFieldError("author", "Authentication required.")
	}

	if req.Post == nil {
		return nil, apperror.NewFieldError("post", "This field is required.")
	}
	if *req.Post < 1 {
		return nil, apperror.NewFieldError("post", invalidPK(*req.Post))
	}
	if req.Text == nil {
		return nil, apperror.NewFieldError("text", "This field is required.")
	}
	text, err := cleanText(*req.Text)
	if err != nil {
		return nil, err
	}

	if req.ReplyTo != nil {
		if *req.ReplyTo < 1 {
			return nil, apperror.NewFieldError("reply_to", invalidPK(*req.ReplyTo))
		}
		parent, err := s.repo.FindByID(ctx, *req.ReplyTo)
		if apperror.IsNotFound(err) {
			return nil, apperror.NewFieldError("reply_to", invalidPK(*req.ReplyTo))
		}
		if err != nil {
			return nil, wrapRepoErr(err)
		}
		if parent.PostID != *req.Post {
			return nil, apperror.NewFieldError("reply_to", "Reply must reference a comment on the same post.")
		}
	}

	c := &Comment{PostID: *req.Post, AuthorID: profileID, Text: text, ReplyToID: req.ReplyTo}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, ErrPostNotFound) {
			return nil, apperror.NewFieldError("post", invalidPK(*req.Post))
		}
		return nil, wrapRepoErr(err)
	}

	slog.Info("comment created",
		slog.Int64("comment_id", c.ID),
		slog.Int64("post_id", c.PostID),
		slog.Int64("author_id", profileID),
	)
	return s.Get(ctx, c.ID)
}

// Update implements CommentService. Manager only; only the text changes.
func (s *commentService) Update(ctx context.Context, p *access.Principal, id int64, req CommentRequest) (*Comment, error) {
	if err := access.Check(p, access.ResourceComment, access.ActionUpdate, nil); err != nil {
		return nil, err
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Check(p, access.ResourceComment, access.ActionUpdate, c); err != nil {
		return nil, err
	}

	if req.Text == nil {
		return c, nil
	}
	text, err := cleanText(*req.Text)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateText(ctx, id, text); err != nil {
		return nil, wrapRepoErr(err)
	}
	return s.Get(ctx, id)
}

// Delete implements CommentService. Manager only.
func (s *commentService) Delete(ctx context.Context, p *access.Principal, id int64) error {
	if err := access.Check(p, access.ResourceComment, access.ActionDelete, nil); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return wrapRepoErr(err)
	}
	slog.Info("comment deleted", slog.Int64("comment_id", id))
	return nil
}

func cleanText(raw string) (string, error) {
	text := sanitize.Text(raw)
	n := utf8.RuneCountInString(text)
	switch {
	case n == 0:
		return "", apperror.NewFieldError("text", "This field may not be blank.")
	case n < minTextLen:
		return "", apperror.NewFieldError("text", fmt.Sprintf("Ensure this field has at least %d characters.", minTextLen))
	case n > maxTextLen:
		return "", apperror.NewFieldError("text", fmt.Sprintf("Ensure this field has no more than %d characters.", maxTextLen))
	}
	return text, nil
}

func invalidPK(id int64) string {
	return fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id)
}

func wrapRepoErr(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.NewInternal(err)
}
