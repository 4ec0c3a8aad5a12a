package posts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/keyxmakerx/quillpad/internal/access"
	"github.com/keyxmakerx/quillpad/internal/apperror"
	"github.com/keyxmakerx/quillpad/internal/pagination"
	"github.com/keyxmakerx/quillpad/internal/plugins/tags"
	"github.com/keyxmakerx/quillpad/internal/sanitize"
)

// TagResolver turns tag inputs into tags and loads the tags of posts.
// Satisfied by tags.TagService.
type TagResolver interface {
	Resolve(ctx context.Context, inputs []string) ([]tags.Tag, error)
	GetPostTagsBatch(ctx context.Context, postIDs []int64) (map[int64][]tags.Tag, error)
}

// PostService defines the business logic contract for posts. Every post it
// returns carries its tags and has been enriched for the caller.
type PostService interface {
	List(ctx context.Context, p *access.Principal, filter ListFilter, opts pagination.ListOptions) ([]Post, int, error)
	Get(ctx context.Context, p *access.Principal, id int64) (*Post, error)
	Create(ctx context.Context, p *access.Principal, req PostRequest) (*Post, error)
	Update(ctx context.Context, p *access.Principal, id int64, req PostRequest) (*Post, error)
	Delete(ctx context.Context, p *access.Principal, id int64) error

	// Mine lists the caller's own posts, newest first. Manager only.
	Mine(ctx context.Context, p *access.Principal, opts pagination.ListOptions) ([]Post, int, error)
}

// postService implements PostService.
type postService struct {
	repo     PostRepository
	tags     TagResolver
	enricher *Enricher
}

// NewPostService creates a new PostService.
func NewPostService(repo PostRepository, resolver TagResolver, enricher *Enricher) PostService {
	return &postService{repo: repo, tags: resolver, enricher: enricher}
}

// List implements PostService. Posts are public.
func (s *postService) List(ctx context.Context, p *access.Principal, filter ListFilter, opts pagination.ListOptions) ([]Post, int, error) {
	if err := access.Check(p, access.ResourcePost, access.ActionRead, nil); err != nil {
		return nil, 0, err
	}
	items, total, err := s.repo.List(ctx, filter, opts.Offset(), opts.Limit())
	if err != nil {
		return nil, 0, apperror.NewInternal(err)
	}
	if err := s.decorate(ctx, items, p); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Get implements PostService.
func (s *postService) Get(ctx context.Context, p *access.Principal, id int64) (*Post, error) {
	if err := access.Check(p, access.ResourcePost, access.ActionRead, nil); err != nil {
		return nil, err
	}
	return s.load(ctx, p, id)
}

// Create implements PostService. The author is always the caller's profile.
func (s *postService) Create(ctx context.Context, p *access.Principal, req PostRequest) (*Post, error) {
	if err := access.Check(p, access.ResourcePost, access.ActionCreate, nil); err != nil {
		return nil, err
	}
	profileID, ok := access.ResolveProfileID(p)
	if !ok {
		return nil, apperror.NewFieldError("author", "Authentication required.")
	}

	if req.Title == nil {
		return nil, apperror.NewFieldError("title", "This field is required.")
	}
	if req.Text == nil {
		return nil, apperror.NewFieldError("text", "This field is required.")
	}
	title, err := cleanTitle(*req.Title)
	if err != nil {
		return nil, err
	}
	text, err := cleanText(*req.Text)
	if err != nil {
		return nil, err
	}

	resolved, err := s.tags.Resolve(ctx, req.TagInputs)
	if err != nil {
		return nil, err
	}

	post := &Post{AuthorID: profileID, Title: title, Text: text}
	if err := s.repo.Create(ctx, post, tagIDs(resolved)); err != nil {
		return nil, mapWriteErr(err)
	}

	slog.Info("post created",
		slog.Int64("post_id", post.ID),
		slog.Int64("author_id", profileID),
		slog.Int("tags", len(resolved)),
	)
	return s.load(ctx, p, post.ID)
}

// Update implements PostService. Omitted fields keep their values.
func (s *postService) Update(ctx context.Context, p *access.Principal, id int64, req PostRequest) (*Post, error) {
	if err := access.Check(p, access.ResourcePost, access.ActionUpdate, nil); err != nil {
		return nil, err
	}

	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapRepoErr(err)
	}
	if err := access.Check(p, access.ResourcePost, access.ActionUpdate, post); err != nil {
		return nil, err
	}

	if req.Title != nil {
		if post.Title, err = cleanTitle(*req.Title); err != nil {
			return nil, err
		}
	}
	if req.Text != nil {
		if post.Text, err = cleanText(*req.Text); err != nil {
			return nil, err
		}
	}

	var ids []int64
	if req.TagInputs != nil {
		resolved, err := s.tags.Resolve(ctx, req.TagInputs)
		if err != nil {
			return nil, err
		}
		ids = tagIDs(resolved)
	}

	if err := s.repo.Update(ctx, post, ids); err != nil {
		return nil, mapWriteErr(err)
	}

	slog.Info("post updated", slog.Int64("post_id", id))
	return s.load(ctx, p, id)
}

// Delete implements PostService. Comments and likes go with the post; tags
// stay.
func (s *postService) Delete(ctx context.Context, p *access.Principal, id int64) error {
	if err := access.Check(p, access.ResourcePost, access.ActionDelete, nil); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return wrapRepoErr(err)
	}
	slog.Info("post deleted", slog.Int64("post_id", id))
	return nil
}

// Mine implements PostService.
func (s *postService) Mine(ctx context.Context, p *access.Principal, opts pagination.ListOptions) ([]Post, int, error) {
	if !access.IsAuthenticated(p) {
		return nil, 0, apperror.NewUnauthorized("Authentication credentials were not provided.")
	}
	if !access.IsManager(p) {
		return nil, 0, apperror.NewForbidden("You do not have permission to perform this action.")
	}
	profileID, ok := access.ResolveProfileID(p)
	if !ok {
		return nil, 0, nil
	}
	return s.List(ctx, p, ListFilter{AuthorID: profileID, Ordering: "-created_at"}, opts)
}

// load fetches one post and decorates it.
func (s *postService) load(ctx context.Context, p *access.Principal, id int64) (*Post, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapRepoErr(err)
	}
	items := []Post{*post}
	if err := s.decorate(ctx, items, p); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// decorate attaches tags and enriches posts for p.
func (s *postService) decorate(ctx context.Context, items []Post, p *access.Principal) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int64, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}

	tagMap, err := s.tags.GetPostTagsBatch(ctx, ids)
	if err != nil {
		return err
	}
	for i := range items {
		items[i].Tags = tagMap[items[i].ID]
		if items[i].Tags == nil {
			items[i].Tags = []tags.Tag{}
		}
	}

	if err := s.enricher.Enrich(ctx, items, p); err != nil {
		return apperror.NewInternal(err)
	}
	return nil
}

func cleanTitle(raw string) (string, error) {
	title := sanitize.Text(raw)
	n := utf8.RuneCountInString(title)
	switch {
	case n == 0:
		return "", apperror.NewFieldError("title", "This field may not be blank.")
	case n < minTitleLen:
		return "", apperror.NewFieldError("title", fmt.Sprintf("Ensure this field has at least %d characters.", minTitleLen))
	case n > maxTitleLen:
		return "", apperror.NewFieldError("title", fmt.Sprintf("Ensure this field has no more than %d characters.", maxTitleLen))
	}
	return title, nil
}

func cleanText(raw string) (string, error) {
	text := sanitize.HTML(raw)
	n := utf8.RuneCountInString(text)
	switch {
	case n == 0:
		return "", apperror.NewFieldError("text", "This field may not be blank.")
	case n < minTextLen:
		return "", apperror.NewFieldError("text", fmt.Sprintf("Ensure this field has at least %d characters.", minTextLen))
	}
	return text, nil
}

func tagIDs(items []tags.Tag) []int64 {
	ids := make([]int64, len(items))
	for i, t := range items {
		ids[i] = t.ID
	}
	return ids
}

func mapWriteErr(err error) error {
	if errors.Is(err, ErrDuplicateTitle) {
		return apperror.NewFieldError("title", "post with this title already exists.")
	}
	return wrapRepoErr(err)
}

func wrapRepoErr(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.NewInternal(err)
}
