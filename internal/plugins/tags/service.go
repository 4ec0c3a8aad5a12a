package tags

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"unicode/utf8"

	"github.com/keyxmakerx/quillpad/internal/access"
	"github.com/keyxmakerx/quillpad/internal/apperror"
	"github.com/keyxmakerx/quillpad/internal/pagination"
	"github.com/keyxmakerx/quillpad/internal/sanitize"
)

// TagService defines the business logic contract for tags.
// Handlers call these methods -- they never touch the repository directly.
type TagService interface {
	List(ctx context.Context, search string, opts pagination.ListOptions) ([]Tag, int, error)
	Get(ctx context.Context, id int64) (*Tag, error)
	Create(ctx context.Context, p *access.Principal, name string) (*Tag, error)
	Update(ctx context.Context, p *access.Principal, id int64, name string) (*Tag, error)
	Delete(ctx context.Context, p *access.Principal, id int64) error

	// Resolve turns free-text tag inputs into tags, creating missing ones.
	Resolve(ctx context.Context, inputs []string) ([]Tag, error)

	// Suggest returns up to ten tags whose name contains q, most used first.
	Suggest(ctx context.Context, q string) ([]Suggestion, error)

	// GetPostTagsBatch returns the tags of many posts keyed by post ID.
	GetPostTagsBatch(ctx context.Context, postIDs []int64) (map[int64][]Tag, error)
}

// tagService implements TagService.
type tagService struct {
	repo TagRepository
}

// NewTagService creates a new TagService backed by the given repository.
func NewTagService(repo TagRepository) TagService {
	return &tagService{repo: repo}
}

// List returns a page of tags. Tags are public.
func (s *tagService) List(ctx context.Context, search string, opts pagination.ListOptions) ([]Tag, int, error) {
	items, total, err := s.repo.List(ctx, search, opts.Offset(), opts.Limit())
	if err != nil {
		return nil, 0, apperror.NewInternal(err)
	}
	return items, total, nil
}

// Get returns one tag.
func (s *tagService) Get(ctx context.Context, id int64) (*Tag, error) {
	tag, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapRepoErr(err)
	}
	return tag, nil
}

// Create adds a tag. Manager only.
func (s *tagService) Create(ctx context.Context, p *access.Principal, name string) (*Tag, error) {
	if err := access.Check(p, access.ResourceTag, access.ActionCreate, nil); err != nil {
		return nil, err
	}

	name, err := normalizeName(name, "name")
	if err != nil {
		return nil, err
	}

	tag := &Tag{Name: name}
	if err := s.repo.Create(ctx, tag); err != nil {
		return nil, mapWriteErr(err)
	}

	slog.Info("tag created", slog.Int64("tag_id", tag.ID), slog.String("name", tag.Name))
	return tag, nil
}

// Update renames a tag. Manager only.
func (s *tagService) Update(ctx context.Context, p *access.Principal, id int64, name string) (*Tag, error) {
	if err := access.Check(p, access.ResourceTag, access.ActionUpdate, nil); err != nil {
		return nil, err
	}

	tag, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Check(p, access.ResourceTag, access.ActionUpdate, tag); err != nil {
		return nil, err
	}

	name, err = normalizeName(name, "name")
	if err != nil {
		return nil, err
	}
	tag.Name = name

	if err := s.repo.Update(ctx, tag); err != nil {
		return nil, mapWriteErr(err)
	}
	return tag, nil
}

// Delete removes a tag from every post and then deletes it. Manager only.
func (s *tagService) Delete(ctx context.Context, p *access.Principal, id int64) error {
	if err := access.Check(p, access.ResourceTag, access.ActionDelete, nil); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return wrapRepoErr(err)
	}
	slog.Info("tag deleted", slog.Int64("tag_id", id))
	return nil
}

// Resolve maps each input to a tag:
//
//   - inputs are stripped of markup, trimmed, and blank ones skipped;
//   - an all-digit input is tried as a tag ID first;
//   - otherwise, or when no tag has that ID, it is matched by name
//     ignoring case;
//   - an input matching nothing creates a tag with the trimmed name.
//
// The result holds each tag once, in first-seen order.
func (s *tagService) Resolve(ctx context.Context, inputs []string) ([]Tag, error) {
	if len(inputs) == 0 {
		return nil, apperror.NewFieldError("tag_inputs", "At least one category tag is required.")
	}

	seen := make(map[int64]bool, len(inputs))
	var out []Tag
	for _, raw := range inputs {
		token := sanitize.Text(raw)
		if token == "" {
			continue
		}

		tag, err := s.resolveOne(ctx, token)
		if err != nil {
			return nil, err
		}
		if !seen[tag.ID] {
			seen[tag.ID] = true
			out = append(out, *tag)
		}
	}

	if len(out) == 0 {
		return nil, apperror.NewFieldError("tag_inputs", "At least one valid tag is required.")
	}
	return out, nil
}

func (s *tagService) resolveOne(ctx context.Context, token string) (*Tag, error) {
	if isDigits(token) {
		if id, err := strconv.ParseInt(token, 10, 64); err == nil {
			tag, err := s.repo.FindByID(ctx, id)
			if err == nil {
				return tag, nil
			}
			if !apperror.IsNotFound(err) {
				return nil, apperror.NewInternal(err)
			}
		}
	}

	name, err := normalizeName(token, "tag_inputs")
	if err != nil {
		return nil, err
	}

	tag, err := s.findByName(ctx, name)
	if tag != nil || err != nil {
		return tag, err
	}

	tag = &Tag{Name: name}
	err = s.repo.Create(ctx, tag)
	if errors.Is(err, ErrDuplicateName) {
		// Another request created it between our lookup and insert.
		tag, err = s.findByName(ctx, name)
		if tag == nil && err == nil {
			err = apperror.NewInternal(fmt.Errorf("tag %q vanished after duplicate insert", name))
		}
		return tag, err
	}
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	slog.Info("tag created on first use", slog.Int64("tag_id", tag.ID), slog.String("name", tag.Name))
	return tag, nil
}

// findByName returns (nil, nil) when no tag matches.
func (s *tagService) findByName(ctx context.Context, name string) (*Tag, error) {
	tag, err := s.repo.FindByName(ctx, name)
	if apperror.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return tag, nil
}

// Suggest implements TagService.
func (s *tagService) Suggest(ctx context.Context, q string) ([]Suggestion, error) {
	out, err := s.repo.Suggest(ctx, q, suggestLimit)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return out, nil
}

// GetPostTagsBatch implements TagService.
func (s *tagService) GetPostTagsBatch(ctx context.Context, postIDs []int64) (map[int64][]Tag, error) {
	out, err := s.repo.GetPostTagsBatch(ctx, postIDs)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return out, nil
}

// normalizeName strips markup and surrounding whitespace and checks the
// length. Errors are attributed to field.
func normalizeName(name, field string) (string, error) {
	name = sanitize.Text(name)
	if name == "" {
		return "", apperror.NewFieldError(field, "This field may not be blank.")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "", apperror.NewFieldError(field, "Ensure this field has no more than 40 characters.")
	}
	return name, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func mapWriteErr(err error) error {
	if errors.Is(err, ErrDuplicateName) {
		return apperror.NewFieldError("name", "tag with this name already exists.")
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
