package profiles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/keyxmakerx/quillpad/internal/access"
	"github.com/keyxmakerx/quillpad/internal/apperror"
	"github.com/keyxmakerx/quillpad/internal/pagination"
	"github.com/keyxmakerx/quillpad/internal/sanitize"
)

// ProfileService handles profile reads and updates.
type ProfileService interface {
	List(ctx context.Context, opts pagination.ListOptions) ([]Profile, int, error)
	Get(ctx context.Context, id int64) (*Profile, error)
	Update(ctx context.Context, p *access.Principal, id int64, req UpdateProfileRequest) (*Profile, error)
}

type profileService struct {
	repo ProfileRepository
	now  func() time.Time
}

// NewProfileService creates a new profile service.
func NewProfileService(repo ProfileRepository) ProfileService {
	return &profileService{repo: repo, now: time.Now}
}

// List returns a page of profiles. Profiles are public.
func (s *profileService) List(ctx context.Context, opts pagination.ListOptions) ([]Profile, int, error) {
	items, total, err := s.repo.List(ctx, opts.Offset(), opts.Limit())
	if err != nil {
		return nil, 0, apperror.NewInternal(err)
	}
	return items, total, nil
}

// Get returns one profile.
func (s *profileService) Get(ctx context.Context, id int64) (*Profile, error) {
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapRepoErr(err)
	}
	return profile, nil
}

// Update applies a partial update. The owner may change bio and birth
// date; only a manager may change the role.
func (s *profileService) Update(ctx context.Context, p *access.Principal, id int64, req UpdateProfileRequest) (*Profile, error) {
	if err := access.Check(p, access.ResourceProfile, access.ActionUpdate, nil); err != nil {
		return nil, err
	}

	profile, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Check(p, access.ResourceProfile, access.ActionUpdate, profile); err != nil {
		return nil, err
	}

	if req.Role != nil {
		role := access.Role(*req.Role)
		if !role.IsValid() {
			return nil, apperror.NewFieldError("role", fmt.Sprintf("%q is not a valid choice.", *req.Role))
		}
		if role != profile.Role && !access.IsManager(p) {
			return nil, apperror.NewForbidden("Only managers can change roles.")
		}
		profile.Role = role
	}

	if req.Bio != nil {
		bio := sanitize.Text(*req.Bio)
		if utf8.RuneCountInString(bio) > maxBioLen {
			return nil, apperror.NewFieldError("bio", "Ensure this field has no more than 1000 characters.")
		}
		profile.Bio = bio
	}

	if req.BirthDate != nil {
		if *req.BirthDate == "" {
			profile.BirthDate = nil
		} else {
			d, err := parseBirthDate(*req.BirthDate, s.now())
			if err != nil {
				return nil, err
			}
			formatted := d.Format(birthDateLayout)
			profile.BirthDate = &formatted
		}
	}

	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, apperror.NewInternal(err)
	}

	slog.Info("profile updated",
		slog.Int64("profile_id", profile.ID),
		slog.Int64("by_user", p.UserID),
	)
	return profile, nil
}

// parseBirthDate validates a YYYY-MM-DD date that is not in the future.
func parseBirthDate(s string, now time.Time) (time.Time, error) {
	d, err := time.Parse(birthDateLayout, s)
	if err != nil {
		return time.Time{}, apperror.NewFieldError("birth_date",
			"Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
	}
	if d.After(now) {
		return time.Time{}, apperror.NewFieldError("birth_date", "Birth date cannot be in the future.")
	}
	return d, nil
}

func wrapRepoErr(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.NewInternal(err)
}
