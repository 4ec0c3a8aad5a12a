package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keyxmakerx/quillpad/internal/apperror"
)

// ProfileRepository defines the data access contract for profiles.
type ProfileRepository interface {
	FindByID(ctx context.Context, id int64) (*Profile, error)
	List(ctx context.Context, offset, limit int) ([]Profile, int, error)
	Update(ctx context.Context, profile *Profile) error
}

// profileRepository implements ProfileRepository with MariaDB queries.
type profileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(db *sql.DB) ProfileRepository {
	return &profileRepository{db: db}
}

const profileSelect = `SELECT p.id, p.user_id, u.username, p.role, p.bio, p.birth_date, p.created_at, p.updated_at
	FROM user_profiles p
	INNER JOIN users u ON u.id = p.user_id`

// FindByID returns a profile with its username.
func (r *profileRepository) FindByID(ctx context.Context, id int64) (*Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx, profileSelect+` WHERE p.id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	return p, nil
}

// List returns a page of profiles ordered by id, plus the total count.
func (r *profileRepository) List(ctx context.Context, offset, limit int) ([]Profile, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_profiles`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting profiles: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, profileSelect+` ORDER BY p.id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing profiles: %w", err)
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning profile: %w", err)
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

// Update writes role, bio, and birth date.
func (r *profileRepository) Update(ctx context.Context, p *Profile) error {
	var birth any
	if p.BirthDate != nil {
		birth = *p.BirthDate
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_profiles SET role = ?, bio = ?, birth_date = ? WHERE id = ?`,
		p.Role, p.Bio, birth, p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	p := &Profile{}
	var birth sql.NullTime
	err := row.Scan(&p.ID, &p.UserID, &p.Username, &p.Role, &p.Bio, &birth, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("Profile not found.")
	}
	if err != nil {
		return nil, err
	}
	if birth.Valid {
		s := birth.Time.Format(birthDateLayout)
		p.BirthDate = &s
	}
	return p, nil
}
