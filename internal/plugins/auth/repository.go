package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keyxmakerx/quillpad/internal/access"
	"github.com/keyxmakerx/quillpad/internal/apperror"
	"github.com/keyxmakerx/quillpad/internal/database"
)

// UserRepository defines the data access contract for identities.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type UserRepository interface {
	// Create inserts the user and its profile (role "user") in one
	// transaction and sets user.ID.
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdateLastLogin(ctx context.Context, id int64) error

	// EnsureProfile returns the user's profile, creating it first if it is
	// missing.
	EnsureProfile(ctx context.Context, userID int64) (*access.ProfileRef, error)

	// Admin operations.
	List(ctx context.Context, offset, limit int) ([]User, int, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id int64) error
}

// userRepository implements UserRepository with hand-written MariaDB queries.
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository backed by the given DB pool.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, email, password_hash, is_staff, is_superuser, created_at, last_login_at`

// Create implements UserRepository.
func (r *userRepository) Create(ctx context.Context, user *User) error {
	return database.Tx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO users (username, email, password_hash, is_staff, is_superuser, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			user.Username, user.Email, user.PasswordHash, user.IsStaff, user.IsSuperuser, user.CreatedAt,
		)
		if database.IsDuplicateEntry(err) {
			return apperror.NewFieldError("username", "A user with that username already exists.")
		}
		if err != nil {
			return fmt.Errorf("inserting user: %w", err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading user id: %w", err)
		}
		user.ID = id

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_profiles (user_id, role) VALUES (?, ?)`,
			id, access.RoleUser,
		); err != nil {
			return fmt.Errorf("inserting profile: %w", err)
		}
		return nil
	})
}

// FindByID implements UserRepository.
// Returns apperror.NotFound if no user exists with this ID.
func (r *userRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("querying user by id: %w", err)
	}
	return user, nil
}

// FindByUsername implements UserRepository.
// Returns apperror.NotFound if no user exists with this username.
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("querying user by username: %w", err)
	}
	return user, nil
}

// UsernameExists returns true if the username is already taken. Used during
// registration to reject duplicates before hashing the password.
func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking username existence: %w", err)
	}
	return exists, nil
}

// UpdateLastLogin sets last_login_at to now for the given user.
func (r *userRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = ?`, id); err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}
	return nil
}

// EnsureProfile implements UserRepository. INSERT IGNORE relies on the
// unique user_id key, so concurrent callers end up reading the same row.
func (r *userRepository) EnsureProfile(ctx context.Context, userID int64) (*access.ProfileRef, error) {
	if _, err := r.db.ExecContext(ctx,
		`INSERT IGNORE INTO user_profiles (user_id, role) VALUES (?, ?)`,
		userID, access.RoleUser,
	); err != nil {
		return nil, fmt.Errorf("ensuring profile: %w", err)
	}

	ref := &access.ProfileRef{}
	var role string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, role FROM user_profiles WHERE user_id = ?`, userID,
	).Scan(&ref.ID, &role)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	ref.Role = access.Role(role)
	return ref, nil
}

// --- Admin Operations ---

// List returns a page of users ordered by id, plus the total count.
func (r *userRepository) List(ctx context.Context, offset, limit int) ([]User, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

// Update writes the mutable identity fields.
func (r *userRepository) Update(ctx context.Context, user *User) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = ?, password_hash = ?, is_staff = ? WHERE id = ?`,
		user.Email, user.PasswordHash, user.IsStaff, user.ID,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		// MariaDB reports zero affected rows for a no-op update too.
		if _, err := r.FindByID(ctx, user.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a user. The profile, posts, comments, and likes cascade.
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFound("User not found.")
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	u := &User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.IsStaff, &u.IsSuperuser, &u.CreatedAt, &u.LastLoginAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("User not found.")
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
