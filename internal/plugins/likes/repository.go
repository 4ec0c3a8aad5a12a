package likes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/keyxmakerx/quillpad/internal/apperror"
	"github.com/keyxmakerx/quillpad/internal/database"
)

// ErrPostNotFound is returned when a like references a post that does not
// exist.
var ErrPostNotFound = errors.New("post does not exist")

// LikeRepository defines the data access contract for likes.
type LikeRepository interface {
	// FindOrCreate returns the like for (profileID, postID), inserting it
	// first if absent. created reports whether this call inserted it. The
	// unique (profile_id, post_id) key makes concurrent calls converge on
	// one row.
	FindOrCreate(ctx context.Context, profileID, postID int64, likeType LikeType) (like *Like, created bool, err error)

	FindByID(ctx context.Context, id int64) (*Like, error)
	FindByProfileAndPost(ctx context.Context, profileID, postID int64) (*Like, error)
	Delete(ctx context.Context, id int64) error

	// ListByProfile returns a profile's likes, newest first, optionally for
	// one post only (postID > 0).
	ListByProfile(ctx context.Context, profileID, postID int64, offset, limit int) ([]Like, int, error)

	// LikedPostIDs reports which of postIDs the profile has a like row for.
	LikedPostIDs(ctx context.Context, profileID int64, postIDs []int64) (map[int64]bool, error)

	// RecentLikersBatch returns up to limit most recent likers per post,
	// keyed by post ID.
	RecentLikersBatch(ctx context.Context, postIDs []int64, limit int) (map[int64][]Liker, error)
}

// likeRepository implements LikeRepository using MariaDB.
type likeRepository struct {
	db *sql.DB
}

// NewLikeRepository creates a new LikeRepository.
func NewLikeRepository(db *sql.DB) LikeRepository {
	return &likeRepository{db: db}
}

const likeColumns = `id, profile_id, post_id, like_type, created_at, updated_at`

// FindOrCreate implements LikeRepository.
func (r *likeRepository) FindOrCreate(ctx context.Context, profileID, postID int64, likeType LikeType) (*Like, bool, error) {
	query, args, err := findOrCreateQuery(profileID, postID, likeType)
	if err != nil {
		return nil, false, fmt.Errorf("building like insert: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if database.IsMissingReference(err) {
		return nil, false, ErrPostNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("inserting like: %w", err)
	}

	created, err := wasInserted(result)
	if err != nil {
		return nil, false, err
	}

	like, err := r.FindByProfileAndPost(ctx, profileID, postID)
	if err != nil {
		return nil, false, err
	}
	return like, created, nil
}

// findOrCreateQuery inserts the pair or, when the unique key already holds
// it, touches nothing.
func findOrCreateQuery(profileID, postID int64, likeType LikeType) (string, []any, error) {
	return sq.Insert("post_likes").
		Columns("profile_id", "post_id", "like_type").
		Values(profileID, postID, likeType).
		Suffix("ON DUPLICATE KEY UPDATE id = id").
		ToSql()
}

// wasInserted reads the outcome of findOrCreateQuery. With the driver's
// default (clientFoundRows off) a fresh insert affects one row and the no-op
// duplicate branch affects zero.
func wasInserted(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return n == 1, nil
}

// FindByID implements LikeRepository.
func (r *likeRepository) FindByID(ctx context.Context, id int64) (*Like, error) {
	return scanLike(r.db.QueryRowContext(ctx,
		`SELECT `+likeColumns+` FROM post_likes WHERE id = ?`, id))
}

// FindByProfileAndPost implements LikeRepository.
func (r *likeRepository) FindByProfileAndPost(ctx context.Context, profileID, postID int64) (*Like, error) {
	return scanLike(r.db.QueryRowContext(ctx,
		`SELECT `+likeColumns+` FROM post_likes WHERE profile_id = ? AND post_id = ?`, profileID, postID))
}

// Delete implements LikeRepository.
func (r *likeRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM post_likes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting like: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFound("Like not found.")
	}
	return nil
}

// ListByProfile implements LikeRepository.
func (r *likeRepository) ListByProfile(ctx context.Context, profileID, postID int64, offset, limit int) ([]Like, int, error) {
	where := sq.Eq{"profile_id": profileID}
	if postID > 0 {
		where["post_id"] = postID
	}

	countQuery, countArgs, err := sq.Select("COUNT(*)").From("post_likes").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building like count: %w", err)
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting likes: %w", err)
	}

	query, args, err := sq.Select(likeColumns).From("post_likes").Where(where).
		OrderBy("id DESC").
		Limit(uint64(limit)).Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building like list: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing likes: %w", err)
	}
	defer rows.Close()

	var out []Like
	for rows.Next() {
		l, err := scanLike(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *l)
	}
	return out, total, rows.Err()
}

// LikedPostIDs implements LikeRepository.
func (r *likeRepository) LikedPostIDs(ctx context.Context, profileID int64, postIDs []int64) (map[int64]bool, error) {
	out := make(map[int64]bool)
	if len(postIDs) == 0 {
		return out, nil
	}

	query, args, err := sq.Select("post_id").From("post_likes").
		Where(sq.Eq{"profile_id": profileID, "post_id": postIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building liked posts query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying liked posts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning liked post: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

// RecentLikersBatch implements LikeRepository. Every post is capped
// independently.
func (r *likeRepository) RecentLikersBatch(ctx context.Context, postIDs []int64, limit int) (map[int64][]Liker, error) {
	out := make(map[int64][]Liker)
	if len(postIDs) == 0 {
		return out, nil
	}

	query, args, err := recentLikersQuery(postIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("building likers query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying likers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID int64
		var l Liker
		if err := rows.Scan(&postID, &l.ProfileID, &l.Username); err != nil {
			return nil, fmt.Errorf("scanning liker: %w", err)
		}
		out[postID] = append(out[postID], l)
	}
	return out, rows.Err()
}

// recentLikersQuery ranks likes per post by descending ID and keeps the
// first limit of each.
func recentLikersQuery(postIDs []int64, limit int) (string, []any, error) {
	ranked := sq.Select(
		"l.post_id", "l.profile_id", "u.username",
		"ROW_NUMBER() OVER (PARTITION BY l.post_id ORDER BY l.id DESC) AS rn",
	).
		From("post_likes l").
		InnerJoin("user_profiles p ON p.id = l.profile_id").
		InnerJoin("users u ON u.id = p.user_id").
		Where(sq.Eq{"l.post_id": postIDs})

	return sq.Select("post_id", "profile_id", "username").
		FromSelect(ranked, "ranked").
		Where(sq.LtOrEq{"rn": limit}).
		OrderBy("post_id", "rn").
		ToSql()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLike(row rowScanner) (*Like, error) {
	l := &Like{}
	err := row.Scan(&l.ID, &l.ProfileID, &l.PostID, &l.LikeType, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("Like not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("scanning like: %w", err)
	}
	return l, nil
}
