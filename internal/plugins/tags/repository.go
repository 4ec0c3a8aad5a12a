package tags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/keyxmakerx/quillpad/internal/apperror"
	"github.com/keyxmakerx/quillpad/internal/database"
)

// ErrDuplicateName is returned when a tag name collides, ignoring case,
// with an existing tag.
var ErrDuplicateName = errors.New("tag name already exists")

// TagRepository defines the data access contract for tags and their post
// associations. All SQL lives here.
type TagRepository interface {
	// Create inserts a tag and sets its ID. Returns ErrDuplicateName when
	// the case-insensitive unique key rejects the name.
	Create(ctx context.Context, tag *Tag) error

	FindByID(ctx context.Context, id int64) (*Tag, error)

	// FindByName matches name case-insensitively.
	FindByName(ctx context.Context, name string) (*Tag, error)

	// List returns tags ordered by name, optionally filtered by a
	// case-insensitive substring.
	List(ctx context.Context, search string, offset, limit int) ([]Tag, int, error)

	Update(ctx context.Context, tag *Tag) error

	// Delete removes a tag. post_tags rows cascade; posts are untouched.
	Delete(ctx context.Context, id int64) error

	// GetPostTagsBatch returns tags for many posts in one query, keyed by
	// post ID, to avoid N+1 queries on list views.
	GetPostTagsBatch(ctx context.Context, postIDs []int64) (map[int64][]Tag, error)

	// Suggest returns tags whose name contains q, most used first.
	Suggest(ctx context.Context, q string, limit int) ([]Suggestion, error)
}

// tagRepository implements TagRepository using MariaDB.
type tagRepository struct {
	db *sql.DB
}

// NewTagRepository creates a new TagRepository backed by the given pool.
func NewTagRepository(db *sql.DB) TagRepository {
	return &tagRepository{db: db}
}

// Create implements TagRepository.
func (r *tagRepository) Create(ctx context.Context, tag *Tag) error {
	result, err := r.db.ExecContext(ctx, `INSERT INTO tags (name) VALUES (?)`, tag.Name)
	if database.IsDuplicateEntry(err) {
		return ErrDuplicateName
	}
	if err != nil {
		return fmt.Errorf("inserting tag: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	tag.ID = id
	return nil
}

// FindByID implements TagRepository.
func (r *tagRepository) FindByID(ctx context.Context, id int64) (*Tag, error) {
	return r.findOne(ctx, `SELECT id, name FROM tags WHERE id = ?`, id)
}

// FindByName implements TagRepository. name_key is the generated
// LOWER(name) column carrying the unique index.
func (r *tagRepository) FindByName(ctx context.Context, name string) (*Tag, error) {
	return r.findOne(ctx, `SELECT id, name FROM tags WHERE name_key = LOWER(?)`, name)
}

func (r *tagRepository) findOne(ctx context.Context, query string, arg any) (*Tag, error) {
	var t Tag
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&t.ID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("Tag not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("querying tag: %w", err)
	}
	return &t, nil
}

// List implements TagRepository.
func (r *tagRepository) List(ctx context.Context, search string, offset, limit int) ([]Tag, int, error) {
	where := sq.And{}
	if search = strings.TrimSpace(search); search != "" {
		where = append(where, sq.Like{"name_key": "%" + escapeLike(strings.ToLower(search)) + "%"})
	}

	countQuery, countArgs, err := sq.Select("COUNT(*)").From("tags").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building tag count: %w", err)
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting tags: %w", err)
	}

	query, args, err := sq.Select("id", "name").From("tags").Where(where).
		OrderBy("name ASC", "id ASC").
		Limit(uint64(limit)).Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building tag list: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing tags: %w", err)
	}
	defer rows.Close()

	var out []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, 0, fmt.Errorf("scanning tag row: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating tag rows: %w", err)
	}
	return out, total, nil
}

// Update implements TagRepository.
func (r *tagRepository) Update(ctx context.Context, tag *Tag) error {
	_, err := r.db.ExecContext(ctx, `UPDATE tags SET name = ? WHERE id = ?`, tag.Name, tag.ID)
	if database.IsDuplicateEntry(err) {
		return ErrDuplicateName
	}
	if err != nil {
		return fmt.Errorf("updating tag: %w", err)
	}
	return nil
}

// Delete implements TagRepository.
func (r *tagRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting tag: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NewNotFound("Tag not found.")
	}
	return nil
}

// GetPostTagsBatch implements TagRepository. Returns an empty map if no
// post IDs are provided.
func (r *tagRepository) GetPostTagsBatch(ctx context.Context, postIDs []int64) (map[int64][]Tag, error) {
	result := make(map[int64][]Tag)
	if len(postIDs) == 0 {
		return result, nil
	}

	query, args, err := sq.Select("pt.post_id", "t.id", "t.name").
		From("tags t").
		InnerJoin("post_tags pt ON pt.tag_id = t.id").
		Where(sq.Eq{"pt.post_id": postIDs}).
		OrderBy("t.name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building post tags query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("batch getting post tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID int64
		var t Tag
		if err := rows.Scan(&postID, &t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scanning post tag row: %w", err)
		}
		result[postID] = append(result[postID], t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating post tag rows: %w", err)
	}
	return result, nil
}

// Suggest implements TagRepository. Ties on usage are broken by name.
func (r *tagRepository) Suggest(ctx context.Context, q string, limit int) ([]Suggestion, error) {
	builder := sq.Select("t.id", "t.name", "COUNT(DISTINCT pt.post_id) AS n").
		From("tags t").
		LeftJoin("post_tags pt ON pt.tag_id = t.id").
		GroupBy("t.id", "t.name").
		OrderBy("n DESC", "t.name ASC").
		Limit(uint64(limit))
	if q = strings.TrimSpace(q); q != "" {
		builder = builder.Where(sq.Like{"t.name_key": "%" + escapeLike(strings.ToLower(q)) + "%"})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building suggest query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("suggesting tags: %w", err)
	}
	defer rows.Close()

	out := []Suggestion{}
	for rows.Next() {
		var s Suggestion
		if err := rows.Scan(&s.ID, &s.Name, &s.Count); err != nil {
			return nil, fmt.Errorf("scanning suggestion: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// likeEscaper escapes LIKE wildcards in user input.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
