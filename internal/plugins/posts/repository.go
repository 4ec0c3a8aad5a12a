package posts

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

// ErrDuplicateTitle is returned when a write collides with another post's
// title.
var ErrDuplicateTitle = errors.New("post title already exists")

// PostRepository defines the data access contract for posts. Tags are
// written here together with the post; reading them is left to the tags
// package.
type PostRepository interface {
	// Create inserts the post and links tagIDs, setting post.ID.
	Create(ctx context.Context, post *Post, tagIDs []int64) error

	// Update saves title and text. A nil tagIDs leaves the tags untouched;
	// otherwise they replace the current set.
	Update(ctx context.Context, post *Post, tagIDs []int64) error

	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Post, error)
	List(ctx context.Context, filter ListFilter, offset, limit int) ([]Post, int, error)
}

// postRepository implements PostRepository using MariaDB.
type postRepository struct {
	db *sql.DB
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

// orderColumns maps public ordering names to SQL expressions.
var orderColumns = map[string]string{
	"title":       "p.title",
	"created_at":  "p.created_at",
	"updated_at":  "p.updated_at",
	"likes_count": "likes_count",
}

const defaultOrdering = "p.created_at DESC"

// baseQuery selects posts joined with their author and like count.
func baseQuery() sq.SelectBuilder {
	return sq.Select(
		"p.id", "p.author_id", "u.username", "p.title", "p.text",
		"(SELECT COUNT(*) FROM post_likes l WHERE l.post_id = p.id) AS likes_count",
		"p.created_at", "p.updated_at",
	).
		From("posts p").
		InnerJoin("user_profiles pr ON pr.id = p.author_id").
		InnerJoin("users u ON u.id = pr.user_id")
}

// Create implements PostRepository.
func (r *postRepository) Create(ctx context.Context, post *Post, tagIDs []int64) error {
	return database.Tx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO posts (author_id, title, text) VALUES (?, ?, ?)`,
			post.AuthorID, post.Title, post.Text,
		)
		if database.IsDuplicateEntry(err) {
			return ErrDuplicateTitle
		}
		if err != nil {
			return fmt.Errorf("inserting post: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting post id: %w", err)
		}
		post.ID = id

		return linkTags(ctx, tx, id, tagIDs)
	})
}

// Update implements PostRepository.
func (r *postRepository) Update(ctx context.Context, post *Post, tagIDs []int64) error {
	return database.Tx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE posts SET title = ?, text = ? WHERE id = ?`,
			post.Title, post.Text, post.ID,
		)
		if database.IsDuplicateEntry(err) {
			return ErrDuplicateTitle
		}
		if err != nil {
			return fmt.Errorf("updating post: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			// Zero rows also means "no change"; confirm the post exists.
			var exists bool
			err := tx.QueryRowContext(ctx,
				`SELECT EXISTS(SELECT 1 FROM posts WHERE id = ?)`, post.ID).Scan(&exists)
			if err != nil {
				return fmt.Errorf("checking post: %w", err)
			}
			if !exists {
				return apperror.NewNotFound("Post not found.")
			}
		}

		if tagIDs == nil {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = ?`, post.ID); err != nil {
			return fmt.Errorf("clearing post tags: %w", err)
		}
		return linkTags(ctx, tx, post.ID, tagIDs)
	})
}

// linkTags inserts the post_tags rows for one post.
func linkTags(ctx context.Context, tx *sql.Tx, postID int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}
	insert := sq.Insert("post_tags").Columns("post_id", "tag_id")
	for _, tagID := range tagIDs {
		insert = insert.Values(postID, tagID)
	}
	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("building post tags insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("linking post tags: %w", err)
	}
	return nil
}

// Delete implements PostRepository. Comments and likes cascade.
func (r *postRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFound("Post not found.")
	}
	return nil
}

// FindByID implements PostRepository.
func (r *postRepository) FindByID(ctx context.Context, id int64) (*Post, error) {
	query, args, err := baseQuery().Where(sq.Eq{"p.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building post query: %w", err)
	}
	return scanPost(r.db.QueryRowContext(ctx, query, args...))
}

// List implements PostRepository. Tag and search filters use EXISTS
// subqueries so a post matching through several tags is listed once.
func (r *postRepository) List(ctx context.Context, filter ListFilter, offset, limit int) ([]Post, int, error) {
	countBuilder := sq.Select("COUNT(*)").
		From("posts p").
		InnerJoin("user_profiles pr ON pr.id = p.author_id").
		InnerJoin("users u ON u.id = pr.user_id")
	countBuilder, err := applyFilter(countBuilder, filter)
	if err != nil {
		return nil, 0, err
	}
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building post count: %w", err)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting posts: %w", err)
	}

	builder, err := applyFilter(baseQuery(), filter)
	if err != nil {
		return nil, 0, err
	}
	query, args, err := builder.
		OrderBy(orderBy(filter.Ordering)...).
		Limit(uint64(limit)).Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building post list: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing posts: %w", err)
	}
	defer rows.Close()

	var out []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating posts: %w", err)
	}
	return out, total, nil
}

// applyFilter adds the WHERE clauses for filter.
func applyFilter(b sq.SelectBuilder, f ListFilter) (sq.SelectBuilder, error) {
	if f.AuthorID > 0 {
		b = b.Where(sq.Eq{"p.author_id": f.AuthorID})
	}

	for _, tagID := range f.TagIDs {
		b = b.Where(`EXISTS (SELECT 1 FROM post_tags pt WHERE pt.post_id = p.id AND pt.tag_id = ?)`, tagID)
	}

	if f.TagName != "" {
		b = b.Where(`EXISTS (SELECT 1 FROM post_tags pt INNER JOIN tags t ON t.id = pt.tag_id
			WHERE pt.post_id = p.id AND t.name_key = LOWER(?))`, f.TagName)
	}

	for _, term := range strings.Fields(f.Search) {
		pattern := "%" + escapeLike(term) + "%"
		tagMatch, tagArgs, err := sq.Select("1").
			From("post_tags pt").
			InnerJoin("tags t ON t.id = pt.tag_id").
			Where("pt.post_id = p.id").
			Where(sq.Like{"t.name": pattern}).
			ToSql()
		if err != nil {
			return b, fmt.Errorf("building tag search: %w", err)
		}
		// title and username are stored with a binary collation.
		b = b.Where(sq.Or{
			sq.Like{"p.title COLLATE utf8mb4_unicode_ci": pattern},
			sq.Like{"p.text": pattern},
			sq.Like{"u.username COLLATE utf8mb4_unicode_ci": pattern},
			sq.Expr("EXISTS ("+tagMatch+")", tagArgs...),
		})
	}
	return b, nil
}

// orderBy turns "-likes_count,title" into ORDER BY terms. Unknown fields are
// ignored; the post ID breaks ties so pages are stable.
func orderBy(ordering string) []string {
	var terms []string
	for _, field := range strings.Split(ordering, ",") {
		field = strings.TrimSpace(field)
		dir := "ASC"
		if strings.HasPrefix(field, "-") {
			dir = "DESC"
			field = field[1:]
		}
		col, ok := orderColumns[field]
		if !ok {
			continue
		}
		terms = append(terms, col+" "+dir)
	}
	if len(terms) == 0 {
		terms = append(terms, defaultOrdering)
	}
	return append(terms, "p.id DESC")
}

// escapeLike escapes LIKE wildcards in user input.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*Post, error) {
	p := &Post{}
	err := row.Scan(
		&p.ID, &p.AuthorID, &p.AuthorUsername, &p.Title, &p.Text,
		&p.LikesCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("Post not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("scanning post: %w", err)
	}
	return p, nil
}
