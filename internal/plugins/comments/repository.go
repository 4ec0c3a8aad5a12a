package comments

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

// ErrPostNotFound is returned when a comment references a missing post.
var ErrPostNotFound = errors.New("post does not exist")

// CommentRepository defines the data access contract for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *Comment) error
	FindByID(ctx context.Context, id int64) (*Comment, error)
	UpdateText(ctx context.Context, id int64, text string) error
	Delete(ctx context.Context, id int64) error

	// List returns comments, optionally of one post (postID > 0), sorted
	// by ordering.
	List(ctx context.Context, postID int64, ordering string, offset, limit int) ([]Comment, int, error)
}

// commentRepository implements CommentRepository using MariaDB.
type commentRepository struct {
	db *sql.DB
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(db *sql.DB) CommentRepository {
	return &commentRepository{db: db}
}

// orderColumns maps public ordering names to SQL columns.
var orderColumns = map[string]string{
	"id":         "c.id",
	"created_at": "c.created_at",
}

func baseQuery() sq.SelectBuilder {
	return sq.Select(
		"c.id", "c.post_id", "c.author_id", "u.username", "c.text",
		"c.reply_to_id", "c.created_at", "c.updated_at",
	).
		From("comments c").
		InnerJoin("user_profiles pr ON pr.id = c.author_id").
		InnerJoin("users u ON u.id = pr.user_id")
}

// Create implements CommentRepository. Only ID is set on comment; callers
// reload it for the joined fields.
func (r *commentRepository) Create(ctx context.Context, comment *Comment) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (post_id, author_id, text, reply_to_id) VALUES (?, ?, ?, ?)`,
		comment.PostID, comment.AuthorID, comment.Text, comment.ReplyToID,
	)
	if database.IsMissingReference(err) {
		return ErrPostNotFound
	}
	if err != nil {
		return fmt.Errorf("inserting comment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting comment id: %w", err)
	}
	comment.ID = id
	return nil
}

// FindByID implements CommentRepository.
func (r *commentRepository) FindByID(ctx context.Context, id int64) (*Comment, error) {
	query, args, err := baseQuery().Where(sq.Eq{"c.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building comment query: %w", err)
	}
	return scanComment(r.db.QueryRowContext(ctx, query, args...))
}

// UpdateText implements CommentRepository.
func (r *commentRepository) UpdateText(ctx context.Context, id int64, text string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE comments SET text = ? WHERE id = ?`, text, id); err != nil {
		return fmt.Errorf("updating comment: %w", err)
	}
	return nil
}

// Delete implements CommentRepository. Replies cascade.
func (r *commentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFound("Comment not found.")
	}
	return nil
}

// List implements CommentRepository.
func (r *commentRepository) List(ctx context.Context, postID int64, ordering string, offset, limit int) ([]Comment, int, error) {
	count := sq.Select("COUNT(*)").From("comments c")
	list := baseQuery()
	if postID > 0 {
		count = count.Where(sq.Eq{"c.post_id": postID})
		list = list.Where(sq.Eq{"c.post_id": postID})
	}

	countQuery, countArgs, err := count.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building comment count: %w", err)
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting comments: %w", err)
	}

	query, args, err := list.
		OrderBy(orderBy(ordering)...).
		Limit(uint64(limit)).Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building comment list: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing comments: %w", err)
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

// orderBy parses "-created_at,id". The default is newest ID first.
func orderBy(ordering string) []string {
	var terms []string
	for _, field := range strings.Split(ordering, ",") {
		field = strings.TrimSpace(field)
		dir := "ASC"
		if strings.HasPrefix(field, "-") {
			dir = "DESC"
			field = field[1:]
		}
		if col, ok := orderColumns[field]; ok {
			terms = append(terms, col+" "+dir)
		}
	}
	if len(terms) == 0 {
		return []string{"c.id DESC"}
	}
	return terms
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (*Comment, error) {
	c := &Comment{}
	var replyTo sql.NullInt64
	err := row.Scan(
		&c.ID, &c.PostID, &c.AuthorID, &c.AuthorUsername, &c.Text,
		&replyTo, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("Comment not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("scanning comment: %w", err)
	}
	if replyTo.Valid {
		c.ReplyToID = &replyTo.Int64
	}
	return c, nil
}
