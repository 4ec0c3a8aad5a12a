// Package comments manages comments on posts. Any authenticated caller may
// comment; editing and deleting comments is left to managers. A comment may
// reply to another comment on the same post.
package comments

import "time"

// Text length limits, in characters.
const (
	minTextLen = 5
	maxTextLen = 500
)

// Comment is a comment on a post.
type Comment struct {
	ID             int64     `json:"id"`
	PostID         int64     `json:"post"`
	AuthorID       int64     `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	Text           string    `json:"text"`
	ReplyToID      *int64    `json:"reply_to"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// OwnerProfileID implements access.ProfileOwned.
func (c *Comment) OwnerProfileID() int64 {
	return c.AuthorID
}

// CommentRequest is the body of comment create and update requests. Only
// Text is honored on update.
type CommentRequest struct {
	Post    *int64  `json:"post"`
	Text    *string `json:"text"`
	ReplyTo *int64  `json:"reply_to"`
}
