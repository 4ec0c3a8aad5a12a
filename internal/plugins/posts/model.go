// Package posts manages blog posts. Reads are public and every write is
// manager-only. Each post returned to a client passes through the Enricher,
// which adds the request-dependent like fields.
package posts

import (
	"time"

	"github.com/keyxmakerx/quillpad/internal/plugins/tags"
)

// Validation limits, in characters.
const (
	minTitleLen = 2
	maxTitleLen = 100
	minTextLen  = 5
)

// maxLikers caps the liker list attached to a post.
const maxLikers = 50

// Post is a blog post as returned by the API.
type Post struct {
	ID             int64      `json:"id"`
	AuthorID       int64      `json:"author_id"`
	AuthorUsername string     `json:"author_username"`
	Title          string     `json:"title"`
	Text           string     `json:"text"`
	Tags           []tags.Tag `json:"tags"`

	// Derived per request by the Enricher.
	LikesCount int  `json:"likes_count"`
	LikedByMe  bool `json:"liked_by_me"`

	// Likers is nil when the requester may not see who liked the post,
	// which encodes as null. An authorized requester always gets a
	// non-nil slice, possibly empty.
	Likers []Liker `json:"likers"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnerProfileID implements access.ProfileOwned.
func (p *Post) OwnerProfileID() int64 {
	return p.AuthorID
}

// Liker is a profile that liked a post.
type Liker struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// PostRequest is the body of post create and update requests. On update a
// nil field is left unchanged.
type PostRequest struct {
	Title     *string  `json:"title"`
	Text      *string  `json:"text"`
	TagInputs []string `json:"tag_inputs"`
}

// ListFilter narrows a post listing. Zero values mean "no filter".
type ListFilter struct {
	AuthorID int64

	// TagIDs must all be attached to a listed post.
	TagIDs []int64

	// TagName matches a tag name ignoring case.
	TagName string

	// Search terms each must appear in the title, text, author username,
	// or a tag name.
	Search string

	// Ordering is a comma-separated list of fields, each optionally
	// prefixed with "-" for descending order.
	Ordering string
}
