// Package likes records which profiles like which posts. At most one like
// row exists per (profile, post); creating a like is idempotent and always
// binds the like to the caller's own profile.
package likes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/keyxmakerx/quillpad/internal/apperror"
)

// LikeType discriminates likes from dislikes.
type LikeType string

const (
	TypeLike    LikeType = "like"
	TypeDislike LikeType = "dislike"
)

// IsValid reports whether t is a known like type.
func (t LikeType) IsValid() bool {
	return t == TypeLike || t == TypeDislike
}

// Like is one profile's reaction to one post.
type Like struct {
	ID        int64     `json:"id"`
	ProfileID int64     `json:"user_id"`
	PostID    int64     `json:"post"`
	LikeType  LikeType  `json:"like_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnerProfileID implements access.ProfileOwned.
func (l *Like) OwnerProfileID() int64 {
	return l.ProfileID
}

// Liker is a profile that liked a post.
type Liker struct {
	ProfileID int64
	Username  string
}

// LikeRequest is the body of POST /api/post-user-likes. Post is kept raw
// because clients send both numbers and numeric strings.
type LikeRequest struct {
	Post     json.RawMessage `json:"post"`
	LikeType string          `json:"like_type"`
}

// ParsePostID validates the raw post field of a like request. Absent, null,
// empty, and zero values are missing; anything else must be an integer or a
// string holding one.
func ParsePostID(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null", `""`, "0", "false":
		return 0, apperror.NewFieldError("post", "This field is required.")
	}

	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, apperror.NewFieldError("post", "Must be an integer.")
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, apperror.NewFieldError("post", "This field is required.")
		}
	} else {
		s = string(raw)
	}

	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, apperror.NewFieldError("post", "Must be an integer.")
	}
	if id == 0 {
		return 0, apperror.NewFieldError("post", "This field is required.")
	}
	if id < 0 {
		return 0, apperror.NewFieldError("post", fmt.Sprintf("Invalid pk %q - object does not exist.", s))
	}
	return id, nil
}
