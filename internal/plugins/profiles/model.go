// Package profiles manages user profiles: the per-identity record that
// carries the domain role and authors posts, comments, and likes. Profiles
// are created together with their identity and never through the API.
package profiles

import (
	"time"

	"github.com/keyxmakerx/quillpad/internal/access"
)

// birthDateLayout is the wire format of birth dates.
const birthDateLayout = "2006-01-02"

// maxBioLen caps the plain-text bio.
const maxBioLen = 1000

// Profile is the public representation of a user profile.
type Profile struct {
	ID       int64       `json:"id"`
	UserID   int64       `json:"user_id"`
	Username string      `json:"username"`
	Role     access.Role `json:"role"`
	Bio      string      `json:"bio"`

	// BirthDate is YYYY-MM-DD or nil.
	BirthDate *string   `json:"birth_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnerUserID implements access.IdentityOwned. Profiles are owned by their
// identity, not by themselves.
func (p *Profile) OwnerUserID() int64 {
	return p.UserID
}

// UpdateProfileRequest is the body of PUT/PATCH /api/user-profiles/:id.
// Nil fields are left unchanged; an empty birth_date clears it.
type UpdateProfileRequest struct {
	Bio       *string `json:"bio"`
	BirthDate *string `json:"birth_date"`
	Role      *string `json:"role"`
}
