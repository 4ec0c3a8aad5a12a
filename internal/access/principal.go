// Package access decides who may do what. It holds the request principal,
// the identity/role resolver, and one authorization policy per resource type.
//
// Plugins never compare user IDs or roles themselves: they build an
// instance, call Check, and act on the returned error.
package access

import (
	"errors"
)

// Role is the domain role stored on a profile.
type Role string

const (
	// RoleUser is the default role given to every new profile.
	RoleUser Role = "user"

	// RoleManager may write posts, tags, and comments regardless of ownership.
	RoleManager Role = "manager"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleManager
}

// ProfileRef is the slice of a profile the authorization layer needs.
type ProfileRef struct {
	ID   int64
	Role Role
}

// Principal is the caller of an operation. The zero value is anonymous.
type Principal struct {
	// UserID is the identity ID. Zero when anonymous.
	UserID int64

	// Username is the identity's login name. Empty when anonymous.
	Username string

	// Authenticated is true when the request carried a valid access token.
	Authenticated bool

	// Elevated is the staff/superuser flag on the identity.
	Elevated bool

	// Profile is the identity's profile. Nil when anonymous or when the
	// profile could not be resolved.
	Profile *ProfileRef
}

// Anonymous returns a principal with no identity.
func Anonymous() *Principal {
	return &Principal{}
}

// Resolution errors. Callers that only need a yes/no answer use IsManager
// and ResolveProfileID, which collapse these to "not a manager"/"no profile".
var (
	ErrAnonymous = errors.New("principal is anonymous")
	ErrNoProfile = errors.New("principal has no profile")
)

// ResolveRole returns the effective role of an authenticated principal.
// Elevated identities resolve to RoleManager even without a profile.
func ResolveRole(p *Principal) (Role, error) {
	if p == nil || !p.Authenticated {
		return "", ErrAnonymous
	}
	if p.Elevated {
		return RoleManager, nil
	}
	if p.Profile == nil {
		return "", ErrNoProfile
	}
	return p.Profile.Role, nil
}

// IsManager reports whether p holds elevated privileges. Any resolution
// failure yields false.
func IsManager(p *Principal) bool {
	role, err := ResolveRole(p)
	if err != nil {
		return false
	}
	return role == RoleManager
}

// ResolveProfileID returns the profile ID of an authenticated principal.
func ResolveProfileID(p *Principal) (int64, bool) {
	if p == nil || !p.Authenticated || p.Profile == nil {
		return 0, false
	}
	return p.Profile.ID, true
}

// IsAuthenticated is a nil-safe accessor for p.Authenticated.
func IsAuthenticated(p *Principal) bool {
	return p != nil && p.Authenticated
}
