package access

import (
	"github.com/keyxmakerx/quillpad/internal/apperror"
)

// Resource identifies the kind of object an action targets.
type Resource int

const (
	ResourcePost Resource = iota + 1
	ResourceComment
	ResourceTag
	ResourceProfile
	ResourceLike
	ResourceUser
)

// String returns the lowercase resource name used in log attributes.
func (r Resource) String() string {
	switch r {
	case ResourcePost:
		return "post"
	case ResourceComment:
		return "comment"
	case ResourceTag:
		return "tag"
	case ResourceProfile:
		return "profile"
	case ResourceLike:
		return "like"
	case ResourceUser:
		return "user"
	default:
		return "unknown"
	}
}

// Action is the operation being attempted. ActionRead covers both fetching
// one object and listing many.
type Action int

const (
	ActionRead Action = iota + 1
	ActionCreate
	ActionUpdate
	ActionDelete
)

// IsSafe reports whether the action is read-only.
func (a Action) IsSafe() bool {
	return a == ActionRead
}

// ProfileOwned is implemented by objects authored by a profile (posts,
// comments, likes). Ownership is always compared by profile ID.
type ProfileOwned interface {
	OwnerProfileID() int64
}

// IdentityOwned is implemented by objects owned directly by an identity.
// Only profiles use this.
type IdentityOwned interface {
	OwnerUserID() int64
}

// Policy answers the two questions asked of every request: may the principal
// perform this action on the collection at all, and may it perform it on
// this particular instance.
type Policy interface {
	Allow(p *Principal, action Action) bool
	AllowObject(p *Principal, action Action, instance any) bool
}

// policies is the registry of per-resource rules.
var policies = map[Resource]Policy{
	ResourcePost:    postPolicy{},
	ResourceComment: commentPolicy{},
	ResourceTag:     tagPolicy{},
	ResourceProfile: profilePolicy{},
	ResourceLike:    likePolicy{},
	ResourceUser:    userPolicy{},
}

// Authorize reports whether p may perform action on resource. The object
// policy is consulted only when instance is non-nil and the collection
// policy already allowed the action. Unknown resources are denied.
func Authorize(p *Principal, resource Resource, action Action, instance any) bool {
	if p == nil {
		p = Anonymous()
	}
	policy, ok := policies[resource]
	if !ok {
		return false
	}
	if !policy.Allow(p, action) {
		return false
	}
	if instance == nil {
		return true
	}
	return policy.AllowObject(p, action, instance)
}

// Check is Authorize with the denial mapped to an error: anonymous callers
// get 401 so clients know to log in, authenticated callers get a bare 403.
func Check(p *Principal, resource Resource, action Action, instance any) error {
	if Authorize(p, resource, action, instance) {
		return nil
	}
	if !IsAuthenticated(p) {
		return apperror.NewUnauthorized("Authentication credentials were not provided.")
	}
	return apperror.NewForbidden("You do not have permission to perform this action.")
}

// --- Posts: read for everyone, every write is manager-only. Authors get
// no self-edit override.

type postPolicy struct{}

func (postPolicy) Allow(p *Principal, a Action) bool {
	return a.IsSafe() || IsManager(p)
}

func (postPolicy) AllowObject(p *Principal, a Action, _ any) bool {
	return a.IsSafe() || IsManager(p)
}

// --- Comments: read for everyone, any authenticated caller may comment,
// edits and deletes are manager-only.

type commentPolicy struct{}

func (commentPolicy) Allow(p *Principal, a Action) bool {
	switch a {
	case ActionRead:
		return true
	case ActionCreate:
		return IsAuthenticated(p)
	default:
		return IsManager(p)
	}
}

func (c commentPolicy) AllowObject(p *Principal, a Action, _ any) bool {
	return c.Allow(p, a)
}

// --- Tags: read for everyone, writes are manager-only. Posts may still
// create tags on the fly through the tag resolver.

type tagPolicy struct{}

func (tagPolicy) Allow(p *Principal, a Action) bool {
	return a.IsSafe() || IsManager(p)
}

func (tagPolicy) AllowObject(*Principal, Action, any) bool {
	return true
}

// --- Profiles: read for everyone; writes need an identity and then either
// ownership (by owning user ID) or the manager role.

type profilePolicy struct{}

func (profilePolicy) Allow(p *Principal, a Action) bool {
	return a.IsSafe() || IsAuthenticated(p)
}

func (profilePolicy) AllowObject(p *Principal, a Action, instance any) bool {
	if a.IsSafe() || IsManager(p) {
		return true
	}
	owned, ok := instance.(IdentityOwned)
	if !ok || !IsAuthenticated(p) {
		return false
	}
	return owned.OwnerUserID() == p.UserID
}

// --- Likes: every operation needs an identity; single-object writes need
// ownership by profile or the manager role.

type likePolicy struct{}

func (likePolicy) Allow(p *Principal, _ Action) bool {
	return IsAuthenticated(p)
}

func (likePolicy) AllowObject(p *Principal, a Action, instance any) bool {
	if a.IsSafe() || IsManager(p) {
		return true
	}
	return ownsByProfile(p, instance)
}

// --- Users (identities): manager/admin only, for everything.

type userPolicy struct{}

func (userPolicy) Allow(p *Principal, _ Action) bool {
	return IsManager(p)
}

func (userPolicy) AllowObject(p *Principal, _ Action, _ any) bool {
	return IsManager(p)
}

// ownsByProfile compares the instance's authoring profile with the
// principal's resolved profile.
func ownsByProfile(p *Principal, instance any) bool {
	owned, ok := instance.(ProfileOwned)
	if !ok {
		return false
	}
	profileID, ok := ResolveProfileID(p)
	if !ok {
		return false
	}
	return owned.OwnerProfileID() == profileID
}
