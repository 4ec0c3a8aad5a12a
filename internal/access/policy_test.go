package access

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/quillpad/internal/apperror"
)

// --- Fixtures ---

type ownedByProfile int64

func (o ownedByProfile) OwnerProfileID() int64 { return int64(o) }

type ownedByUser int64

func (o ownedByUser) OwnerUserID() int64 { return int64(o) }

func anon() *Principal { return Anonymous() }

func member(userID, profileID int64) *Principal {
	return &Principal{
		UserID:        userID,
		Username:      "member",
		Authenticated: true,
		Profile:       &ProfileRef{ID: profileID, Role: RoleUser},
	}
}

func manager(userID, profileID int64) *Principal {
	return &Principal{
		UserID:        userID,
		Username:      "boss",
		Authenticated: true,
		Profile:       &ProfileRef{ID: profileID, Role: RoleManager},
	}
}

func staff(userID int64) *Principal {
	return &Principal{UserID: userID, Username: "root", Authenticated: true, Elevated: true}
}

var allActions = []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete}

// --- Identity & role resolver ---

func TestIsManager(t *testing.T) {
	tests := []struct {
		name string
		p    *Principal
		want bool
	}{
		{"nil principal", nil, false},
		{"anonymous", anon(), false},
		{"user role", member(1, 10), false},
		{"manager role", manager(2, 20), true},
		{"staff without profile", staff(3), true},
		{"authenticated without profile", &Principal{UserID: 4, Authenticated: true}, false},
		{"manager profile but not authenticated", &Principal{Profile: &ProfileRef{ID: 5, Role: RoleManager}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsManager(tt.p))
		})
	}
}

func TestResolveRole_Errors(t *testing.T) {
	_, err := ResolveRole(anon())
	assert.True(t, errors.Is(err, ErrAnonymous))

	_, err = ResolveRole(&Principal{UserID: 1, Authenticated: true})
	assert.True(t, errors.Is(err, ErrNoProfile))

	role, err := ResolveRole(staff(1))
	require.NoError(t, err)
	assert.Equal(t, RoleManager, role)
}

func TestResolveProfileID(t *testing.T) {
	id, ok := ResolveProfileID(member(1, 42))
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	_, ok = ResolveProfileID(anon())
	assert.False(t, ok)

	_, ok = ResolveProfileID(staff(1))
	assert.False(t, ok)
}

// --- Posts ---

func TestPostPolicy_WritesAreManagerOnly(t *testing.T) {
	principals := []*Principal{anon(), member(1, 10), manager(2, 20), staff(3)}
	// Post authored by the member's own profile: authorship grants nothing.
	post := ownedByProfile(10)

	for _, p := range principals {
		for _, a := range allActions {
			want := a == ActionRead || IsManager(p)
			assert.Equal(t, want, Authorize(p, ResourcePost, a, nil), "collection %v %+v", a, p)
			assert.Equal(t, want, Authorize(p, ResourcePost, a, post), "object %v %+v", a, p)
		}
	}
}

// --- Comments ---

func TestCommentPolicy(t *testing.T) {
	principals := []*Principal{anon(), member(1, 10), manager(2, 20)}
	comment := ownedByProfile(10)

	for _, p := range principals {
		assert.True(t, Authorize(p, ResourceComment, ActionRead, nil))
		assert.Equal(t, IsAuthenticated(p), Authorize(p, ResourceComment, ActionCreate, nil))
		assert.Equal(t, IsManager(p), Authorize(p, ResourceComment, ActionUpdate, comment))
		assert.Equal(t, IsManager(p), Authorize(p, ResourceComment, ActionDelete, comment))
	}
}

// --- Tags ---

func TestTagPolicy(t *testing.T) {
	assert.True(t, Authorize(anon(), ResourceTag, ActionRead, nil))
	assert.False(t, Authorize(member(1, 10), ResourceTag, ActionCreate, nil))
	assert.False(t, Authorize(member(1, 10), ResourceTag, ActionDelete, struct{}{}))
	assert.True(t, Authorize(manager(2, 20), ResourceTag, ActionCreate, nil))
	assert.True(t, Authorize(manager(2, 20), ResourceTag, ActionUpdate, struct{}{}))
}

// --- Profiles ---

func TestProfilePolicy(t *testing.T) {
	own := ownedByUser(1)
	other := ownedByUser(99)

	assert.True(t, Authorize(anon(), ResourceProfile, ActionRead, own))
	assert.False(t, Authorize(anon(), ResourceProfile, ActionUpdate, own))

	assert.True(t, Authorize(member(1, 10), ResourceProfile, ActionUpdate, own))
	assert.False(t, Authorize(member(1, 10), ResourceProfile, ActionUpdate, other))
	assert.True(t, Authorize(manager(2, 20), ResourceProfile, ActionUpdate, other))
}

func TestProfilePolicy_ComparesIdentityNotProfileID(t *testing.T) {
	// Profile ID 1 belongs to user 99. A member whose profile ID happens to
	// be 1 must not be treated as the owner.
	p := member(5, 1)
	assert.False(t, Authorize(p, ResourceProfile, ActionUpdate, ownedByUser(99)))
}

// --- Likes ---

func TestLikePolicy(t *testing.T) {
	mine := ownedByProfile(10)
	theirs := ownedByProfile(30)

	for _, a := range allActions {
		assert.False(t, Authorize(anon(), ResourceLike, a, nil), "anonymous %v", a)
	}

	m := member(1, 10)
	assert.True(t, Authorize(m, ResourceLike, ActionRead, nil))
	assert.True(t, Authorize(m, ResourceLike, ActionRead, theirs))
	assert.True(t, Authorize(m, ResourceLike, ActionDelete, mine))
	assert.False(t, Authorize(m, ResourceLike, ActionDelete, theirs))

	assert.True(t, Authorize(manager(2, 20), ResourceLike, ActionDelete, theirs))
}

func TestLikePolicy_NoProfileDeniesOwnership(t *testing.T) {
	p := &Principal{UserID: 1, Authenticated: true}
	assert.False(t, Authorize(p, ResourceLike, ActionDelete, ownedByProfile(0)))
}

// --- Users ---

func TestUserPolicy(t *testing.T) {
	for _, a := range allActions {
		assert.False(t, Authorize(anon(), ResourceUser, a, nil))
		assert.False(t, Authorize(member(1, 10), ResourceUser, a, nil))
		assert.True(t, Authorize(manager(2, 20), ResourceUser, a, nil))
		assert.True(t, Authorize(staff(3), ResourceUser, a, nil))
	}
}

// --- Check ---

func TestCheck_DistinguishesAnonymousFromForbidden(t *testing.T) {
	err := Check(anon(), ResourcePost, ActionCreate, nil)
	assert.Equal(t, http.StatusUnauthorized, apperror.SafeCode(err))

	err = Check(member(1, 10), ResourcePost, ActionCreate, nil)
	assert.Equal(t, http.StatusForbidden, apperror.SafeCode(err))

	assert.NoError(t, Check(manager(2, 20), ResourcePost, ActionCreate, nil))
}

func TestAuthorize_UnknownResourceDenied(t *testing.T) {
	assert.False(t, Authorize(staff(1), Resource(999), ActionRead, nil))
}
