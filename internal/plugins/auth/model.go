// Package auth handles identities, bearer tokens, and password security for
// Quillpad. It provides registration, login, token refresh and revocation,
// principal resolution for every request, and identity administration.
//
// This is a CORE plugin -- always enabled, cannot be disabled.
package auth

import (
	"time"
)

// User is a registered identity. Each user owns exactly one profile, which
// lives in the profiles plugin.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never expose in JSON responses.
	IsStaff      bool       `json:"is_staff"`
	IsSuperuser  bool       `json:"is_superuser"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// Elevated reports whether the identity carries the staff/superuser flag.
func (u *User) Elevated() bool {
	return u.IsStaff || u.IsSuperuser
}

// --- Request DTOs (bound from HTTP requests) ---

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /api/auth/login and POST /api/token.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest carries a refresh token (token refresh and logout).
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// CreateUserRequest is the body of POST /api/users.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	IsStaff  bool   `json:"is_staff"`
}

// UpdateUserRequest is the body of PATCH /api/users/:id. Nil fields are
// left unchanged.
type UpdateUserRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	IsStaff  *bool   `json:"is_staff"`
}

// --- Service Input DTOs (passed from handler to service) ---

// RegisterInput is the input for creating a new identity.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	IsStaff  bool
}

// LoginInput is the input for authenticating an identity.
type LoginInput struct {
	Username string
	Password string
}

// --- Responses ---

// TokenPair is an access token and, when issued together, its refresh token.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// userSummary is the identity shape embedded in register and me responses.
type userSummary struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	IsStaff     *bool  `json:"is_staff,omitempty"`
	IsSuperuser *bool  `json:"is_superuser,omitempty"`
}

// registerResponse is returned by POST /api/auth/register.
type registerResponse struct {
	Message string      `json:"message"`
	Access  string      `json:"access"`
	Refresh string      `json:"refresh"`
	User    userSummary `json:"user"`
}

// profileSummary is the profile shape embedded in the me response.
type profileSummary struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
}

// meResponse is returned by GET /api/me.
type meResponse struct {
	User    userSummary     `json:"user"`
	Profile *profileSummary `json:"profile"`
}
