package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/argon2"

	"github.com/keyxmakerx/quillpad/internal/access"
	"github.com/keyxmakerx/quillpad/internal/apperror"
	"github.com/keyxmakerx/quillpad/internal/pagination"
)

// argon2id parameters following the OWASP recommendation:
// memory=64MB, iterations=3, parallelism=4.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // 64 MB in KiB
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// Field limits for identities.
const (
	maxUsernameLen  = 150
	minPasswordLen  = 8
	maxPasswordLen  = 128
	passwordSymbols = "!@#$%^&*"
)

// invalidCredentials is the generic login failure message. It does not
// reveal whether the username exists.
const invalidCredentials = "No active account found with the given credentials."

// AuthService defines the business logic contract for authentication and
// identity administration. Handlers call these methods -- they never touch
// the repository directly.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*User, *TokenPair, error)
	Login(ctx context.Context, input LoginInput) (*TokenPair, *User, error)
	Refresh(ctx context.Context, refresh string) (string, error)
	Logout(ctx context.Context, refresh string) error

	// ResolvePrincipal turns an access token into the request principal.
	ResolvePrincipal(ctx context.Context, accessToken string) (*access.Principal, error)
	GetUser(ctx context.Context, id int64) (*User, error)

	// Identity administration, manager/admin only.
	ListUsers(ctx context.Context, p *access.Principal, opts pagination.ListOptions) ([]User, int, error)
	GetUserAsAdmin(ctx context.Context, p *access.Principal, id int64) (*User, error)
	CreateUser(ctx context.Context, p *access.Principal, input RegisterInput) (*User, error)
	UpdateUser(ctx context.Context, p *access.Principal, id int64, req UpdateUserRequest) (*User, error)
	DeleteUser(ctx context.Context, p *access.Principal, id int64) error
}

// authService implements AuthService with argon2id hashing, JWT bearer
// tokens, and a Redis refresh token denylist.
type authService struct {
	repo     UserRepository
	tokens   *TokenIssuer
	denylist Denylist
}

// NewAuthService creates a new auth service with the given dependencies.
func NewAuthService(repo UserRepository, tokens *TokenIssuer, denylist Denylist) AuthService {
	return &authService{
		repo:     repo,
		tokens:   tokens,
		denylist: denylist,
	}
}

// Register creates a new identity with its profile and returns a token pair
// so the client is logged in right away.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*User, *TokenPair, error) {
	input.IsStaff = false
	user, err := s.createUser(ctx, input)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.tokens.Issue(user)
	if err != nil {
		return nil, nil, apperror.NewInternal(fmt.Errorf("issuing tokens: %w", err))
	}

	slog.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return user, pair, nil
}

// Login authenticates by username and password.
func (s *authService) Login(ctx context.Context, input LoginInput) (*TokenPair, *User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, nil, apperror.NewFieldError("username", "This field is required.")
	}
	if input.Password == "" {
		return nil, nil, apperror.NewFieldError("password", "This field is required.")
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil, apperror.NewUnauthorized(invalidCredentials)
		}
		return nil, nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if !verifyPassword(input.Password, user.PasswordHash) {
		return nil, nil, apperror.NewUnauthorized(invalidCredentials)
	}

	pair, err := s.tokens.Issue(user)
	if err != nil {
		return nil, nil, apperror.NewInternal(fmt.Errorf("issuing tokens: %w", err))
	}

	// Non-critical.
	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("failed to update last login",
			slog.Int64("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	slog.Info("user logged in", slog.Int64("user_id", user.ID))
	return pair, user, nil
}

// Refresh exchanges a valid, unrevoked refresh token for a new access token.
func (s *authService) Refresh(ctx context.Context, refresh string) (string, error) {
	claims, err := s.parseRefresh(ctx, refresh)
	if err != nil {
		return "", err
	}

	token, err := s.tokens.IssueAccess(claims)
	if err != nil {
		return "", apperror.NewUnauthorized("Token is invalid or expired.")
	}
	return token, nil
}

// Logout revokes a refresh token for the rest of its lifetime.
func (s *authService) Logout(ctx context.Context, refresh string) error {
	claims, err := s.parseRefresh(ctx, refresh)
	if err != nil {
		return err
	}

	if err := s.denylist.Revoke(ctx, claims.ID, s.tokens.RemainingTTL(claims)); err != nil {
		return apperror.NewInternal(err)
	}

	slog.Info("refresh token revoked", slog.String("user", claims.Subject))
	return nil
}

// parseRefresh validates a refresh token and checks the denylist.
func (s *authService) parseRefresh(ctx context.Context, refresh string) (*Claims, error) {
	if strings.TrimSpace(refresh) == "" {
		return nil, apperror.NewFieldError("refresh", "This field is required.")
	}

	claims, err := s.tokens.Parse(refresh, TokenTypeRefresh)
	if err != nil {
		return nil, apperror.NewUnauthorized("Token is invalid or expired.")
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	if revoked {
		return nil, apperror.NewUnauthorized("Token is blacklisted.")
	}
	return claims, nil
}

// ResolvePrincipal validates an access token and loads the identity and its
// profile. A profile that cannot be loaded leaves Profile nil: the principal
// is still authenticated but resolves to no role and no ownership.
func (s *authService) ResolvePrincipal(ctx context.Context, accessToken string) (*access.Principal, error) {
	claims, err := s.tokens.Parse(accessToken, TokenTypeAccess)
	if err != nil {
		return nil, apperror.NewUnauthorized("Given token not valid for any token type.")
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, apperror.NewUnauthorized("Given token not valid for any token type.")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("User not found.")
		}
		return nil, apperror.NewInternal(fmt.Errorf("loading principal: %w", err))
	}

	p := &access.Principal{
		UserID:        user.ID,
		Username:      user.Username,
		Authenticated: true,
		Elevated:      user.Elevated(),
	}

	profile, err := s.repo.EnsureProfile(ctx, user.ID)
	if err != nil {
		slog.Warn("profile resolution failed",
			slog.Int64("user_id", user.ID),
			slog.Any("error", err),
		)
		return p, nil
	}
	p.Profile = profile
	return p, nil
}

// GetUser returns an identity by ID without an authorization check. Used
// for the caller's own identity.
func (s *authService) GetUser(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapRepoErr(err, "finding user")
	}
	return user, nil
}

// --- Identity administration ---

// ListUsers returns a page of identities.
func (s *authService) ListUsers(ctx context.Context, p *access.Principal, opts pagination.ListOptions) ([]User, int, error) {
	if err := access.Check(p, access.ResourceUser, access.ActionRead, nil); err != nil {
		return nil, 0, err
	}
	users, total, err := s.repo.List(ctx, opts.Offset(), opts.Limit())
	if err != nil {
		return nil, 0, apperror.NewInternal(err)
	}
	return users, total, nil
}

// GetUserAsAdmin returns any identity by ID.
func (s *authService) GetUserAsAdmin(ctx context.Context, p *access.Principal, id int64) (*User, error) {
	if err := access.Check(p, access.ResourceUser, access.ActionRead, nil); err != nil {
		return nil, err
	}
	return s.GetUser(ctx, id)
}

// CreateUser creates an identity on behalf of an administrator.
func (s *authService) CreateUser(ctx context.Context, p *access.Principal, input RegisterInput) (*User, error) {
	if err := access.Check(p, access.ResourceUser, access.ActionCreate, nil); err != nil {
		return nil, err
	}
	user, err := s.createUser(ctx, input)
	if err != nil {
		return nil, err
	}
	slog.Info("user created by admin",
		slog.Int64("user_id", user.ID),
		slog.Int64("admin_id", p.UserID),
	)
	return user, nil
}

// UpdateUser changes email, password, or the staff flag.
func (s *authService) UpdateUser(ctx context.Context, p *access.Principal, id int64, req UpdateUserRequest) (*User, error) {
	if err := access.Check(p, access.ResourceUser, access.ActionUpdate, nil); err != nil {
		return nil, err
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email, err := normalizeEmail(*req.Email)
		if err != nil {
			return nil, err
		}
		user.Email = email
	}
	if req.Password != nil {
		if err := validatePassword(*req.Password); err != nil {
			return nil, err
		}
		hash, err := hashPassword(*req.Password)
		if err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
		}
		user.PasswordHash = hash
	}
	if req.IsStaff != nil {
		user.IsStaff = *req.IsStaff
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, wrapRepoErr(err, "updating user")
	}
	return user, nil
}

// DeleteUser removes an identity and everything it owns. Administrators
// cannot delete themselves.
func (s *authService) DeleteUser(ctx context.Context, p *access.Principal, id int64) error {
	if err := access.Check(p, access.ResourceUser, access.ActionDelete, nil); err != nil {
		return err
	}
	if id == p.UserID {
		return apperror.NewBadRequest("You cannot delete your own account.")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return wrapRepoErr(err, "deleting user")
	}
	slog.Info("user deleted",
		slog.Int64("user_id", id),
		slog.Int64("admin_id", p.UserID),
	)
	return nil
}

// createUser validates input, hashes the password, and persists the user
// together with its profile.
func (s *authService) createUser(ctx context.Context, input RegisterInput) (*User, error) {
	username := strings.TrimSpace(input.Username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	// Check before doing expensive hashing.
	exists, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking username: %w", err))
	}
	if exists {
		return nil, apperror.NewFieldError("username", "A user with that username already exists.")
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	user := &User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsStaff:      input.IsStaff,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, wrapRepoErr(err, "creating user")
	}
	return user, nil
}

// --- Validation ---

func validateUsername(username string) error {
	if username == "" {
		return apperror.NewFieldError("username", "This field is required.")
	}
	if len(username) > maxUsernameLen {
		return apperror.NewFieldError("username", "Ensure this field has no more than 150 characters.")
	}
	for _, r := range username {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune("@.+-_", r) {
			return apperror.NewFieldError("username",
				"Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
		}
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", apperror.NewFieldError("email", "This field is required.")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperror.NewFieldError("email", "Enter a valid email address.")
	}
	return email, nil
}

// validatePassword requires at least 8 characters with a lowercase letter,
// an uppercase letter, a digit, and one of !@#$%^&*.
func validatePassword(password string) error {
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return apperror.NewFieldError("password", "Password must be between 8 and 128 characters long.")
	}

	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	if !lower || !upper || !digit || !symbol {
		return apperror.NewFieldError("password",
			"Password must contain at least one lowercase letter, one uppercase letter, one digit, and one special character (!@#$%^&*).")
	}
	return nil
}

// wrapRepoErr passes domain errors through and hides everything else
// behind a 500.
func wrapRepoErr(err error, op string) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.NewInternal(fmt.Errorf("%s: %w", op, err))
}

// --- Password Hashing (argon2id) ---

// hashPassword creates an argon2id hash in PHC string format:
// $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
func hashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads, b64Salt, b64Hash), nil
}

// verifyPassword checks a plaintext password against an argon2id hash string.
func verifyPassword(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false
	}

	var memory uint32
	var iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Constant-time comparison to prevent timing attacks.
	return subtle.ConstantTimeCompare(expectedHash, computedHash) == 1
}
