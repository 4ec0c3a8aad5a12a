package auth

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/quillpad/internal/apperror"
	"github.com/keyxmakerx/quillpad/internal/pagination"
)

// Handler handles HTTP requests for authentication and identity
// administration. Handlers are thin: they bind the request, call the
// service, and write the JSON response. No business logic lives here.
type Handler struct {
	service AuthService
}

// NewHandler creates a new auth handler with the given service.
func NewHandler(service AuthService) *Handler {
	return &Handler{service: service}
}

// Register creates an identity and logs it in (POST /api/auth/register).
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request body.")
	}

	user, pair, err := h.service.Register(c.Request().Context(), RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, registerResponse{
		Message: "User registered successfully.",
		Access:  pair.Access,
		Refresh: pair.Refresh,
		User:    userSummary{ID: user.ID, Username: user.Username, Email: user.Email},
	})
}

// Login exchanges credentials for a token pair (POST /api/auth/login and
// POST /api/token).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request body.")
	}

	pair, _, err := h.service.Login(c.Request().Context(), LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

// Refresh issues a new access token (POST /api/token/refresh).
func (h *Handler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request body.")
	}

	token, err := h.service.Refresh(c.Request().Context(), req.Refresh)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, TokenPair{Access: token})
}

// Logout revokes a refresh token (POST /api/auth/logout).
func (h *Handler) Logout(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request body.")
	}

	if err := h.service.Logout(c.Request().Context(), req.Refresh); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's identity and profile (GET /api/me).
func (h *Handler) Me(c echo.Context) error {
	p := GetPrincipal(c)

	user, err := h.service.GetUser(c.Request().Context(), p.UserID)
	if err != nil {
		return err
	}

	resp := meResponse{
		User: userSummary{
			ID:          user.ID,
			Username:    user.Username,
			Email:       user.Email,
			IsStaff:     &user.IsStaff,
			IsSuperuser: &user.IsSuperuser,
		},
	}
	if p.Profile != nil {
		resp.Profile = &profileSummary{ID: p.Profile.ID, Role: string(p.Profile.Role)}
	}
	return c.JSON(http.StatusOK, resp)
}

// --- Identity administration ---

// ListUsers returns a page of identities (GET /api/users).
func (h *Handler) ListUsers(c echo.Context) error {
	opts := pagination.FromQuery(c)
	users, total, err := h.service.ListUsers(c.Request().Context(), GetPrincipal(c), opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewPage(users, total, opts))
}

// GetUser returns one identity (GET /api/users/:id).
func (h *Handler) GetUser(c echo.Context) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}
	user, err := h.service.GetUserAsAdmin(c.Request().Context(), GetPrincipal(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// CreateUser creates an identity (POST /api/users).
func (h *Handler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request body.")
	}

	user, err := h.service.CreateUser(c.Request().Context(), GetPrincipal(c), RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		IsStaff:  req.IsStaff,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// UpdateUser changes an identity (PATCH /api/users/:id).
func (h *Handler) UpdateUser(c echo.Context) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request body.")
	}

	user, err := h.service.UpdateUser(c.Request().Context(), GetPrincipal(c), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser removes an identity (DELETE /api/users/:id).
func (h *Handler) DeleteUser(c echo.Context) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteUser(c.Request().Context(), GetPrincipal(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// userIDParam parses :id. A malformed ID can match no row, so it is a 404.
func userIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewNotFound("User not found.")
	}
	return id, nil
}
