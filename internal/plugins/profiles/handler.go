package profiles

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/quillpad/internal/apperror"
	"github.com/keyxmakerx/quillpad/internal/pagination"
	"github.com/keyxmakerx/quillpad/internal/plugins/auth"
)

// Handler serves the /api/user-profiles endpoints.
type Handler struct {
	service ProfileService
}

// NewHandler creates a new profile handler.
func NewHandler(service ProfileService) *Handler {
	return &Handler{service: service}
}

// List handles GET /api/user-profiles.
func (h *Handler) List(c echo.Context) error {
	opts := pagination.FromQuery(c)
	items, total, err := h.service.List(c.Request().Context(), opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewPage(items, total, opts))
}

// Get handles GET /api/user-profiles/:id.
func (h *Handler) Get(c echo.Context) error {
	id, err := profileIDParam(c)
	if err != nil {
		return err
	}
	profile, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// Update handles PUT/PATCH /api/user-profiles/:id.
func (h *Handler) Update(c echo.Context) error {
	id, err := profileIDParam(c)
	if err != nil {
		return err
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request body.")
	}

	profile, err := h.service.Update(c.Request().Context(), auth.GetPrincipal(c), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

func profileIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewNotFound("Profile not found.")
	}
	return id, nil
}
