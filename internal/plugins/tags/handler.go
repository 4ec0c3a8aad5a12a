package tags

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/quillpad/internal/apperror"
	"github.com/keyxmakerx/quillpad/internal/pagination"
	"github.com/keyxmakerx/quillpad/internal/plugins/auth"
)

// Handler serves the tag endpoints.
type Handler struct {
	service TagService
}

// NewHandler creates a new tag handler.
func NewHandler(service TagService) *Handler {
	return &Handler{service: service}
}

// List handles GET /api/tags?search=.
func (h *Handler) List(c echo.Context) error {
	opts := pagination.FromQuery(c)
	items, total, err := h.service.List(c.Request().Context(), c.QueryParam("search"), opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewPage(items, total, opts))
}

// Get handles GET /api/tags/:id.
func (h *Handler) Get(c echo.Context) error {
	id, err := tagIDParam(c)
	if err != nil {
		return err
	}
	tag, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tag)
}

// Create handles POST /api/tags.
func (h *Handler) Create(c echo.Context) error {
	var req TagRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request body.")
	}
	tag, err := h.service.Create(c.Request().Context(), auth.GetPrincipal(c), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, tag)
}

// Update handles PUT/PATCH /api/tags/:id.
func (h *Handler) Update(c echo.Context) error {
	id, err := tagIDParam(c)
	if err != nil {
		return err
	}
	var req TagRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request body.")
	}
	tag, err := h.service.Update(c.Request().Context(), auth.GetPrincipal(c), id, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tag)
}

// Delete handles DELETE /api/tags/:id.
func (h *Handler) Delete(c echo.Context) error {
	id, err := tagIDParam(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), auth.GetPrincipal(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Suggest handles GET /api/posts/tag_suggest?q=.
func (h *Handler) Suggest(c echo.Context) error {
	items, err := h.service.Suggest(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func tagIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewNotFound("Tag not found.")
	}
	return id, nil
}
