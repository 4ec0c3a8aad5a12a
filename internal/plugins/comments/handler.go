package comments

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/quillpad/internal/apperror"
	"github.com/keyxmakerx/quillpad/internal/pagination"
	"github.com/keyxmakerx/quillpad/internal/plugins/auth"
)

// Handler serves the comment endpoints.
type Handler struct {
	service CommentService
}

// NewHandler creates a new comment handler.
func NewHandler(service CommentService) *Handler {
	return &Handler{service: service}
}

// List handles GET /api/comments?post=&ordering=.
func (h *Handler) List(c echo.Context) error {
	var postID int64
	if raw := c.QueryParam("post"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return apperror.NewFieldError("post", "Select a valid choice. That choice is not one of the available choices.")
		}
		postID = id
	}

	opts := pagination.FromQuery(c)
	items, total, err := h.service.List(c.Request().Context(), postID, c.QueryParam("ordering"), opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewPage(items, total, opts))
}

// Get handles GET /api/comments/:id.
func (h *Handler) Get(c echo.Context) error {
	id, err := commentIDParam(c)
	if err != nil {
		return err
	}
	comment, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comment)
}

// Create handles POST /api/comments.
func (h *Handler) Create(c echo.Context) error {
	var req CommentRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request body.")
	}
	comment, err := h.service.Create(c.Request().Context(), auth.GetPrincipal(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, comment)
}

// Update handles PUT/PATCH /api/comments/:id.
func (h *Handler) Update(c echo.Context) error {
	id, err := commentIDParam(c)
	if err != nil {
		return err
	}
	var req CommentRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request body.")
	}
	comment, err := h.service.Update(c.Request().Context(), auth.GetPrincipal(c), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comment)
}

// Delete handles DELETE /api/comments/:id.
func (h *Handler) Delete(c echo.Context) error {
	id, err := commentIDParam(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), auth.GetPrincipal(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func commentIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewNotFound("Comment not found.")
	}
	return id, nil
}
