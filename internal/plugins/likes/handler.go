package likes

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/quillpad/internal/apperror"
	"github.com/keyxmakerx/quillpad/internal/pagination"
	"github.com/keyxmakerx/quillpad/internal/plugins/auth"
)

// Handler serves the like endpoints.
type Handler struct {
	service LikeService
}

// NewHandler creates a new like handler.
func NewHandler(service LikeService) *Handler {
	return &Handler{service: service}
}

// Create handles POST /api/post-user-likes. Responds 201 when the like was
// inserted and 200 when it already existed.
func (h *Handler) Create(c echo.Context) error {
	var req LikeRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request body.")
	}
	postID, err := ParsePostID(req.Post)
	if err != nil {
		return err
	}

	like, created, err := h.service.Like(c.Request().Context(), auth.GetPrincipal(c), postID, req.LikeType)
	if err != nil {
		return err
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, like)
}

// List handles GET /api/post-user-likes?post=.
func (h *Handler) List(c echo.Context) error {
	var postID int64
	if raw := c.QueryParam("post"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return apperror.NewFieldError("post", "Enter a whole number.")
		}
		postID = id
	}

	opts := pagination.FromQuery(c)
	items, total, err := h.service.List(c.Request().Context(), auth.GetPrincipal(c), postID, opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewPage(items, total, opts))
}

// Get handles GET /api/post-user-likes/:id.
func (h *Handler) Get(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	like, err := h.service.Get(c.Request().Context(), auth.GetPrincipal(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, like)
}

// Delete handles DELETE /api/post-user-likes/:id.
func (h *Handler) Delete(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), auth.GetPrincipal(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteByPost handles DELETE /api/post-user-likes/:id/by-post, where :id
// is the post ID.
func (h *Handler) DeleteByPost(c echo.Context) error {
	postID, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.service.Unlike(c.Request().Context(), auth.GetPrincipal(c), postID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func idParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewNotFound("Like not found.")
	}
	return id, nil
}
