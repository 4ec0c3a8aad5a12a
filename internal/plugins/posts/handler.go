package posts

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/quillpad/internal/apperror"
	"github.com/keyxmakerx/quillpad/internal/pagination"
	"github.com/keyxmakerx/quillpad/internal/plugins/auth"
)

// Handler serves the post endpoints.
type Handler struct {
	service PostService
}

// NewHandler creates a new post handler.
func NewHandler(service PostService) *Handler {
	return &Handler{service: service}
}

// List handles GET /api/posts.
func (h *Handler) List(c echo.Context) error {
	filter, err := filterFromQuery(c)
	if err != nil {
		return err
	}
	opts := pagination.FromQuery(c)
	items, total, err := h.service.List(c.Request().Context(), auth.GetPrincipal(c), filter, opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewPage(items, total, opts))
}

// Mine handles GET /api/posts/mine.
func (h *Handler) Mine(c echo.Context) error {
	opts := pagination.FromQuery(c)
	items, total, err := h.service.Mine(c.Request().Context(), auth.GetPrincipal(c), opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewPage(items, total, opts))
}

// Get handles GET /api/posts/:id.
func (h *Handler) Get(c echo.Context) error {
	id, err := postIDParam(c)
	if err != nil {
		return err
	}
	post, err := h.service.Get(c.Request().Context(), auth.GetPrincipal(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// Create handles POST /api/posts.
func (h *Handler) Create(c echo.Context) error {
	var req PostRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request body.")
	}
	post, err := h.service.Create(c.Request().Context(), auth.GetPrincipal(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, post)
}

// Update handles PUT/PATCH /api/posts/:id.
func (h *Handler) Update(c echo.Context) error {
	id, err := postIDParam(c)
	if err != nil {
		return err
	}
	var req PostRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request body.")
	}
	post, err := h.service.Update(c.Request().Context(), auth.GetPrincipal(c), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// Delete handles DELETE /api/posts/:id.
func (h *Handler) Delete(c echo.Context) error {
	id, err := postIDParam(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), auth.GetPrincipal(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// filterFromQuery reads the list filters. author and author_id are
// synonyms; a non-numeric tag_id is ignored.
func filterFromQuery(c echo.Context) (ListFilter, error) {
	f := ListFilter{
		TagName:  c.QueryParam("tag"),
		Search:   c.QueryParam("search"),
		Ordering: c.QueryParam("ordering"),
	}

	for _, key := range []string{"author", "author_id"} {
		raw := c.QueryParam(key)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return f, apperror.NewFieldError(key, "Select a valid choice. That choice is not one of the available choices.")
		}
		f.AuthorID = id
	}

	if raw := c.QueryParam("tags"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return f, apperror.NewFieldError("tags", "Select a valid choice. That choice is not one of the available choices.")
		}
		f.TagIDs = append(f.TagIDs, id)
	}
	if raw := c.QueryParam("tag_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 63); err == nil {
			f.TagIDs = append(f.TagIDs, int64(id))
		}
	}
	return f, nil
}

func postIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewNotFound("Post not found.")
	}
	return id, nil
}
