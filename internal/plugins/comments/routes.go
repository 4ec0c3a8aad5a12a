package comments

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the comment endpoints.
func RegisterRoutes(api *echo.Group, h *Handler) {
	g := api.Group("/comments")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
