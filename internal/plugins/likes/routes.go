package likes

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the like endpoints. Authentication is enforced by
// the like policy so anonymous callers get a 401 from the service.
func RegisterRoutes(api *echo.Group, h *Handler) {
	g := api.Group("/post-user-likes")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
	g.DELETE("/:id/by-post", h.DeleteByPost)
}
