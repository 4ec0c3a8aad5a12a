package profiles

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the profile endpoints. Reads are public; the
// service enforces ownership on writes.
func RegisterRoutes(api *echo.Group, h *Handler) {
	g := api.Group("/user-profiles")
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.PATCH("/:id", h.Update)
}
