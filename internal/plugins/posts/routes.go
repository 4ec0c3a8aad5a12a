package posts

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the post endpoints. Authorization happens in the
// service so anonymous reads work and anonymous writes get 401.
func RegisterRoutes(api *echo.Group, h *Handler) {
	g := api.Group("/posts")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/mine", h.Mine)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
