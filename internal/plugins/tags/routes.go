package tags

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the tag endpoints. Every /tags route passes through
// the throttle middleware; the suggestion endpoint is public and unthrottled.
func RegisterRoutes(api *echo.Group, h *Handler, throttle echo.MiddlewareFunc) {
	g := api.Group("/tags", throttle)
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)

	api.GET("/posts/tag_suggest", h.Suggest)
}
