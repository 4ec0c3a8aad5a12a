package auth

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the auth and identity administration routes on the
// /api group. Authenticate must already be applied to the group. The
// credential endpoints take the throttle middleware so brute-force attempts
// are counted per client.
func RegisterRoutes(api *echo.Group, h *Handler, throttle echo.MiddlewareFunc) {
	api.POST("/auth/register", h.Register, throttle)
	api.POST("/auth/login", h.Login, throttle)
	api.POST("/token", h.Login, throttle)
	api.POST("/token/refresh", h.Refresh)
	api.POST("/auth/logout", h.Logout)

	api.GET("/me", h.Me, RequireAuth)

	users := api.Group("/users", RequireAuth)
	users.GET("", h.ListUsers)
	users.POST("", h.CreateUser)
	users.GET("/:id", h.GetUser)
	users.PATCH("/:id", h.UpdateUser)
	users.PUT("/:id", h.UpdateUser)
	users.DELETE("/:id", h.DeleteUser)
}
