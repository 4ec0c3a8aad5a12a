package middleware

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins lists the browser origins permitted to call the API,
	// e.g. ["https://blog.example.com", "http://localhost:5173"].
	// ["*"] allows any origin.
	AllowedOrigins []string

	// AllowCredentials lets browsers send cookies and auth headers.
	AllowCredentials bool
}

// CORS returns middleware answering preflight requests and echoing allowed
// origins. The blog frontend is served from another origin than the API.
//
// A wildcard origin never gets credentials.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	if slices.Contains(cfg.AllowedOrigins, "*") && cfg.AllowCredentials {
		slog.Warn("CORS: wildcard origin configured, disabling credentials")
		cfg.AllowCredentials = false
	}

	return echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost,
			http.MethodPut, http.MethodPatch, http.MethodDelete,
		},
		AllowHeaders: []string{
			echo.HeaderContentType,
			echo.HeaderAuthorization,
			requestIDHeader,
		},
		// Browser clients read these to back off and to report problems.
		ExposeHeaders: []string{
			requestIDHeader,
			"Retry-After",
			"X-RateLimit-Limit",
		},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           3600,
	})
}
