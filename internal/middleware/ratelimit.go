package middleware

import (
	"log/slog"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/quillpad/internal/apperror"
	"github.com/keyxmakerx/quillpad/internal/throttle"
)

// KeyFunc derives the throttle counter key for a request.
type KeyFunc func(c echo.Context) string

// Throttle returns middleware that counts each request against the gate
// under the key returned by keyFn. Requests over the limit get 429 with a
// Retry-After hint of one full window.
//
// If the counter store is unreachable the request is let through and the
// failure logged.
func Throttle(gate *throttle.Gate, keyFn KeyFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := keyFn(c)

			allowed, err := gate.Allow(c.Request().Context(), key)
			if err != nil {
				slog.Warn("throttle check failed",
					slog.String("key", key),
					slog.Any("error", err),
				)
				return next(c)
			}

			c.Response().Header().Set("X-RateLimit-Limit", strconv.FormatInt(gate.Limit(), 10))

			if !allowed {
				c.Response().Header().Set("Retry-After",
					strconv.Itoa(int(gate.Window().Seconds())))
				return apperror.NewTooManyRequests("Request was throttled. Please slow down.")
			}

			return next(c)
		}
	}
}
