package middleware

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/keyxmakerx/quillpad/internal/apperror"
)

// Recovery returns middleware that turns a panicking handler into a 500.
// The panic and its stack are logged with the request ID; the client only
// sees the generic internal error.
func Recovery() echo.MiddlewareFunc {
	return echomw.RecoverWithConfig(echomw.RecoverConfig{
		StackSize: 8 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			slog.Error("panic recovered",
				slog.Any("panic", err),
				slog.String("stack", string(stack)),
				slog.String("request_id", GetRequestID(c)),
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().URL.Path),
			)
			return apperror.NewInternal(err)
		},
	})
}
