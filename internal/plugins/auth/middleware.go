package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/quillpad/internal/access"
	"github.com/keyxmakerx/quillpad/internal/apperror"
	"github.com/keyxmakerx/quillpad/internal/throttle"
)

// contextKeyPrincipal stores the request principal in the Echo context.
// Other plugins read it through GetPrincipal.
const contextKeyPrincipal = "auth_principal"

// Authenticate returns middleware that resolves the request principal from
// the Authorization header. No header means anonymous; a header that does
// not carry a valid bearer token is rejected with 401.
func Authenticate(service AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				c.Set(contextKeyPrincipal, access.Anonymous())
				return next(c)
			}

			token, ok := bearerToken(header)
			if !ok {
				return apperror.NewUnauthorized("Authorization header must contain a Bearer token.")
			}

			principal, err := service.ResolvePrincipal(c.Request().Context(), token)
			if err != nil {
				return err
			}

			c.Set(contextKeyPrincipal, principal)
			return next(c)
		}
	}
}

// RequireAuth rejects anonymous callers with 401. Must run after
// Authenticate.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !access.IsAuthenticated(GetPrincipal(c)) {
			return apperror.NewUnauthorized("Authentication credentials were not provided.")
		}
		return next(c)
	}
}

// --- Exported getters for other plugins ---

// GetPrincipal returns the request principal. Requests that did not pass
// through Authenticate are anonymous.
func GetPrincipal(c echo.Context) *access.Principal {
	p, ok := c.Get(contextKeyPrincipal).(*access.Principal)
	if !ok || p == nil {
		return access.Anonymous()
	}
	return p
}

// SetPrincipal stores p as the request principal.
func SetPrincipal(c echo.Context, p *access.Principal) {
	c.Set(contextKeyPrincipal, p)
}

// ThrottleKey keys throttle counters by username for authenticated callers
// and by client IP otherwise.
func ThrottleKey(c echo.Context) string {
	p := GetPrincipal(c)
	if p.Authenticated {
		return throttle.UserKey(p.Username)
	}
	return throttle.AnonymousKey(c.RealIP())
}

// bearerToken extracts the token from "Bearer <token>".
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
