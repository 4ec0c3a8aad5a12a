package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/quillpad/internal/apperror"
	"github.com/keyxmakerx/quillpad/internal/throttle"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// --- Throttle ---

func TestThrottle_DeniesOverLimit(t *testing.T) {
	gate := throttle.NewGate(throttle.NewMemoryStore(), 2, time.Minute)
	h := Throttle(gate, func(echo.Context) string { return "user:alice" })(okHandler)
	e := echo.New()

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/tags", nil), rec)
		require.NoError(t, h(c))
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/tags", nil), rec)
	err := h(c)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusTooManyRequests, appErr.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

type brokenStore struct{}

func (brokenStore) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("redis: connection refused")
}

func TestThrottle_FailsOpen(t *testing.T) {
	gate := throttle.NewGate(brokenStore{}, 1, time.Minute)
	h := Throttle(gate, func(echo.Context) string { return "anon:10.0.0.1" })(okHandler)
	e := echo.New()

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/tags", nil), rec)
		require.NoError(t, h(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

// --- Proxies ---

func TestTrustedProxies(t *testing.T) {
	e := echo.New()
	TrustedProxies(e, []string{"10.0.0.0/8", "not-a-cidr"})

	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"trusted proxy forwards client", "10.1.2.3:5555", "203.0.113.7", "203.0.113.7"},
		{"untrusted peer cannot spoof", "198.51.100.9:5555", "203.0.113.7", "198.51.100.9"},
		{"spoofed leftmost hop ignored", "10.1.2.3:5555", "1.1.1.1, 203.0.113.7", "203.0.113.7"},
		{"no header", "10.1.2.3:5555", "", "10.1.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set(echo.HeaderXForwardedFor, tt.xff)
			}
			c := e.NewContext(req, httptest.NewRecorder())
			assert.Equal(t, tt.want, c.RealIP())
		})
	}
}

// --- CORS ---

func TestCORS_Preflight(t *testing.T) {
	e := echo.New()
	e.Use(CORS(CORSConfig{AllowedOrigins: []string{"https://blog.example.com"}, AllowCredentials: true}))
	e.POST("/api/posts", okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	req.Header.Set(echo.HeaderOrigin, "https://blog.example.com")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://blog.example.com", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", rec.Header().Get(echo.HeaderAccessControlAllowCredentials))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowHeaders), "Authorization")
}

func TestCORS_UnknownOrigin(t *testing.T) {
	e := echo.New()
	e.Use(CORS(CORSConfig{AllowedOrigins: []string{"https://blog.example.com"}}))
	e.GET("/api/posts", okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set(echo.HeaderOrigin, "https://evil.example.net")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

// --- Recovery / headers / request IDs ---

func TestRecovery_ReturnsInternalError(t *testing.T) {
	e := echo.New()
	var handled error
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		handled = err
		_ = c.NoContent(apperror.SafeCode(err))
	}
	e.Use(Recovery())
	e.GET("/boom", func(echo.Context) error { panic("nil map write") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var appErr *apperror.AppError
	require.True(t, errors.As(handled, &appErr))
}

func TestSecurityHeaders(t *testing.T) {
	e := echo.New()
	e.Use(SecurityHeaders())
	e.GET("/api/posts", okHandler)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"), "HSTS is only sent over HTTPS")
}

func TestRequestLogger_RequestID(t *testing.T) {
	e := echo.New()
	e.Use(RequestLogger())
	var seen string
	e.GET("/", func(c echo.Context) error {
		seen = GetRequestID(c)
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)
}
