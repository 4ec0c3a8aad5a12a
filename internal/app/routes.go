package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/quillpad/internal/middleware"
	"github.com/keyxmakerx/quillpad/internal/plugins/auth"
	"github.com/keyxmakerx/quillpad/internal/plugins/comments"
	"github.com/keyxmakerx/quillpad/internal/plugins/likes"
	"github.com/keyxmakerx/quillpad/internal/plugins/posts"
	"github.com/keyxmakerx/quillpad/internal/plugins/profiles"
	"github.com/keyxmakerx/quillpad/internal/plugins/tags"
	"github.com/keyxmakerx/quillpad/internal/throttle"
)

// RegisterRoutes wires every plugin and mounts its routes under /api.
//
// This is the single place where all routes are aggregated. When a new
// plugin is added, its routes are registered here.
func (a *App) RegisterRoutes() {
	e := a.Echo

	e.GET("/healthz", a.healthz)

	// --- Shared infrastructure ---

	gate := throttle.NewGate(throttle.NewRedisStore(a.Redis), a.Config.Throttle.Limit, a.Config.Throttle.Window)
	throttled := middleware.Throttle(gate, auth.ThrottleKey)

	// --- Auth plugin ---

	userRepo := auth.NewUserRepository(a.DB)
	tokens := auth.NewTokenIssuer(a.Config.Auth.SecretKey, a.Config.Auth.AccessTokenTTL, a.Config.Auth.RefreshTokenTTL)
	authService := auth.NewAuthService(userRepo, tokens, auth.NewRedisDenylist(a.Redis))

	// Every /api route resolves its principal first; plugins decide what an
	// anonymous caller may do.
	api := e.Group("/api", auth.Authenticate(authService))
	auth.RegisterRoutes(api, auth.NewHandler(authService), throttled)

	// --- Profiles ---

	profileService := profiles.NewProfileService(profiles.NewProfileRepository(a.DB))
	profiles.RegisterRoutes(api, profiles.NewHandler(profileService))

	// --- Tags ---

	tagService := tags.NewTagService(tags.NewTagRepository(a.DB))
	tags.RegisterRoutes(api, tags.NewHandler(tagService), throttled)

	// --- Likes ---

	likeRepo := likes.NewLikeRepository(a.DB)
	likes.RegisterRoutes(api, likes.NewHandler(likes.NewLikeService(likeRepo)))

	// --- Posts ---

	enricher := posts.NewEnricher(posts.NewLikeLookupAdapter(likeRepo))
	postService := posts.NewPostService(posts.NewPostRepository(a.DB), tagService, enricher)
	posts.RegisterRoutes(api, posts.NewHandler(postService))

	// --- Comments ---

	commentService := comments.NewCommentService(comments.NewCommentRepository(a.DB))
	comments.RegisterRoutes(api, comments.NewHandler(commentService))
}

// healthz reports whether MariaDB and Redis are reachable.
func (a *App) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"database": "ok", "redis": "ok"}
	code := http.StatusOK

	if err := a.DB.PingContext(ctx); err != nil {
		status["database"] = "unavailable"
		code = http.StatusServiceUnavailable
	}
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		status["redis"] = "unavailable"
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}
