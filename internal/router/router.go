package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/badminton-scheduler/internal/config"
	"github.com/iliyamo/badminton-scheduler/internal/handler"    // import the handlers that implement the endpoints
	"github.com/iliyamo/badminton-scheduler/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// Stack holds the middleware chains shared by the route groups.
type Stack struct {
	// Auth verifies the access token, loads the caller and applies the
	// per-caller rate limit, in that order.
	Auth []echo.MiddlewareFunc
	// Cache serves repeated session reads from Redis.
	Cache echo.MiddlewareFunc
	// Invalidate drops cached session reads after a session write.
	Invalidate echo.MiddlewareFunc
}

// NewStack builds the middleware chains.  A nil Redis client disables rate
// limiting and caching.
func NewStack(jwtSecret string, users middleware.UserLookup, rl config.RateLimitConfig, cache config.CacheConfig, rdb *redis.Client) Stack {
	return Stack{
		Auth: []echo.MiddlewareFunc{
			middleware.JWTAuth(jwtSecret),
			middleware.LoadCaller(users),
			middleware.NewTokenBucket(rl, rdb),
		},
		Cache:      middleware.NewRedisCache(cache, rdb),
		Invalidate: middleware.InvalidateCache(cache, rdb),
	}
}

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers the authentication routes.  Token exchange lives
// under /v1/auth without authentication; /v1/me needs a valid access token.
func RegisterAuth(e *echo.Echo, s Stack, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)              // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess) // new access token, same refresh token
	g.POST("/logout", a.Logout)                // refresh_token body or bearer header

	v1 := e.Group("/v1")
	v1.GET("/me", a.Me, s.Auth...)
}

// RegisterAccounts registers profile routes for any signed-in user and the
// user administration routes for administrators.
func RegisterAccounts(e *echo.Echo, s Stack, h *handler.AccountHandler) {
	admin := chain(s.Auth, middleware.RequireAdmin())

	v1 := e.Group("/v1")
	v1.GET("/profile", h.Profile, s.Auth...)
	v1.PUT("/profile", h.CompleteProfile, s.Auth...)
	v1.GET("/admin/users", h.ListUsers, admin...)
	v1.POST("/admin/users/:id/approve", h.Approve, admin...)
	v1.POST("/admin/users/:id/revoke", h.Revoke, admin...)
	v1.PUT("/admin/users/:id/admin", h.SetAdmin, admin...)
}

// chain copies base and appends extra so route chains never share a
// backing array.  Tiers are attached per route rather than per group: a
// group with middleware claims every unmatched path under its prefix, and
// unknown /v1 paths must stay 404.
func chain(base []echo.MiddlewareFunc, extra ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(base)+len(extra))
	return append(append(out, base...), extra...)
}
