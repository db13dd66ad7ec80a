package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stagelink/internal/handler"
	"github.com/iliyamo/stagelink/internal/middleware"
	"github.com/iliyamo/stagelink/internal/model"
)

// allRoles is accepted on every authenticated route.  Handlers and services
// apply finer checks.
var allRoles = []string{model.RoleAudience, model.RoleProducer, model.RoleAdmin}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the token endpoints under /v1/auth and the
// protected /v1/me.  limit guards the credential endpoints.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)              // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess) // keeps the refresh token
	g.POST("/logout", a.Logout)                // no JWT required

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole(allRoles...))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers unauthenticated browse endpoints.  cache is the
// Redis response cache.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/shows", cache)
	g.GET("", p.SearchShows)
	g.GET("/:id", p.GetShow)
}
