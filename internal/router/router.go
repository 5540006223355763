// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/veltara/school-season-booking/internal/handler"
	"github.com/veltara/school-season-booking/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication
// on the provided Echo instance.  Currently it exposes only a health
// check, used by load balancers and monitoring to verify the service
// is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication routes.  Register and
// login are unauthenticated by nature; logout and /v1/me require a
// valid season token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	e.POST("/v1/auth/register", a.Register)
	e.POST("/v1/auth/login", a.Login)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.POST("/auth/logout", a.Logout)
	auth.POST("/auth/logout_all", a.LogoutAll)
	auth.GET("/me", a.Me)
}
