package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/veltara/school-season-booking/internal/handler"
	"github.com/veltara/school-season-booking/internal/middleware"
)

// RegisterContext registers the session context endpoints.  Reads are
// unthrottled; the two mutation routes sit behind the fixed 30/min
// context throttle keyed per principal (per IP when the token is
// missing and the request dies at JWTAuth anyway).
func RegisterContext(e *echo.Echo, h *handler.ContextHandler, rdb *redis.Client, jwtSecret string) {
	g := e.Group("/v1/context", middleware.JWTAuth(jwtSecret))

	throttle := middleware.ContextThrottle(rdb)

	g.GET("", h.Get)
	g.POST("/school", h.SetSchool, throttle)
	g.POST("/season", h.SetSeason, throttle)
}
