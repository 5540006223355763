package router

import (
	"github.com/labstack/echo/v4"

	"github.com/veltara/school-season-booking/internal/handler"
	"github.com/veltara/school-season-booking/internal/middleware"
)

// RegisterSeasons registers the season CRUD + lifecycle, snapshot and
// role-assignment endpoints.  Every route requires a valid season
// token and declares the permissions it needs; the guard resolves the
// principal's (user, season) role and denies with 403 when any
// declared permission is missing.
func RegisterSeasons(e *echo.Echo, h *handler.SeasonHandler, sh *handler.SnapshotHandler, rh *handler.RoleHandler, resolver middleware.PermissionResolver, jwtSecret string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	view := middleware.SeasonGuard(resolver, "seasons.view")
	manage := middleware.SeasonGuard(resolver, "seasons.manage")
	closeSeason := middleware.SeasonGuard(resolver, "seasons.close")
	snapView := middleware.SeasonGuard(resolver, "snapshots.view")
	snapManage := middleware.SeasonGuard(resolver, "snapshots.manage")
	rolesManage := middleware.SeasonGuard(resolver, "roles.manage")

	// Season CRUD
	g.GET("/seasons", h.List, view)
	g.POST("/seasons", h.Create, manage)
	g.GET("/seasons/:id", h.Get, view)
	g.PUT("/seasons/:id", h.Update, manage)
	g.DELETE("/seasons/:id", h.Delete, manage)

	// Lifecycle transitions
	g.POST("/seasons/:id/activate", h.Activate, manage)
	g.POST("/seasons/:id/deactivate", h.Deactivate, manage)
	g.POST("/seasons/:id/close", h.Close, closeSeason)
	g.POST("/seasons/:id/reopen", h.Reopen, closeSeason)

	// Per-school views
	g.GET("/schools/:schoolID/seasons/current", h.Current, view)
	g.GET("/schools/:schoolID/seasons/active", h.Active, view)

	// Audit snapshots
	g.POST("/seasons/:id/snapshots", sh.Create, snapManage)
	g.GET("/seasons/:id/snapshots", sh.List, snapView)
	g.GET("/snapshots/:snapshotID", sh.Get, snapView)
	g.PATCH("/snapshots/:snapshotID/description", sh.UpdateDescription, snapManage)
	g.POST("/snapshots/:snapshotID/verify", sh.Verify, snapView)

	// Role assignments
	g.GET("/seasons/:id/roles", rh.ListBySeason, rolesManage)
	g.POST("/seasons/:id/roles", rh.Assign, rolesManage)
	g.DELETE("/seasons/:id/roles/:userID", rh.Remove, rolesManage)
}
