package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/veltara/school-season-booking/internal/repository"
)

// RoleHandler manages (user, season) role assignments.  The role
// label is accepted as-is: whether it exists in the permission
// catalog is only decided when permissions are resolved, so an
// assignment with an uncatalogued role is inert rather than rejected.
type RoleHandler struct {
	Assignments *repository.RoleAssignmentRepo
}

func NewRoleHandler(assignments *repository.RoleAssignmentRepo) *RoleHandler {
	return &RoleHandler{Assignments: assignments}
}

type assignRoleReq struct {
	UserID uint64 `json:"user_id" validate:"required"`
	Role   string `json:"role" validate:"required"`
}

// Assign upserts a user's role in a season.
func (h *RoleHandler) Assign(c echo.Context) error {
	seasonID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req assignRoleReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Assignments.Assign(ctx, req.UserID, seasonID, req.Role); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user_id":   req.UserID,
		"season_id": seasonID,
		"role":      req.Role,
	})
}

// Remove deletes a user's role assignment for a season.
func (h *RoleHandler) Remove(c echo.Context) error {
	seasonID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	userID, ok := pathID(c, "userID")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Assignments.Remove(ctx, userID, seasonID); err != nil {
		if errors.Is(err, repository.ErrRoleAssignmentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "assignment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "remove failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListBySeason returns every assignment of one season.
func (h *RoleHandler) ListBySeason(c echo.Context) error {
	seasonID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	assignments, err := h.Assignments.ListBySeason(ctx, seasonID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	type roleResp struct {
		UserID   uint64 `json:"user_id"`
		SeasonID uint64 `json:"season_id"`
		Role     string `json:"role"`
	}
	out := make([]roleResp, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, roleResp{UserID: a.UserID, SeasonID: a.SeasonID, Role: a.Role})
	}
	return c.JSON(http.StatusOK, out)
}
