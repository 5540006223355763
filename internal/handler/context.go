package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/veltara/school-season-booking/internal/repository"
	"github.com/veltara/school-season-booking/internal/sessionctx"
)

// ContextHandler exposes the principal's (school, season) selection.
// The session id comes from the token's sid claim; the handler never
// touches the payload blob itself, only the context service does.
type ContextHandler struct {
	Ctx *sessionctx.Service
}

func NewContextHandler(svc *sessionctx.Service) *ContextHandler {
	return &ContextHandler{Ctx: svc}
}

type setSchoolReq struct {
	SchoolID uint64 `json:"school_id" validate:"required"`
}

type setSeasonReq struct {
	SeasonID uint64 `json:"season_id" validate:"required"`
}

// Get returns the current context.  Fields never set come back null.
func (h *ContextHandler) Get(c echo.Context) error {
	sid, err := getSessionID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no active session"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	mc, err := h.Ctx.Get(ctx, sid)
	if err != nil {
		return contextError(c, err)
	}
	return c.JSON(http.StatusOK, mc)
}

// SetSchool updates school_id, preserving the existing season_id.
func (h *ContextHandler) SetSchool(c echo.Context) error {
	sid, err := getSessionID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no active session"})
	}
	var req setSchoolReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	mc, err := h.Ctx.SetSchool(ctx, sid, req.SchoolID)
	if err != nil {
		return contextError(c, err)
	}
	return c.JSON(http.StatusOK, mc)
}

// SetSeason updates season_id, leaving school_id untouched.
func (h *ContextHandler) SetSeason(c echo.Context) error {
	sid, err := getSessionID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no active session"})
	}
	var req setSeasonReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	mc, err := h.Ctx.SetSeason(ctx, sid, req.SeasonID)
	if err != nil {
		return contextError(c, err)
	}
	return c.JSON(http.StatusOK, mc)
}

func contextError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrNoSession) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no active session"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
