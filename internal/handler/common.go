package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/veltara/school-season-booking/internal/model"
	"github.com/veltara/school-season-booking/internal/repository"
)

// getUserID extracts the user_id claim from echo.Context as uint64.
func getUserID(c echo.Context) (uint64, error) {
	return claimValue(c, "user_id")
}

// getSessionID extracts the sid claim (server-side session row id).
func getSessionID(c echo.Context) (uint64, error) {
	return claimValue(c, "sid")
}

func claimValue(c echo.Context, key string) (uint64, error) {
	v := c.Get(key)
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid " + key + " in context")
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	return n, err == nil
}

// seasonError translates repository sentinels into the API's error
// responses.  Unknown errors become a 500 without leaking detail.
func seasonError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrSeasonNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "season not found"})
	case errors.Is(err, repository.ErrInvalidDateRange):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":  "invalid_date_range",
			"fields": echo.Map{"end_date": "must be after start_date"},
		})
	case errors.Is(err, repository.ErrSeasonOverlap):
		return c.JSON(http.StatusConflict, echo.Map{"error": "season_overlap"})
	case errors.Is(err, repository.ErrSeasonClosed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "season_closed"})
	case errors.Is(err, repository.ErrSeasonNotClosed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "season_not_closed"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// seasonResp is the JSON shape seasons are rendered with.  DB-side
// bookkeeping (deleted_at) is not exposed.
type seasonResp struct {
	ID           uint64  `json:"id"`
	SchoolID     uint64  `json:"school_id"`
	Name         *string `json:"name"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	HourStart    *string `json:"hour_start"`
	HourEnd      *string `json:"hour_end"`
	IsActive     bool    `json:"is_active"`
	IsClosed     bool    `json:"is_closed"`
	ClosedAt     *string `json:"closed_at"`
	VacationDays string  `json:"vacation_days"`
}

const dateLayout = "2006-01-02"

func toSeasonResp(s *model.Season) seasonResp {
	r := seasonResp{
		ID:           s.ID,
		SchoolID:     s.SchoolID,
		Name:         s.Name,
		StartDate:    s.StartDate.Format(dateLayout),
		EndDate:      s.EndDate.Format(dateLayout),
		HourStart:    s.HourStart,
		HourEnd:      s.HourEnd,
		IsActive:     s.IsActive,
		IsClosed:     s.IsClosed,
		VacationDays: s.VacationDays,
	}
	if s.ClosedAt != nil {
		ts := s.ClosedAt.UTC().Format("2006-01-02T15:04:05Z")
		r.ClosedAt = &ts
	}
	return r
}

func toSeasonList(ss []*model.Season) []seasonResp {
	out := make([]seasonResp, 0, len(ss))
	for _, s := range ss {
		out = append(out, toSeasonResp(s))
	}
	return out
}
