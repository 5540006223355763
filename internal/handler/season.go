package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/veltara/school-season-booking/internal/model"
	"github.com/veltara/school-season-booking/internal/queue"
	"github.com/veltara/school-season-booking/internal/repository"
)

// snapshotWriter persists audit snapshots; implemented by
// repository.SnapshotRepo.
type snapshotWriter interface {
	Create(ctx context.Context, s *model.SeasonSnapshot) error
}

// eventPublisher pushes season lifecycle events to the broker.
// Publishing is best-effort: a broker outage never fails the request.
type eventPublisher interface {
	SeasonClosed(ctx context.Context, ev queue.SeasonClosedEvent) error
	SnapshotCreated(ctx context.Context, ev queue.SnapshotCreatedEvent) error
}

// SeasonHandler bundles the season repository with the audit
// collaborators used on close.
type SeasonHandler struct {
	Seasons   *repository.SeasonRepo
	Snapshots snapshotWriter
	Events    eventPublisher // nil disables publishing
}

func NewSeasonHandler(seasons *repository.SeasonRepo, snapshots snapshotWriter, events eventPublisher) *SeasonHandler {
	if seasons == nil || snapshots == nil {
		panic("nil dependency passed to NewSeasonHandler")
	}
	return &SeasonHandler{Seasons: seasons, Snapshots: snapshots, Events: events}
}

// ----- DTOs -----

type createSeasonReq struct {
	SchoolID     uint64  `json:"school_id" validate:"required"`
	Name         *string `json:"name"`
	StartDate    string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	HourStart    *string `json:"hour_start" validate:"omitempty,datetime=15:04"`
	HourEnd      *string `json:"hour_end" validate:"omitempty,datetime=15:04"`
	VacationDays string  `json:"vacation_days"`
}

type updateSeasonReq struct {
	SchoolID     *uint64 `json:"school_id"`
	Name         *string `json:"name"`
	StartDate    *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate      *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	HourStart    *string `json:"hour_start" validate:"omitempty,datetime=15:04"`
	HourEnd      *string `json:"hour_end" validate:"omitempty,datetime=15:04"`
	VacationDays *string `json:"vacation_days"`
}

// List returns all seasons.
func (h *SeasonHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	ss, err := h.Seasons.List(ctx)
	if err != nil {
		return seasonError(c, err)
	}
	return c.JSON(http.StatusOK, toSeasonList(ss))
}

// Get returns one season by id.
func (h *SeasonHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Seasons.Find(ctx, id)
	if err != nil {
		return seasonError(c, err)
	}
	return c.JSON(http.StatusOK, toSeasonResp(s))
}

// Create validates and persists a new season.
func (h *SeasonHandler) Create(c echo.Context) error {
	var req createSeasonReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	start, _ := time.Parse(dateLayout, req.StartDate)
	end, _ := time.Parse(dateLayout, req.EndDate)

	s := &model.Season{
		SchoolID:     req.SchoolID,
		Name:         req.Name,
		StartDate:    start,
		EndDate:      end,
		HourStart:    req.HourStart,
		HourEnd:      req.HourEnd,
		VacationDays: req.VacationDays,
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Seasons.Create(ctx, s); err != nil {
		return seasonError(c, err)
	}
	return c.JSON(http.StatusCreated, toSeasonResp(s))
}

// Update merges fields into an existing season.
func (h *SeasonHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateSeasonReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	upd := repository.SeasonUpdate{
		SchoolID:     req.SchoolID,
		Name:         req.Name,
		HourStart:    req.HourStart,
		HourEnd:      req.HourEnd,
		VacationDays: req.VacationDays,
	}
	if req.StartDate != nil {
		t, _ := time.Parse(dateLayout, *req.StartDate)
		upd.StartDate = &t
	}
	if req.EndDate != nil {
		t, _ := time.Parse(dateLayout, *req.EndDate)
		upd.EndDate = &t
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Seasons.Update(ctx, id, upd)
	if err != nil {
		return seasonError(c, err)
	}
	return c.JSON(http.StatusOK, toSeasonResp(s))
}

// Delete soft-deletes a season.
func (h *SeasonHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Seasons.Delete(ctx, id); err != nil {
		return seasonError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Activate marks a season as operating.
func (h *SeasonHandler) Activate(c echo.Context) error {
	return h.lifecycle(c, h.Seasons.Activate)
}

// Deactivate clears the active flag.
func (h *SeasonHandler) Deactivate(c echo.Context) error {
	return h.lifecycle(c, h.Seasons.Deactivate)
}

// Reopen clears the closed flag of a closed season.
func (h *SeasonHandler) Reopen(c echo.Context) error {
	return h.lifecycle(c, h.Seasons.Reopen)
}

func (h *SeasonHandler) lifecycle(c echo.Context, op func(context.Context, uint64) (*model.Season, error)) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := op(ctx, id)
	if err != nil {
		return seasonError(c, err)
	}
	return c.JSON(http.StatusOK, toSeasonResp(s))
}

// Close freezes a season for audit: the lifecycle transition runs
// first, then the closed state is snapshotted immutably and a
// lifecycle event goes to the broker.  Snapshot failure is reported —
// the close itself already happened and is not rolled back, matching
// the audit intent (the numbers can no longer change).
func (h *SeasonHandler) Close(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Seasons.Close(ctx, id)
	if err != nil {
		return seasonError(c, err)
	}

	var createdBy *uint64
	if uid, err := getUserID(c); err == nil {
		createdBy = &uid
	}
	payload, err := json.Marshal(echo.Map{"season": toSeasonResp(s)})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "snapshot failed"})
	}
	snap, err := model.NewSeasonSnapshot(s.ID, "season_closed", payload, createdBy, "automatic snapshot at season close")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "snapshot failed"})
	}
	if err := h.Snapshots.Create(ctx, snap); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "snapshot failed"})
	}

	if h.Events != nil {
		closedAt := ""
		if s.ClosedAt != nil {
			closedAt = s.ClosedAt.UTC().Format(time.RFC3339)
		}
		_ = h.Events.SeasonClosed(ctx, queue.SeasonClosedEvent{
			SeasonID:   s.ID,
			SchoolID:   s.SchoolID,
			SnapshotID: snap.ID,
			ClosedAt:   closedAt,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"season":      toSeasonResp(s),
		"snapshot_id": snap.ID,
	})
}

// Current returns a school's current season: active, not closed, most
// recent start date.
func (h *SeasonHandler) Current(c echo.Context) error {
	schoolID, ok := pathID(c, "schoolID")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid school id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Seasons.GetCurrent(ctx, schoolID)
	if err != nil {
		return seasonError(c, err)
	}
	return c.JSON(http.StatusOK, toSeasonResp(s))
}

// Active returns all of a school's active, unclosed seasons.
func (h *SeasonHandler) Active(c echo.Context) error {
	schoolID, ok := pathID(c, "schoolID")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid school id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	ss, err := h.Seasons.GetActive(ctx, schoolID)
	if err != nil {
		return seasonError(c, err)
	}
	return c.JSON(http.StatusOK, toSeasonList(ss))
}

// reqCtx bounds a handler's store work.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}
