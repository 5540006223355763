package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/veltara/school-season-booking/internal/model"
	"github.com/veltara/school-season-booking/internal/queue"
	"github.com/veltara/school-season-booking/internal/repository"
)

// snapshotStore is the read/write surface of the snapshot repository
// the handler needs; implemented by repository.SnapshotRepo.
type snapshotStore interface {
	Create(ctx context.Context, s *model.SeasonSnapshot) error
	Get(ctx context.Context, id string) (*model.SeasonSnapshot, error)
	ListBySeason(ctx context.Context, seasonID uint64) ([]*model.SeasonSnapshot, error)
	UpdateDescription(ctx context.Context, id, description string) error
	VerifyIntegrity(ctx context.Context, id string) (*model.SeasonSnapshot, error)
}

// SnapshotHandler exposes ad-hoc audit checkpoints and integrity
// verification.
type SnapshotHandler struct {
	Store  snapshotStore
	Events eventPublisher // nil disables publishing
}

func NewSnapshotHandler(store snapshotStore, events eventPublisher) *SnapshotHandler {
	if store == nil {
		panic("nil store passed to NewSnapshotHandler")
	}
	return &SnapshotHandler{Store: store, Events: events}
}

type createSnapshotReq struct {
	SnapshotType string          `json:"snapshot_type" validate:"required"`
	SnapshotData json.RawMessage `json:"snapshot_data" validate:"required"`
	Description  string          `json:"description"`
}

type snapshotResp struct {
	ID           string          `json:"id"`
	SeasonID     uint64          `json:"season_id"`
	SnapshotType string          `json:"snapshot_type"`
	SnapshotData json.RawMessage `json:"snapshot_data"`
	SnapshotDate string          `json:"snapshot_date"`
	IsImmutable  bool            `json:"is_immutable"`
	CreatedBy    *uint64         `json:"created_by"`
	Description  string          `json:"description"`
	Checksum     string          `json:"checksum"`
}

func toSnapshotResp(s *model.SeasonSnapshot) snapshotResp {
	return snapshotResp{
		ID:           s.ID,
		SeasonID:     s.SeasonID,
		SnapshotType: s.SnapshotType,
		SnapshotData: s.SnapshotData,
		SnapshotDate: s.SnapshotDate.UTC().Format(time.RFC3339),
		IsImmutable:  s.IsImmutable,
		CreatedBy:    s.CreatedBy,
		Description:  s.Description,
		Checksum:     s.Checksum,
	}
}

// Create freezes an audit checkpoint for a season.  The checksum is
// computed inside the snapshot constructor, before persistence.
func (h *SnapshotHandler) Create(c echo.Context) error {
	seasonID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req createSnapshotReq
	if !bindAndValidate(c, &req) {
		return nil
	}

	var createdBy *uint64
	if uid, err := getUserID(c); err == nil {
		createdBy = &uid
	}
	snap, err := model.NewSeasonSnapshot(seasonID, req.SnapshotType, req.SnapshotData, createdBy, req.Description)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":  "validation_failed",
			"fields": echo.Map{"snapshot_data": "must be valid JSON"},
		})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Store.Create(ctx, snap); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create snapshot failed"})
	}

	if h.Events != nil {
		_ = h.Events.SnapshotCreated(ctx, queue.SnapshotCreatedEvent{
			SnapshotID:   snap.ID,
			SeasonID:     snap.SeasonID,
			SnapshotType: snap.SnapshotType,
			Checksum:     snap.Checksum,
			CreatedAt:    snap.SnapshotDate.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusCreated, toSnapshotResp(snap))
}

// List returns a season's snapshots, newest first.
func (h *SnapshotHandler) List(c echo.Context) error {
	seasonID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	ss, err := h.Store.ListBySeason(ctx, seasonID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]snapshotResp, 0, len(ss))
	for _, s := range ss {
		out = append(out, toSnapshotResp(s))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one snapshot by id.
func (h *SnapshotHandler) Get(c echo.Context) error {
	id := c.Param("snapshotID")
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSnapshotNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "snapshot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toSnapshotResp(s))
}

type updateDescriptionReq struct {
	Description string `json:"description" validate:"required"`
}

// UpdateDescription edits the free-form note of a mutable snapshot.
// Immutable snapshots (every automatic close snapshot is one) refuse
// the write with a 409.
func (h *SnapshotHandler) UpdateDescription(c echo.Context) error {
	id := c.Param("snapshotID")
	var req updateDescriptionReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Store.UpdateDescription(ctx, id, req.Description); err != nil {
		if errors.Is(err, repository.ErrSnapshotNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "snapshot not found"})
		}
		if errors.Is(err, repository.ErrSnapshotImmutable) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "snapshot_immutable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"snapshot_id": id, "description": req.Description})
}

// Verify recomputes the snapshot checksum.  A mismatch is an
// integrity failure: a hard 500-class answer, never a warning.
func (h *SnapshotHandler) Verify(c echo.Context) error {
	id := c.Param("snapshotID")
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Store.VerifyIntegrity(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSnapshotNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "snapshot not found"})
		}
		if errors.Is(err, model.ErrChecksumMismatch) {
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error":       "integrity_failure",
				"snapshot_id": s.ID,
				"valid":       false,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verify failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"snapshot_id": s.ID, "valid": true})
}
