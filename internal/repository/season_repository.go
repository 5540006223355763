package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/veltara/school-season-booking/internal/cache"
	"github.com/veltara/school-season-booking/internal/model"
)

// SeasonRepo is the cache-first access path for seasons.  Reads go
// through the injected cache.Store and fall back to the SeasonStore
// on a miss; every mutation validates first, persists, and then drops
// the enumerated cache key set for the affected season and school(s).
// Season reads sit on the hot path of context resolution, so the
// cache must never be left stale after a successful write: a
// TTL-only cache would hide an is_closed transition for the whole TTL
// window.
//
// Cache key families (all owned by this type, nobody else writes them):
//   list            – the global non-deleted season list
//   id:<season>     – one season by id
//   school:<school> – the school's active (is_active, not closed) seasons
type SeasonRepo struct {
	store SeasonStore
	cache cache.Store
	ttl   time.Duration
}

// NewSeasonRepo wires a SeasonRepo.  ttl bounds how long a lazily
// populated entry may live without a read-invalidating mutation.
func NewSeasonRepo(store SeasonStore, c cache.Store, ttl time.Duration) *SeasonRepo {
	return &SeasonRepo{store: store, cache: c, ttl: ttl}
}

// SeasonUpdate carries the fields of a season update request.  Nil
// pointers mean "leave unchanged"; update semantics are merge, not
// replace.
type SeasonUpdate struct {
	SchoolID     *uint64
	Name         *string
	StartDate    *time.Time
	EndDate      *time.Time
	HourStart    *string
	HourEnd      *string
	VacationDays *string
}

const (
	listKey         = "list"
	idKeyPrefix     = "id:"
	schoolKeyPrefix = "school:"
)

func idKey(id uint64) string         { return fmt.Sprintf("%s%d", idKeyPrefix, id) }
func schoolKey(school uint64) string { return fmt.Sprintf("%s%d", schoolKeyPrefix, school) }

// List returns all non-deleted seasons, cached under the global list
// key.
func (r *SeasonRepo) List(ctx context.Context) ([]*model.Season, error) {
	if bs, ok, err := r.cache.Get(ctx, listKey); err == nil && ok {
		var out []*model.Season
		if json.Unmarshal(bs, &out) == nil {
			return out, nil
		}
	}
	out, err := r.store.List(ctx)
	if err != nil {
		return nil, err
	}
	r.put(ctx, listKey, out)
	return out, nil
}

// Find returns a single season by id, cached per-id.  Returns
// ErrSeasonNotFound for missing or tombstoned rows.
func (r *SeasonRepo) Find(ctx context.Context, id uint64) (*model.Season, error) {
	if bs, ok, err := r.cache.Get(ctx, idKey(id)); err == nil && ok {
		var s model.Season
		if json.Unmarshal(bs, &s) == nil {
			return &s, nil
		}
	}
	s, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.put(ctx, idKey(id), s)
	return s, nil
}

// GetActive returns the school's seasons with is_active set and
// is_closed clear, most recent start date first, cached per-school.
func (r *SeasonRepo) GetActive(ctx context.Context, schoolID uint64) ([]*model.Season, error) {
	if bs, ok, err := r.cache.Get(ctx, schoolKey(schoolID)); err == nil && ok {
		var out []*model.Season
		if json.Unmarshal(bs, &out) == nil {
			return out, nil
		}
	}
	all, err := r.store.ListBySchool(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Season, 0, len(all))
	for _, s := range all {
		if s.IsActive && !s.IsClosed {
			out = append(out, s)
		}
	}
	r.put(ctx, schoolKey(schoolID), out)
	return out, nil
}

// GetCurrent returns the school's current season: active, not closed,
// most recent start date.  ErrSeasonNotFound when the school has no
// such season.
func (r *SeasonRepo) GetCurrent(ctx context.Context, schoolID uint64) (*model.Season, error) {
	active, err := r.GetActive(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, ErrSeasonNotFound
	}
	return active[0], nil
}

// Create validates the season's invariants, persists it, and drops
// the global list key and the school's key family.  Validation always
// precedes persistence: a request that fails here has written nothing.
func (r *SeasonRepo) Create(ctx context.Context, s *model.Season) error {
	if err := r.validateDates(ctx, s.SchoolID, s.StartDate, s.EndDate, 0); err != nil {
		return err
	}
	if err := r.store.Insert(ctx, s); err != nil {
		return err
	}
	return r.invalidate(ctx, s.ID, s.SchoolID)
}

// Update merges the given fields into the season, re-validating the
// date/overlap invariants when dates or school changed.  The
// invalidation set covers the per-id key, the global list, and the
// per-school keys of both the old and new school so a school
// reassignment leaves no stale entry behind.
func (r *SeasonRepo) Update(ctx context.Context, id uint64, upd SeasonUpdate) (*model.Season, error) {
	s, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	oldSchool := s.SchoolID

	revalidate := false
	if upd.SchoolID != nil && *upd.SchoolID != s.SchoolID {
		s.SchoolID = *upd.SchoolID
		revalidate = true
	}
	if upd.StartDate != nil && !upd.StartDate.Equal(s.StartDate) {
		s.StartDate = *upd.StartDate
		revalidate = true
	}
	if upd.EndDate != nil && !upd.EndDate.Equal(s.EndDate) {
		s.EndDate = *upd.EndDate
		revalidate = true
	}
	if upd.Name != nil {
		s.Name = upd.Name
	}
	if upd.HourStart != nil {
		s.HourStart = upd.HourStart
	}
	if upd.HourEnd != nil {
		s.HourEnd = upd.HourEnd
	}
	if upd.VacationDays != nil {
		s.VacationDays = *upd.VacationDays
	}

	if revalidate {
		if err := r.validateDates(ctx, s.SchoolID, s.StartDate, s.EndDate, s.ID); err != nil {
			return nil, err
		}
	}
	if err := r.store.Update(ctx, s); err != nil {
		return nil, err
	}
	if err := r.invalidate(ctx, s.ID, oldSchool, s.SchoolID); err != nil {
		return nil, err
	}
	return s, nil
}

// Delete soft-deletes the season and drops the same key set as an
// update.
func (r *SeasonRepo) Delete(ctx context.Context, id uint64) error {
	s, err := r.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.SoftDelete(ctx, id); err != nil {
		return err
	}
	return r.invalidate(ctx, id, s.SchoolID)
}

// Activate marks the season as operating.  Closed seasons cannot be
// activated; they must be reopened first.
func (r *SeasonRepo) Activate(ctx context.Context, id uint64) (*model.Season, error) {
	return r.transition(ctx, id, func(s *model.Season) error {
		if s.IsClosed {
			return ErrSeasonClosed
		}
		s.IsActive = true
		return nil
	})
}

// Deactivate clears the active flag without closing the season.
func (r *SeasonRepo) Deactivate(ctx context.Context, id uint64) (*model.Season, error) {
	return r.transition(ctx, id, func(s *model.Season) error {
		s.IsActive = false
		return nil
	})
}

// Close freezes the season: active flag cleared, closed flag set,
// closed_at stamped exactly once.  A second Close fails with
// ErrSeasonClosed instead of silently succeeding again.
func (r *SeasonRepo) Close(ctx context.Context, id uint64) (*model.Season, error) {
	return r.transition(ctx, id, func(s *model.Season) error {
		if s.IsClosed {
			return ErrSeasonClosed
		}
		s.IsActive = false
		s.IsClosed = true
		if s.ClosedAt == nil {
			now := time.Now().UTC()
			s.ClosedAt = &now
		}
		return nil
	})
}

// Reopen clears the closed flag of a closed season.  The season comes
// back inactive, and closed_at is preserved as historical evidence of
// the earlier close.
func (r *SeasonRepo) Reopen(ctx context.Context, id uint64) (*model.Season, error) {
	return r.transition(ctx, id, func(s *model.Season) error {
		if !s.IsClosed {
			return ErrSeasonNotClosed
		}
		s.IsClosed = false
		s.IsActive = false
		return nil
	})
}

// FlushCache drops every season cache entry.  This is the explicit
// escape hatch for tests and manual recovery; production code paths
// rely on keyed invalidation only.
func (r *SeasonRepo) FlushCache(ctx context.Context) error {
	return r.cache.Flush(ctx)
}

// transition loads, mutates, persists, and invalidates under one
// ordering: the store write is durable before any cache key is
// dropped, so a concurrent read cannot repopulate the cache from
// pre-write state.
func (r *SeasonRepo) transition(ctx context.Context, id uint64, mutate func(*model.Season) error) (*model.Season, error) {
	s, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(s); err != nil {
		return nil, err
	}
	if err := r.store.Update(ctx, s); err != nil {
		return nil, err
	}
	if err := r.invalidate(ctx, s.ID, s.SchoolID); err != nil {
		return nil, err
	}
	return s, nil
}

// validateDates enforces the date-order and per-school non-overlap
// invariants.  exceptID excludes the season itself during updates.
func (r *SeasonRepo) validateDates(ctx context.Context, schoolID uint64, start, end time.Time, exceptID uint64) error {
	if !end.After(start) {
		return ErrInvalidDateRange
	}
	overlaps, err := r.store.ListOverlapping(ctx, schoolID, start, end, exceptID)
	if err != nil {
		return err
	}
	if len(overlaps) > 0 {
		return ErrSeasonOverlap
	}
	return nil
}

// invalidate drops the enumerated key set for a mutation: the global
// list, the per-id key, and one per-school key per affected school.
// Called only after the store write has returned.
func (r *SeasonRepo) invalidate(ctx context.Context, seasonID uint64, schools ...uint64) error {
	keys := []string{listKey, idKey(seasonID)}
	seen := make(map[uint64]bool, len(schools))
	for _, sc := range schools {
		if !seen[sc] {
			seen[sc] = true
			keys = append(keys, schoolKey(sc))
		}
	}
	return r.cache.Delete(ctx, keys...)
}

// put caches v best-effort; a failed cache write never fails a read.
func (r *SeasonRepo) put(ctx context.Context, key string, v interface{}) {
	bs, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = r.cache.Set(ctx, key, bs, r.ttl)
}
