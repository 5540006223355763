package repository

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/veltara/school-season-booking/internal/cache"
	"github.com/veltara/school-season-booking/internal/model"
)

// memSeasonStore is a map-backed SeasonStore for exercising the
// repository's validation and cache behavior without a database.
type memSeasonStore struct {
	nextID uint64
	rows   map[uint64]*model.Season
}

func newMemSeasonStore() *memSeasonStore {
	return &memSeasonStore{rows: make(map[uint64]*model.Season)}
}

func copySeason(s *model.Season) *model.Season {
	cp := *s
	return &cp
}

func (m *memSeasonStore) Insert(_ context.Context, s *model.Season) error {
	m.nextID++
	s.ID = m.nextID
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	m.rows[s.ID] = copySeason(s)
	return nil
}

func (m *memSeasonStore) Get(_ context.Context, id uint64) (*model.Season, error) {
	s, ok := m.rows[id]
	if !ok || s.Deleted() {
		return nil, ErrSeasonNotFound
	}
	return copySeason(s), nil
}

func (m *memSeasonStore) List(_ context.Context) ([]*model.Season, error) {
	var out []*model.Season
	for _, s := range m.rows {
		if !s.Deleted() {
			out = append(out, copySeason(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (m *memSeasonStore) ListBySchool(_ context.Context, schoolID uint64) ([]*model.Season, error) {
	var out []*model.Season
	for _, s := range m.rows {
		if !s.Deleted() && s.SchoolID == schoolID {
			out = append(out, copySeason(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (m *memSeasonStore) ListOverlapping(_ context.Context, schoolID uint64, start, end time.Time, exceptID uint64) ([]*model.Season, error) {
	var out []*model.Season
	for _, s := range m.rows {
		if s.Deleted() || s.SchoolID != schoolID || s.ID == exceptID {
			continue
		}
		if s.Overlaps(start, end) {
			out = append(out, copySeason(s))
		}
	}
	return out, nil
}

func (m *memSeasonStore) Update(_ context.Context, s *model.Season) error {
	if _, ok := m.rows[s.ID]; !ok {
		return ErrSeasonNotFound
	}
	s.UpdatedAt = time.Now().UTC()
	m.rows[s.ID] = copySeason(s)
	return nil
}

func (m *memSeasonStore) SoftDelete(_ context.Context, id uint64) error {
	s, ok := m.rows[id]
	if !ok || s.Deleted() {
		return ErrSeasonNotFound
	}
	now := time.Now().UTC()
	s.DeletedAt = &now
	return nil
}

func day(y int, mo time.Month, d int) time.Time {
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func newTestRepo() (*SeasonRepo, *memSeasonStore, *cache.MemoryStore) {
	store := newMemSeasonStore()
	mem := cache.NewMemory()
	return NewSeasonRepo(store, mem, time.Minute), store, mem
}

func mustCreate(t *testing.T, r *SeasonRepo, schoolID uint64, start, end time.Time) *model.Season {
	t.Helper()
	s := &model.Season{SchoolID: schoolID, StartDate: start, EndDate: end, IsActive: true}
	if err := r.Create(context.Background(), s); err != nil {
		t.Fatalf("create season: %v", err)
	}
	return s
}

func TestCreateRejectsInvalidDateRange(t *testing.T) {
	r, store, _ := newTestRepo()
	ctx := context.Background()

	s := &model.Season{SchoolID: 1, StartDate: day(2026, 6, 1), EndDate: day(2026, 6, 1)}
	if err := r.Create(ctx, s); !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("got %v, want ErrInvalidDateRange", err)
	}
	if len(store.rows) != 0 {
		t.Fatalf("failed validation must not persist, found %d rows", len(store.rows))
	}
}

func TestCreateRejectsOverlap(t *testing.T) {
	r, store, _ := newTestRepo()
	ctx := context.Background()

	mustCreate(t, r, 1, day(2026, 1, 10), day(2026, 6, 20))

	// Sharing a single boundary day counts as overlap.
	s := &model.Season{SchoolID: 1, StartDate: day(2026, 6, 20), EndDate: day(2026, 12, 20)}
	if err := r.Create(ctx, s); !errors.Is(err, ErrSeasonOverlap) {
		t.Fatalf("got %v, want ErrSeasonOverlap", err)
	}
	if len(store.rows) != 1 {
		t.Fatalf("overlap rejection must not persist, found %d rows", len(store.rows))
	}

	// A different school may use the same dates.
	other := &model.Season{SchoolID: 2, StartDate: day(2026, 1, 10), EndDate: day(2026, 6, 20)}
	if err := r.Create(ctx, other); err != nil {
		t.Fatalf("other school create: %v", err)
	}
}

func TestFindServesFromCache(t *testing.T) {
	r, store, _ := newTestRepo()
	ctx := context.Background()

	s := mustCreate(t, r, 1, day(2026, 1, 1), day(2026, 6, 30))
	if _, err := r.Find(ctx, s.ID); err != nil {
		t.Fatalf("first find: %v", err)
	}

	// Mutate the store behind the repository's back; the cached entry
	// must still win until an invalidating mutation happens.
	name := "tampered"
	store.rows[s.ID].Name = &name

	got, err := r.Find(ctx, s.ID)
	if err != nil {
		t.Fatalf("second find: %v", err)
	}
	if got.Name != nil {
		t.Fatalf("expected cached season, got store copy with name %q", *got.Name)
	}
}

func TestMutationsLeaveNoStaleCache(t *testing.T) {
	r, _, _ := newTestRepo()
	ctx := context.Background()

	s := mustCreate(t, r, 1, day(2026, 1, 1), day(2026, 6, 30))

	// Prime every key family.
	if _, err := r.List(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := r.Find(ctx, s.ID); err != nil {
		t.Fatalf("find: %v", err)
	}
	if _, err := r.GetActive(ctx, 1); err != nil {
		t.Fatalf("active: %v", err)
	}

	if _, err := r.Close(ctx, s.ID); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := r.Find(ctx, s.ID)
	if err != nil {
		t.Fatalf("find after close: %v", err)
	}
	if !got.IsClosed {
		t.Fatalf("find served pre-close state after successful close")
	}
	active, err := r.GetActive(ctx, 1)
	if err != nil {
		t.Fatalf("active after close: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("closed season still listed as active")
	}
}

func TestUpdateMergesAndInvalidatesBothSchools(t *testing.T) {
	r, _, _ := newTestRepo()
	ctx := context.Background()

	s := mustCreate(t, r, 1, day(2026, 1, 1), day(2026, 6, 30))

	// Prime the old school's key so the reassignment has something to
	// leave stale if it forgets.
	if _, err := r.GetActive(ctx, 1); err != nil {
		t.Fatalf("active: %v", err)
	}

	newSchool := uint64(2)
	name := "Winter 2026"
	upd, err := r.Update(ctx, s.ID, SeasonUpdate{SchoolID: &newSchool, Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.SchoolID != 2 || upd.Name == nil || *upd.Name != name {
		t.Fatalf("merge produced %+v", upd)
	}
	if !upd.StartDate.Equal(s.StartDate) {
		t.Fatalf("untouched field changed: %v", upd.StartDate)
	}

	oldActive, err := r.GetActive(ctx, 1)
	if err != nil {
		t.Fatalf("active after move: %v", err)
	}
	if len(oldActive) != 0 {
		t.Fatalf("old school key still serves the moved season")
	}
	newActive, err := r.GetActive(ctx, 2)
	if err != nil {
		t.Fatalf("new school active: %v", err)
	}
	if len(newActive) != 1 {
		t.Fatalf("moved season missing from new school, got %d", len(newActive))
	}
}

func TestUpdateNoopSucceeds(t *testing.T) {
	r, _, _ := newTestRepo()
	ctx := context.Background()

	s := mustCreate(t, r, 1, day(2026, 1, 1), day(2026, 6, 30))
	got, err := r.Update(ctx, s.ID, SeasonUpdate{})
	if err != nil {
		t.Fatalf("no-op update: %v", err)
	}
	if got.ID != s.ID || got.SchoolID != s.SchoolID {
		t.Fatalf("no-op update changed identity: %+v", got)
	}
}

func TestUpdateRevalidatesDates(t *testing.T) {
	r, _, _ := newTestRepo()
	ctx := context.Background()

	a := mustCreate(t, r, 1, day(2026, 1, 1), day(2026, 6, 30))
	mustCreate(t, r, 1, day(2026, 7, 1), day(2026, 12, 31))

	// Stretching A into B's window must fail; A keeps its dates.
	end := day(2026, 8, 1)
	if _, err := r.Update(ctx, a.ID, SeasonUpdate{EndDate: &end}); !errors.Is(err, ErrSeasonOverlap) {
		t.Fatalf("got %v, want ErrSeasonOverlap", err)
	}
	got, err := r.Find(ctx, a.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !got.EndDate.Equal(day(2026, 6, 30)) {
		t.Fatalf("failed update leaked dates: %v", got.EndDate)
	}

	// Shrinking A stays inside its own old window; the overlap check
	// must not count the season against itself.
	shorter := day(2026, 6, 15)
	if _, err := r.Update(ctx, a.ID, SeasonUpdate{EndDate: &shorter}); err != nil {
		t.Fatalf("self-overlap: %v", err)
	}
}

func TestCloseIsOneShot(t *testing.T) {
	r, _, _ := newTestRepo()
	ctx := context.Background()

	s := mustCreate(t, r, 1, day(2026, 1, 1), day(2026, 6, 30))

	closed, err := r.Close(ctx, s.ID)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if !closed.IsClosed || closed.IsActive {
		t.Fatalf("close produced %+v", closed)
	}
	if closed.ClosedAt == nil {
		t.Fatalf("closed_at not stamped")
	}

	if _, err := r.Close(ctx, s.ID); !errors.Is(err, ErrSeasonClosed) {
		t.Fatalf("second close: got %v, want ErrSeasonClosed", err)
	}
}

func TestReopenPreservesClosedAt(t *testing.T) {
	r, _, _ := newTestRepo()
	ctx := context.Background()

	s := mustCreate(t, r, 1, day(2026, 1, 1), day(2026, 6, 30))
	closed, err := r.Close(ctx, s.ID)
	if err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := r.Reopen(ctx, s.ID)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.IsClosed {
		t.Fatalf("reopen left season closed")
	}
	if reopened.IsActive {
		t.Fatalf("reopen must not auto-activate")
	}
	if reopened.ClosedAt == nil || !reopened.ClosedAt.Equal(*closed.ClosedAt) {
		t.Fatalf("closed_at not preserved: %v", reopened.ClosedAt)
	}
}

func TestReopenRequiresClosed(t *testing.T) {
	r, _, _ := newTestRepo()
	ctx := context.Background()

	s := mustCreate(t, r, 1, day(2026, 1, 1), day(2026, 6, 30))
	if _, err := r.Reopen(ctx, s.ID); !errors.Is(err, ErrSeasonNotClosed) {
		t.Fatalf("got %v, want ErrSeasonNotClosed", err)
	}
}

func TestActivateRefusedWhenClosed(t *testing.T) {
	r, _, _ := newTestRepo()
	ctx := context.Background()

	s := mustCreate(t, r, 1, day(2026, 1, 1), day(2026, 6, 30))
	if _, err := r.Close(ctx, s.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := r.Activate(ctx, s.ID); !errors.Is(err, ErrSeasonClosed) {
		t.Fatalf("got %v, want ErrSeasonClosed", err)
	}
}

func TestDeleteTombstones(t *testing.T) {
	r, store, _ := newTestRepo()
	ctx := context.Background()

	s := mustCreate(t, r, 1, day(2026, 1, 1), day(2026, 6, 30))
	if _, err := r.Find(ctx, s.ID); err != nil {
		t.Fatalf("find: %v", err)
	}

	if err := r.Delete(ctx, s.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := r.Find(ctx, s.ID); !errors.Is(err, ErrSeasonNotFound) {
		t.Fatalf("deleted season still readable: %v", err)
	}
	if row, ok := store.rows[s.ID]; !ok || !row.Deleted() {
		t.Fatalf("expected tombstoned row to remain in storage")
	}

	list, err := r.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("tombstoned season still listed")
	}
}

func TestGetCurrentPicksNewestActive(t *testing.T) {
	r, _, _ := newTestRepo()
	ctx := context.Background()

	mustCreate(t, r, 1, day(2025, 1, 1), day(2025, 6, 30))
	newer := mustCreate(t, r, 1, day(2026, 1, 1), day(2026, 6, 30))

	cur, err := r.GetCurrent(ctx, 1)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if cur.ID != newer.ID {
		t.Fatalf("got season %d, want %d", cur.ID, newer.ID)
	}
}

func TestGetCurrentNoneActive(t *testing.T) {
	r, _, _ := newTestRepo()
	ctx := context.Background()

	s := mustCreate(t, r, 1, day(2026, 1, 1), day(2026, 6, 30))
	if _, err := r.Deactivate(ctx, s.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := r.GetCurrent(ctx, 1); !errors.Is(err, ErrSeasonNotFound) {
		t.Fatalf("got %v, want ErrSeasonNotFound", err)
	}
}

func TestFlushCacheForcesReread(t *testing.T) {
	r, store, mem := newTestRepo()
	ctx := context.Background()

	s := mustCreate(t, r, 1, day(2026, 1, 1), day(2026, 6, 30))
	if _, err := r.Find(ctx, s.ID); err != nil {
		t.Fatalf("find: %v", err)
	}

	name := "renamed out of band"
	store.rows[s.ID].Name = &name

	if err := r.FlushCache(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if mem.Len() != 0 {
		t.Fatalf("flush left %d entries", mem.Len())
	}
	got, err := r.Find(ctx, s.ID)
	if err != nil {
		t.Fatalf("find after flush: %v", err)
	}
	if got.Name == nil || *got.Name != name {
		t.Fatalf("flush did not force a re-read: %+v", got.Name)
	}
}
