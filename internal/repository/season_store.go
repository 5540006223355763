package repository

import (
	"context"
	"errors"
	"time"

	"github.com/veltara/school-season-booking/internal/model"
)

// ErrSeasonNotFound is returned when a season cannot be found, or is
// tombstoned.
var ErrSeasonNotFound = errors.New("season not found")

// SeasonStore is the persistence boundary beneath SeasonRepo.  The
// repository layers validation and caching on top of it; the store
// itself only moves rows.  Every read excludes tombstoned seasons.
// The production implementation is SQLSeasonStore; tests substitute a
// map-backed store.
type SeasonStore interface {
	// Insert persists a new season and populates ID and the
	// DB-default timestamp fields on the given record.
	Insert(ctx context.Context, s *model.Season) error
	// Get returns a single non-deleted season by id.
	Get(ctx context.Context, id uint64) (*model.Season, error)
	// List returns all non-deleted seasons ordered by start date
	// descending.
	List(ctx context.Context) ([]*model.Season, error)
	// ListBySchool returns all non-deleted seasons of one school,
	// newest start date first.
	ListBySchool(ctx context.Context, schoolID uint64) ([]*model.Season, error)
	// ListOverlapping returns the school's non-deleted seasons whose
	// inclusive [start, end] interval intersects the given one,
	// excluding the season with id exceptID (pass 0 to exclude none).
	ListOverlapping(ctx context.Context, schoolID uint64, start, end time.Time, exceptID uint64) ([]*model.Season, error)
	// Update rewrites all mutable columns of the season row.
	Update(ctx context.Context, s *model.Season) error
	// SoftDelete tombstones the season.
	SoftDelete(ctx context.Context, id uint64) error
}
