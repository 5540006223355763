package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/veltara/school-season-booking/internal/model"
)

// SQLSeasonStore persists seasons in the `seasons` table.  All reads
// filter on deleted_at IS NULL so tombstoned rows stay invisible to
// the rest of the engine.
type SQLSeasonStore struct {
	db *sql.DB
}

// NewSQLSeasonStore constructs a SQLSeasonStore with the provided DB
// handle.  This allows dependency injection of the database in tests
// and at startup.
func NewSQLSeasonStore(db *sql.DB) *SQLSeasonStore {
	return &SQLSeasonStore{db: db}
}

const seasonCols = `id, school_id, name, start_date, end_date, hour_start, hour_end,
	is_active, is_closed, closed_at, vacation_days, created_at, updated_at, deleted_at`

// scanSeason reads one row into a Season, converting nullable columns.
func scanSeason(row interface{ Scan(...interface{}) error }) (*model.Season, error) {
	var (
		s        model.Season
		name     sql.NullString
		hStart   sql.NullString
		hEnd     sql.NullString
		closedAt sql.NullTime
		deleted  sql.NullTime
	)
	err := row.Scan(&s.ID, &s.SchoolID, &name, &s.StartDate, &s.EndDate, &hStart, &hEnd,
		&s.IsActive, &s.IsClosed, &closedAt, &s.VacationDays, &s.CreatedAt, &s.UpdatedAt, &deleted)
	if err != nil {
		return nil, err
	}
	if name.Valid {
		s.Name = &name.String
	}
	if hStart.Valid {
		s.HourStart = &hStart.String
	}
	if hEnd.Valid {
		s.HourEnd = &hEnd.String
	}
	if closedAt.Valid {
		t := closedAt.Time
		s.ClosedAt = &t
	}
	if deleted.Valid {
		t := deleted.Time
		s.DeletedAt = &t
	}
	return &s, nil
}

// Insert persists a new season.  On success the season's ID and the
// DB-default timestamp fields are populated, mirroring what a
// follow-up Get would return.
func (st *SQLSeasonStore) Insert(ctx context.Context, s *model.Season) error {
	const q = `INSERT INTO seasons
		(school_id, name, start_date, end_date, hour_start, hour_end, is_active, is_closed, vacation_days)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := st.db.ExecContext(ctx, q, s.SchoolID, s.Name, s.StartDate, s.EndDate,
		s.HourStart, s.HourEnd, s.IsActive, s.IsClosed, s.VacationDays)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)

	// Follow-up SELECT to populate created_at/updated_at defaults.
	const sel = `SELECT created_at, updated_at FROM seasons WHERE id = ?`
	return st.db.QueryRowContext(ctx, sel, s.ID).Scan(&s.CreatedAt, &s.UpdatedAt)
}

// Get returns a single non-deleted season or ErrSeasonNotFound.
func (st *SQLSeasonStore) Get(ctx context.Context, id uint64) (*model.Season, error) {
	const q = `SELECT ` + seasonCols + ` FROM seasons WHERE id = ? AND deleted_at IS NULL`
	s, err := scanSeason(st.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeasonNotFound
		}
		return nil, err
	}
	return s, nil
}

// List returns all non-deleted seasons, newest start date first.
func (st *SQLSeasonStore) List(ctx context.Context) ([]*model.Season, error) {
	const q = `SELECT ` + seasonCols + ` FROM seasons
	           WHERE deleted_at IS NULL ORDER BY start_date DESC`
	return st.queryMany(ctx, q)
}

// ListBySchool returns a school's non-deleted seasons, newest start
// date first.
func (st *SQLSeasonStore) ListBySchool(ctx context.Context, schoolID uint64) ([]*model.Season, error) {
	const q = `SELECT ` + seasonCols + ` FROM seasons
	           WHERE school_id = ? AND deleted_at IS NULL ORDER BY start_date DESC`
	return st.queryMany(ctx, q, schoolID)
}

// ListOverlapping finds the school's seasons whose inclusive date
// interval intersects [start, end], excluding exceptID.  A season
// overlaps when NOT (it ends before the new start OR starts after the
// new end); both bounds are inclusive, so sharing a boundary day
// counts as overlap.
func (st *SQLSeasonStore) ListOverlapping(ctx context.Context, schoolID uint64, start, end time.Time, exceptID uint64) ([]*model.Season, error) {
	const q = `SELECT ` + seasonCols + ` FROM seasons
	           WHERE school_id = ? AND id <> ? AND deleted_at IS NULL
	             AND NOT (end_date < ? OR start_date > ?)`
	return st.queryMany(ctx, q, schoolID, exceptID, start, end)
}

// Update rewrites all mutable columns.  sql.ErrNoRows is mapped to
// ErrSeasonNotFound when the row is gone or tombstoned.
func (st *SQLSeasonStore) Update(ctx context.Context, s *model.Season) error {
	const q = `UPDATE seasons
	           SET school_id = ?, name = ?, start_date = ?, end_date = ?, hour_start = ?, hour_end = ?,
	               is_active = ?, is_closed = ?, closed_at = ?, vacation_days = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND deleted_at IS NULL`
	res, err := st.db.ExecContext(ctx, q, s.SchoolID, s.Name, s.StartDate, s.EndDate,
		s.HourStart, s.HourEnd, s.IsActive, s.IsClosed, s.ClosedAt, s.VacationDays, s.ID)
	if err != nil {
		return err
	}
	// RowsAffected is zero both when the row is missing and when the
	// update is a no-op; re-check existence only in the first case.
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		err := st.db.QueryRowContext(ctx, `SELECT 1 FROM seasons WHERE id = ? AND deleted_at IS NULL`, s.ID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSeasonNotFound
		}
		return err
	}
	return nil
}

// SoftDelete tombstones the season.
func (st *SQLSeasonStore) SoftDelete(ctx context.Context, id uint64) error {
	const q = `UPDATE seasons SET deleted_at = NOW() WHERE id = ? AND deleted_at IS NULL`
	res, err := st.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSeasonNotFound
	}
	return nil
}

func (st *SQLSeasonStore) queryMany(ctx context.Context, q string, args ...interface{}) ([]*model.Season, error) {
	rows, err := st.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Season
	for rows.Next() {
		s, err := scanSeason(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
