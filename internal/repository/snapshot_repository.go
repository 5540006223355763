package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/veltara/school-season-booking/internal/model"
)

// ErrSnapshotNotFound is returned when a snapshot id does not exist.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotRepo is the append-only store for season snapshots.  Rows
// are created once and never deleted; update attempts on immutable
// rows fail fast at this boundary regardless of who the caller is.
// The UPDATE statement itself carries the is_immutable guard, so even
// a racing writer cannot slip a change past the flag.
type SnapshotRepo struct{ DB *sql.DB }

func NewSnapshotRepo(db *sql.DB) *SnapshotRepo { return &SnapshotRepo{DB: db} }

// Create persists a snapshot built by model.NewSeasonSnapshot.  The
// checksum was frozen at construction; this method only writes.
func (r *SnapshotRepo) Create(ctx context.Context, s *model.SeasonSnapshot) error {
	const q = `INSERT INTO season_snapshots
		(id, season_id, snapshot_type, snapshot_data, snapshot_date, is_immutable, created_by, description, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.DB.ExecContext(ctx, q, s.ID, s.SeasonID, s.SnapshotType, []byte(s.SnapshotData),
		s.SnapshotDate, s.IsImmutable, s.CreatedBy, s.Description, s.Checksum)
	if err != nil {
		return err
	}
	const sel = `SELECT created_at FROM season_snapshots WHERE id = ?`
	return r.DB.QueryRowContext(ctx, sel, s.ID).Scan(&s.CreatedAt)
}

// Get returns one snapshot by id or ErrSnapshotNotFound.
func (r *SnapshotRepo) Get(ctx context.Context, id string) (*model.SeasonSnapshot, error) {
	const q = `SELECT id, season_id, snapshot_type, snapshot_data, snapshot_date,
	                  is_immutable, created_by, description, checksum, created_at
	           FROM season_snapshots WHERE id = ?`
	s, err := scanSnapshot(r.DB.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	return s, nil
}

// ListBySeason returns a season's snapshots, newest first.
func (r *SnapshotRepo) ListBySeason(ctx context.Context, seasonID uint64) ([]*model.SeasonSnapshot, error) {
	const q = `SELECT id, season_id, snapshot_type, snapshot_data, snapshot_date,
	                  is_immutable, created_by, description, checksum, created_at
	           FROM season_snapshots WHERE season_id = ? ORDER BY snapshot_date DESC`
	rows, err := r.DB.QueryContext(ctx, q, seasonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.SeasonSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
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

// UpdateDescription changes the description of a MUTABLE snapshot.
// For immutable rows it returns ErrSnapshotImmutable; the WHERE
// clause enforces the guard inside the statement, and the existence
// probe afterwards decides between "immutable" and "not found".
func (r *SnapshotRepo) UpdateDescription(ctx context.Context, id, description string) error {
	const q = `UPDATE season_snapshots SET description = ? WHERE id = ? AND is_immutable = 0`
	res, err := r.DB.ExecContext(ctx, q, description, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var immutable bool
		err := r.DB.QueryRowContext(ctx,
			`SELECT is_immutable FROM season_snapshots WHERE id = ?`, id).Scan(&immutable)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSnapshotNotFound
		}
		if err != nil {
			return err
		}
		if immutable {
			return ErrSnapshotImmutable
		}
	}
	return nil
}

// VerifyIntegrity loads the snapshot and recomputes its checksum from
// the stored payload.  A mismatch propagates
// model.ErrChecksumMismatch to the caller unchanged.
func (r *SnapshotRepo) VerifyIntegrity(ctx context.Context, id string) (*model.SeasonSnapshot, error) {
	s, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.VerifyIntegrity(); err != nil {
		return s, err
	}
	return s, nil
}

func scanSnapshot(row interface{ Scan(...interface{}) error }) (*model.SeasonSnapshot, error) {
	var (
		s         model.SeasonSnapshot
		data      []byte
		createdBy sql.NullInt64
	)
	err := row.Scan(&s.ID, &s.SeasonID, &s.SnapshotType, &data, &s.SnapshotDate,
		&s.IsImmutable, &createdBy, &s.Description, &s.Checksum, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.SnapshotData = json.RawMessage(data)
	if createdBy.Valid {
		v := uint64(createdBy.Int64)
		s.CreatedBy = &v
	}
	return &s, nil
}
