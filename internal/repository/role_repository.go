package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/veltara/school-season-booking/internal/model"
)

// ErrRoleAssignmentNotFound is returned when no (user, season) role
// row exists.
var ErrRoleAssignmentNotFound = errors.New("role assignment not found")

// RoleAssignmentRepo persists the (user, season) → role mapping.  The
// pair is unique among live rows; Assign has upsert semantics.  The
// role label is stored as-is: whether it resolves to anything is the
// permission resolver's concern, decided at resolution time.
type RoleAssignmentRepo struct{ DB *sql.DB }

func NewRoleAssignmentRepo(db *sql.DB) *RoleAssignmentRepo { return &RoleAssignmentRepo{DB: db} }

// Assign upserts the role for (userID, seasonID): an existing row has
// its role overwritten in place, otherwise a new row is inserted.
func (r *RoleAssignmentRepo) Assign(ctx context.Context, userID, seasonID uint64, role string) error {
	role = strings.TrimSpace(role)
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO user_season_roles (user_id, season_id, role) VALUES (?,?,?)
		 ON DUPLICATE KEY UPDATE role = VALUES(role), updated_at = NOW()`,
		userID, seasonID, role)
	return err
}

// Remove deletes the assignment.  Removing a missing pair returns
// ErrRoleAssignmentNotFound.
func (r *RoleAssignmentRepo) Remove(ctx context.Context, userID, seasonID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM user_season_roles WHERE user_id = ? AND season_id = ?`,
		userID, seasonID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRoleAssignmentNotFound
	}
	return nil
}

// RoleFor returns the role label for the pair and whether an
// assignment exists.  Absence is not an error: the resolver maps it
// to the empty permission set.
func (r *RoleAssignmentRepo) RoleFor(ctx context.Context, userID, seasonID uint64) (string, bool, error) {
	var role string
	err := r.DB.QueryRowContext(ctx,
		`SELECT role FROM user_season_roles WHERE user_id = ? AND season_id = ? LIMIT 1`,
		userID, seasonID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return role, true, nil
}

// ListBySeason returns every assignment of one season.
func (r *RoleAssignmentRepo) ListBySeason(ctx context.Context, seasonID uint64) ([]*model.UserSeasonRole, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT user_id, season_id, role, created_at, updated_at
		 FROM user_season_roles WHERE season_id = ? ORDER BY user_id`,
		seasonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.UserSeasonRole
	for rows.Next() {
		a := new(model.UserSeasonRole)
		if err := rows.Scan(&a.UserID, &a.SeasonID, &a.Role, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
