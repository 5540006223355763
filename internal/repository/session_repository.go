package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/veltara/school-season-booking/internal/model"
)

// SessionRepo persists server-side sessions.  A session row is the
// attachable context carrier for one issued token: the `sid` claim in
// the JWT points at the row, and the payload column holds the small
// JSON blob the context service reads and merges.  The context
// service never sees this table; it only uses the Read/Write pair.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a session row with an initial payload and returns
// its id.  An empty payload is stored as "{}" so later merges always
// find a JSON object.
func (r *SessionRepo) Create(ctx context.Context, userID uint64, payload json.RawMessage, exp time.Time) (uint64, error) {
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (user_id, payload, expires_at) VALUES (?,?,?)",
		userID, []byte(payload), exp)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Get returns a live (non-revoked, non-expired) session row.
// ErrNoSession when the principal has nothing to attach context to.
func (r *SessionRepo) Get(ctx context.Context, sessionID uint64) (model.Session, error) {
	var (
		s         model.Session
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, payload, expires_at, created_at, revoked_at FROM sessions WHERE id=? LIMIT 1",
		sessionID).Scan(&s.ID, &s.UserID, &s.Payload, &s.ExpiresAt, &s.CreatedAt, &revokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, ErrNoSession
	}
	if err != nil {
		return model.Session{}, err
	}
	if revokedAt.Valid || time.Now().UTC().After(s.ExpiresAt) {
		return model.Session{}, ErrNoSession
	}
	return s, nil
}

// Read returns the payload of a live session, satisfying the context
// carrier interface.
func (r *SessionRepo) Read(ctx context.Context, sessionID uint64) (json.RawMessage, error) {
	s, err := r.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(s.Payload), nil
}

// Write replaces the session payload synchronously.  Writes to a
// revoked or expired session fail with ErrNoSession rather than
// resurrecting it.
func (r *SessionRepo) Write(ctx context.Context, sessionID uint64, payload json.RawMessage) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET payload=? WHERE id=? AND revoked_at IS NULL AND expires_at > NOW()",
		[]byte(payload), sessionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either missing/dead, or a no-op write of identical bytes.
		cur, err := r.Read(ctx, sessionID)
		if err != nil {
			return err
		}
		if string(cur) == string(payload) {
			return nil
		}
		return ErrNoSession
	}
	return nil
}

// Revoke marks a session as ended.
func (r *SessionRepo) Revoke(ctx context.Context, sessionID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=NOW() WHERE id=? AND revoked_at IS NULL",
		sessionID)
	return err
}

// RevokeAllForUser ends every live session of one user.
func (r *SessionRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
