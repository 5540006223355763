package model

import "time"

// Context is the (school, season) pair a principal is currently
// operating in.  It lives inside the session's payload blob, owned by
// the session carrier; this struct is only the decoded view of the
// two keys the engine cares about.  Both pointers are nil until the
// corresponding key has been touched; an explicit JSON null decodes
// to nil as well, which is exactly the "present but unset" state the
// carrier stores once school selection materializes the season key.
type Context struct {
	SchoolID *uint64 `json:"school_id"`
	SeasonID *uint64 `json:"season_id"`
}

// Session is a server-side session row backing one issued token.
// The Payload column is the opaque per-principal blob in which the
// context service stores the active (school, season) selection.
//
// Fields:
//  ID        – primary key, carried in the token's `sid` claim.
//  UserID    – owner of the session.
//  Payload   – small JSON object (context plus whatever else is stored).
//  ExpiresAt – when the session stops being usable.
//  CreatedAt – timestamp of creation.
type Session struct {
	ID        uint64    // sessions.id
	UserID    uint64    // sessions.user_id
	Payload   []byte    // sessions.payload (JSON)
	ExpiresAt time.Time // sessions.expires_at
	CreatedAt time.Time // sessions.created_at
}
