// Package repository defines error types that are reused across
// multiple repositories.  These sentinel values allow higher layers
// such as handlers to distinguish between different failure scenarios.
// For example, ErrSeasonOverlap indicates a create or update would
// collide with another season of the same school, while
// ErrSnapshotImmutable signals that an audit record refused a write.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they may not touch.  Handlers should translate this into
// an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state that is not covered by a more specific sentinel.
// Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrInvalidDateRange is returned when a season's end date does not
// fall strictly after its start date.  Validation happens before any
// write, so a request failing with this error has changed nothing.
var ErrInvalidDateRange = errors.New("end date must be after start date")

// ErrSeasonOverlap is returned when a season's [start, end] interval
// would intersect another non-deleted season of the same school.
var ErrSeasonOverlap = errors.New("season dates overlap an existing season")

// ErrSeasonClosed is returned when a lifecycle transition is refused
// because the season is already closed (closing twice, activating a
// closed season).
var ErrSeasonClosed = errors.New("season is closed")

// ErrSeasonNotClosed is returned by Reopen when the season was never
// closed in the first place.
var ErrSeasonNotClosed = errors.New("season is not closed")

// ErrSnapshotImmutable is returned when any field change is attempted
// on a snapshot whose is_immutable flag is set.  The guard holds for
// trusted internal callers too; immutability is a data-layer rule,
// not a convention.
var ErrSnapshotImmutable = errors.New("snapshot is immutable")

// ErrNoSession is returned when a principal has no session row to
// attach context to.
var ErrNoSession = errors.New("no active session")
