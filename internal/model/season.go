package model

import "time"

// Season represents a school-scoped operating window during which
// courses and bookings run under one configuration.  Each season
// belongs to exactly one school and corresponds to a row in the
// `seasons` table.  Seasons are soft-deleted: a tombstoned row keeps
// its data but is excluded from every read path.
//
// Fields:
//  ID           – primary key identifier.
//  SchoolID     – owning school.
//  Name         – optional human-friendly label ("Winter 2025/26").
//  StartDate    – first day of the season (inclusive).
//  EndDate      – last day of the season (inclusive, after StartDate).
//  HourStart    – optional daily opening time ("HH:MM").
//  HourEnd      – optional daily closing time ("HH:MM").
//  IsActive     – whether the season is currently operating.
//  IsClosed     – whether the season has been closed for audit.
//  ClosedAt     – when the season was closed (set once, never cleared).
//  VacationDays – free-form vacation day listing.
//  DeletedAt    – tombstone timestamp (null for live rows).
type Season struct {
	ID           uint64     // seasons.id
	SchoolID     uint64     // seasons.school_id
	Name         *string    // seasons.name (nullable)
	StartDate    time.Time  // seasons.start_date
	EndDate      time.Time  // seasons.end_date
	HourStart    *string    // seasons.hour_start (nullable, "HH:MM")
	HourEnd      *string    // seasons.hour_end (nullable, "HH:MM")
	IsActive     bool       // seasons.is_active
	IsClosed     bool       // seasons.is_closed
	ClosedAt     *time.Time // seasons.closed_at (nullable)
	VacationDays string     // seasons.vacation_days
	CreatedAt    time.Time  // seasons.created_at
	UpdatedAt    time.Time  // seasons.updated_at
	DeletedAt    *time.Time // seasons.deleted_at (nullable tombstone)
}

// Overlaps reports whether the season's [StartDate, EndDate] interval
// intersects the given inclusive interval.  Both bounds count: a
// season ending on the day another starts overlaps it.
func (s *Season) Overlaps(start, end time.Time) bool {
	return !s.EndDate.Before(start) && !s.StartDate.After(end)
}

// Deleted reports whether the season is tombstoned.
func (s *Season) Deleted() bool { return s.DeletedAt != nil }
