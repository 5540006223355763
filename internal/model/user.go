package model

import "time"

// User represents an application user record as stored in the
// `users` table.  The json tags are omitted here because these
// structs are used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – platform-level role name (e.g. ADMIN or STAFF).
//  IsActive     – whether the account may authenticate.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// UserSeasonRole maps a user to the role they hold within one season.
// The pair (UserID, SeasonID) is unique: re-assigning a role for the
// same pair overwrites the existing row rather than adding a second
// one.  The role label is resolved against the permission catalog at
// request time, not validated here.
//
// Fields:
//  UserID    – the user holding the role.
//  SeasonID  – the season the role applies to.
//  Role      – role label (e.g. "manager", "instructor").
//  CreatedAt – when the assignment was first created.
//  UpdatedAt – when the role was last overwritten.
type UserSeasonRole struct {
	UserID    uint64    // user_season_roles.user_id
	SeasonID  uint64    // user_season_roles.season_id
	Role      string    // user_season_roles.role
	CreatedAt time.Time // user_season_roles.created_at
	UpdatedAt time.Time // user_season_roles.updated_at
}
