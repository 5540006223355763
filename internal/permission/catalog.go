// Package permission derives effective permission sets from season
// role assignments.  The role→permission catalog is treated as an
// externally owned, read-only lookup; the resolver never writes to it
// and never assumes a role label it was handed actually exists.
package permission

// Catalog maps a role label to its permission names.  Implementations
// must be safe for concurrent reads.
type Catalog interface {
	// Lookup returns the permissions of a role and whether the role
	// is known to the catalog at all.
	Lookup(role string) ([]string, bool)
}

// StaticCatalog is a fixed in-memory Catalog.
type StaticCatalog struct {
	roles map[string][]string
}

// NewStaticCatalog copies the given role map into a catalog.
func NewStaticCatalog(roles map[string][]string) *StaticCatalog {
	cp := make(map[string][]string, len(roles))
	for name, perms := range roles {
		pp := make([]string, len(perms))
		copy(pp, perms)
		cp[name] = pp
	}
	return &StaticCatalog{roles: cp}
}

// Lookup returns a copy of the role's permissions so callers cannot
// mutate catalog state through the returned slice.
func (c *StaticCatalog) Lookup(role string) ([]string, bool) {
	perms, ok := c.roles[role]
	if !ok {
		return nil, false
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out, true
}

// DefaultCatalog returns the platform's built-in season roles.
func DefaultCatalog() *StaticCatalog {
	return NewStaticCatalog(map[string][]string{
		"admin": {
			"seasons.view", "seasons.manage", "seasons.close",
			"snapshots.view", "snapshots.manage",
			"roles.manage", "bookings.view", "bookings.manage",
		},
		"manager": {
			"seasons.view", "seasons.manage", "seasons.close",
			"snapshots.view", "snapshots.manage",
			"bookings.view", "bookings.manage",
		},
		"instructor": {
			"seasons.view", "bookings.view",
		},
		"staff": {
			"seasons.view", "bookings.view", "bookings.manage",
		},
	})
}
