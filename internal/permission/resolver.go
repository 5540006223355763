package permission

import "context"

// AssignmentSource supplies the role label assigned to a (user,
// season) pair.  The found flag distinguishes "no assignment" from a
// lookup failure; absence is never an error here.
type AssignmentSource interface {
	RoleFor(ctx context.Context, userID, seasonID uint64) (role string, found bool, err error)
}

// Resolution is the explicit outcome of resolving a (user, season)
// pair.  Known is true only when an assignment exists AND its role is
// present in the catalog; in every other case Permissions is empty.
// Callers must treat an empty set as "deny", never as "unknown" —
// a missing assignment and an uncatalogued role are deliberately
// indistinguishable through Permissions, but the variant is explicit
// here for callers that want to log or fail fast on Unknown.
type Resolution struct {
	Role        string   // assigned role label, "" when unassigned
	Known       bool     // role exists in the catalog
	Permissions []string // effective permission names, empty unless Known
}

// Has reports whether the resolution grants the given permission.
func (r Resolution) Has(perm string) bool {
	for _, p := range r.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// HasAll reports whether every listed permission is granted.  An
// empty list is trivially satisfied.
func (r Resolution) HasAll(perms ...string) bool {
	for _, p := range perms {
		if !r.Has(p) {
			return false
		}
	}
	return true
}

// Resolver combines the assignment store with the read-only catalog.
type Resolver struct {
	assignments AssignmentSource
	catalog     Catalog
}

// NewResolver wires a Resolver from its two collaborators.
func NewResolver(assignments AssignmentSource, catalog Catalog) *Resolver {
	return &Resolver{assignments: assignments, catalog: catalog}
}

// Resolve returns the effective permission set for (userID,
// seasonID).  No assignment → Unknown with empty permissions.  An
// assignment whose role the catalog does not list → Unknown carrying
// the role label, still with empty permissions.  Only store failures
// surface as errors.
func (r *Resolver) Resolve(ctx context.Context, userID, seasonID uint64) (Resolution, error) {
	role, found, err := r.assignments.RoleFor(ctx, userID, seasonID)
	if err != nil {
		return Resolution{}, err
	}
	if !found {
		return Resolution{}, nil
	}
	perms, known := r.catalog.Lookup(role)
	if !known {
		return Resolution{Role: role}, nil
	}
	return Resolution{Role: role, Known: true, Permissions: perms}, nil
}
