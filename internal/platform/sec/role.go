// Copyright (c) 2026 Subly. All rights reserved.

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Unrestricted system access, including the admin CRUD surface
	RoleAdmin UserRole = "admin"

	// Can view customer accounts and assist with billing issues
	RoleSupport UserRole = "support"

	// Default role for standard registered users
	RoleUser UserRole = "user"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
//
// The superset relation is decided once here: admin implies support implies
// user. Call sites must never re-derive this with string comparison.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {

	// Linear scale (10-30) allows for future intermediate roles
	switch r {
	case RoleAdmin:
		return 30
	case RoleSupport:
		return 20
	case RoleUser:
		return 10
	default:
		return 0
	}
}
