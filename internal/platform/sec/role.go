// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

package sec

// # User Roles

// Role represents the authorization level granted to an account.
//
// The set is closed: any value outside the four constants below is rejected
// at the boundary by [ParseRole] and never reaches storage.
type Role string

const (
	// Unrestricted system access, user administration
	RoleAdmin Role = "admin"

	// Default role: owns pipelines and day-to-day builds
	RoleDeveloper Role = "developer"

	// Read/annotate test stages and quality gates
	RoleTester Role = "tester"

	// Manages deployments, environments, and rollbacks
	RoleDevOps Role = "devops"
)

// AllRoles lists every valid role value, in display order.
var AllRoles = []Role{RoleAdmin, RoleDeveloper, RoleTester, RoleDevOps}

// # Role Checks

// IsValid reports whether the role is one of the closed set.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleDeveloper, RoleTester, RoleDevOps:
		return true
	default:
		return false
	}
}

// OneOf reports whether the role is a member of the allowed set.
//
// Authorization in Flowdeck is set membership, not a hierarchy: an admin is
// not implicitly a devops for deployment routes unless listed.
func (r Role) OneOf(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

// ParseRole converts a raw string into a [Role].
// It returns false when the value is outside the closed set.
func ParseRole(raw string) (Role, bool) {
	role := Role(raw)
	if !role.IsValid() {
		return "", false
	}
	return role, true
}

// RoleNames returns the string form of every valid role, for validation messages.
func RoleNames() []string {
	names := make([]string, 0, len(AllRoles))
	for _, r := range AllRoles {
		names = append(names, string(r))
	}
	return names
}
