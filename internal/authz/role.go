// Package authz maps caller identities to roles and permission sets and gates
// protected operations.
package authz

// Role is the closed set of privilege levels. Profile records store the role
// as free text; ParseRole narrows it at the boundary.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// ParseRole narrows an untrusted role string to the closed enum. Unrecognized
// values collapse to the least-privileged role rather than failing the
// request.
func ParseRole(raw string) Role {
	switch Role(raw) {
	case RoleAdmin:
		return RoleAdmin
	case RoleSuperAdmin:
		return RoleSuperAdmin
	default:
		return RoleUser
	}
}

// IsAdmin reports whether the role carries admin privileges.
func IsAdmin(r Role) bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// IsSuperAdmin reports whether the role is specifically super_admin.
// Destructive operations (user deletion, refunds, admin creation) check this
// directly, not IsAdmin.
func IsSuperAdmin(r Role) bool {
	return r == RoleSuperAdmin
}
