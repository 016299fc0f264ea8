package authz

// Permission is an enumerated capability.
type Permission string

const (
	PermProfileView  Permission = "profile.view"
	PermProfileEdit  Permission = "profile.edit"
	PermTokensManage Permission = "tokens.manage"
	PermBillingView  Permission = "billing.view"

	PermUsersView         Permission = "users.view"
	PermUsersEdit         Permission = "users.edit"
	PermAuditView         Permission = "audit.view"
	PermSubscriptionsView Permission = "subscriptions.view"

	PermUsersDelete   Permission = "users.delete"
	PermAdminsManage  Permission = "admins.manage"
	PermBillingRefund Permission = "billing.refund"
)

// Role grants are cumulative: admin inherits every user grant, super_admin
// inherits every admin grant and holds the full permission universe.
var (
	userPermissions = []Permission{
		PermProfileView,
		PermProfileEdit,
		PermTokensManage,
		PermBillingView,
	}

	adminPermissions = append(userPermissions[:len(userPermissions):len(userPermissions)],
		PermUsersView,
		PermUsersEdit,
		PermAuditView,
		PermSubscriptionsView,
	)

	superAdminPermissions = append(adminPermissions[:len(adminPermissions):len(adminPermissions)],
		PermUsersDelete,
		PermAdminsManage,
		PermBillingRefund,
	)

	rolePermissions = map[Role]map[Permission]struct{}{
		RoleUser:       permissionSet(userPermissions),
		RoleAdmin:      permissionSet(adminPermissions),
		RoleSuperAdmin: permissionSet(superAdminPermissions),
	}
)

func permissionSet(perms []Permission) map[Permission]struct{} {
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// AllPermissions returns the full permission universe.
func AllPermissions() []Permission {
	out := make([]Permission, len(superAdminPermissions))
	copy(out, superAdminPermissions)
	return out
}

// HasPermission reports whether the role grants the permission.
func HasPermission(r Role, p Permission) bool {
	set, ok := rolePermissions[r]
	if !ok {
		set = rolePermissions[RoleUser]
	}
	_, granted := set[p]
	return granted
}

// HasAny reports whether the role grants at least one of perms. Empty input
// is vacuously true.
func HasAny(r Role, perms ...Permission) bool {
	if len(perms) == 0 {
		return true
	}
	for _, p := range perms {
		if HasPermission(r, p) {
			return true
		}
	}
	return false
}

// HasAll reports whether the role grants every permission in perms.
func HasAll(r Role, perms ...Permission) bool {
	return len(Missing(r, perms...)) == 0
}

// Missing returns the subset of perms the role does not grant. A route is
// allowed only when the missing subset is empty.
func Missing(r Role, perms ...Permission) []Permission {
	var missing []Permission
	for _, p := range perms {
		if !HasPermission(r, p) {
			missing = append(missing, p)
		}
	}
	return missing
}
