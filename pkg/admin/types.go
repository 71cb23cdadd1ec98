package admin

import (
	"time"

	"github.com/google/uuid"
)

// Role is the back-office role of an administrator.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleModerator  Role = "moderator"
	RoleSupport    Role = "support"
)

// knownRoles guards against typo'd roles reaching storage.
var knownRoles = map[Role]bool{
	RoleSuperAdmin: true,
	RoleAdmin:      true,
	RoleModerator:  true,
	RoleSupport:    true,
}

// Valid reports whether the role is one of the defined roles.
func (r Role) Valid() bool {
	return knownRoles[r]
}

// Permission is a key in an administrator's permission map.
type Permission string

const (
	PermManageBlog          Permission = "manage_blog"
	PermManageTutorials     Permission = "manage_tutorials"
	PermManageAides         Permission = "manage_aides"
	PermManageUsers         Permission = "manage_users"
	PermManageSubscriptions Permission = "manage_subscriptions"
	PermManagePromoCodes    Permission = "manage_promo_codes"
	PermViewAnalytics       Permission = "view_analytics"
	PermManageAdmins        Permission = "manage_admins"
)

// Record is the administrative identity of a principal. At most one Record
// exists per principal.
type Record struct {
	PrincipalID uuid.UUID
	Email       string
	Role        Role
	Permissions map[Permission]bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsSuperAdmin reports whether the record carries the super_admin role.
func (r *Record) IsSuperAdmin() bool {
	return r != nil && r.Role == RoleSuperAdmin
}

// HasPermission reports whether the record grants the given permission.
// super_admin short-circuits to true without consulting the map; for every
// other role the map is the closed world: only an explicit true grants,
// unknown keys deny.
func (r *Record) HasPermission(key Permission) bool {
	if r == nil {
		return false
	}
	if r.Role == RoleSuperAdmin {
		return true
	}
	return r.Permissions[key]
}
