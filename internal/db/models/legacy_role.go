package models

import "time"

// LegacyWildcard is the legacy permission entry that grants every permission of the catalog.
const LegacyWildcard = "*"

// LegacyRole is the original single-role-per-user authorization model.
// Every user references exactly one legacy role. Its permissions are a plain list of names
// that may contain LegacyWildcard.
type LegacyRole struct {
	// ID is the unique identifier for the legacy role.
	ID uint `gorm:"primaryKey"`
	// Name is the role name (e.g. "SuperAdmin", "Teacher"), unique within a branch.
	Name string `gorm:"size:100;not null;uniqueIndex:idx_legacy_roles_branch_name"`
	// BranchID is the owning branch. Nil marks a system-wide role.
	BranchID *string `gorm:"size:64;uniqueIndex:idx_legacy_roles_branch_name"`
	// IsSystem marks roles that cannot be deleted through normal flows.
	IsSystem bool `gorm:"not null"`
	// Permissions lists the permission names granted by this role.
	Permissions []LegacyRolePermission `gorm:"foreignKey:LegacyRoleID;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the LegacyRole model.
func (LegacyRole) TableName() string {
	return "legacy_roles"
}

// PermissionNames returns the raw permission entries of the role, wildcard included.
func (r *LegacyRole) PermissionNames() []string {
	names := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		names = append(names, p.Permission)
	}

	return names
}

// HasWildcard reports whether the role grants every permission.
func (r *LegacyRole) HasWildcard() bool {
	for _, p := range r.Permissions {
		if p.Permission == LegacyWildcard {
			return true
		}
	}

	return false
}

// LegacyRolePermission is one permission name of a legacy role.
// Names are stored verbatim and are not foreign keys: the wildcard is not a catalog entry.
type LegacyRolePermission struct {
	LegacyRoleID uint   `gorm:"primaryKey;column:legacy_role_id"`
	Permission   string `gorm:"primaryKey;size:100"`
}

// TableName specifies the database table name for the LegacyRolePermission model.
func (LegacyRolePermission) TableName() string {
	return "legacy_role_permissions"
}

// LegacyPermissions builds the permission rows for a legacy role from plain names.
func LegacyPermissions(names ...string) []LegacyRolePermission {
	out := make([]LegacyRolePermission, 0, len(names))
	for _, n := range names {
		out = append(out, LegacyRolePermission{Permission: n})
	}

	return out
}
