package models

import "time"

// RBACRole is a role of the many-to-many RBAC model.
// A role with a nil BranchID is global and applies in every branch; unless IsSystem is set,
// such a role is an orphan waiting for repair.
type RBACRole struct {
	// ID is the unique identifier for the role.
	ID uint `gorm:"primaryKey"`
	// RoleName is the role name, intended to be unique per branch.
	RoleName string `gorm:"column:role_name;size:100;not null;index"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255"`
	// BranchID is the owning branch, nil for global roles.
	BranchID *string `gorm:"size:64;index"`
	// IsSystem marks system roles; only system roles may legitimately be global.
	IsSystem bool `gorm:"not null"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the RBACRole model.
func (RBACRole) TableName() string {
	return "rbac_roles"
}

// IsGlobal reports whether the role is not bound to a branch.
func (r *RBACRole) IsGlobal() bool {
	return r.BranchID == nil
}

// IsOrphan reports whether the role lacks a branch without being a system role.
func (r *RBACRole) IsOrphan() bool {
	return r.BranchID == nil && !r.IsSystem
}

// Branch returns the owning branch or the empty string for global roles.
func (r *RBACRole) Branch() string {
	if r.BranchID == nil {
		return ""
	}

	return *r.BranchID
}

// RBACRolePermission is the join table between RBAC roles and catalog permissions.
// When a role or permission is deleted, the mapping is removed (CASCADE).
type RBACRolePermission struct {
	// RBACRoleID is the role side of the mapping.
	RBACRoleID uint `gorm:"primaryKey;column:rbac_role_id"`
	// PermissionID is the permission side of the mapping.
	PermissionID uint `gorm:"primaryKey;column:permission_id"`
	// Role is the associated role (loaded via foreign key).
	Role RBACRole `gorm:"foreignKey:RBACRoleID;constraint:OnDelete:CASCADE"`
	// Permission is the associated permission (loaded via foreign key).
	Permission Permission `gorm:"foreignKey:PermissionID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for the RBACRolePermission model.
func (RBACRolePermission) TableName() string {
	return "rbac_role_permissions"
}
