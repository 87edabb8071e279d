package models

import "time"

// RoleAssignment links a user to an RBAC role under a branch scope.
// The unique index over (user, role, branch) is what serializes concurrent assignments:
// the second writer hits the constraint and is treated as "already assigned".
type RoleAssignment struct {
	// ID is the unique identifier for the assignment.
	ID uint64 `gorm:"primaryKey"`
	// UserID is the user holding the role.
	UserID uint64 `gorm:"column:user_id;not null;uniqueIndex:idx_role_assignments_triple"`
	// RBACRoleID is the assigned role.
	RBACRoleID uint `gorm:"column:rbac_role_id;not null;uniqueIndex:idx_role_assignments_triple"`
	// BranchID is the scope under which the assignment is valid. Empty means unscoped.
	BranchID string `gorm:"column:branch_id;size:64;not null;default:'';uniqueIndex:idx_role_assignments_triple"`
	// AssignedBy is the principal that created the assignment (0 for reconciliation routines).
	AssignedBy uint64 `gorm:"column:assigned_by;not null"`
	// AssignedAt is the time the assignment was created or last refreshed.
	AssignedAt time.Time `gorm:"column:assigned_at;not null"`
	// ExpiresAt is the optional expiry; expired assignments grant nothing.
	ExpiresAt *time.Time `gorm:"column:expires_at"`
}

// TableName specifies the database table name for the RoleAssignment model.
func (RoleAssignment) TableName() string {
	return "role_assignments"
}

// Expired reports whether the assignment no longer applies at now.
func (a *RoleAssignment) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && !a.ExpiresAt.After(now)
}
