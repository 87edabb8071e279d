package models

import "time"

// User represents a user account of the school-management system.
// Authentication data lives with the identity service; this model carries only what
// authorization needs: the single legacy role and the home branch.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey"`
	// Active indicates whether the account may act at all. Inactive users are denied everything.
	Active bool `gorm:"not null"`
	// Username is the unique login name.
	Username string `gorm:"unique;size:100;not null"`
	// Email is the user's email address.
	Email string `gorm:"size:255"`
	// LegacyRoleID is the ID of the user's legacy role.
	LegacyRoleID uint `gorm:"column:legacy_role_id;not null"`
	// LegacyRole is the associated legacy role (enforced with a foreign key constraint).
	LegacyRole LegacyRole `gorm:"foreignKey:LegacyRoleID;references:ID;constraint:OnDelete:RESTRICT,OnUpdate:CASCADE"`
	// HomeBranchID is the branch the user belongs to, if any.
	HomeBranchID *string `gorm:"column:home_branch_id;size:64"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// HomeBranch returns the user's home branch or the empty string.
func (u *User) HomeBranch() string {
	if u.HomeBranchID == nil {
		return ""
	}

	return *u.HomeBranchID
}

// All returns every model in migration order.
func All() []any {
	return []any{
		&Branch{},
		&Permission{},
		&LegacyRole{},
		&LegacyRolePermission{},
		&RBACRole{},
		&RBACRolePermission{},
		&User{},
		&RoleAssignment{},
		&Setting{},
	}
}
