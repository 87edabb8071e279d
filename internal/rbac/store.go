package rbac

import (
	"context"
	"time"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/models"
)

// Reader is the read side of the role and assignment stores.
// Lookups of single records return ErrNotFound when the record does not exist.
type Reader interface {
	FindUser(id uint64) (*models.User, error)
	// FindLegacyRole returns the legacy role with its permission names loaded.
	FindLegacyRole(id uint) (*models.LegacyRole, error)
	FindRoleAssignments(userID uint64) ([]models.RoleAssignment, error)
	FindRoleAssignment(userID uint64, roleID uint, branch string) (*models.RoleAssignment, error)
	FindAssignmentsOfRole(roleID uint) ([]models.RoleAssignment, error)
	FindRBACRole(id uint) (*models.RBACRole, error)
	// FindRBACRoleByName looks up a role by name. A nil branch selects global roles only.
	FindRBACRoleByName(name string, branch *string) (*models.RBACRole, error)
	// FindPermissionsOfRole returns the permission names attached to an RBAC role.
	FindPermissionsOfRole(roleID uint) ([]string, error)
	FindBranch(id string) (*models.Branch, error)
	// ListBranches returns all branches ordered by creation time, then id.
	ListBranches() ([]models.Branch, error)
	ListLegacyRoles() ([]models.LegacyRole, error)
	ListRBACRoles() ([]models.RBACRole, error)
	// ListUsers returns all users ordered by id.
	ListUsers() ([]models.User, error)
}

// Writer extends Reader with the mutations the lifecycle and reconciliation routines need.
type Writer interface {
	Reader

	// CreateRBACRole creates a role and attaches the named catalog permissions.
	CreateRBACRole(role *models.RBACRole, permissions []string) error
	// SetRoleBranch scopes an orphan role to branch. It reports false when the role
	// was no longer an orphan.
	SetRoleBranch(roleID uint, branch string) (bool, error)
	// CreateRoleAssignment inserts an assignment. It returns ErrDuplicateAssignment when
	// the (user, role, branch) triple already exists.
	CreateRoleAssignment(a *models.RoleAssignment) error
	// RefreshRoleAssignment replaces provenance and expiry of an existing assignment.
	RefreshRoleAssignment(id uint64, assignedBy uint64, assignedAt time.Time, expiresAt *time.Time) error
	DeleteRoleAssignments(userID uint64, roleID uint, branch string) (int64, error)
	// DeleteExpiredAssignments removes assignments that expired at or before now.
	DeleteExpiredAssignments(now time.Time) (int64, error)
}

// Store runs units of work against the role and assignment stores.
// View runs fn in one read transaction, Update in one read-write transaction.
// A unit either commits completely or not at all.
type Store interface {
	View(ctx context.Context, fn func(Reader) error) error
	Update(ctx context.Context, fn func(Writer) error) error
}
