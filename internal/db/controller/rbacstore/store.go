// Package rbacstore implements the rbac role and assignment stores on top of gorm.
package rbacstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/models"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/rbac"
)

// Store is a gorm backed rbac.Store. Every unit of work runs in its own transaction.
type Store struct {
	db *gorm.DB
}

// New creates a store over db.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// View runs fn in a transaction that is always rolled back.
func (s *Store) View(ctx context.Context, fn func(rbac.Reader) error) error {
	errRollback := errors.New("rollback")

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(&txStore{tx: tx}); err != nil {
			return err
		}

		return errRollback
	})
	if errors.Is(err, errRollback) {
		return nil
	}

	return err
}

// Update runs fn in a transaction committed when fn returns nil.
func (s *Store) Update(ctx context.Context, fn func(rbac.Writer) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txStore{tx: tx})
	})
}

type txStore struct {
	tx *gorm.DB
}

// first maps a missing record to rbac.ErrNotFound.
func first(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rbac.ErrNotFound
	}

	if err != nil {
		return fmt.Errorf("failed to find %s: %w", what, err)
	}

	return nil
}

func (t *txStore) FindUser(id uint64) (*models.User, error) {
	var u models.User
	if err := first(t.tx.First(&u, id).Error, "user"); err != nil {
		return nil, err
	}

	return &u, nil
}

func (t *txStore) FindLegacyRole(id uint) (*models.LegacyRole, error) {
	var r models.LegacyRole
	if err := first(t.tx.Preload("Permissions").First(&r, id).Error, "legacy role"); err != nil {
		return nil, err
	}

	return &r, nil
}

func (t *txStore) FindRoleAssignments(userID uint64) ([]models.RoleAssignment, error) {
	var out []models.RoleAssignment
	if err := t.tx.Where("user_id = ?", userID).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to find role assignments: %w", err)
	}

	return out, nil
}

func (t *txStore) FindRoleAssignment(userID uint64, roleID uint, branch string) (*models.RoleAssignment, error) {
	var a models.RoleAssignment

	err := t.tx.Where("user_id = ? AND rbac_role_id = ? AND branch_id = ?", userID, roleID, branch).
		First(&a).Error
	if err = first(err, "role assignment"); err != nil {
		return nil, err
	}

	return &a, nil
}

func (t *txStore) FindAssignmentsOfRole(roleID uint) ([]models.RoleAssignment, error) {
	var out []models.RoleAssignment
	if err := t.tx.Where("rbac_role_id = ?", roleID).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to find assignments of role: %w", err)
	}

	return out, nil
}

func (t *txStore) FindRBACRole(id uint) (*models.RBACRole, error) {
	var r models.RBACRole
	if err := first(t.tx.First(&r, id).Error, "rbac role"); err != nil {
		return nil, err
	}

	return &r, nil
}

func (t *txStore) FindRBACRoleByName(name string, branch *string) (*models.RBACRole, error) {
	q := t.tx.Where("role_name = ?", name)
	if branch == nil {
		q = q.Where("branch_id IS NULL")
	} else {
		q = q.Where("branch_id = ?", *branch)
	}

	var r models.RBACRole
	if err := first(q.Order("id").First(&r).Error, "rbac role"); err != nil {
		return nil, err
	}

	return &r, nil
}

func (t *txStore) FindPermissionsOfRole(roleID uint) ([]string, error) {
	var names []string

	err := t.tx.Table("permissions").
		Joins("JOIN rbac_role_permissions ON rbac_role_permissions.permission_id = permissions.id").
		Where("rbac_role_permissions.rbac_role_id = ?", roleID).
		Order("permissions.name").
		Pluck("permissions.name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find role permissions: %w", err)
	}

	return names, nil
}

func (t *txStore) FindBranch(id string) (*models.Branch, error) {
	var b models.Branch
	if err := first(t.tx.Where("id = ?", id).First(&b).Error, "branch"); err != nil {
		return nil, err
	}

	return &b, nil
}

func (t *txStore) ListBranches() ([]models.Branch, error) {
	var out []models.Branch
	if err := t.tx.Order("created_at").Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}

	return out, nil
}

func (t *txStore) ListLegacyRoles() ([]models.LegacyRole, error) {
	var out []models.LegacyRole
	if err := t.tx.Preload("Permissions").Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list legacy roles: %w", err)
	}

	return out, nil
}

func (t *txStore) ListRBACRoles() ([]models.RBACRole, error) {
	var out []models.RBACRole
	if err := t.tx.Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list rbac roles: %w", err)
	}

	return out, nil
}

func (t *txStore) ListUsers() ([]models.User, error) {
	var out []models.User
	if err := t.tx.Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return out, nil
}

func (t *txStore) CreateRBACRole(role *models.RBACRole, permissions []string) error {
	if err := t.tx.Omit(clause.Associations).Create(role).Error; err != nil {
		return fmt.Errorf("failed to create rbac role: %w", err)
	}

	if len(permissions) == 0 {
		return nil
	}

	var perms []models.Permission
	if err := t.tx.Where("name IN ?", permissions).Find(&perms).Error; err != nil {
		return fmt.Errorf("failed to look up permissions: %w", err)
	}

	if len(perms) != len(permissions) {
		return fmt.Errorf("%w: %d of %d permissions are not seeded", rbac.ErrUnknownPermission,
			len(permissions)-len(perms), len(permissions))
	}

	rows := make([]models.RBACRolePermission, 0, len(perms))
	for _, p := range perms {
		rows = append(rows, models.RBACRolePermission{RBACRoleID: role.ID, PermissionID: p.ID})
	}

	if err := t.tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to attach permissions: %w", err)
	}

	return nil
}

func (t *txStore) SetRoleBranch(roleID uint, branch string) (bool, error) {
	res := t.tx.Model(&models.RBACRole{}).
		Where("id = ? AND branch_id IS NULL AND is_system = ?", roleID, false).
		Update("branch_id", branch)
	if res.Error != nil {
		return false, fmt.Errorf("failed to set role branch: %w", res.Error)
	}

	return res.RowsAffected > 0, nil
}

// CreateRoleAssignment relies on the unique (user, role, branch) index. A conflicting insert
// is skipped by the database and reported as rbac.ErrDuplicateAssignment.
func (t *txStore) CreateRoleAssignment(a *models.RoleAssignment) error {
	res := t.tx.Clauses(clause.OnConflict{DoNothing: true}).Create(a)
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return rbac.ErrDuplicateAssignment
	}

	if res.Error != nil {
		return fmt.Errorf("failed to create role assignment: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return rbac.ErrDuplicateAssignment
	}

	return nil
}

func (t *txStore) RefreshRoleAssignment(id uint64, assignedBy uint64, assignedAt time.Time, expiresAt *time.Time) error {
	err := t.tx.Model(&models.RoleAssignment{}).Where("id = ?", id).Updates(map[string]any{
		"assigned_by": assignedBy,
		"assigned_at": assignedAt,
		"expires_at":  expiresAt,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to refresh role assignment: %w", err)
	}

	return nil
}

func (t *txStore) DeleteRoleAssignments(userID uint64, roleID uint, branch string) (int64, error) {
	res := t.tx.Where("user_id = ? AND rbac_role_id = ? AND branch_id = ?", userID, roleID, branch).
		Delete(&models.RoleAssignment{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete role assignments: %w", res.Error)
	}

	return res.RowsAffected, nil
}

func (t *txStore) DeleteExpiredAssignments(now time.Time) (int64, error) {
	res := t.tx.Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Delete(&models.RoleAssignment{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete expired assignments: %w", res.Error)
	}

	return res.RowsAffected, nil
}

var _ rbac.Store = (*Store)(nil)
