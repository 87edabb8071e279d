// Package dbtest provides an in-memory database with the authorization schema for tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/controller/rbacstore"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/models"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/rbac"
)

// Open creates a migrated in-memory SQLite database seeded with the default catalog.
// The pool is limited to one connection so every query sees the same database.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "failed to create test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...), "failed to migrate test database")

	_, err = rbacstore.SeedCatalog(context.Background(), db, rbac.DefaultCatalog())
	require.NoError(t, err, "failed to seed catalog")

	return db
}

// Ptr returns a pointer to s.
func Ptr(s string) *string {
	return &s
}

// Branch creates a branch with the given creation time.
func Branch(t *testing.T, db *gorm.DB, id string, active bool, createdAt time.Time) *models.Branch {
	t.Helper()

	b := &models.Branch{ID: id, Name: "Branch " + id, Active: active, CreatedAt: createdAt}
	require.NoError(t, db.Create(b).Error)

	return b
}

// LegacyRole creates a legacy role holding the given permission names.
func LegacyRole(t *testing.T, db *gorm.DB, name string, branch *string, perms ...string) *models.LegacyRole {
	t.Helper()

	r := &models.LegacyRole{Name: name, BranchID: branch, Permissions: models.LegacyPermissions(perms...)}
	require.NoError(t, db.Create(r).Error)

	return r
}

// RBACRole creates an RBAC role holding the given catalog permissions.
func RBACRole(t *testing.T, db *gorm.DB, name string, branch *string, system bool, perms ...string) *models.RBACRole {
	t.Helper()

	r := &models.RBACRole{RoleName: name, BranchID: branch, IsSystem: system}

	err := rbacstore.New(db).Update(context.Background(), func(w rbac.Writer) error {
		return w.CreateRBACRole(r, perms)
	})
	require.NoError(t, err)

	return r
}

// User creates an active user holding the legacy role.
func User(t *testing.T, db *gorm.DB, username string, legacyRoleID uint, home *string) *models.User {
	t.Helper()

	u := &models.User{Username: username, Active: true, LegacyRoleID: legacyRoleID, HomeBranchID: home}
	require.NoError(t, db.Omit("LegacyRole").Create(u).Error)

	return u
}

// Assign inserts a role assignment directly, bypassing lifecycle checks.
func Assign(t *testing.T, db *gorm.DB, userID uint64, roleID uint, branch string, expiresAt *time.Time) *models.RoleAssignment {
	t.Helper()

	a := &models.RoleAssignment{
		UserID:     userID,
		RBACRoleID: roleID,
		BranchID:   branch,
		AssignedAt: time.Now().UTC(),
		ExpiresAt:  expiresAt,
	}
	require.NoError(t, db.Create(a).Error)

	return a
}

// CountAssignments returns the number of assignments of the (user, role, branch) triple.
func CountAssignments(t *testing.T, db *gorm.DB, userID uint64, roleID uint, branch string) int64 {
	t.Helper()

	var n int64

	err := db.Model(&models.RoleAssignment{}).
		Where("user_id = ? AND rbac_role_id = ? AND branch_id = ?", userID, roleID, branch).
		Count(&n).Error
	require.NoError(t, err)

	return n
}
