package daemon

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/models"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/rbac"
)

const (
	// SuperAdminRole names the legacy role holding the wildcard and its RBAC counterpart.
	SuperAdminRole = "SuperAdmin"
	// defaultAdminUser is created when the user table is empty.
	defaultAdminUser = "admin"
)

// seed creates the SuperAdmin legacy role, its global system RBAC counterpart and, on an
// empty user table, an admin user holding it. Existing rows are never modified.
func seed(ctx context.Context, db *gorm.DB, store rbac.Store, catalog *rbac.Catalog) error {
	var legacy models.LegacyRole

	err := db.WithContext(ctx).Where("name = ? AND branch_id IS NULL", SuperAdminRole).
		First(&legacy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		legacy = models.LegacyRole{
			Name:        SuperAdminRole,
			IsSystem:    true,
			Permissions: models.LegacyPermissions(models.LegacyWildcard),
		}

		if err = db.WithContext(ctx).Create(&legacy).Error; err != nil {
			return err
		}

		log.Info().Uint("role_id", legacy.ID).Msg("seeded legacy SuperAdmin role")
	} else if err != nil {
		return err
	}

	err = store.Update(ctx, func(w rbac.Writer) error {
		_, err := w.FindRBACRoleByName(SuperAdminRole, nil)
		if !errors.Is(err, rbac.ErrNotFound) {
			return err
		}

		role := &models.RBACRole{
			RoleName:    SuperAdminRole,
			Description: "all permissions in every branch",
			IsSystem:    true,
		}

		names := make([]string, 0, catalog.Len())
		for _, p := range catalog.Names() {
			names = append(names, p.String())
		}

		if err := w.CreateRBACRole(role, names); err != nil {
			return err
		}

		log.Info().Uint("role_id", role.ID).Msg("seeded global SuperAdmin rbac role")

		return nil
	})
	if err != nil {
		return err
	}

	var users int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}

	if users > 0 {
		return nil
	}

	admin := models.User{Username: defaultAdminUser, Active: true, LegacyRoleID: legacy.ID}
	if err := db.WithContext(ctx).Omit("LegacyRole").Create(&admin).Error; err != nil {
		return err
	}

	log.Warn().Uint64("user_id", admin.ID).Str("username", admin.Username).
		Msg("user table was empty, seeded admin user holding SuperAdmin")

	return nil
}
