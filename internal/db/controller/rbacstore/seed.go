package rbacstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/models"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/rbac"
)

// SeedCatalog inserts every catalog permission missing from the permissions table.
// Existing permissions are left untouched, so the call is idempotent.
func SeedCatalog(ctx context.Context, db *gorm.DB, catalog *rbac.Catalog) (int64, error) {
	defs := catalog.All()
	rows := make([]models.Permission, 0, len(defs))

	for _, d := range defs {
		rows = append(rows, models.Permission{
			Name:        string(d.Name),
			Resource:    d.Resource,
			Action:      d.Action,
			Description: d.Description,
		})
	}

	res := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).CreateInBatches(&rows, 100)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to seed permission catalog: %w", res.Error)
	}

	return res.RowsAffected, nil
}
