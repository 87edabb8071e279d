package daemon

import (
	"context"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/config"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/controller/rbacstore"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/dsn"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/models"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/rbac"
)

const slowQuery = 500 * time.Millisecond

// OpenDB opens the configured database engine.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DB.GormEngine {
	case config.EnginePostgres:
		dialector = postgres.Open(dsn.Postgres(cfg))
	case config.EngineSQLite:
		dialector = sqlite.Open(dsn.SQLite(cfg))
	case config.EngineMySQL:
		dialector = gormmysql.Open(dsn.MySQL(cfg))
	default:
		return nil, errors.Wrap(config.ErrUnknownEngine, cfg.DB.GormEngine)
	}

	level := logger.Warn
	if cfg.DevMode {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: logger.New(gormWriter{}, logger.Config{
			SlowThreshold:             slowQuery,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	// sqlite serializes writers; one connection avoids "database is locked" errors
	if cfg.DB.GormEngine == config.EngineSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}

		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Migrate creates the schema and seeds the permission catalog.
func Migrate(ctx context.Context, db *gorm.DB, catalog *rbac.Catalog) error {
	if err := db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}

	if _, err := rbacstore.SeedCatalog(ctx, db, catalog); err != nil {
		return errors.Wrap(err, "failed to seed permission catalog")
	}

	return nil
}
