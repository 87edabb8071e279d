// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"strings"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/config"
)

// Create builds the Data Source Name for the configured engine.
func Create(cfg *config.Config) string {
	switch cfg.DB.GormEngine {
	case config.EnginePostgres:
		return Postgres(cfg)
	case config.EngineSQLite:
		return SQLite(cfg)
	default:
		return MySQL(cfg)
	}
}

// MySQL builds a go-sql-driver DSN. Extras is appended as query string.
func MySQL(cfg *config.Config) string {
	out := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.Name,
	)

	if cfg.DB.Extras != "" {
		out += "?" + cfg.DB.Extras
	}

	return out
}

// Postgres builds a keyword/value DSN. Extras is appended verbatim, e.g. "sslmode=disable".
func Postgres(cfg *config.Config) string {
	parts := []string{
		"host=" + cfg.DB.Host,
		fmt.Sprintf("port=%d", cfg.DB.Port),
		"user=" + cfg.DB.User,
		"password=" + cfg.DB.Password,
		"dbname=" + cfg.DB.Name,
	}

	if cfg.DB.Extras != "" {
		parts = append(parts, cfg.DB.Extras)
	}

	return strings.Join(parts, " ")
}

// SQLite returns the database file with Extras as query string.
func SQLite(cfg *config.Config) string {
	if cfg.DB.Extras == "" {
		return cfg.DB.Name
	}

	return cfg.DB.Name + "?" + cfg.DB.Extras
}
