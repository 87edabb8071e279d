// Package health serves liveness and dependency health endpoints.
package health

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/web/handler"
)

const (
	// Path is the public liveness endpoint.
	Path = handler.APIPath + "/health"
	// DetailsPath reports the state of backing services and requires health:read.
	DetailsPath = Path + "/details"

	pingTimeout = 2 * time.Second

	statusOK    = "ok"
	statusDown  = "down"
	statusError = "error"
)

type (
	// Service handles health requests.
	Service struct {
		db    *gorm.DB
		alive func() bool
	}

	// Status is the body of the health endpoints.
	Status struct {
		Status   string `json:"status"`
		Database string `json:"database,omitempty"`
	}
)

// Handler is the global health handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the health routes. alive reports whether the service accepts traffic;
// it turns false while a graceful shutdown drains connections.
func (h *Service) Init(app fiber.Router, db *gorm.DB, alive func() bool) error {
	if app == nil || db == nil || alive == nil {
		return handler.ErrNilDependency
	}

	h.db = db
	h.alive = alive

	app.Get(Path, h.live)
	app.Get(DetailsPath, h.details)

	return nil
}

func (h *Service) live(c *fiber.Ctx) error {
	if !h.alive() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(Status{Status: statusDown})
	}

	return c.JSON(Status{Status: statusOK})
}

func (h *Service) details(c *fiber.Ctx) error {
	out := Status{Status: statusOK, Database: statusOK}

	if err := h.ping(c.UserContext()); err != nil {
		log.Warn().Err(err).Msg("database health check failed")

		out.Status = statusError
		out.Database = statusError
	}

	if !h.alive() {
		out.Status = statusDown
	}

	if out.Status != statusOK {
		return c.Status(fiber.StatusServiceUnavailable).JSON(out)
	}

	return c.JSON(out)
}

func (h *Service) ping(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	return sqlDB.PingContext(ctx)
}
