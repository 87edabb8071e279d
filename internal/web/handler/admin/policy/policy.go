// Package policy serves the runtime-editable authorization policy.
package policy

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/controller/rbacpolicy"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/models"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/web/handler"
)

const (
	// Path is the path of the policy endpoint.
	Path = handler.APIPath + "/system/settings/rbac-policy"
)

// Service handles policy requests.
type Service struct {
	db        *gorm.DB
	validator handler.XValidator
}

// Handler is the global policy handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the policy routes.
func (h *Service) Init(app fiber.Router, db *gorm.DB) error {
	if app == nil || db == nil {
		return handler.ErrNilDependency
	}

	h.db = db
	h.validator = handler.NewValidator()

	app.Route(Path, func(router fiber.Router) {
		router.Get("/", h.get)
		router.Put("/", h.put)
		router.Delete("/", h.reset)
	})

	return nil
}

func (h *Service) get(c *fiber.Ctx) error {
	var p rbacpolicy.Policy
	if err := p.Load(c.UserContext(), h.db); err != nil {
		log.Error().Err(err).Msg("load rbac policy")
		return handler.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	return c.JSON(p)
}

func (h *Service) put(c *fiber.Ctx) error {
	var p rbacpolicy.Policy
	if err := c.BodyParser(&p); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if errs := h.validator.Validate(p); len(errs) > 0 {
		return handler.Invalid(c, errs)
	}

	if p.DefaultBranchID != "" {
		var b models.Branch

		err := h.db.WithContext(c.UserContext()).Where("id = ?", p.DefaultBranchID).First(&b).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.Error(c, fiber.StatusUnprocessableEntity, "branch not found")
		}

		if err != nil {
			log.Error().Err(err).Msg("lookup policy branch")
			return handler.Error(c, fiber.StatusInternalServerError, "internal error")
		}

		if !b.Active {
			return handler.Error(c, fiber.StatusUnprocessableEntity, "branch is not active")
		}
	}

	if err := p.Save(c.UserContext(), h.db); err != nil {
		log.Error().Err(err).Msg("save rbac policy")
		return handler.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	log.Info().Str("default_branch", p.DefaultBranchID).Msg("rbac policy updated")

	return c.JSON(p)
}

func (h *Service) reset(c *fiber.Ctx) error {
	if err := rbacpolicy.Reset(c.UserContext(), h.db); err != nil {
		log.Error().Err(err).Msg("reset rbac policy")
		return handler.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	log.Info().Msg("rbac policy reset")

	return c.JSON(rbacpolicy.Policy{})
}
