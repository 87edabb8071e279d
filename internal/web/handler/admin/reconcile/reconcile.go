// Package reconcile serves the superadmin audit endpoints: drift inspection and
// on-demand reconciliation runs.
package reconcile

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/rbac"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/web/handler"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/web/session"
)

const (
	// Path is the base path of the audit endpoints.
	Path = handler.APIPath + "/system/audit"
)

type (
	// Enqueuer schedules a reconciliation routine for background execution and returns the task id.
	Enqueuer interface {
		Enqueue(ctx context.Context, routine rbac.Routine, requestedBy uint64) (string, error)
	}

	// Service handles audit requests.
	Service struct {
		reconciler *rbac.Reconciler
		jobs       Enqueuer
		validator  handler.XValidator
	}

	// RunBody is the request body of POST /api/system/audit/reconcile.
	RunBody struct {
		Routine string `json:"routine" validate:"required,oneof=sync-roles backfill repair-orphans drift all"`
	}

	// RunResponse identifies an enqueued run.
	RunResponse struct {
		TaskID  string `json:"task_id"`
		Routine string `json:"routine"`
	}
)

// Handler is the global audit handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the audit routes. jobs may be nil when no worker queue is configured;
// run requests then answer 503.
func (h *Service) Init(app fiber.Router, reconciler *rbac.Reconciler, jobs Enqueuer) error {
	if app == nil || reconciler == nil {
		return handler.ErrNilDependency
	}

	h.reconciler = reconciler
	h.jobs = jobs
	h.validator = handler.NewValidator()

	app.Get(Path+"/drift", h.drift)
	app.Post(Path+"/reconcile", h.run)

	return nil
}

func (h *Service) drift(c *fiber.Ctx) error {
	report, err := h.reconciler.DetectDrift(c.UserContext())
	if err != nil {
		log.Error().Err(err).Msg("drift detection failed")
		return handler.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	return c.JSON(report)
}

func (h *Service) run(c *fiber.Ctx) error {
	if h.jobs == nil {
		return handler.Error(c, fiber.StatusServiceUnavailable, "job queue not configured")
	}

	var body RunBody
	if err := c.BodyParser(&body); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if errs := h.validator.Validate(body); len(errs) > 0 {
		return handler.Invalid(c, errs)
	}

	principal, _ := session.FromContext(c)

	id, err := h.jobs.Enqueue(c.UserContext(), rbac.Routine(body.Routine), principal.UserID)
	if errors.Is(err, rbac.ErrUnknownRoutine) {
		return handler.Error(c, fiber.StatusBadRequest, err.Error())
	}

	if err != nil {
		log.Error().Err(err).Str("routine", body.Routine).Msg("enqueue reconciliation failed")
		return handler.Error(c, fiber.StatusServiceUnavailable, "enqueue failed")
	}

	log.Info().Str("task_id", id).Str("routine", body.Routine).Uint64("requested_by", principal.UserID).
		Msg("reconciliation enqueued")

	return c.Status(fiber.StatusAccepted).JSON(RunResponse{TaskID: id, Routine: body.Routine})
}
