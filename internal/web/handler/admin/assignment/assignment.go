// Package assignment serves the user role assignment API.
package assignment

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/rbac"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/web/guard"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/web/handler"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/web/session"
)

const (
	// Path is the base path of the user role endpoints.
	Path = handler.APIPath + "/users/:id"
)

type (
	// Service handles role assignment requests.
	Service struct {
		svc       *rbac.Service
		validator handler.XValidator
	}

	// AssignBody is the request body of POST /api/users/:id/roles.
	AssignBody struct {
		RoleID    uint       `json:"role_id"    validate:"required,gt=0"`
		BranchID  string     `json:"branch_id"  validate:"omitempty,max=64"`
		ExpiresAt *time.Time `json:"expires_at"`
	}

	// PermissionsResponse lists the effective permissions of a user in a branch.
	PermissionsResponse struct {
		UserID      uint64   `json:"user_id"`
		Branch      string   `json:"branch"`
		Permissions []string `json:"permissions"`
	}

	// RevokeResponse reports how many assignments were removed.
	RevokeResponse struct {
		Removed int64 `json:"removed"`
	}
)

// Handler is the global role assignment handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the role assignment routes.
func (h *Service) Init(app fiber.Router, svc *rbac.Service) error {
	if app == nil || svc == nil {
		return handler.ErrNilDependency
	}

	h.svc = svc
	h.validator = handler.NewValidator()

	app.Get(Path+"/permissions", h.permissions)
	app.Get(Path+"/roles", h.list)
	app.Post(Path+"/roles", h.assign)
	app.Delete(Path+"/roles/:roleId", h.revoke)

	return nil
}

func userID(c *fiber.Ctx) (uint64, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}

	return id, true
}

// status maps service errors to HTTP status codes.
func status(err error) int {
	switch {
	case errors.Is(err, rbac.ErrPrincipalNotFound),
		errors.Is(err, rbac.ErrRoleNotFound),
		errors.Is(err, rbac.ErrBranchNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, rbac.ErrBranchMismatch):
		return fiber.StatusConflict
	case errors.Is(err, rbac.ErrExpiryInPast):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	code := status(err)
	if code == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("role assignment request failed")
		return handler.Error(c, code, "internal error")
	}

	return handler.Error(c, code, err.Error())
}

// mayRead reports whether the requester may see assignments and permissions in branch.
// The guard only checked the request's own branch context.
func mayRead(snap *rbac.Snapshot, branch string) bool {
	return snap.Superadmin() || snap.Decide(rbac.PermRolesRead, branch).Allowed
}

// mayManage checks roles:assign against the branch the assignment lives in rather
// than the request's branch context.
func (h *Service) mayManage(c *fiber.Ctx, roleID uint, branch string) (bool, error) {
	snap, ok := guard.SnapshotFromContext(c)
	if !ok {
		return false, nil
	}

	role, err := h.svc.FindRole(c.UserContext(), roleID)
	if err != nil {
		return false, err
	}

	if snap.MayManage(rbac.PermRolesAssign, role, branch) {
		return true, nil
	}

	log.Warn().Uint64("user_id", snap.UserID).Uint("role_id", roleID).Str("role_branch", role.Branch()).
		Str("branch", branch).Msg("role management outside granted scope denied")

	return false, nil
}

func (h *Service) permissions(c *fiber.Ctx) error {
	id, ok := userID(c)
	if !ok {
		return handler.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	branch := c.Query("branch")

	snap, ok := guard.SnapshotFromContext(c)
	if !ok || !mayRead(snap, branch) {
		return guard.Forbidden(c)
	}

	perms, err := h.svc.ListEffectivePermissions(c.UserContext(), id, branch)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(PermissionsResponse{UserID: id, Branch: branch, Permissions: perms})
}

func (h *Service) list(c *fiber.Ctx) error {
	id, ok := userID(c)
	if !ok {
		return handler.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	snap, ok := guard.SnapshotFromContext(c)
	if !ok {
		return guard.Forbidden(c)
	}

	list, err := h.svc.ListAssignments(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}

	visible := make([]rbac.AssignmentInfo, 0, len(list))

	for _, a := range list {
		if mayRead(snap, a.BranchID) {
			visible = append(visible, a)
		}
	}

	return c.JSON(visible)
}

func (h *Service) assign(c *fiber.Ctx) error {
	id, ok := userID(c)
	if !ok {
		return handler.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var body AssignBody
	if err := c.BodyParser(&body); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if errs := h.validator.Validate(body); len(errs) > 0 {
		return handler.Invalid(c, errs)
	}

	allowed, err := h.mayManage(c, body.RoleID, body.BranchID)
	if err != nil {
		return fail(c, err)
	}

	if !allowed {
		return guard.Forbidden(c)
	}

	principal, _ := session.FromContext(c)

	res, err := h.svc.AssignRole(c.UserContext(), rbac.AssignRequest{
		UserID:     id,
		RoleID:     body.RoleID,
		Branch:     body.BranchID,
		AssignedBy: principal.UserID,
		ExpiresAt:  body.ExpiresAt,
	})
	if err != nil {
		return fail(c, err)
	}

	if res.Duplicate || res.Refreshed {
		return c.JSON(res)
	}

	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *Service) revoke(c *fiber.Ctx) error {
	id, ok := userID(c)
	if !ok {
		return handler.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	roleID, err := strconv.ParseUint(c.Params("roleId"), 10, 32)
	if err != nil || roleID == 0 {
		return handler.Error(c, fiber.StatusBadRequest, "invalid role id")
	}

	branch := c.Query("branch")

	allowed, err := h.mayManage(c, uint(roleID), branch)
	if err != nil {
		return fail(c, err)
	}

	if !allowed {
		return guard.Forbidden(c)
	}

	n, err := h.svc.RevokeRole(c.UserContext(), id, uint(roleID), branch)
	if err != nil {
		return fail(c, err)
	}

	principal, _ := session.FromContext(c)
	log.Debug().Uint64("user_id", id).Uint64("revoked_by", principal.UserID).Msg("revoke requested")

	return c.JSON(RevokeResponse{Removed: n})
}
