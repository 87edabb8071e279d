package rbac

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/models"
)

// Service implements the role assignment lifecycle.
type Service struct {
	store    Store
	resolver *Resolver
	now      func() time.Time
}

// NewService creates a lifecycle service over store.
func NewService(store Store, catalog *Catalog, opts ...Option) *Service {
	o := buildOptions(opts)

	return &Service{
		store:    store,
		resolver: NewResolver(store, catalog, opts...),
		now:      o.now,
	}
}

// Resolver returns the resolver sharing the service's store and clock.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// AssignRequest describes a role assignment.
type AssignRequest struct {
	UserID     uint64
	RoleID     uint
	Branch     string
	AssignedBy uint64
	ExpiresAt  *time.Time
}

// AssignResult is the outcome of AssignRole.
// Duplicate is set when an identical live assignment already existed; Refreshed when an
// identical expired assignment was renewed in place.
type AssignResult struct {
	Assignment models.RoleAssignment `json:"assignment"`
	Duplicate  bool                  `json:"duplicate"`
	Refreshed  bool                  `json:"refreshed"`
}

// AssignRole attaches an RBAC role to a user under a branch.
// A branch-scoped role can only be assigned under its own branch. Assigning an existing
// live triple again succeeds without creating a second row.
func (s *Service) AssignRole(ctx context.Context, req AssignRequest) (AssignResult, error) {
	var res AssignResult

	now := s.now()
	if req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
		return res, ErrExpiryInPast
	}

	err := s.store.Update(ctx, func(w Writer) error {
		if _, err := w.FindUser(req.UserID); err != nil {
			return notFound(err, ErrPrincipalNotFound, "find user")
		}

		role, err := w.FindRBACRole(req.RoleID)
		if err != nil {
			return notFound(err, ErrRoleNotFound, "find role")
		}

		if !role.IsGlobal() && role.Branch() != req.Branch {
			return pkgerrors.Wrapf(ErrBranchMismatch, "role %d is scoped to branch %q, requested %q",
				role.ID, role.Branch(), req.Branch)
		}

		if req.Branch != "" {
			if _, err = w.FindBranch(req.Branch); err != nil {
				return notFound(err, ErrBranchNotFound, "find branch")
			}
		}

		existing, err := w.FindRoleAssignment(req.UserID, req.RoleID, req.Branch)

		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return pkgerrors.Wrap(err, "find assignment")
		case !existing.Expired(now):
			res.Assignment = *existing
			res.Duplicate = true

			return nil
		default:
			if err = w.RefreshRoleAssignment(existing.ID, req.AssignedBy, now, req.ExpiresAt); err != nil {
				return pkgerrors.Wrap(err, "refresh assignment")
			}

			existing.AssignedBy = req.AssignedBy
			existing.AssignedAt = now
			existing.ExpiresAt = req.ExpiresAt
			res.Assignment = *existing
			res.Refreshed = true

			return nil
		}

		a := models.RoleAssignment{
			UserID:     req.UserID,
			RBACRoleID: req.RoleID,
			BranchID:   req.Branch,
			AssignedBy: req.AssignedBy,
			AssignedAt: now,
			ExpiresAt:  req.ExpiresAt,
		}

		err = w.CreateRoleAssignment(&a)
		if errors.Is(err, ErrDuplicateAssignment) {
			res.Duplicate = true
			res.Assignment = a

			if winner, errFind := w.FindRoleAssignment(req.UserID, req.RoleID, req.Branch); errFind == nil {
				res.Assignment = *winner
			}

			return nil
		}

		if err != nil {
			return pkgerrors.Wrap(err, "create assignment")
		}

		res.Assignment = a

		return nil
	})
	if err != nil {
		return AssignResult{}, err
	}

	log.Info().Uint64("user_id", req.UserID).Uint("role_id", req.RoleID).Str("branch", req.Branch).
		Uint64("assigned_by", req.AssignedBy).Bool("duplicate", res.Duplicate).Bool("refreshed", res.Refreshed).
		Msg("role assigned")

	return res, nil
}

// RevokeRole removes the assignment of role to user under branch.
// Revoking an assignment that does not exist is not an error.
func (s *Service) RevokeRole(ctx context.Context, userID uint64, roleID uint, branch string) (int64, error) {
	var removed int64

	err := s.store.Update(ctx, func(w Writer) error {
		var err error

		removed, err = w.DeleteRoleAssignments(userID, roleID, branch)

		return err
	})
	if err != nil {
		return 0, pkgerrors.Wrap(err, "revoke role")
	}

	log.Info().Uint64("user_id", userID).Uint("role_id", roleID).Str("branch", branch).
		Int64("removed", removed).Msg("role revoked")

	return removed, nil
}

// FindRole returns the RBAC role with the given id.
func (s *Service) FindRole(ctx context.Context, roleID uint) (*models.RBACRole, error) {
	var role *models.RBACRole

	err := s.store.View(ctx, func(r Reader) error {
		var err error

		role, err = r.FindRBACRole(roleID)

		return notFound(err, ErrRoleNotFound, "find role")
	})
	if err != nil {
		return nil, err
	}

	return role, nil
}

// ListEffectivePermissions returns the sorted permissions the user holds in the branch context.
func (s *Service) ListEffectivePermissions(ctx context.Context, userID uint64, branch string) ([]string, error) {
	snap, err := s.resolver.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !snap.Found {
		return nil, ErrPrincipalNotFound
	}

	return snap.Effective(branch), nil
}

// AssignmentInfo is an assignment together with its role, as shown to audit tooling.
type AssignmentInfo struct {
	ID         uint64     `json:"id"`
	RoleID     uint       `json:"role_id"`
	RoleName   string     `json:"role_name"`
	RoleBranch string     `json:"role_branch,omitempty"`
	BranchID   string     `json:"branch_id"`
	AssignedBy uint64     `json:"assigned_by"`
	AssignedAt time.Time  `json:"assigned_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Expired    bool       `json:"expired"`
}

// ListAssignments returns every assignment of the user, expired ones included.
func (s *Service) ListAssignments(ctx context.Context, userID uint64) ([]AssignmentInfo, error) {
	now := s.now()
	out := []AssignmentInfo{}

	err := s.store.View(ctx, func(r Reader) error {
		if _, err := r.FindUser(userID); err != nil {
			return notFound(err, ErrPrincipalNotFound, "find user")
		}

		assignments, err := r.FindRoleAssignments(userID)
		if err != nil {
			return pkgerrors.Wrap(err, "find assignments")
		}

		for _, a := range assignments {
			info := AssignmentInfo{
				ID:         a.ID,
				RoleID:     a.RBACRoleID,
				BranchID:   a.BranchID,
				AssignedBy: a.AssignedBy,
				AssignedAt: a.AssignedAt,
				ExpiresAt:  a.ExpiresAt,
				Expired:    a.Expired(now),
			}

			role, err := r.FindRBACRole(a.RBACRoleID)

			switch {
			case errors.Is(err, ErrNotFound):
			case err != nil:
				return pkgerrors.Wrap(err, "find role")
			default:
				info.RoleName = role.RoleName
				info.RoleBranch = role.Branch()
			}

			out = append(out, info)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// PurgeExpiredAssignments deletes assignments that have expired. The resolver already
// ignores them, so purging never changes a decision.
func (s *Service) PurgeExpiredAssignments(ctx context.Context) (int64, error) {
	var removed int64

	err := s.store.Update(ctx, func(w Writer) error {
		var err error

		removed, err = w.DeleteExpiredAssignments(s.now())

		return err
	})
	if err != nil {
		return 0, pkgerrors.Wrap(err, "purge expired assignments")
	}

	return removed, nil
}

// notFound maps ErrNotFound to the domain sentinel and wraps anything else.
func notFound(err, sentinel error, msg string) error {
	if errors.Is(err, ErrNotFound) {
		return sentinel
	}

	return pkgerrors.Wrap(err, msg)
}
