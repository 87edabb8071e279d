package rbac

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/models"
)

// Reason explains an authorization decision.
type Reason string

const (
	// ReasonGranted means at least one role granted the permission.
	ReasonGranted Reason = "granted"
	// ReasonNotGranted means no role granted the permission.
	ReasonNotGranted Reason = "not_granted"
	// ReasonPrincipalNotFound means the user id did not resolve.
	ReasonPrincipalNotFound Reason = "principal_not_found"
	// ReasonInactivePrincipal means the user exists but is disabled.
	ReasonInactivePrincipal Reason = "inactive_principal"
	// ReasonUnknownPermission means the permission is missing from the catalog.
	ReasonUnknownPermission Reason = "unknown_permission"
)

// GrantSource names the role system a grant came from.
type GrantSource string

const (
	SourceLegacy GrantSource = "legacy"
	SourceRBAC   GrantSource = "rbac"
)

// Grant identifies a role that granted a permission.
type Grant struct {
	Source   GrantSource `json:"source"`
	RoleID   uint        `json:"role_id"`
	RoleName string      `json:"role_name"`
	// BranchID is the assignment scope for RBAC grants and the role branch for legacy grants.
	BranchID string `json:"branch_id,omitempty"`
}

// Decision is the outcome of one authorization check.
type Decision struct {
	Allowed    bool       `json:"allowed"`
	Permission Permission `json:"permission"`
	Branch     string     `json:"branch,omitempty"`
	Grants     []Grant    `json:"grants,omitempty"`
	Reason     Reason     `json:"reason"`
}

// Resolver computes authorization decisions from the legacy and RBAC role systems.
// It holds no state between calls; every call loads a fresh snapshot.
type Resolver struct {
	store   Store
	catalog *Catalog
	now     func() time.Time
}

// NewResolver creates a resolver over store.
func NewResolver(store Store, catalog *Catalog, opts ...Option) *Resolver {
	o := buildOptions(opts)

	return &Resolver{store: store, catalog: catalog, now: o.now}
}

// Catalog returns the catalog decisions are checked against.
func (r *Resolver) Catalog() *Catalog {
	return r.catalog
}

type heldRole struct {
	assignment models.RoleAssignment
	role       models.RBACRole
	perms      map[Permission]struct{}
}

// applies reports whether the assignment contributes in the branch context.
func (h heldRole) applies(branch string) bool {
	if h.role.IsGlobal() {
		return true
	}

	return branch != "" && h.assignment.BranchID == branch
}

// Snapshot is the authorization state of one user, loaded in a single read transaction.
// It may serve several checks of the same request but must not outlive it.
type Snapshot struct {
	UserID     uint64
	Found      bool
	Active     bool
	HomeBranch string

	catalog    *Catalog
	legacyRole *models.LegacyRole
	legacy     map[Permission]struct{}
	wildcard   bool
	held       []heldRole
}

// Load reads the user, its legacy role, its assignments and their roles in one read transaction.
// A missing user yields a snapshot with Found unset, not an error.
func (r *Resolver) Load(ctx context.Context, userID uint64) (*Snapshot, error) {
	snap := &Snapshot{
		UserID:  userID,
		catalog: r.catalog,
		legacy:  map[Permission]struct{}{},
	}
	now := r.now()

	err := r.store.View(ctx, func(rd Reader) error {
		user, err := rd.FindUser(userID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}

		if err != nil {
			return pkgerrors.Wrap(err, "load user")
		}

		snap.Found = true
		snap.Active = user.Active
		snap.HomeBranch = user.HomeBranch()

		legacy, err := rd.FindLegacyRole(user.LegacyRoleID)

		switch {
		case errors.Is(err, ErrNotFound):
			log.Warn().Uint64("user_id", userID).Uint("legacy_role_id", user.LegacyRoleID).
				Msg("user references a missing legacy role")
		case err != nil:
			return pkgerrors.Wrap(err, "load legacy role")
		default:
			snap.legacyRole = legacy
			snap.wildcard = legacy.HasWildcard()
			snap.legacy, _ = r.catalog.Expand(legacy.PermissionNames())
		}

		assignments, err := rd.FindRoleAssignments(userID)
		if err != nil {
			return pkgerrors.Wrap(err, "load role assignments")
		}

		rolePerms := make(map[uint]map[Permission]struct{})

		for _, a := range assignments {
			if a.Expired(now) {
				continue
			}

			role, err := rd.FindRBACRole(a.RBACRoleID)
			if errors.Is(err, ErrNotFound) {
				continue
			}

			if err != nil {
				return pkgerrors.Wrapf(err, "load rbac role %d", a.RBACRoleID)
			}

			if !role.IsGlobal() && role.Branch() != a.BranchID {
				log.Warn().Uint64("user_id", userID).Uint("role_id", role.ID).
					Str("role_branch", role.Branch()).Str("assignment_branch", a.BranchID).
					Msg("ignoring cross-branch role assignment")

				continue
			}

			perms, ok := rolePerms[role.ID]
			if !ok {
				names, err := rd.FindPermissionsOfRole(role.ID)
				if err != nil {
					return pkgerrors.Wrapf(err, "load permissions of role %d", role.ID)
				}

				perms, _ = r.catalog.Expand(names)
				rolePerms[role.ID] = perms
			}

			snap.held = append(snap.held, heldRole{assignment: a, role: *role, perms: perms})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return snap, nil
}

// Resolve decides whether userID holds permission in the branch context.
// Denials are reported through the Decision; an error means the store failed and
// callers must treat it as a denial.
func (r *Resolver) Resolve(ctx context.Context, userID uint64, permission Permission, branch string) (Decision, error) {
	if !r.catalog.Contains(permission) {
		return r.unknown(userID, permission, branch), nil
	}

	snap, err := r.Load(ctx, userID)
	if err != nil {
		return Decision{Permission: permission, Branch: branch, Reason: ReasonNotGranted}, err
	}

	return snap.Decide(permission, branch), nil
}

// ResolveAny reports whether userID holds at least one of permissions.
func (r *Resolver) ResolveAny(ctx context.Context, userID uint64, branch string, permissions ...Permission) (bool, error) {
	if len(permissions) == 0 {
		return false, nil
	}

	snap, err := r.Load(ctx, userID)
	if err != nil {
		return false, err
	}

	for _, p := range permissions {
		if snap.Decide(p, branch).Allowed {
			return true, nil
		}
	}

	return false, nil
}

// ResolveAll reports whether userID holds every one of permissions.
func (r *Resolver) ResolveAll(ctx context.Context, userID uint64, branch string, permissions ...Permission) (bool, error) {
	snap, err := r.Load(ctx, userID)
	if err != nil {
		return false, err
	}

	for _, p := range permissions {
		if !snap.Decide(p, branch).Allowed {
			return false, nil
		}
	}

	return true, nil
}

func (r *Resolver) unknown(userID uint64, permission Permission, branch string) Decision {
	flagUnknown(userID, permission)

	d := Decision{Permission: permission, Branch: branch, Reason: ReasonUnknownPermission}
	observeDecision(d)

	return d
}

// Decide evaluates permission in the branch context. An empty branch applies only the
// legacy role and global RBAC roles.
func (s *Snapshot) Decide(permission Permission, branch string) Decision {
	d := Decision{Permission: permission, Branch: branch, Reason: ReasonNotGranted}

	switch {
	case !s.catalog.Contains(permission):
		flagUnknown(s.UserID, permission)

		d.Reason = ReasonUnknownPermission
	case !s.Found:
		d.Reason = ReasonPrincipalNotFound
	case !s.Active:
		d.Reason = ReasonInactivePrincipal
	default:
		if _, ok := s.legacy[permission]; ok {
			d.Grants = append(d.Grants, Grant{
				Source:   SourceLegacy,
				RoleID:   s.legacyRole.ID,
				RoleName: s.legacyRole.Name,
				BranchID: derefBranch(s.legacyRole.BranchID),
			})
		}

		for _, h := range s.held {
			if !h.applies(branch) {
				continue
			}

			if _, ok := h.perms[permission]; ok {
				d.Grants = append(d.Grants, Grant{
					Source:   SourceRBAC,
					RoleID:   h.role.ID,
					RoleName: h.role.RoleName,
					BranchID: h.assignment.BranchID,
				})
			}
		}

		if len(d.Grants) > 0 {
			d.Allowed = true
			d.Reason = ReasonGranted
		}
	}

	observeDecision(d)

	return d
}

// Effective returns the sorted union of permissions the user holds in the branch context.
// Missing and inactive users hold nothing.
func (s *Snapshot) Effective(branch string) []string {
	if !s.Found || !s.Active {
		return []string{}
	}

	union := make(map[Permission]struct{}, len(s.legacy))
	for p := range s.legacy {
		union[p] = struct{}{}
	}

	for _, h := range s.held {
		if !h.applies(branch) {
			continue
		}

		for p := range h.perms {
			union[p] = struct{}{}
		}
	}

	return Sorted(union)
}

// MayManage reports whether the user may grant or revoke role under branch.
// Superadmins manage every assignment. Anyone else needs permission in the target branch
// itself and never manages global roles or unscoped assignments.
func (s *Snapshot) MayManage(permission Permission, role *models.RBACRole, branch string) bool {
	if s.Superadmin() {
		return true
	}

	if role == nil || role.IsGlobal() || branch == "" {
		return false
	}

	return s.Decide(permission, branch).Allowed
}

// Superadmin reports whether the user's legacy role holds the wildcard.
func (s *Snapshot) Superadmin() bool {
	return s.Found && s.Active && s.wildcard
}

// LegacyRoleName returns the name of the user's legacy role, if loaded.
func (s *Snapshot) LegacyRoleName() string {
	if s.legacyRole == nil {
		return ""
	}

	return s.legacyRole.Name
}

// flagUnknown reports a configuration error: calling code asked for a permission
// that does not exist.
func flagUnknown(userID uint64, permission Permission) {
	log.Warn().Uint64("user_id", userID).Str("permission", string(permission)).
		Msg("authorization check against a permission missing from the catalog")
	unknownPermissionCounter.WithLabelValues(string(permission)).Inc()
}

func derefBranch(b *string) string {
	if b == nil {
		return ""
	}

	return *b
}
