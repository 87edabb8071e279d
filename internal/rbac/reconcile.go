package rbac

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/models"
)

// ReconcilerConfig holds the default-branch policy of RepairOrphanRoles.
type ReconcilerConfig struct {
	// DefaultBranchID, when set, is the branch orphan roles are moved to.
	DefaultBranchID string
	// DefaultBranchLookup is consulted when DefaultBranchID is empty. An empty result
	// means "not configured".
	DefaultBranchLookup func(ctx context.Context) (string, error)
}

// Reconciler runs the batch routines that keep the legacy and RBAC role systems consistent.
// Every routine is idempotent and only ever adds grants.
type Reconciler struct {
	store   Store
	catalog *Catalog
	cfg     ReconcilerConfig
	now     func() time.Time
}

// NewReconciler creates a reconciler over store.
func NewReconciler(store Store, catalog *Catalog, cfg ReconcilerConfig, opts ...Option) *Reconciler {
	o := buildOptions(opts)

	return &Reconciler{store: store, catalog: catalog, cfg: cfg, now: o.now}
}

func roleSubject(name string, branch *string) string {
	if branch == nil {
		return name + "@global"
	}

	return name + "@" + *branch
}

// interrupted marks the report and returns the context error.
func (r *Reconciler) interrupted(ctx context.Context, rep *Report) error {
	rep.Interrupted = true
	rep.FinishedAt = r.now()

	log.Warn().Str("run_id", rep.RunID).Str("routine", string(rep.Routine)).
		Msg("reconciliation interrupted, remaining items left untouched")

	return pkgerrors.Wrapf(ctx.Err(), "%s interrupted", rep.Routine)
}

func (r *Reconciler) finish(rep *Report) {
	rep.FinishedAt = r.now()

	log.Info().Str("run_id", rep.RunID).Str("routine", string(rep.Routine)).
		Int("created", rep.Created).Int("updated", rep.Updated).
		Int("unchanged", rep.Unchanged).Int("skipped", rep.Skipped).
		Msg("reconciliation finished")
}

// SyncRoleCatalog creates an RBAC counterpart for every legacy role that has none.
// Permissions are copied by name, the wildcard expanding to the whole catalog. Existing
// counterparts are never modified.
func (r *Reconciler) SyncRoleCatalog(ctx context.Context) (*Report, error) {
	rep := newReport(RoutineSyncRoleCatalog, r.now())

	var legacyRoles []models.LegacyRole

	err := r.store.View(ctx, func(rd Reader) error {
		var err error

		legacyRoles, err = rd.ListLegacyRoles()

		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list legacy roles")
	}

	for i := range legacyRoles {
		if ctx.Err() != nil {
			return rep, r.interrupted(ctx, rep)
		}

		legacy := legacyRoles[i]
		subject := roleSubject(legacy.Name, legacy.BranchID)

		err = r.store.Update(ctx, func(w Writer) error {
			if _, err := findCounterpart(w, legacy.Name, legacy.BranchID); err == nil {
				rep.add(ItemUnchanged, subject, "rbac counterpart exists")
				return nil
			} else if !errors.Is(err, ErrNotFound) {
				return err
			}

			perms, unknown := r.catalog.Expand(legacy.PermissionNames())
			for _, u := range unknown {
				rep.add(ItemUnknownPermission, subject, u)
			}

			role := models.RBACRole{
				RoleName:    legacy.Name,
				Description: fmt.Sprintf("Created from legacy role %q", legacy.Name),
				BranchID:    legacy.BranchID,
				IsSystem:    legacy.BranchID == nil || legacy.IsSystem,
			}
			if err := w.CreateRBACRole(&role, Sorted(perms)); err != nil {
				return pkgerrors.Wrapf(err, "create counterpart of %s", subject)
			}

			rep.add(ItemCreated, subject, fmt.Sprintf("rbac role %d with %d permissions", role.ID, len(perms)))

			return nil
		})
		if err != nil {
			return rep, err
		}
	}

	r.finish(rep)

	return rep, nil
}

// findCounterpart returns the RBAC role named like a legacy role: the one of the same
// branch, falling back to a global role for branch-scoped legacy roles.
func findCounterpart(rd Reader, name string, branch *string) (*models.RBACRole, error) {
	role, err := rd.FindRBACRoleByName(name, branch)
	if branch == nil || !errors.Is(err, ErrNotFound) {
		return role, err
	}

	return rd.FindRBACRoleByName(name, nil)
}

// BackfillUserAssignments assigns every user the RBAC counterpart of its legacy role.
// The target branch is the legacy role's branch, else the user's home branch. Users that
// already hold a live assignment in the target branch are left alone. Each user is one
// atomic unit.
func (r *Reconciler) BackfillUserAssignments(ctx context.Context) (*Report, error) {
	rep := newReport(RoutineBackfill, r.now())

	var users []models.User

	err := r.store.View(ctx, func(rd Reader) error {
		var err error

		users, err = rd.ListUsers()

		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list users")
	}

	for i := range users {
		if ctx.Err() != nil {
			return rep, r.interrupted(ctx, rep)
		}

		user := users[i]
		subject := fmt.Sprintf("user %d (%s)", user.ID, user.Username)

		err = r.store.Update(ctx, func(w Writer) error {
			return r.backfillUser(w, rep, &user, subject)
		})
		if err != nil {
			return rep, err
		}
	}

	r.finish(rep)

	return rep, nil
}

func (r *Reconciler) backfillUser(w Writer, rep *Report, user *models.User, subject string) error {
	now := r.now()

	legacy, err := w.FindLegacyRole(user.LegacyRoleID)
	if errors.Is(err, ErrNotFound) {
		rep.add(ItemSkipped, subject, "legacy role missing")
		return nil
	}

	if err != nil {
		return pkgerrors.Wrap(err, "find legacy role")
	}

	target := user.HomeBranch()
	if legacy.BranchID != nil {
		target = *legacy.BranchID
	}

	var targetPtr *string
	if target != "" {
		targetPtr = &target
	}

	role, err := findCounterpart(w, legacy.Name, targetPtr)
	if errors.Is(err, ErrNotFound) {
		rep.add(ItemNoCounterpart, subject, fmt.Sprintf("no rbac role %s", roleSubject(legacy.Name, targetPtr)))
		return nil
	}

	if err != nil {
		return pkgerrors.Wrap(err, "find counterpart")
	}

	if !role.IsGlobal() && role.Branch() != target {
		rep.add(ItemBranchMismatch, subject,
			fmt.Sprintf("role %d is scoped to %q, target branch %q", role.ID, role.Branch(), target))

		return nil
	}

	assignments, err := w.FindRoleAssignments(user.ID)
	if err != nil {
		return pkgerrors.Wrap(err, "find assignments")
	}

	for _, a := range assignments {
		if a.BranchID == target && !a.Expired(now) {
			rep.add(ItemUnchanged, subject, fmt.Sprintf("already assigned in branch %q", target))
			return nil
		}
	}

	a := models.RoleAssignment{
		UserID:     user.ID,
		RBACRoleID: role.ID,
		BranchID:   target,
		AssignedAt: now,
	}

	err = w.CreateRoleAssignment(&a)
	if errors.Is(err, ErrDuplicateAssignment) {
		rep.add(ItemUnchanged, subject, fmt.Sprintf("expired assignment of role %d kept as is", role.ID))
		return nil
	}

	if err != nil {
		return pkgerrors.Wrap(err, "create assignment")
	}

	rep.add(ItemCreated, subject, fmt.Sprintf("assigned role %d in branch %q", role.ID, target))

	return nil
}

// RepairOrphanRoles scopes every orphan role to the default branch. Live assignments of a
// repaired role under other scopes are copied into the default branch so no holder loses
// the grant there. Without an active default branch nothing changes.
func (r *Reconciler) RepairOrphanRoles(ctx context.Context) (*Report, error) {
	rep := newReport(RoutineRepairOrphans, r.now())

	var orphans []models.RBACRole

	err := r.store.View(ctx, func(rd Reader) error {
		roles, err := rd.ListRBACRoles()
		if err != nil {
			return err
		}

		for _, role := range roles {
			if role.IsOrphan() {
				orphans = append(orphans, role)
			}
		}

		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list rbac roles")
	}

	if len(orphans) == 0 {
		r.finish(rep)
		return rep, nil
	}

	branch, err := r.DefaultBranch(ctx)
	if errors.Is(err, ErrNoDefaultBranch) {
		for _, role := range orphans {
			rep.add(ItemNoDefaultBranch, roleSubject(role.RoleName, nil), "no active branch available")
		}

		r.finish(rep)

		return rep, nil
	}

	if err != nil {
		return nil, err
	}

	for i := range orphans {
		if ctx.Err() != nil {
			return rep, r.interrupted(ctx, rep)
		}

		role := orphans[i]
		subject := roleSubject(role.RoleName, nil)

		err = r.store.Update(ctx, func(w Writer) error {
			changed, err := w.SetRoleBranch(role.ID, branch)
			if err != nil {
				return pkgerrors.Wrapf(err, "scope role %d", role.ID)
			}

			if !changed {
				rep.add(ItemUnchanged, subject, "no longer an orphan")
				return nil
			}

			carried, err := r.carryAssignments(w, role.ID, branch)
			if err != nil {
				return err
			}

			rep.add(ItemUpdated, subject,
				fmt.Sprintf("role %d scoped to branch %q, %d assignments carried", role.ID, branch, carried))

			return nil
		})
		if err != nil {
			return rep, err
		}
	}

	r.finish(rep)

	return rep, nil
}

func (r *Reconciler) carryAssignments(w Writer, roleID uint, branch string) (int, error) {
	now := r.now()

	assignments, err := w.FindAssignmentsOfRole(roleID)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "find assignments of role")
	}

	carried := 0

	for _, a := range assignments {
		if a.BranchID == branch || a.Expired(now) {
			continue
		}

		c := models.RoleAssignment{
			UserID:     a.UserID,
			RBACRoleID: roleID,
			BranchID:   branch,
			AssignedBy: a.AssignedBy,
			AssignedAt: now,
			ExpiresAt:  a.ExpiresAt,
		}

		err = w.CreateRoleAssignment(&c)
		if errors.Is(err, ErrDuplicateAssignment) {
			continue
		}

		if err != nil {
			return carried, pkgerrors.Wrap(err, "carry assignment")
		}

		carried++
	}

	return carried, nil
}

// DefaultBranch selects the branch orphan roles are moved to: the configured branch,
// else the looked-up setting, else the earliest created active branch (ties broken by id).
// A configured branch must exist and be active.
func (r *Reconciler) DefaultBranch(ctx context.Context) (string, error) {
	configured := r.cfg.DefaultBranchID

	if configured == "" && r.cfg.DefaultBranchLookup != nil {
		v, err := r.cfg.DefaultBranchLookup(ctx)
		if err != nil {
			return "", pkgerrors.Wrap(err, "look up default branch")
		}

		configured = v
	}

	var chosen string

	err := r.store.View(ctx, func(rd Reader) error {
		if configured != "" {
			b, err := rd.FindBranch(configured)
			if err != nil {
				return notFound(err, pkgerrors.Wrapf(ErrBranchNotFound, "default branch %q", configured), "find branch")
			}

			if !b.Active {
				return pkgerrors.Wrapf(ErrNoDefaultBranch, "default branch %q is inactive", configured)
			}

			chosen = b.ID

			return nil
		}

		branches, err := rd.ListBranches()
		if err != nil {
			return pkgerrors.Wrap(err, "list branches")
		}

		for _, b := range branches {
			if b.Active {
				chosen = b.ID
				return nil
			}
		}

		return ErrNoDefaultBranch
	})
	if err != nil {
		return "", err
	}

	return chosen, nil
}

// DetectDrift reports legacy roles without RBAC counterpart, RBAC roles without legacy
// counterpart, orphan roles and assignments held outside their role's branch. Everything
// is read in one transaction. It never modifies anything.
func (r *Reconciler) DetectDrift(ctx context.Context) (*DriftReport, error) {
	var (
		legacyRoles []models.LegacyRole
		rbacRoles   []models.RBACRole
		crossBranch []AssignmentRef
	)

	err := r.store.View(ctx, func(rd Reader) error {
		var err error

		if legacyRoles, err = rd.ListLegacyRoles(); err != nil {
			return pkgerrors.Wrap(err, "list legacy roles")
		}

		if rbacRoles, err = rd.ListRBACRoles(); err != nil {
			return pkgerrors.Wrap(err, "list rbac roles")
		}

		crossBranch, err = r.crossBranchAssignments(rd, rbacRoles)

		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "load roles")
	}

	rep := &DriftReport{
		RunID:             uuid.NewString(),
		GeneratedAt:       r.now(),
		LegacyWithoutRBAC: []RoleRef{},
		RBACWithoutLegacy: []RoleRef{},
		OrphanRoles:       []RoleRef{},
		CrossBranch:       crossBranch,
	}

	type key struct {
		name   string
		branch string
		global bool
	}

	keyOf := func(name string, branch *string) key {
		if branch == nil {
			return key{name: name, global: true}
		}

		return key{name: name, branch: *branch}
	}

	legacyKeys := make(map[key]struct{}, len(legacyRoles))
	for _, l := range legacyRoles {
		legacyKeys[keyOf(l.Name, l.BranchID)] = struct{}{}
	}

	rbacKeys := make(map[key]struct{}, len(rbacRoles))
	for _, rr := range rbacRoles {
		rbacKeys[keyOf(rr.RoleName, rr.BranchID)] = struct{}{}
	}

	matched := func(set map[key]struct{}, name string, branch *string) bool {
		if _, ok := set[keyOf(name, branch)]; ok {
			return true
		}

		if branch == nil {
			return false
		}

		_, ok := set[keyOf(name, nil)]

		return ok
	}

	for _, l := range legacyRoles {
		if !matched(rbacKeys, l.Name, l.BranchID) {
			rep.LegacyWithoutRBAC = append(rep.LegacyWithoutRBAC,
				RoleRef{Kind: "legacy", ID: l.ID, Name: l.Name, BranchID: derefBranch(l.BranchID)})
		}
	}

	for _, rr := range rbacRoles {
		if !matched(legacyKeys, rr.RoleName, rr.BranchID) {
			rep.RBACWithoutLegacy = append(rep.RBACWithoutLegacy,
				RoleRef{Kind: "rbac", ID: rr.ID, Name: rr.RoleName, BranchID: rr.Branch()})
		}

		if rr.IsOrphan() {
			rep.OrphanRoles = append(rep.OrphanRoles, RoleRef{Kind: "rbac", ID: rr.ID, Name: rr.RoleName})
		}
	}

	log.Info().Str("run_id", rep.RunID).Int("legacy_without_rbac", len(rep.LegacyWithoutRBAC)).
		Int("rbac_without_legacy", len(rep.RBACWithoutLegacy)).Int("orphan_roles", len(rep.OrphanRoles)).
		Int("cross_branch_assignments", len(rep.CrossBranch)).Msg("drift detection finished")

	return rep, nil
}

// crossBranchAssignments lists assignments of branch-scoped roles held under another
// branch or unscoped. The resolver ignores them; orphan repair leaves them behind.
func (r *Reconciler) crossBranchAssignments(rd Reader, roles []models.RBACRole) ([]AssignmentRef, error) {
	now := r.now()
	out := []AssignmentRef{}

	for _, role := range roles {
		if role.IsGlobal() {
			continue
		}

		assignments, err := rd.FindAssignmentsOfRole(role.ID)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "find assignments of role %d", role.ID)
		}

		for _, a := range assignments {
			if a.BranchID == role.Branch() {
				continue
			}

			out = append(out, AssignmentRef{
				ID:         a.ID,
				UserID:     a.UserID,
				RoleID:     role.ID,
				RoleName:   role.RoleName,
				RoleBranch: role.Branch(),
				BranchID:   a.BranchID,
				Expired:    a.Expired(now),
			})
		}
	}

	return out, nil
}

// ReconcileAll runs catalog sync, orphan repair, backfill and drift detection in that order.
// It stops at the first routine that fails or is interrupted.
func (r *Reconciler) ReconcileAll(ctx context.Context) (*Summary, error) {
	sum := &Summary{}

	for _, run := range []func(context.Context) (*Report, error){
		r.SyncRoleCatalog,
		r.RepairOrphanRoles,
		r.BackfillUserAssignments,
	} {
		rep, err := run(ctx)
		if rep != nil {
			sum.Reports = append(sum.Reports, rep)
		}

		if err != nil {
			return sum, err
		}
	}

	drift, err := r.DetectDrift(ctx)
	if err != nil {
		return sum, err
	}

	sum.Drift = drift

	return sum, nil
}
