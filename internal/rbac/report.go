package rbac

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Routine names a reconciliation routine.
type Routine string

const (
	RoutineSyncRoleCatalog Routine = "sync-roles"
	RoutineBackfill        Routine = "backfill"
	RoutineRepairOrphans   Routine = "repair-orphans"
	RoutineDetectDrift     Routine = "drift"
	// RoutineAll runs every routine in order. It names a job, never a report.
	RoutineAll Routine = "all"
)

// Routines lists the routine names accepted by job and CLI entry points.
func Routines() []Routine {
	return []Routine{RoutineSyncRoleCatalog, RoutineBackfill, RoutineRepairOrphans, RoutineDetectDrift, RoutineAll}
}

// ParseRoutine returns the routine named s.
func ParseRoutine(s string) (Routine, error) {
	for _, r := range Routines() {
		if string(r) == s {
			return r, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownRoutine, s)
}

// ItemKind classifies one report entry.
type ItemKind string

const (
	ItemCreated           ItemKind = "created"
	ItemUpdated           ItemKind = "updated"
	ItemUnchanged         ItemKind = "unchanged"
	ItemSkipped           ItemKind = "skipped"
	ItemUnknownPermission ItemKind = "unknown_permission"
	ItemBranchMismatch    ItemKind = "branch_mismatch"
	ItemNoCounterpart     ItemKind = "no_counterpart"
	ItemNoDefaultBranch   ItemKind = "no_default_branch"
)

// ReportItem is one entry of a reconciliation report.
type ReportItem struct {
	Kind    ItemKind `json:"kind" yaml:"kind" toml:"kind"`
	Subject string   `json:"subject" yaml:"subject" toml:"subject"`
	Detail  string   `json:"detail,omitempty" yaml:"detail,omitempty" toml:"detail,omitempty"`
}

// Report summarizes one run of a mutating reconciliation routine.
type Report struct {
	RunID       string       `json:"run_id" yaml:"run_id" toml:"run_id"`
	Routine     Routine      `json:"routine" yaml:"routine" toml:"routine"`
	StartedAt   time.Time    `json:"started_at" yaml:"started_at" toml:"started_at"`
	FinishedAt  time.Time    `json:"finished_at" yaml:"finished_at" toml:"finished_at"`
	Created     int          `json:"created" yaml:"created" toml:"created"`
	Updated     int          `json:"updated" yaml:"updated" toml:"updated"`
	Unchanged   int          `json:"unchanged" yaml:"unchanged" toml:"unchanged"`
	Skipped     int          `json:"skipped" yaml:"skipped" toml:"skipped"`
	Interrupted bool         `json:"interrupted" yaml:"interrupted" toml:"interrupted"`
	Items       []ReportItem `json:"items" yaml:"items" toml:"items"`
}

func newReport(routine Routine, now time.Time) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Routine:   routine,
		StartedAt: now,
		Items:     []ReportItem{},
	}
}

// add records an item and bumps the matching counter.
func (r *Report) add(kind ItemKind, subject, detail string) {
	switch kind {
	case ItemCreated:
		r.Created++
	case ItemUpdated:
		r.Updated++
	case ItemUnchanged:
		r.Unchanged++
	case ItemUnknownPermission:
	default:
		r.Skipped++
	}

	r.Items = append(r.Items, ReportItem{Kind: kind, Subject: subject, Detail: detail})
	reconcileCounter.WithLabelValues(string(r.Routine), string(kind)).Inc()
}

// Changed reports whether the run modified any record.
func (r *Report) Changed() bool {
	return r.Created > 0 || r.Updated > 0
}

// RoleRef identifies a role by id, name and branch.
type RoleRef struct {
	Kind     string `json:"kind" yaml:"kind" toml:"kind"`
	ID       uint   `json:"id" yaml:"id" toml:"id"`
	Name     string `json:"name" yaml:"name" toml:"name"`
	BranchID string `json:"branch_id,omitempty" yaml:"branch_id,omitempty" toml:"branch_id,omitempty"`
}

// DriftReport lists the divergences between the legacy and RBAC role systems.
type DriftReport struct {
	RunID             string    `json:"run_id" yaml:"run_id" toml:"run_id"`
	GeneratedAt       time.Time `json:"generated_at" yaml:"generated_at" toml:"generated_at"`
	LegacyWithoutRBAC []RoleRef `json:"legacy_without_rbac" yaml:"legacy_without_rbac" toml:"legacy_without_rbac"`
	RBACWithoutLegacy []RoleRef `json:"rbac_without_legacy" yaml:"rbac_without_legacy" toml:"rbac_without_legacy"`
	OrphanRoles       []RoleRef `json:"orphan_roles" yaml:"orphan_roles" toml:"orphan_roles"`

	// CrossBranch lists assignments held outside the branch of their role.
	CrossBranch []AssignmentRef `json:"cross_branch_assignments" yaml:"cross_branch_assignments" toml:"cross_branch_assignments"`
}

// AssignmentRef identifies an assignment together with its role.
type AssignmentRef struct {
	ID         uint64 `json:"id" yaml:"id" toml:"id"`
	UserID     uint64 `json:"user_id" yaml:"user_id" toml:"user_id"`
	RoleID     uint   `json:"role_id" yaml:"role_id" toml:"role_id"`
	RoleName   string `json:"role_name" yaml:"role_name" toml:"role_name"`
	RoleBranch string `json:"role_branch" yaml:"role_branch" toml:"role_branch"`
	BranchID   string `json:"branch_id" yaml:"branch_id" toml:"branch_id"`
	Expired    bool   `json:"expired" yaml:"expired" toml:"expired"`
}

// HasDrift reports whether any divergence, orphan or cross-branch assignment was found.
func (d *DriftReport) HasDrift() bool {
	return len(d.LegacyWithoutRBAC) > 0 || len(d.RBACWithoutLegacy) > 0 || len(d.OrphanRoles) > 0 ||
		len(d.CrossBranch) > 0
}

// Err returns ErrDriftDetected when the report is not clean.
func (d *DriftReport) Err() error {
	if d.HasDrift() {
		return ErrDriftDetected
	}

	return nil
}

// Summary collects the reports of ReconcileAll.
type Summary struct {
	Reports []*Report    `json:"reports" yaml:"reports" toml:"reports"`
	Drift   *DriftReport `json:"drift,omitempty" yaml:"drift,omitempty" toml:"drift,omitempty"`
}
