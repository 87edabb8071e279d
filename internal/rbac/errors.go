package rbac

import "errors"

var (
	// ErrPrincipalNotFound is returned when a user id does not resolve to a user.
	// The resolver never returns it; it reports ReasonPrincipalNotFound instead.
	ErrPrincipalNotFound = errors.New("principal not found")

	// ErrUnknownPermission is returned when a permission is not part of the catalog.
	ErrUnknownPermission = errors.New("unknown permission")

	// ErrInvalidPermission is returned when a permission name is not in "<resource>:<action>" format.
	ErrInvalidPermission = errors.New("invalid permission name")

	// ErrDuplicatePermission is returned when a catalog defines the same permission twice.
	ErrDuplicatePermission = errors.New("duplicate permission in catalog")

	// ErrBranchMismatch is returned when a branch-scoped role is assigned under another branch.
	ErrBranchMismatch = errors.New("role branch does not match assignment branch")

	// ErrDuplicateAssignment signals that the (user, role, branch) triple already exists.
	// Stores return it on unique-constraint conflicts; AssignRole turns it into a successful no-op.
	ErrDuplicateAssignment = errors.New("duplicate role assignment")

	// ErrOrphanRole marks an RBAC role without branch that is not a system role.
	ErrOrphanRole = errors.New("orphan role")

	// ErrDriftDetected reports divergence between the legacy and RBAC role systems.
	// It is informational and never affects authorization decisions.
	ErrDriftDetected = errors.New("legacy and rbac roles have drifted")

	// ErrRoleNotFound is returned when an RBAC role id does not resolve.
	ErrRoleNotFound = errors.New("role not found")

	// ErrBranchNotFound is returned when a branch id does not resolve.
	ErrBranchNotFound = errors.New("branch not found")

	// ErrNoDefaultBranch is returned when no active branch can serve as default branch.
	ErrNoDefaultBranch = errors.New("no active default branch")

	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("record not found")
)

// ErrExpiryInPast is returned when an assignment is requested with an expiry that already passed.
var ErrExpiryInPast = errors.New("assignment expiry is in the past")

// ErrUnknownRoutine is returned for reconciliation routine names that do not exist.
var ErrUnknownRoutine = errors.New("unknown reconciliation routine")
