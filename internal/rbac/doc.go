// Package rbac implements branch-scoped authorization for the school-management system.
//
// Two role systems coexist and are merged behind one resolver:
//   - the legacy model, where every user holds exactly one LegacyRole with a list of
//     permission names (the entry "*" grants the whole catalog), and
//   - the RBAC model, where users hold any number of RoleAssignments to RBACRoles, each
//     assignment scoped to a branch. Roles without branch are global.
//
// # Resolution
//
// Resolver.Resolve unions the legacy permission set with the permission sets of every
// live assignment whose branch equals the request branch, plus every assignment of a
// global role. Grants are only ever added, so an extra assignment never reduces access.
// Without a branch context only the legacy role and global roles apply.
//
// Denials are values (Decision.Reason), never errors. An error from Resolve means the
// store failed and must be treated as a denial.
//
// # Reconciliation
//
// Reconciler bridges the two systems:
//   - SyncRoleCatalog creates RBAC counterparts of legacy roles.
//   - BackfillUserAssignments assigns those counterparts to users.
//   - RepairOrphanRoles scopes orphan roles to the default branch.
//   - DetectDrift reports differences without fixing them.
//
// All routines can be re-run safely.
package rbac
