package guard

import (
	"github.com/gofiber/fiber/v2"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/rbac"
)

// Route maps a method and path pattern to the permission it requires.
type Route struct {
	Method     string
	Pattern    string
	Permission rbac.Permission
}

// Rule matches requests by path pattern and, optionally, method.
type Rule struct {
	// Methods restricts the rule; empty matches every method.
	Methods []string
	Pattern string
}

// resource builds the standard routes of a collection: list and show need read,
// create needs create, replace and patch need update, delete needs delete.
// A zero permission leaves the matching routes out.
func resource(base string, read, create, update, del rbac.Permission) []Route {
	var out []Route

	if read != "" {
		out = append(out,
			Route{fiber.MethodGet, base, read},
			Route{fiber.MethodGet, base + "/:id", read},
		)
	}

	if create != "" {
		out = append(out, Route{fiber.MethodPost, base, create})
	}

	if update != "" {
		out = append(out,
			Route{fiber.MethodPut, base + "/:id", update},
			Route{fiber.MethodPatch, base + "/:id", update},
		)
	}

	if del != "" {
		out = append(out, Route{fiber.MethodDelete, base + "/:id", del})
	}

	return out
}

func concat(groups ...[]Route) []Route {
	var out []Route
	for _, g := range groups {
		out = append(out, g...)
	}

	return out
}

// DefaultRoutes returns the route table of the API.
func DefaultRoutes() []Route {
	return concat(
		resource("/api/students", rbac.PermStudentsRead, rbac.PermStudentsCreate,
			rbac.PermStudentsUpdate, rbac.PermStudentsDelete),
		resource("/api/teachers", rbac.PermTeachersRead, rbac.PermTeachersCreate,
			rbac.PermTeachersUpdate, rbac.PermTeachersDelete),
		resource("/api/courses", rbac.PermCoursesRead, rbac.PermCoursesCreate,
			rbac.PermCoursesUpdate, rbac.PermCoursesDelete),
		resource("/api/grades", rbac.PermGradesRead, rbac.PermGradesCreate,
			rbac.PermGradesUpdate, rbac.PermGradesDelete),
		resource("/api/attendance", rbac.PermAttendanceRead, rbac.PermAttendanceCreate,
			rbac.PermAttendanceUpdate, rbac.PermAttendanceDelete),
		resource("/api/admissions", rbac.PermAdmissionsRead, rbac.PermAdmissionsCreate,
			rbac.PermAdmissionsUpdate, rbac.PermAdmissionsDelete),
		[]Route{{fiber.MethodPost, "/api/admissions/:id/approve", rbac.PermAdmissionsApprove}},
		resource("/api/finance", rbac.PermFinanceRead, rbac.PermFinanceCreate,
			rbac.PermFinanceUpdate, rbac.PermFinanceDelete),
		[]Route{{fiber.MethodPost, "/api/finance/:id/approve", rbac.PermFinanceApprove}},
		resource("/api/payroll", rbac.PermPayrollRead, rbac.PermPayrollCreate,
			rbac.PermPayrollUpdate, rbac.PermPayrollDelete),
		[]Route{{fiber.MethodPost, "/api/payroll/:id/approve", rbac.PermPayrollApprove}},
		resource("/api/library", rbac.PermLibraryRead, rbac.PermLibraryCreate,
			rbac.PermLibraryUpdate, rbac.PermLibraryDelete),
		resource("/api/announcements", rbac.PermAnnouncementsRead, rbac.PermAnnouncementsCreate,
			rbac.PermAnnouncementsUpdate, rbac.PermAnnouncementsDelete),
		resource("/api/messaging", rbac.PermMessagingRead, rbac.PermMessagingCreate, "", rbac.PermMessagingDelete),
		resource("/api/assignments", rbac.PermAssignmentsRead, rbac.PermAssignmentsCreate,
			rbac.PermAssignmentsUpdate, rbac.PermAssignmentsDelete),
		resource("/api/branches", rbac.PermBranchesRead, rbac.PermBranchesCreate,
			rbac.PermBranchesUpdate, rbac.PermBranchesDelete),
		[]Route{
			{fiber.MethodGet, "/api/analytics", rbac.PermAnalyticsRead},
			{fiber.MethodGet, "/api/analytics/*", rbac.PermAnalyticsRead},
		},
		resource("/api/reports", rbac.PermReportsRead, "", "", ""),
		[]Route{{fiber.MethodGet, "/api/reports/:id/export", rbac.PermReportsExport}},
		[]Route{
			{fiber.MethodGet, "/metrics", rbac.PermHealthRead},
			{fiber.MethodGet, "/api/health/details", rbac.PermHealthRead},
		},
		resource("/api/timetable", rbac.PermTimetableRead, rbac.PermTimetableCreate,
			rbac.PermTimetableUpdate, rbac.PermTimetableDelete),
		resource("/api/users", rbac.PermUsersRead, rbac.PermUsersCreate,
			rbac.PermUsersUpdate, rbac.PermUsersDelete),
		resource("/api/roles", rbac.PermRolesRead, rbac.PermRolesCreate,
			rbac.PermRolesUpdate, rbac.PermRolesDelete),
		[]Route{
			{fiber.MethodGet, "/api/users/:id/permissions", rbac.PermRolesRead},
			{fiber.MethodGet, "/api/users/:id/roles", rbac.PermRolesRead},
			{fiber.MethodPost, "/api/users/:id/roles", rbac.PermRolesAssign},
			{fiber.MethodDelete, "/api/users/:id/roles/:roleId", rbac.PermRolesAssign},
			{fiber.MethodGet, "/api/settings", rbac.PermSettingsRead},
			{fiber.MethodPut, "/api/settings", rbac.PermSettingsUpdate},
			{fiber.MethodGet, "/api/audit-logs", rbac.PermAuditRead},
			{fiber.MethodGet, "/api/backups", rbac.PermBackupRead},
			{fiber.MethodPost, "/api/backups", rbac.PermBackupCreate},
		},
	)
}

// DefaultPublic returns the routes reachable without a principal.
func DefaultPublic() []Rule {
	return []Rule{
		{Methods: []string{fiber.MethodPost}, Pattern: "/api/auth/login"},
		{Methods: []string{fiber.MethodPost}, Pattern: "/api/auth/register"},
		{Methods: []string{fiber.MethodPost}, Pattern: "/api/auth/refresh"},
		{Methods: []string{fiber.MethodGet}, Pattern: "/api/health"},
		{Methods: []string{fiber.MethodGet}, Pattern: "/api/docs/*"},
	}
}

// DefaultSuperadmin returns the routes reachable only by holders of the legacy wildcard.
func DefaultSuperadmin() []Rule {
	return []Rule{
		{Pattern: "/api/system/settings/*"},
		{Pattern: "/api/system/audit/*"},
		{Pattern: "/api/system/backup/*"},
		{
			Methods: []string{fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete},
			Pattern: "/api/branches/*",
		},
	}
}
