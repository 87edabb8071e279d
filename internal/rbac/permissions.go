package rbac

// Permission constants of the school-management catalog, grouped per resource.
// Route tables and handlers reference these constants instead of free-form strings,
// so a misspelt permission is a compile error rather than a silent deny.
const (
	// PermStudentsCreate allows enrolling students.
	PermStudentsCreate Permission = "students:create"
	// PermStudentsRead allows viewing student records.
	PermStudentsRead Permission = "students:read"
	// PermStudentsUpdate allows editing student records.
	PermStudentsUpdate Permission = "students:update"
	// PermStudentsDelete allows removing student records.
	PermStudentsDelete Permission = "students:delete"

	PermTeachersCreate Permission = "teachers:create"
	PermTeachersRead   Permission = "teachers:read"
	PermTeachersUpdate Permission = "teachers:update"
	PermTeachersDelete Permission = "teachers:delete"

	PermCoursesCreate Permission = "courses:create"
	PermCoursesRead   Permission = "courses:read"
	PermCoursesUpdate Permission = "courses:update"
	PermCoursesDelete Permission = "courses:delete"

	PermGradesCreate Permission = "grades:create"
	PermGradesRead   Permission = "grades:read"
	PermGradesUpdate Permission = "grades:update"
	PermGradesDelete Permission = "grades:delete"

	PermAttendanceCreate Permission = "attendance:create"
	PermAttendanceRead   Permission = "attendance:read"
	PermAttendanceUpdate Permission = "attendance:update"
	PermAttendanceDelete Permission = "attendance:delete"

	PermAdmissionsCreate  Permission = "admissions:create"
	PermAdmissionsRead    Permission = "admissions:read"
	PermAdmissionsUpdate  Permission = "admissions:update"
	PermAdmissionsDelete  Permission = "admissions:delete"
	PermAdmissionsApprove Permission = "admissions:approve"

	PermFinanceCreate Permission = "finance:create"
	PermFinanceRead   Permission = "finance:read"
	PermFinanceUpdate Permission = "finance:update"
	PermFinanceDelete Permission = "finance:delete"
	// PermFinanceApprove allows approving fee waivers and refunds.
	PermFinanceApprove Permission = "finance:approve"

	PermPayrollCreate  Permission = "payroll:create"
	PermPayrollRead    Permission = "payroll:read"
	PermPayrollUpdate  Permission = "payroll:update"
	PermPayrollDelete  Permission = "payroll:delete"
	PermPayrollApprove Permission = "payroll:approve"

	PermLibraryCreate Permission = "library:create"
	PermLibraryRead   Permission = "library:read"
	PermLibraryUpdate Permission = "library:update"
	PermLibraryDelete Permission = "library:delete"

	PermAnnouncementsCreate Permission = "announcements:create"
	PermAnnouncementsRead   Permission = "announcements:read"
	PermAnnouncementsUpdate Permission = "announcements:update"
	PermAnnouncementsDelete Permission = "announcements:delete"

	PermMessagingCreate Permission = "messaging:create"
	PermMessagingRead   Permission = "messaging:read"
	PermMessagingDelete Permission = "messaging:delete"

	PermAssignmentsCreate Permission = "assignments:create"
	PermAssignmentsRead   Permission = "assignments:read"
	PermAssignmentsUpdate Permission = "assignments:update"
	PermAssignmentsDelete Permission = "assignments:delete"

	PermBranchesCreate Permission = "branches:create"
	PermBranchesRead   Permission = "branches:read"
	PermBranchesUpdate Permission = "branches:update"
	PermBranchesDelete Permission = "branches:delete"

	PermAnalyticsRead Permission = "analytics:read"

	PermReportsRead   Permission = "reports:read"
	PermReportsExport Permission = "reports:export"

	// PermHealthRead allows reading service metrics. The plain health probe is public.
	PermHealthRead Permission = "health:read"

	PermTimetableCreate Permission = "timetable:create"
	PermTimetableRead   Permission = "timetable:read"
	PermTimetableUpdate Permission = "timetable:update"
	PermTimetableDelete Permission = "timetable:delete"

	PermUsersCreate Permission = "users:create"
	PermUsersRead   Permission = "users:read"
	PermUsersUpdate Permission = "users:update"
	PermUsersDelete Permission = "users:delete"

	PermRolesCreate Permission = "roles:create"
	PermRolesRead   Permission = "roles:read"
	PermRolesUpdate Permission = "roles:update"
	PermRolesDelete Permission = "roles:delete"
	// PermRolesAssign allows granting and revoking RBAC role assignments.
	PermRolesAssign Permission = "roles:assign"

	PermSettingsRead   Permission = "settings:read"
	PermSettingsUpdate Permission = "settings:update"

	PermAuditRead Permission = "audit:read"

	PermBackupCreate Permission = "backup:create"
	PermBackupRead   Permission = "backup:read"
)

// resourceGroups lists the resource groups of the catalog and their descriptions.
var resourceGroups = []struct {
	resource    string
	description string
	actions     []Permission
}{
	{"students", "student records", []Permission{PermStudentsCreate, PermStudentsRead, PermStudentsUpdate, PermStudentsDelete}},
	{"teachers", "teacher records", []Permission{PermTeachersCreate, PermTeachersRead, PermTeachersUpdate, PermTeachersDelete}},
	{"courses", "courses and classes", []Permission{PermCoursesCreate, PermCoursesRead, PermCoursesUpdate, PermCoursesDelete}},
	{"grades", "grades and exam results", []Permission{PermGradesCreate, PermGradesRead, PermGradesUpdate, PermGradesDelete}},
	{"attendance", "attendance records", []Permission{
		PermAttendanceCreate, PermAttendanceRead, PermAttendanceUpdate, PermAttendanceDelete,
	}},
	{"admissions", "admission applications", []Permission{
		PermAdmissionsCreate, PermAdmissionsRead, PermAdmissionsUpdate, PermAdmissionsDelete, PermAdmissionsApprove,
	}},
	{"finance", "fees, invoices and payments", []Permission{
		PermFinanceCreate, PermFinanceRead, PermFinanceUpdate, PermFinanceDelete, PermFinanceApprove,
	}},
	{"payroll", "staff payroll", []Permission{
		PermPayrollCreate, PermPayrollRead, PermPayrollUpdate, PermPayrollDelete, PermPayrollApprove,
	}},
	{"library", "library catalog and loans", []Permission{PermLibraryCreate, PermLibraryRead, PermLibraryUpdate, PermLibraryDelete}},
	{"announcements", "announcements", []Permission{
		PermAnnouncementsCreate, PermAnnouncementsRead, PermAnnouncementsUpdate, PermAnnouncementsDelete,
	}},
	{"messaging", "internal messages", []Permission{PermMessagingCreate, PermMessagingRead, PermMessagingDelete}},
	{"assignments", "homework assignments", []Permission{
		PermAssignmentsCreate, PermAssignmentsRead, PermAssignmentsUpdate, PermAssignmentsDelete,
	}},
	{"branches", "school branches", []Permission{PermBranchesCreate, PermBranchesRead, PermBranchesUpdate, PermBranchesDelete}},
	{"analytics", "dashboards and analytics", []Permission{PermAnalyticsRead}},
	{"reports", "generated reports", []Permission{PermReportsRead, PermReportsExport}},
	{"health", "service metrics", []Permission{PermHealthRead}},
	{"timetable", "timetables", []Permission{PermTimetableCreate, PermTimetableRead, PermTimetableUpdate, PermTimetableDelete}},
	{"users", "user accounts", []Permission{PermUsersCreate, PermUsersRead, PermUsersUpdate, PermUsersDelete}},
	{"roles", "roles and role assignments", []Permission{
		PermRolesCreate, PermRolesRead, PermRolesUpdate, PermRolesDelete, PermRolesAssign,
	}},
	{"settings", "system settings", []Permission{PermSettingsRead, PermSettingsUpdate}},
	{"audit", "audit and drift reports", []Permission{PermAuditRead}},
	{"backup", "backups", []Permission{PermBackupCreate, PermBackupRead}},
}
