package auth

// Roles a user can hold.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleFinance = "finance"
	RoleViewer  = "viewer"
)

// Actions checked by the permission middleware.
const (
	ProjectCreate  = "project.create"
	ProjectUpdate  = "project.update"
	ProjectDelete  = "project.delete"
	ProjectRestore = "project.restore"
	ProjectPurge   = "project.purge"
	ProjectClose   = "project.close"
	ProjectLock    = "project.lock"

	FinanceRead  = "finance.read"
	FinanceWrite = "finance.write"

	NotificationScan = "notification.scan"
	SettingsManage   = "settings.manage"
	ReportExport     = "report.export"
	AIAsk            = "ai.ask"
)

var permissions = map[string][]string{
	RoleAdmin: {
		ProjectCreate, ProjectUpdate, ProjectDelete, ProjectRestore, ProjectPurge, ProjectClose, ProjectLock,
		FinanceRead, FinanceWrite, NotificationScan, SettingsManage, ReportExport, AIAsk,
	},
	RoleManager: {
		ProjectCreate, ProjectUpdate, ProjectDelete, ProjectRestore, ProjectClose, ProjectLock,
		FinanceRead, FinanceWrite, ReportExport, AIAsk,
	},
	RoleFinance: {FinanceRead, FinanceWrite, ReportExport, AIAsk},
	RoleViewer:  {FinanceRead},
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	_, ok := permissions[role]
	return ok
}

// Can reports whether role may perform action.
func Can(role, action string) bool {
	for _, a := range permissions[role] {
		if a == action {
			return true
		}
	}
	return false
}
