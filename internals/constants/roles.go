package constants

import "fmt"

const (
	RoleScheduler   = "scheduler"
	RoleSecretariat = "secretariat"
	RoleAdmin       = "admin"
	RoleSysadmin    = "sysadmin"
	RoleProfessor   = "professor"
	RoleStudent     = "student"
)

// Role error message templates
const (
	ErrOnlySchedulersCanAccess = "only scheduler, secretariat or admin roles may use %s"
	ErrOnlyEditorsCanAccess    = "only secretariat or admin roles may use %s"
)

func RoleErrorScheduler(feature string) string {
	return fmt.Sprintf(ErrOnlySchedulersCanAccess, feature)
}

func RoleErrorEditor(feature string) string {
	return fmt.Sprintf(ErrOnlyEditorsCanAccess, feature)
}

// ==========================
// Grouped role slices
// ==========================
var (
	AllRoles = []string{
		RoleScheduler,
		RoleSecretariat,
		RoleAdmin,
		RoleSysadmin,
		RoleProfessor,
		RoleStudent,
	}

	// may start generation jobs and maintain availability
	SchedulerRoles = []string{
		RoleScheduler,
		RoleSecretariat,
		RoleAdmin,
		RoleSysadmin,
	}

	// may edit generated entries
	EditorRoles = []string{
		RoleSecretariat,
		RoleAdmin,
		RoleSysadmin,
	}
)
