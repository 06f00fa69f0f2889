package rbac

const (
	PermCriteriaView   = "criteria:view"
	PermCriteriaManage = "criteria:manage"
	PermResultsManage  = "results:manage"
	PermStatsView      = "stats:view"
	PermEventsView     = "events:view"
)

// RolePermissions is the default role policy. A trailing "*" matches any
// permission with that prefix.
var RolePermissions = map[string][]string{
	"student": {},
	"ta": {
		PermCriteriaView,
		PermResultsManage,
	},
	"instructor": {
		"criteria:*",
		PermResultsManage,
		PermStatsView,
	},
	"admin": {
		"*", // everything
	},
}
