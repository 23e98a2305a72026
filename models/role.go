package models

// Capabilities is the permission set a role resolves to.
// Every role check in the service goes through CapabilitiesFor.
type Capabilities struct {
	// ViewReports gates the report endpoint as a whole.
	ViewReports bool
	// ViewAuditLogs gates the audit report body.
	ViewAuditLogs bool
	// CrossCompany callers may read any company (optionally narrowed by an explicit company id).
	// Callers without it are pinned to their own company.
	CrossCompany bool
	// CompanyBreakdown adds per-company revenue to the sales report.
	CompanyBreakdown bool
}

var roleCapabilities = map[UserRole]Capabilities{
	UserRoleSuperAdmin: {
		ViewReports:      true,
		ViewAuditLogs:    true,
		CrossCompany:     true,
		CompanyBreakdown: true,
	},
	UserRoleAccountAdmin: {
		ViewReports: true,
	},
	UserRoleOperation: {
		ViewReports:  true,
		CrossCompany: true,
	},
	UserRoleBuyer: {},
}

// CapabilitiesFor returns the zero set for unknown roles.
func CapabilitiesFor(role UserRole) Capabilities {
	return roleCapabilities[role]
}
