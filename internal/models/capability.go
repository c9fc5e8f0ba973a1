package models

// Capability is a fine grained permission resolved from a role. Handlers and
// middleware check capabilities, never roles, so access rules live in exactly
// one table.
type Capability string

const (
	CapIncidentsRead   Capability = "incidents:read"
	CapIncidentsCreate Capability = "incidents:create"
	CapIncidentsAssign Capability = "incidents:assign"
	CapIncidentsClose  Capability = "incidents:close"
	CapQuincenaRead    Capability = "quincena:read"
	CapQuincenaRebuild Capability = "quincena:rebuild"
	CapRoomsManage     Capability = "rooms:manage"
	CapClassifyManage  Capability = "classifications:manage"
	CapUsersManage     Capability = "users:manage"
	CapPaymentsRead    Capability = "payments:read"
	CapPaymentsWrite   Capability = "payments:write"
	CapMovementsRead   Capability = "movements:read"
	CapMovementsWrite  Capability = "movements:write"
	CapReportsRead     Capability = "reports:read"
	CapExportsCreate   Capability = "exports:create"
)
