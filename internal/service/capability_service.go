package service

import (
	"sort"

	"github.com/ultraval/secure-desk-api/internal/models"
)

// roleGrants is the single source of truth for role permissions. Every
// access decision in the API resolves through this table.
var roleGrants = map[models.UserRole][]models.Capability{
	models.RoleSuperAdmin: {
		models.CapIncidentsRead, models.CapIncidentsCreate, models.CapIncidentsAssign, models.CapIncidentsClose,
		models.CapQuincenaRead, models.CapQuincenaRebuild,
		models.CapRoomsManage, models.CapClassifyManage, models.CapUsersManage,
		models.CapPaymentsRead, models.CapPaymentsWrite,
		models.CapMovementsRead, models.CapMovementsWrite,
		models.CapReportsRead, models.CapExportsCreate,
	},
	models.RoleSupervisor: {
		models.CapIncidentsRead, models.CapIncidentsCreate, models.CapIncidentsAssign, models.CapIncidentsClose,
		models.CapQuincenaRead, models.CapQuincenaRebuild,
		models.CapRoomsManage, models.CapClassifyManage,
		models.CapPaymentsRead, models.CapMovementsRead,
		models.CapReportsRead, models.CapExportsCreate,
	},
	models.RoleOperator: {
		models.CapIncidentsRead, models.CapIncidentsCreate,
		models.CapQuincenaRead,
		models.CapMovementsRead,
		models.CapReportsRead,
	},
	models.RoleFinance: {
		models.CapIncidentsRead,
		models.CapQuincenaRead,
		models.CapPaymentsRead, models.CapPaymentsWrite,
		models.CapReportsRead, models.CapExportsCreate,
	},
	models.RoleHR: {
		models.CapIncidentsRead,
		models.CapQuincenaRead,
		models.CapReportsRead, models.CapExportsCreate,
	},
	models.RoleMaintenance: {
		models.CapIncidentsRead,
		models.CapMovementsRead, models.CapMovementsWrite,
	},
}

// CapabilityService resolves roles into capability sets.
type CapabilityService struct {
	grants map[models.UserRole]map[models.Capability]struct{}
}

// NewCapabilityService builds the lookup index from the grant table.
func NewCapabilityService() *CapabilityService {
	grants := make(map[models.UserRole]map[models.Capability]struct{}, len(roleGrants))
	for role, caps := range roleGrants {
		set := make(map[models.Capability]struct{}, len(caps))
		for _, c := range caps {
			set[c] = struct{}{}
		}
		grants[role] = set
	}
	return &CapabilityService{grants: grants}
}

// Has reports whether the role carries the capability. Unknown roles carry
// nothing.
func (s *CapabilityService) Has(role models.UserRole, capability models.Capability) bool {
	set, ok := s.grants[role]
	if !ok {
		return false
	}
	_, ok = set[capability]
	return ok
}

// Resolve returns the sorted capability list for a role.
func (s *CapabilityService) Resolve(role models.UserRole) []models.Capability {
	set, ok := s.grants[role]
	if !ok {
		return nil
	}
	caps := make([]models.Capability, 0, len(set))
	for c := range set {
		caps = append(caps, c)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}
