package service

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultraval/secure-desk-api/internal/models"
)

func TestSuperadminHoldsEveryCapability(t *testing.T) {
	svc := NewCapabilityService()
	for role := range roleGrants {
		for _, capability := range roleGrants[role] {
			assert.True(t, svc.Has(models.RoleSuperAdmin, capability),
				"superadmin missing %s granted to %s", capability, role)
		}
	}
}

func TestOperatorCannotRebuildCounters(t *testing.T) {
	svc := NewCapabilityService()
	assert.True(t, svc.Has(models.RoleOperator, models.CapIncidentsCreate))
	assert.True(t, svc.Has(models.RoleOperator, models.CapQuincenaRead))
	assert.False(t, svc.Has(models.RoleOperator, models.CapQuincenaRebuild))
	assert.False(t, svc.Has(models.RoleOperator, models.CapUsersManage))
}

func TestFinanceGrants(t *testing.T) {
	svc := NewCapabilityService()
	assert.True(t, svc.Has(models.RoleFinance, models.CapPaymentsWrite))
	assert.True(t, svc.Has(models.RoleFinance, models.CapExportsCreate))
	assert.False(t, svc.Has(models.RoleFinance, models.CapIncidentsAssign))
	assert.False(t, svc.Has(models.RoleFinance, models.CapMovementsWrite))
}

func TestUnknownRoleCarriesNothing(t *testing.T) {
	svc := NewCapabilityService()
	assert.False(t, svc.Has(models.UserRole("GUEST"), models.CapIncidentsRead))
	assert.Nil(t, svc.Resolve(models.UserRole("GUEST")))
}

func TestResolveReturnsSortedSet(t *testing.T) {
	svc := NewCapabilityService()
	caps := svc.Resolve(models.RoleSupervisor)
	require.NotEmpty(t, caps)
	assert.True(t, sort.SliceIsSorted(caps, func(i, j int) bool { return caps[i] < caps[j] }))
	assert.Len(t, caps, len(roleGrants[models.RoleSupervisor]))
}
