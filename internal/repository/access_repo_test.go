package repository

import (
	"testing"

	"go-pos-rd/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAccess(t *testing.T, privs PrivilegeRepository, roles RoleRepository) {
	t.Helper()
	require.NoError(t, privs.SeedDefaults())
	require.NoError(t, roles.SeedDefaults())
}

func TestAccessSeeding_Idempotent(t *testing.T) {
	db := newTestDB(t)
	roles := NewRoleRepo(db)
	privs := NewPrivilegeRepo(db)

	seedAccess(t, privs, roles)
	seedAccess(t, privs, roles)

	allPrivs, err := privs.FindAll()
	require.NoError(t, err)
	assert.Len(t, allPrivs, len(model.DefaultPrivileges))

	allRoles, err := roles.FindAll()
	require.NoError(t, err)
	require.Len(t, allRoles, len(model.DefaultRoles))
	assert.Equal(t, model.RoleAdmin, allRoles[0].Code)
	assert.Empty(t, allRoles[0].Privileges)

	// The package-level catalogue is not touched by seeding.
	for _, p := range model.DefaultPrivileges {
		assert.Zero(t, p.ID)
	}
}

func TestRoleRepo_ReplacePrivileges(t *testing.T) {
	db := newTestDB(t)
	roles := NewRoleRepo(db)
	privs := NewPrivilegeRepo(db)
	seedAccess(t, privs, roles)

	cashier, err := roles.FindByCode(model.RoleCashier)
	require.NoError(t, err)

	granted, err := privs.FindByCodes(model.DefaultRolePrivileges[model.RoleCashier])
	require.NoError(t, err)
	require.Len(t, granted, len(model.DefaultRolePrivileges[model.RoleCashier]))
	require.NoError(t, roles.ReplacePrivileges(cashier, granted))

	got, err := roles.FindByID(cashier.ID)
	require.NoError(t, err)
	assert.Len(t, got.Privileges, len(granted))

	only, err := privs.FindByCodes([]string{model.PrivSaleCreate, "nope:nothing"})
	require.NoError(t, err)
	require.Len(t, only, 1)
	require.NoError(t, roles.ReplacePrivileges(got, only))

	got, err = roles.FindByCode(model.RoleCashier)
	require.NoError(t, err)
	require.Len(t, got.Privileges, 1)
	assert.Equal(t, model.PrivSaleCreate, got.Privileges[0].Code)

	none, err := privs.FindByCodes(nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = roles.FindByCode("OWNER")
	assert.True(t, IsNotFound(err))
}
