package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-rd/internal/model"
)

func TestUserService_Lifecycle(t *testing.T) {
	f := newAuthFixture(t)
	svc := NewUserService(f.users, f.roles, f.audit, f.log)
	cashierRole, err := f.roles.FindByCode(model.RoleCashier)
	require.NoError(t, err)
	managerRole, err := f.roles.FindByCode(model.RoleManager)
	require.NoError(t, err)

	created, err := svc.CreateUser(&CreateUserRequest{
		Email:    " Caja2@Example.com ",
		Password: "secreto1",
		FullName: "Pedro Caja",
		RoleID:   cashierRole.ID,
	}, cashier)
	require.NoError(t, err)
	assert.Equal(t, "caja2@example.com", created.Email)
	assert.Equal(t, model.RoleCashier, created.RoleCode())
	assert.True(t, created.IsActive)

	_, err = svc.CreateUser(&CreateUserRequest{Email: "CAJA2@example.com", Password: "secreto1", FullName: "Otro", RoleID: cashierRole.ID}, cashier)
	assert.ErrorIs(t, err, ErrEmailExists)
	_, err = svc.CreateUser(&CreateUserRequest{Email: "nuevo@example.com", Password: "secreto1", FullName: "Otro", RoleID: 999}, cashier)
	assert.ErrorIs(t, err, ErrRoleNotFound)

	newPassword := "nueva123"
	inactive := false
	updated, err := svc.UpdateUser(created.ID, &UpdateUserRequest{
		Email:    "caja2@example.com",
		Password: &newPassword,
		FullName: "Pedro Supervisor",
		RoleID:   managerRole.ID,
		IsActive: &inactive,
	}, cashier)
	require.NoError(t, err)
	assert.Equal(t, model.RoleManager, updated.RoleCode())
	assert.False(t, updated.IsActive)
	assert.True(t, updated.CheckPassword("nueva123"))

	_, err = svc.UpdateUser(created.ID, &UpdateUserRequest{Email: DefaultAdmin.Email, FullName: "X", RoleID: managerRole.ID}, cashier)
	assert.ErrorIs(t, err, ErrEmailExists)

	all, err := svc.GetAllUsers()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, svc.DeleteUser(created.ID, cashier))
	_, err = svc.GetUserByID(created.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, svc.DeleteUser(uuid.New(), cashier), ErrUserNotFound)
}

func TestUserService_SelfProtection(t *testing.T) {
	f := newAuthFixture(t)
	svc := NewUserService(f.users, f.roles, f.audit, f.log)
	admin, err := f.users.FindByEmail(DefaultAdmin.Email)
	require.NoError(t, err)
	self := Actor{ID: admin.ID, Name: admin.FullName, Email: admin.Email}

	assert.ErrorIs(t, svc.DeleteUser(admin.ID, self), ErrCannotDeleteSelf)

	inactive := false
	_, err = svc.UpdateUser(admin.ID, &UpdateUserRequest{Email: admin.Email, FullName: admin.FullName, RoleID: *admin.RoleID, IsActive: &inactive}, self)
	assert.ErrorIs(t, err, ErrForbidden)
}
