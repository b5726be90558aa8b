package service

import (
	"go.uber.org/zap"

	"go-pos-rd/internal/model"
	"go-pos-rd/internal/repository"
)

// AdminSeed is the account created when no user with Email exists yet.
type AdminSeed struct {
	Email    string
	Password string
	FullName string
}

var DefaultAdmin = AdminSeed{
	Email:    "admin@example.com",
	Password: "admin123",
	FullName: "Administrador",
}

// SeedAccessControl creates the default privileges and roles, grants each
// seeded role its privileges when it has none, and creates the admin user.
// It is safe to run on every start.
func SeedAccessControl(privilegeRepo repository.PrivilegeRepository, roleRepo repository.RoleRepository, userRepo repository.UserRepository, admin AdminSeed, log *zap.Logger) error {
	// 1. Privileges and roles
	if err := privilegeRepo.SeedDefaults(); err != nil {
		return err
	}
	if err := roleRepo.SeedDefaults(); err != nil {
		return err
	}

	// 2. Role grants
	all, err := privilegeRepo.FindAll()
	if err != nil {
		return err
	}
	for _, def := range model.DefaultRoles {
		role, err := roleRepo.FindByCode(def.Code)
		if err != nil {
			return err
		}
		if len(role.Privileges) > 0 {
			continue
		}
		grant := all
		if def.Code != model.RoleAdmin {
			grant, err = privilegeRepo.FindByCodes(model.DefaultRolePrivileges[def.Code])
			if err != nil {
				return err
			}
		}
		if err := roleRepo.ReplacePrivileges(role, grant); err != nil {
			return err
		}
		log.Info("role privileges assigned", zap.String("role", def.Code), zap.Int("privileges", len(grant)))
	}

	// 3. Admin user
	if _, err := userRepo.FindByEmail(admin.Email); err == nil {
		return nil
	} else if !repository.IsNotFound(err) {
		return err
	}
	adminRole, err := roleRepo.FindByCode(model.RoleAdmin)
	if err != nil {
		return err
	}
	user := &model.User{
		Email:    admin.Email,
		FullName: admin.FullName,
		RoleID:   &adminRole.ID,
		IsActive: true,
	}
	user.CreatedBy = "system"
	user.UpdatedBy = "system"
	if err := user.SetPassword(admin.Password); err != nil {
		return err
	}
	if err := userRepo.Create(user); err != nil {
		return err
	}
	log.Warn("default admin user created, change its password", zap.String("email", admin.Email))
	return nil
}
