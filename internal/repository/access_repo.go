package repository

import (
	"go-pos-rd/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PrivilegeRepository reads the fixed privilege catalogue.
type PrivilegeRepository interface {
	FindAll() ([]model.Privilege, error)
	// FindByCodes ignores codes that do not exist.
	FindByCodes(codes []string) ([]model.Privilege, error)
	SeedDefaults() error
}

type RoleRepository interface {
	FindAll() ([]model.Role, error)
	FindByID(id uint) (*model.Role, error)
	FindByCode(code string) (*model.Role, error)
	ReplacePrivileges(role *model.Role, privileges []model.Privilege) error
	SeedDefaults() error
}

type privilegeRepo struct {
	db *gorm.DB
}

func NewPrivilegeRepo(db *gorm.DB) PrivilegeRepository {
	return &privilegeRepo{db: db}
}

func (r *privilegeRepo) FindAll() ([]model.Privilege, error) {
	var privileges []model.Privilege
	err := r.db.Order("id").Find(&privileges).Error
	return privileges, err
}

func (r *privilegeRepo) FindByCodes(codes []string) ([]model.Privilege, error) {
	privileges := []model.Privilege{}
	if len(codes) == 0 {
		return privileges, nil
	}
	err := r.db.Where("code IN ?", codes).Order("id").Find(&privileges).Error
	return privileges, err
}

// SeedDefaults inserts the catalogue, skipping codes already present.
func (r *privilegeRepo) SeedDefaults() error {
	rows := append([]model.Privilege(nil), model.DefaultPrivileges...)
	return insertMissing(r.db, &rows)
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) withPrivileges() *gorm.DB {
	return r.db.Preload("Privileges", func(db *gorm.DB) *gorm.DB { return db.Order("privileges.id") })
}

func (r *roleRepo) FindAll() ([]model.Role, error) {
	var roles []model.Role
	err := r.withPrivileges().Order("id").Find(&roles).Error
	return roles, err
}

func (r *roleRepo) FindByID(id uint) (*model.Role, error) {
	var role model.Role
	if err := r.withPrivileges().First(&role, id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) FindByCode(code string) (*model.Role, error) {
	var role model.Role
	if err := r.withPrivileges().Where("code = ?", code).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// ReplacePrivileges swaps the role's grants in one transaction.
func (r *roleRepo) ReplacePrivileges(role *model.Role, privileges []model.Privilege) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(role).Association("Privileges").Replace(privileges); err != nil {
			return err
		}
		role.Privileges = privileges
		return nil
	})
}

// SeedDefaults inserts the four built-in roles without grants; bootstrap
// assigns privileges only to roles that have none.
func (r *roleRepo) SeedDefaults() error {
	rows := make([]model.Role, len(model.DefaultRoles))
	for i, def := range model.DefaultRoles {
		rows[i] = model.Role{Code: def.Code, Name: def.Name, Description: def.Description}
	}
	return insertMissing(r.db, &rows)
}

// insertMissing batch-inserts rows keyed by a unique code column.
func insertMissing(db *gorm.DB, rows interface{}) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(rows).Error
}
