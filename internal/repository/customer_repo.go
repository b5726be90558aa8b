package repository

import (
	"time"

	"go-pos-rd/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CustomerFilter struct {
	Query      string
	ActiveOnly bool
	Pagination model.Pagination
}

type CustomerRepository interface {
	Create(customer *model.Customer) error
	Update(customer *model.Customer) error
	Delete(id uuid.UUID, deletedBy string) error
	FindByID(tx *gorm.DB, id uuid.UUID) (*model.Customer, error)
	FindByDocument(number string) (*model.Customer, error)
	List(filter CustomerFilter) ([]model.Customer, int64, error)
	// FindReachable returns active customers with a phone number, limited to
	// ids when ids is non-empty.
	FindReachable(ids []uuid.UUID) ([]model.Customer, error)
	// AddCredit raises the balance by amount only if it stays within the
	// credit limit; ErrCreditLimit otherwise.
	AddCredit(tx *gorm.DB, id uuid.UUID, amount decimal.Decimal) error
	AdjustBalance(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error
	Count() (int64, error)
}

type customerRepo struct {
	db *gorm.DB
}

func NewCustomerRepo(db *gorm.DB) CustomerRepository {
	return &customerRepo{db}
}

func (r *customerRepo) Create(customer *model.Customer) error {
	return r.db.Create(customer).Error
}

func (r *customerRepo) Update(customer *model.Customer) error {
	return r.db.Save(customer).Error
}

func (r *customerRepo) Delete(id uuid.UUID, deletedBy string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Customer{}).Where("id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Customer{}, "id = ?", id).Error
	})
}

func (r *customerRepo) FindByID(tx *gorm.DB, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	if err := conn(r.db, tx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepo) FindByDocument(number string) (*model.Customer, error) {
	var customer model.Customer
	if err := r.db.First(&customer, "document_number = ?", number).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepo) List(f CustomerFilter) ([]model.Customer, int64, error) {
	p := f.Pagination.Normalize()
	q := r.db.Model(&model.Customer{})
	if f.Query != "" {
		like := likePattern(f.Query)
		q = q.Where("(LOWER(name) LIKE ? OR document_number LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?)", like, like, like, like)
	}
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var customers []model.Customer
	err := q.Order("name").Offset(p.Offset()).Limit(p.Limit).Find(&customers).Error
	return customers, total, err
}

func (r *customerRepo) FindReachable(ids []uuid.UUID) ([]model.Customer, error) {
	q := r.db.Where("is_active = ? AND phone IS NOT NULL AND phone <> ''", true)
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	var customers []model.Customer
	err := q.Order("name").Find(&customers).Error
	return customers, err
}

func (r *customerRepo) AddCredit(tx *gorm.DB, id uuid.UUID, amount decimal.Decimal) error {
	res := conn(r.db, tx).Model(&model.Customer{}).
		Where("id = ? AND credit_limit > 0 AND balance + ? <= credit_limit", id, amount).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance + ?", amount),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCreditLimit
	}
	return nil
}

func (r *customerRepo) AdjustBalance(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	return conn(r.db, tx).Model(&model.Customer{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance + ?", delta),
			"updated_at": time.Now(),
		}).Error
}

func (r *customerRepo) Count() (int64, error) {
	var n int64
	err := r.db.Model(&model.Customer{}).Where("is_active = ?", true).Count(&n).Error
	return n, err
}
