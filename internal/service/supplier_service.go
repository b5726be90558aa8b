package service

import (
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-pos-rd/internal/model"
	"go-pos-rd/internal/repository"
	"go-pos-rd/pkg/rnc"
)

type SupplierRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	RNC         string `json:"rnc" validate:"required,rnc"`
	ContactName string `json:"contact_name" validate:"omitempty,max=255"`
	Phone       string `json:"phone" validate:"omitempty,phone_do"`
	Email       string `json:"email" validate:"omitempty,email"`
	Address     string `json:"address" validate:"omitempty,max=1000"`
	IsActive    *bool  `json:"is_active"`
}

type SupplierService interface {
	Create(req *SupplierRequest, actor Actor) (*model.Supplier, error)
	Update(id uuid.UUID, req *SupplierRequest, actor Actor) (*model.Supplier, error)
	Delete(id uuid.UUID, actor Actor) error
	Get(id uuid.UUID) (*model.Supplier, error)
	List(query string, p model.Pagination) (model.Page[model.Supplier], error)
}

type supplierService struct {
	repo  repository.SupplierRepository
	audit AuditService
	log   *zap.Logger
}

func NewSupplierService(repo repository.SupplierRepository, audit AuditService, log *zap.Logger) SupplierService {
	return &supplierService{repo: repo, audit: audit, log: log.Named("suppliers")}
}

func (s *supplierService) ensureRNCFree(number string, self uuid.UUID) error {
	existing, err := s.repo.FindByRNC(number)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != self {
		return ErrSupplierExists
	}
	return nil
}

func (s *supplierService) Create(req *SupplierRequest, actor Actor) (*model.Supplier, error) {
	number, _, err := rnc.Parse(req.RNC)
	if err != nil {
		return nil, ErrInvalidRnc
	}
	if err := s.ensureRNCFree(number, uuid.Nil); err != nil {
		return nil, err
	}

	supplier := &model.Supplier{
		Name:        strings.TrimSpace(req.Name),
		RNC:         number,
		ContactName: strings.TrimSpace(req.ContactName),
		Phone:       req.Phone,
		Email:       strings.TrimSpace(req.Email),
		Address:     strings.TrimSpace(req.Address),
		IsActive:    boolOr(req.IsActive, true),
	}
	supplier.CreatedBy = actor.by()
	supplier.UpdatedBy = actor.by()
	if err := s.repo.Create(supplier); err != nil {
		if repository.IsDuplicate(err) {
			return nil, ErrSupplierExists
		}
		return nil, err
	}
	recordBestEffort(s.audit, s.log, actor, model.AuditCreate, "supplier", supplier.ID.String(), map[string]interface{}{
		"name": supplier.Name,
		"rnc":  supplier.RNC,
	})
	return supplier, nil
}

func (s *supplierService) Update(id uuid.UUID, req *SupplierRequest, actor Actor) (*model.Supplier, error) {
	supplier, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	number, _, err := rnc.Parse(req.RNC)
	if err != nil {
		return nil, ErrInvalidRnc
	}
	if err := s.ensureRNCFree(number, id); err != nil {
		return nil, err
	}

	supplier.Name = strings.TrimSpace(req.Name)
	supplier.RNC = number
	supplier.ContactName = strings.TrimSpace(req.ContactName)
	supplier.Phone = req.Phone
	supplier.Email = strings.TrimSpace(req.Email)
	supplier.Address = strings.TrimSpace(req.Address)
	supplier.IsActive = boolOr(req.IsActive, supplier.IsActive)
	supplier.UpdatedBy = actor.by()
	if err := s.repo.Update(supplier); err != nil {
		if repository.IsDuplicate(err) {
			return nil, ErrSupplierExists
		}
		return nil, err
	}
	recordBestEffort(s.audit, s.log, actor, model.AuditUpdate, "supplier", id.String(), map[string]interface{}{"name": supplier.Name})
	return supplier, nil
}

func (s *supplierService) Delete(id uuid.UUID, actor Actor) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	open, err := s.repo.CountOpenOrders(id)
	if err != nil {
		return err
	}
	if open > 0 {
		return ErrSupplierInUse
	}
	if err := s.repo.Delete(id, actor.by()); err != nil {
		return err
	}
	recordBestEffort(s.audit, s.log, actor, model.AuditDelete, "supplier", id.String(), nil)
	return nil
}

func (s *supplierService) Get(id uuid.UUID) (*model.Supplier, error) {
	supplier, err := s.repo.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrSupplierNotFound
		}
		return nil, err
	}
	return supplier, nil
}

func (s *supplierService) List(query string, p model.Pagination) (model.Page[model.Supplier], error) {
	p = p.Normalize()
	suppliers, total, err := s.repo.List(query, p)
	if err != nil {
		return model.Page[model.Supplier]{}, err
	}
	return model.NewPage(suppliers, total, p.Page, p.Limit), nil
}
