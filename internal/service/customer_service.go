package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"go-pos-rd/internal/model"
	"go-pos-rd/internal/repository"
	"go-pos-rd/pkg/rnc"
)

type CustomerRequest struct {
	Name           string             `json:"name" validate:"required,max=255"`
	DocumentType   model.DocumentType `json:"document_type" validate:"omitempty,oneof=RNC CEDULA NONE"`
	DocumentNumber string             `json:"document_number" validate:"omitempty,rnc"`
	Email          string             `json:"email" validate:"omitempty,email"`
	Phone          string             `json:"phone" validate:"omitempty,phone_do"`
	Address        string             `json:"address" validate:"omitempty,max=1000"`
	CreditLimit    decimal.Decimal    `json:"credit_limit"`
	IsActive       *bool              `json:"is_active"`
}

type CustomerService interface {
	Create(req *CustomerRequest, actor Actor) (*model.Customer, error)
	Update(id uuid.UUID, req *CustomerRequest, actor Actor) (*model.Customer, error)
	Delete(id uuid.UUID, actor Actor) error
	Get(id uuid.UUID) (*model.Customer, error)
	List(filter repository.CustomerFilter) (model.Page[model.Customer], error)
}

type customerService struct {
	repo  repository.CustomerRepository
	audit AuditService
	log   *zap.Logger
}

func NewCustomerService(repo repository.CustomerRepository, audit AuditService, log *zap.Logger) CustomerService {
	return &customerService{repo: repo, audit: audit, log: log.Named("customers")}
}

// document resolves the stored document type and normalized number.
func document(req *CustomerRequest) (model.DocumentType, *string, error) {
	if strings.TrimSpace(req.DocumentNumber) == "" {
		if req.DocumentType != "" && req.DocumentType != model.DocNone {
			return "", nil, validationf("Indique el número de %s", req.DocumentType)
		}
		return model.DocNone, nil, nil
	}
	number, kind, err := rnc.Parse(req.DocumentNumber)
	if err != nil {
		return "", nil, ErrInvalidRnc
	}
	docType := model.DocRNC
	if kind == rnc.KindCedula {
		docType = model.DocCedula
	}
	if req.DocumentType != "" && req.DocumentType != model.DocNone && req.DocumentType != docType {
		return "", nil, validationf("El número indicado no corresponde a un %s", req.DocumentType)
	}
	return docType, &number, nil
}

func (s *customerService) ensureDocumentFree(number *string, self uuid.UUID) error {
	if number == nil {
		return nil
	}
	existing, err := s.repo.FindByDocument(*number)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != self {
		return ErrDocumentExists
	}
	return nil
}

func (s *customerService) Create(req *CustomerRequest, actor Actor) (*model.Customer, error) {
	docType, number, err := document(req)
	if err != nil {
		return nil, err
	}
	if req.CreditLimit.IsNegative() {
		return nil, validationf("El límite de crédito no puede ser negativo")
	}
	if err := s.ensureDocumentFree(number, uuid.Nil); err != nil {
		return nil, err
	}

	customer := &model.Customer{
		Name:           strings.TrimSpace(req.Name),
		DocumentType:   docType,
		DocumentNumber: number,
		Email:          strings.TrimSpace(req.Email),
		Phone:          req.Phone,
		Address:        strings.TrimSpace(req.Address),
		CreditLimit:    req.CreditLimit.Round(2),
		IsActive:       boolOr(req.IsActive, true),
	}
	customer.CreatedBy = actor.by()
	customer.UpdatedBy = actor.by()
	if err := s.repo.Create(customer); err != nil {
		if repository.IsDuplicate(err) {
			return nil, ErrDocumentExists
		}
		return nil, err
	}
	recordBestEffort(s.audit, s.log, actor, model.AuditCreate, "customer", customer.ID.String(), map[string]interface{}{
		"name":     customer.Name,
		"document": customer.DocumentNumber,
	})
	return customer, nil
}

func (s *customerService) Update(id uuid.UUID, req *CustomerRequest, actor Actor) (*model.Customer, error) {
	customer, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	docType, number, err := document(req)
	if err != nil {
		return nil, err
	}
	if req.CreditLimit.IsNegative() {
		return nil, validationf("El límite de crédito no puede ser negativo")
	}
	if err := s.ensureDocumentFree(number, id); err != nil {
		return nil, err
	}

	customer.Name = strings.TrimSpace(req.Name)
	customer.DocumentType = docType
	customer.DocumentNumber = number
	customer.Email = strings.TrimSpace(req.Email)
	customer.Phone = req.Phone
	customer.Address = strings.TrimSpace(req.Address)
	customer.CreditLimit = req.CreditLimit.Round(2)
	customer.IsActive = boolOr(req.IsActive, customer.IsActive)
	customer.UpdatedBy = actor.by()

	if err := s.repo.Update(customer); err != nil {
		if repository.IsDuplicate(err) {
			return nil, ErrDocumentExists
		}
		return nil, err
	}
	recordBestEffort(s.audit, s.log, actor, model.AuditUpdate, "customer", id.String(), map[string]interface{}{
		"name":         customer.Name,
		"credit_limit": customer.CreditLimit,
	})
	return customer, nil
}

func (s *customerService) Delete(id uuid.UUID, actor Actor) error {
	customer, err := s.Get(id)
	if err != nil {
		return err
	}
	if customer.Balance.IsPositive() {
		return conflictf("El cliente tiene un balance pendiente de %s", customer.Balance.StringFixed(2))
	}
	if err := s.repo.Delete(id, actor.by()); err != nil {
		return err
	}
	recordBestEffort(s.audit, s.log, actor, model.AuditDelete, "customer", id.String(), nil)
	return nil
}

func (s *customerService) Get(id uuid.UUID) (*model.Customer, error) {
	customer, err := s.repo.FindByID(nil, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return customer, nil
}

func (s *customerService) List(filter repository.CustomerFilter) (model.Page[model.Customer], error) {
	filter.Pagination = filter.Pagination.Normalize()
	if n := rnc.Normalize(filter.Query); len(n) >= 9 && rnc.IsValid(n) {
		filter.Query = n
	}
	customers, total, err := s.repo.List(filter)
	if err != nil {
		return model.Page[model.Customer]{}, err
	}
	return model.NewPage(customers, total, filter.Pagination.Page, filter.Pagination.Limit), nil
}
