package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-pos-rd/internal/model"
	"go-pos-rd/internal/repository"
	"go-pos-rd/internal/ws"
)

type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"omitempty,max=1000"`
}

type ProductRequest struct {
	SKU        string          `json:"sku" validate:"required,max=50"`
	Barcode    string          `json:"barcode" validate:"omitempty,max=64"`
	Name       string          `json:"name" validate:"required,max=255"`
	CategoryID *uuid.UUID      `json:"category_id"`
	Price      decimal.Decimal `json:"price"`
	Cost       decimal.Decimal `json:"cost"`
	Stock      int             `json:"stock" validate:"gte=0"` // initial stock, create only
	MinStock   int             `json:"min_stock" validate:"gte=0"`
	Unit       string          `json:"unit" validate:"omitempty,max=20"`
	Taxable    *bool           `json:"taxable"`
	IsActive   *bool           `json:"is_active"`
}

type CatalogService interface {
	CreateCategory(req *CategoryRequest, actor Actor) (*model.Category, error)
	UpdateCategory(id uuid.UUID, req *CategoryRequest, actor Actor) (*model.Category, error)
	DeleteCategory(id uuid.UUID, actor Actor) error
	ListCategories() ([]model.Category, error)

	CreateProduct(req *ProductRequest, actor Actor) (*model.Product, error)
	UpdateProduct(id uuid.UUID, req *ProductRequest, actor Actor) (*model.Product, error)
	DeleteProduct(id uuid.UUID, actor Actor) error
	GetProduct(id uuid.UUID) (*model.Product, error)
	GetProductByBarcode(code string) (*model.Product, error)
	ListProducts(filter repository.ProductFilter) (model.Page[model.Product], error)
}

type catalogService struct {
	db           *gorm.DB
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
	audit        AuditService
	events       ws.Publisher
	log          *zap.Logger
	lowStock     int
}

func NewCatalogService(db *gorm.DB, categoryRepo repository.CategoryRepository, productRepo repository.ProductRepository, movementRepo repository.StockMovementRepository, audit AuditService, events ws.Publisher, log *zap.Logger, lowStockDefault int) CatalogService {
	return &catalogService{
		db:           db,
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		movementRepo: movementRepo,
		audit:        audit,
		events:       events,
		log:          log.Named("catalog"),
		lowStock:     lowStockDefault,
	}
}

func (s *catalogService) CreateCategory(req *CategoryRequest, actor Actor) (*model.Category, error) {
	name := strings.TrimSpace(req.Name)
	if _, err := s.categoryRepo.FindByName(name); err == nil {
		return nil, ErrCategoryExists
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	category := &model.Category{Name: name, Description: strings.TrimSpace(req.Description)}
	category.CreatedBy = actor.by()
	category.UpdatedBy = actor.by()
	if err := s.categoryRepo.Create(category); err != nil {
		if repository.IsDuplicate(err) {
			return nil, ErrCategoryExists
		}
		return nil, err
	}
	recordBestEffort(s.audit, s.log, actor, model.AuditCreate, "category", category.ID.String(), req)
	return category, nil
}

func (s *catalogService) UpdateCategory(id uuid.UUID, req *CategoryRequest, actor Actor) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if !strings.EqualFold(name, category.Name) {
		if _, err := s.categoryRepo.FindByName(name); err == nil {
			return nil, ErrCategoryExists
		} else if !repository.IsNotFound(err) {
			return nil, err
		}
	}

	category.Name = name
	category.Description = strings.TrimSpace(req.Description)
	category.UpdatedBy = actor.by()
	if err := s.categoryRepo.Update(category); err != nil {
		if repository.IsDuplicate(err) {
			return nil, ErrCategoryExists
		}
		return nil, err
	}
	recordBestEffort(s.audit, s.log, actor, model.AuditUpdate, "category", id.String(), req)
	return category, nil
}

func (s *catalogService) DeleteCategory(id uuid.UUID, actor Actor) error {
	if _, err := s.categoryRepo.FindByID(id); err != nil {
		if repository.IsNotFound(err) {
			return ErrCategoryNotFound
		}
		return err
	}
	n, err := s.categoryRepo.CountProducts(id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrCategoryInUse
	}
	if err := s.categoryRepo.Delete(id, actor.by()); err != nil {
		return err
	}
	recordBestEffort(s.audit, s.log, actor, model.AuditDelete, "category", id.String(), nil)
	return nil
}

func (s *catalogService) ListCategories() ([]model.Category, error) {
	return s.categoryRepo.FindAll()
}

func (s *catalogService) checkProduct(req *ProductRequest) error {
	if req.Price.IsNegative() {
		return validationf("El precio no puede ser negativo")
	}
	if req.Cost.IsNegative() {
		return validationf("El costo no puede ser negativo")
	}
	if req.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(*req.CategoryID); err != nil {
			if repository.IsNotFound(err) {
				return ErrCategoryNotFound
			}
			return err
		}
	}
	return nil
}

func (s *catalogService) CreateProduct(req *ProductRequest, actor Actor) (*model.Product, error) {
	// 1. Business validation
	if err := s.checkProduct(req); err != nil {
		return nil, err
	}
	sku := strings.ToUpper(strings.TrimSpace(req.SKU))
	if _, err := s.productRepo.FindBySKU(sku); err == nil {
		return nil, ErrSKUExists
	} else if !repository.IsNotFound(err) {
		return nil, err
	}
	if err := s.ensureBarcodeFree(req.Barcode, uuid.Nil); err != nil {
		return nil, err
	}

	product := &model.Product{
		SKU:        sku,
		Barcode:    optionalString(req.Barcode),
		Name:       strings.TrimSpace(req.Name),
		CategoryID: req.CategoryID,
		Price:      req.Price.Round(2),
		Cost:       req.Cost.Round(2),
		Stock:      req.Stock,
		MinStock:   req.MinStock,
		Unit:       req.Unit,
		Taxable:    boolOr(req.Taxable, true),
		IsActive:   boolOr(req.IsActive, true),
	}
	product.CreatedBy = actor.by()
	product.UpdatedBy = actor.by()

	// 2. Product and its opening stock movement commit together
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewProductRepo(tx).Create(product); err != nil {
			return err
		}
		if product.Stock > 0 {
			movement := &model.StockMovement{
				ProductID:  product.ID,
				Type:       model.MovementIn,
				Quantity:   product.Stock,
				StockAfter: product.Stock,
				Note:       "Stock inicial",
				UserID:     actor.idPtr(),
			}
			if err := s.movementRepo.Create(tx, movement); err != nil {
				return err
			}
		}
		return s.audit.Record(tx, actor, model.AuditCreate, "product", product.ID.String(), map[string]interface{}{
			"sku":   product.SKU,
			"name":  product.Name,
			"price": product.Price,
			"stock": product.Stock,
		})
	})
	if err != nil {
		if repository.IsDuplicate(err) {
			return nil, s.duplicateProductError(req.Barcode)
		}
		return nil, err
	}

	// 3. Broadcast
	s.publishStock("product_created", product, actor, fmt.Sprintf("%s creó el producto '%s'", actor.Name, product.Name))
	return product, nil
}

func (s *catalogService) UpdateProduct(id uuid.UUID, req *ProductRequest, actor Actor) (*model.Product, error) {
	product, err := s.productRepo.FindByID(nil, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if err := s.checkProduct(req); err != nil {
		return nil, err
	}

	sku := strings.ToUpper(strings.TrimSpace(req.SKU))
	if sku != product.SKU {
		if _, err := s.productRepo.FindBySKU(sku); err == nil {
			return nil, ErrSKUExists
		} else if !repository.IsNotFound(err) {
			return nil, err
		}
	}

	if err := s.ensureBarcodeFree(req.Barcode, id); err != nil {
		return nil, err
	}

	oldPrice := product.Price
	product.SKU = sku
	product.Barcode = optionalString(req.Barcode)
	product.Name = strings.TrimSpace(req.Name)
	product.CategoryID = req.CategoryID
	product.Category = nil
	product.Price = req.Price.Round(2)
	product.Cost = req.Cost.Round(2)
	product.MinStock = req.MinStock
	product.Unit = req.Unit
	product.Taxable = boolOr(req.Taxable, product.Taxable)
	product.IsActive = boolOr(req.IsActive, product.IsActive)
	product.UpdatedBy = actor.by()

	if err := s.productRepo.Update(product); err != nil {
		if repository.IsDuplicate(err) {
			return nil, s.duplicateProductError(req.Barcode)
		}
		return nil, err
	}
	recordBestEffort(s.audit, s.log, actor, model.AuditUpdate, "product", id.String(), map[string]interface{}{
		"sku":       product.SKU,
		"old_price": oldPrice,
		"new_price": product.Price,
	})

	updated, err := s.productRepo.FindByID(nil, id)
	if err != nil {
		return nil, err
	}
	s.publishStock("product_updated", updated, actor, fmt.Sprintf("%s actualizó el producto '%s'", actor.Name, updated.Name))
	return updated, nil
}

func (s *catalogService) DeleteProduct(id uuid.UUID, actor Actor) error {
	product, err := s.productRepo.FindByID(nil, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrProductNotFound
		}
		return err
	}
	if err := s.productRepo.Delete(id, actor.by()); err != nil {
		return err
	}
	recordBestEffort(s.audit, s.log, actor, model.AuditDelete, "product", id.String(), map[string]interface{}{"sku": product.SKU})
	s.publishStock("product_deleted", product, actor, fmt.Sprintf("%s eliminó el producto '%s'", actor.Name, product.Name))
	return nil
}

func (s *catalogService) GetProduct(id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(nil, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *catalogService) GetProductByBarcode(code string) (*model.Product, error) {
	product, err := s.productRepo.FindByBarcode(strings.TrimSpace(code))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *catalogService) ListProducts(filter repository.ProductFilter) (model.Page[model.Product], error) {
	filter.Pagination = filter.Pagination.Normalize()
	filter.LowStockDefault = s.lowStock
	products, total, err := s.productRepo.List(filter)
	if err != nil {
		return model.Page[model.Product]{}, err
	}
	return model.NewPage(products, total, filter.Pagination.Page, filter.Pagination.Limit), nil
}

func (s *catalogService) ensureBarcodeFree(barcode string, self uuid.UUID) error {
	code := strings.TrimSpace(barcode)
	if code == "" {
		return nil
	}
	existing, err := s.productRepo.FindByBarcode(code)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != self {
		return ErrBarcodeExists
	}
	return nil
}

func (s *catalogService) duplicateProductError(barcode string) error {
	if barcode != "" {
		return ErrBarcodeExists
	}
	return ErrSKUExists
}

func (s *catalogService) publishStock(action string, p *model.Product, actor Actor, msg string) {
	s.events.Publish(ws.Event{
		Type:    "stock_update",
		Action:  action,
		Data:    productPayload(p, s.lowStock),
		User:    actor.wsActor(),
		Message: msg,
	})
}

func productPayload(p *model.Product, lowStockDefault int) map[string]interface{} {
	return map[string]interface{}{
		"id":        p.ID,
		"sku":       p.SKU,
		"name":      p.Name,
		"stock":     p.Stock,
		"price":     p.Price,
		"low_stock": p.IsLowStock(lowStockDefault),
	}
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
