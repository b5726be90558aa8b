package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-pos-rd/internal/metrics"
	"go-pos-rd/internal/model"
	"go-pos-rd/internal/repository"
	"go-pos-rd/internal/ws"
	"go-pos-rd/pkg/cache"
	"go-pos-rd/pkg/money"
)

type SaleItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"uuid_required"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	Discount  decimal.Decimal `json:"discount"`
}

type CreateSaleRequest struct {
	CustomerID    *uuid.UUID          `json:"customer_id"`
	NcfType       model.NcfType       `json:"ncf_type" validate:"omitempty,ncf_type"`
	PaymentMethod model.PaymentMethod `json:"payment_method" validate:"required,oneof=CASH CARD TRANSFER CREDIT"`
	AmountPaid    decimal.Decimal     `json:"amount_paid"`
	Discount      decimal.Decimal     `json:"discount"`
	Items         []SaleItemRequest   `json:"items" validate:"required,min=1,dive"`
	Notes         string              `json:"notes" validate:"omitempty,max=1000"`
}

type CancelSaleRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type SaleService interface {
	// Create registers a sale. A non-empty idempotencyKey already used within
	// its TTL yields ErrDuplicateRequest.
	Create(ctx context.Context, req *CreateSaleRequest, idempotencyKey string, actor Actor) (*model.Sale, error)
	Cancel(id uuid.UUID, req *CancelSaleRequest, actor Actor) (*model.Sale, error)
	Get(id uuid.UUID) (*model.Sale, error)
	List(filter repository.SaleFilter) (model.Page[model.Sale], error)
	Receipt(id uuid.UUID) (*Receipt, error)
}

type SaleDeps struct {
	DB            *gorm.DB
	Sales         repository.SaleRepository
	Products      repository.ProductRepository
	Customers     repository.CustomerRepository
	Movements     repository.StockMovementRepository
	Counters      repository.CounterRepository
	Settings      repository.SettingsRepository
	Ncf           NcfService
	Audit         AuditService
	Events        ws.Publisher
	Metrics       *metrics.Metrics
	Idempotency   cache.Store
	Log           *zap.Logger
	Location      *time.Location
	IdempotentTTL time.Duration
}

type saleService struct {
	SaleDeps
	log *zap.Logger
	now func() time.Time
}

func NewSaleService(deps SaleDeps) SaleService {
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.IdempotentTTL <= 0 {
		deps.IdempotentTTL = 24 * time.Hour
	}
	return &saleService{SaleDeps: deps, log: deps.Log.Named("sales"), now: time.Now}
}

// computeLines prices every line at the product's current price, spreads the
// sale-level discount over the lines in proportion to their gross amount and
// computes ITBIS per line.
func computeLines(req *CreateSaleRequest, products map[uuid.UUID]model.Product, rate decimal.Decimal) ([]model.SaleItem, error) {
	if req.Discount.IsNegative() {
		return nil, validationf("El descuento no puede ser negativo")
	}

	gross := make([]decimal.Decimal, len(req.Items))
	totalGross := decimal.Zero
	for i, it := range req.Items {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, ErrProductNotFound
		}
		if !p.IsActive {
			return nil, validationf("El producto '%s' no está activo", p.Name)
		}
		if it.Discount.IsNegative() {
			return nil, validationf("El descuento no puede ser negativo")
		}
		gross[i] = p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))).Sub(it.Discount)
		if gross[i].IsNegative() {
			return nil, validationf("El descuento de '%s' excede el importe de la línea", p.Name)
		}
		totalGross = totalGross.Add(gross[i])
	}
	if req.Discount.GreaterThan(totalGross) {
		return nil, validationf("El descuento excede el subtotal de la venta")
	}

	shares := money.Allocate(req.Discount, gross)
	items := make([]model.SaleItem, len(req.Items))
	for i, it := range req.Items {
		p := products[it.ProductID]
		discount := money.Round(it.Discount.Add(shares[i]))
		subtotal := money.LineSubtotal(p.Price, it.Quantity, discount)
		itbis := decimal.Zero
		if p.Taxable {
			itbis = money.ITBIS(subtotal, rate)
		}
		items[i] = model.SaleItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			SKU:         p.SKU,
			Quantity:    it.Quantity,
			UnitPrice:   p.Price,
			Discount:    discount,
			Subtotal:    subtotal,
			Taxable:     p.Taxable,
			ITBIS:       itbis,
			Total:       subtotal.Add(itbis),
		}
	}
	return items, nil
}

func sumLines(items []model.SaleItem) (subtotal, discount, itbis decimal.Decimal) {
	subtotal, discount, itbis = decimal.Zero, decimal.Zero, decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Subtotal)
		discount = discount.Add(it.Discount)
		itbis = itbis.Add(it.ITBIS)
	}
	return subtotal, discount, itbis
}

func (s *saleService) Create(ctx context.Context, req *CreateSaleRequest, idempotencyKey string, actor Actor) (*model.Sale, error) {
	ncfType := model.NcfType(strings.ToUpper(string(req.NcfType)))
	if ncfType == "" {
		ncfType = model.NcfConsumo
	}
	if !ncfType.Valid() || ncfType == model.NcfNotaCredito {
		return nil, ErrInvalidNcfType
	}

	// 1. Idempotency: claim the key before doing any work
	if idempotencyKey != "" {
		key := "sale:idempotency:" + idempotencyKey
		claimed, err := s.Idempotency.SetNX(ctx, key, actor.by(), s.IdempotentTTL)
		if err != nil {
			return nil, fmt.Errorf("idempotency key: %w", err)
		}
		if !claimed {
			return nil, ErrDuplicateRequest
		}
		sale, err := s.create(req, ncfType, actor)
		if err != nil {
			// A failed attempt may be retried with the same key.
			if delErr := s.Idempotency.Delete(ctx, key); delErr != nil {
				s.log.Warn("release idempotency key", zap.String("key", idempotencyKey), zap.Error(delErr))
			}
			return nil, err
		}
		return sale, nil
	}
	return s.create(req, ncfType, actor)
}

func (s *saleService) create(req *CreateSaleRequest, ncfType model.NcfType, actor Actor) (*model.Sale, error) {
	// 2. Reference data, read before the transaction opens
	settings, err := s.Settings.Get()
	if err != nil {
		return nil, err
	}

	var customer *model.Customer
	if req.CustomerID != nil {
		customer, err = s.Customers.FindByID(nil, *req.CustomerID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, ErrCustomerNotFound
			}
			return nil, err
		}
		if !customer.IsActive {
			return nil, validationf("El cliente '%s' no está activo", customer.Name)
		}
	}
	if ncfType.RequiresTaxID() && (customer == nil || !customer.HasTaxID()) {
		return nil, ErrTaxIDRequired
	}
	if req.PaymentMethod == model.PaymentCredit && customer == nil {
		return nil, ErrCustomerRequired
	}

	ids := make([]uuid.UUID, len(req.Items))
	for i, it := range req.Items {
		ids[i] = it.ProductID
	}
	products, err := s.Products.FindByIDs(nil, ids)
	if err != nil {
		return nil, err
	}

	// 3. Totals
	items, err := computeLines(req, products, settings.ITBISRate)
	if err != nil {
		return nil, err
	}
	subtotal, discount, itbis := sumLines(items)
	total := subtotal.Add(itbis)

	sale := &model.Sale{
		NcfType:       ncfType,
		CustomerID:    req.CustomerID,
		CashierID:     actor.ID,
		Status:        model.SaleCompleted,
		PaymentMethod: req.PaymentMethod,
		Subtotal:      subtotal,
		Discount:      discount,
		ITBIS:         itbis,
		Total:         total,
		Notes:         strings.TrimSpace(req.Notes),
		Items:         items,
	}
	if customer != nil {
		sale.CustomerName = customer.Name
		if customer.HasTaxID() {
			sale.CustomerDocumentType = customer.DocumentType
			sale.CustomerDocument = *customer.DocumentNumber
		}
	}
	sale.ID = uuid.New()
	sale.CreatedBy = actor.by()
	sale.UpdatedBy = actor.by()

	// 4. Payment
	switch req.PaymentMethod {
	case model.PaymentCash:
		paid := money.Round(req.AmountPaid)
		if paid.LessThan(total) {
			return nil, ErrInsufficientAmount
		}
		sale.AmountPaid = paid
		sale.Change = paid.Sub(total)
	case model.PaymentCard, model.PaymentTransfer:
		sale.AmountPaid = total
	case model.PaymentCredit:
		if customer.CreditLimit.Sign() <= 0 || customer.Balance.Add(total).GreaterThan(customer.CreditLimit) {
			return nil, ErrCreditLimit
		}
	}

	// 5. Everything that must not half-happen runs in one transaction
	var (
		alloc  *NcfAllocation
		stocks = map[uuid.UUID]int{}
	)
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		n, err := s.Counters.Next(tx, model.CounterSale)
		if err != nil {
			return err
		}
		sale.SaleNumber = model.SaleNumber(n)

		alloc, err = s.Ncf.Allocate(tx, ncfType)
		if err != nil {
			return err
		}
		sale.NCF = alloc.NCF

		for _, it := range sale.Items {
			after, err := s.Products.DecrementStock(tx, it.ProductID, it.Quantity, actor.by())
			if err != nil {
				if errors.Is(err, repository.ErrInsufficientStock) {
					return newError(ErrConflict, fmt.Sprintf("Stock insuficiente para '%s'", it.ProductName))
				}
				return err
			}
			stocks[it.ProductID] = after
			saleID := sale.ID
			movement := &model.StockMovement{
				ProductID:     it.ProductID,
				Type:          model.MovementSale,
				Quantity:      -it.Quantity,
				StockAfter:    after,
				ReferenceType: model.RefSale,
				ReferenceID:   &saleID,
				Note:          sale.SaleNumber,
				UserID:        actor.idPtr(),
			}
			if err := s.Movements.Create(tx, movement); err != nil {
				return err
			}
		}

		if sale.PaymentMethod == model.PaymentCredit {
			if err := s.Customers.AddCredit(tx, customer.ID, total); err != nil {
				if errors.Is(err, repository.ErrCreditLimit) {
					return ErrCreditLimit
				}
				return err
			}
		}

		if err := s.Sales.Create(tx, sale); err != nil {
			return err
		}
		return s.Audit.Record(tx, actor, model.AuditCreate, "sale", sale.ID.String(), map[string]interface{}{
			"sale_number":    sale.SaleNumber,
			"ncf":            sale.NCF,
			"total":          sale.Total,
			"payment_method": sale.PaymentMethod,
			"items":          len(sale.Items),
		})
	})
	if err != nil {
		return nil, err
	}

	// 6. Side effects after commit
	s.Ncf.Issued(alloc)
	s.Metrics.SaleCompleted(string(sale.PaymentMethod), string(sale.NcfType), sale.Total.InexactFloat64())
	s.log.Info("sale created",
		zap.String("sale_id", sale.ID.String()),
		zap.String("sale_number", sale.SaleNumber),
		zap.String("ncf", sale.NCF),
		zap.String("total", sale.Total.StringFixed(2)),
		zap.String("cashier_id", actor.by()),
	)

	created, err := s.Sales.FindByID(nil, sale.ID)
	if err != nil {
		return nil, err
	}
	s.Events.Publish(ws.Event{
		Type:    "sale_created",
		Data:    saleSummary(created),
		User:    actor.wsActor(),
		Message: fmt.Sprintf("%s registró la venta %s por %s", actor.Name, created.SaleNumber, money.Format(created.Total)),
	})
	s.publishStock(created, stocks, "sale", actor)
	return created, nil
}

func (s *saleService) Cancel(id uuid.UUID, req *CancelSaleRequest, actor Actor) (*model.Sale, error) {
	var (
		sale   *model.Sale
		stocks = map[uuid.UUID]int{}
	)
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		sale, err = s.Sales.FindByID(tx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrSaleNotFound
			}
			return err
		}
		if sale.Status == model.SaleCancelled {
			return ErrSaleCancelled
		}

		// The conditional status flip makes a concurrent second cancel fail
		// here instead of restoring stock twice.
		if err := s.Sales.MarkCancelled(tx, id, actor.ID, strings.TrimSpace(req.Reason), s.now()); err != nil {
			if errors.Is(err, repository.ErrStaleState) {
				return ErrSaleCancelled
			}
			return err
		}

		for _, it := range sale.Items {
			after, err := s.Products.IncrementStock(tx, it.ProductID, it.Quantity, actor.by())
			if err != nil {
				return err
			}
			stocks[it.ProductID] = after
			saleID := sale.ID
			movement := &model.StockMovement{
				ProductID:     it.ProductID,
				Type:          model.MovementSaleCancel,
				Quantity:      it.Quantity,
				StockAfter:    after,
				ReferenceType: model.RefSale,
				ReferenceID:   &saleID,
				Note:          "Anulación " + sale.SaleNumber,
				UserID:        actor.idPtr(),
			}
			if err := s.Movements.Create(tx, movement); err != nil {
				return err
			}
		}

		if sale.PaymentMethod == model.PaymentCredit && sale.CustomerID != nil {
			if err := s.Customers.AdjustBalance(tx, *sale.CustomerID, sale.Total.Neg()); err != nil {
				return err
			}
		}

		return s.Audit.Record(tx, actor, model.AuditCancel, "sale", sale.ID.String(), map[string]interface{}{
			"sale_number": sale.SaleNumber,
			"ncf":         sale.NCF,
			"total":       sale.Total,
			"reason":      req.Reason,
		})
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.SaleCancelled()
	s.log.Info("sale cancelled",
		zap.String("sale_id", id.String()),
		zap.String("sale_number", sale.SaleNumber),
		zap.String("by", actor.by()),
	)

	cancelled, err := s.Sales.FindByID(nil, id)
	if err != nil {
		return nil, err
	}
	s.Events.Publish(ws.Event{
		Type:    "sale_cancelled",
		Data:    saleSummary(cancelled),
		User:    actor.wsActor(),
		Message: fmt.Sprintf("%s anuló la venta %s", actor.Name, cancelled.SaleNumber),
	})
	s.publishStock(cancelled, stocks, "sale_cancel", actor)
	return cancelled, nil
}

func (s *saleService) Get(id uuid.UUID) (*model.Sale, error) {
	sale, err := s.Sales.FindByID(nil, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	return sale, nil
}

func (s *saleService) List(filter repository.SaleFilter) (model.Page[model.Sale], error) {
	filter.Pagination = filter.Pagination.Normalize()
	sales, total, err := s.Sales.List(filter)
	if err != nil {
		return model.Page[model.Sale]{}, err
	}
	return model.NewPage(sales, total, filter.Pagination.Page, filter.Pagination.Limit), nil
}

func (s *saleService) Receipt(id uuid.UUID) (*Receipt, error) {
	sale, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	settings, err := s.Settings.Get()
	if err != nil {
		return nil, err
	}
	return BuildReceipt(sale, settings, s.Location), nil
}

func (s *saleService) publishStock(sale *model.Sale, stocks map[uuid.UUID]int, action string, actor Actor) {
	for _, it := range sale.Items {
		after, ok := stocks[it.ProductID]
		if !ok {
			continue
		}
		s.Events.Publish(ws.Event{
			Type:   "stock_update",
			Action: action,
			Data: map[string]interface{}{
				"id":        it.ProductID,
				"sku":       it.SKU,
				"name":      it.ProductName,
				"stock":     after,
				"reference": sale.SaleNumber,
			},
			User: actor.wsActor(),
		})
	}
}

func saleSummary(sale *model.Sale) map[string]interface{} {
	data := map[string]interface{}{
		"id":             sale.ID,
		"sale_number":    sale.SaleNumber,
		"ncf":            sale.NCF,
		"ncf_type":       sale.NcfType,
		"status":         sale.Status,
		"payment_method": sale.PaymentMethod,
		"total":          sale.Total,
		"items":          len(sale.Items),
		"created_at":     sale.CreatedAt,
	}
	if sale.CustomerName != "" {
		data["customer"] = sale.CustomerName
	}
	return data
}
