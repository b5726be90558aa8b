package service

import (
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
	"go-pos-rd/pkg/money"
)

type PurchaseItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"uuid_required"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

type PurchaseOrderRequest struct {
	SupplierID    uuid.UUID             `json:"supplier_id" validate:"uuid_required"`
	Items         []PurchaseItemRequest `json:"items" validate:"required,min=1,dive"`
	ExpectedDate  *time.Time            `json:"expected_date"`
	PaymentMethod string                `json:"payment_method" validate:"omitempty,len=2"`
	ExpenseType   string                `json:"expense_type" validate:"omitempty,len=2"`
	Notes         string                `json:"notes" validate:"omitempty,max=1000"`
}

type ReceivePurchaseRequest struct {
	SupplierNCF string     `json:"ncf" validate:"omitempty,ncf"`
	InvoiceDate *time.Time `json:"invoice_date"`
	PaymentDate *time.Time `json:"payment_date"`
}

type PurchaseService interface {
	Create(req *PurchaseOrderRequest, actor Actor) (*model.PurchaseOrder, error)
	Update(id uuid.UUID, req *PurchaseOrderRequest, actor Actor) (*model.PurchaseOrder, error)
	Order(id uuid.UUID, actor Actor) (*model.PurchaseOrder, error)
	Receive(id uuid.UUID, req *ReceivePurchaseRequest, actor Actor) (*model.PurchaseOrder, error)
	Cancel(id uuid.UUID, actor Actor) (*model.PurchaseOrder, error)
	Get(id uuid.UUID) (*model.PurchaseOrder, error)
	List(filter repository.PurchaseFilter) (model.Page[model.PurchaseOrder], error)
}

type purchaseService struct {
	db        *gorm.DB
	orders    repository.PurchaseOrderRepository
	suppliers repository.SupplierRepository
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	counters  repository.CounterRepository
	settings  repository.SettingsRepository
	audit     AuditService
	events    ws.Publisher
	metrics   *metrics.Metrics
	log       *zap.Logger
	now       func() time.Time
}

func NewPurchaseService(db *gorm.DB, orders repository.PurchaseOrderRepository, suppliers repository.SupplierRepository, products repository.ProductRepository, movements repository.StockMovementRepository, counters repository.CounterRepository, settings repository.SettingsRepository, audit AuditService, events ws.Publisher, m *metrics.Metrics, log *zap.Logger) PurchaseService {
	return &purchaseService{
		db:        db,
		orders:    orders,
		suppliers: suppliers,
		products:  products,
		movements: movements,
		counters:  counters,
		settings:  settings,
		audit:     audit,
		events:    events,
		metrics:   m,
		log:       log.Named("purchases"),
		now:       time.Now,
	}
}

// build validates the request and fills header and items of po. It reads
// outside any transaction.
func (s *purchaseService) build(po *model.PurchaseOrder, req *PurchaseOrderRequest) error {
	supplier, err := s.suppliers.FindByID(req.SupplierID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrSupplierNotFound
		}
		return err
	}
	if !supplier.IsActive {
		return validationf("El suplidor '%s' no está activo", supplier.Name)
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "04"
	}
	if _, ok := model.PurchasePaymentForms[paymentMethod]; !ok {
		return validationf("Forma de pago inválida: use un código de 01 a 07")
	}
	expenseType := req.ExpenseType
	if expenseType == "" {
		expenseType = model.DefaultExpenseType
	}
	if _, ok := model.ExpenseTypes[expenseType]; !ok {
		return validationf("Tipo de gasto inválido: use un código de 01 a 11")
	}

	settings, err := s.settings.Get()
	if err != nil {
		return err
	}
	ids := make([]uuid.UUID, len(req.Items))
	for i, it := range req.Items {
		ids[i] = it.ProductID
	}
	products, err := s.products.FindByIDs(nil, ids)
	if err != nil {
		return err
	}

	items := make([]model.PurchaseOrderItem, len(req.Items))
	subtotal, itbis := decimal.Zero, decimal.Zero
	for i, it := range req.Items {
		p, ok := products[it.ProductID]
		if !ok {
			return ErrProductNotFound
		}
		if it.UnitCost.IsNegative() {
			return validationf("El costo de '%s' no puede ser negativo", p.Name)
		}
		cost := money.Round(it.UnitCost)
		line := money.LineSubtotal(cost, it.Quantity, decimal.Zero)
		tax := decimal.Zero
		if p.Taxable {
			tax = money.ITBIS(line, settings.ITBISRate)
		}
		items[i] = model.PurchaseOrderItem{
			ProductID: p.ID,
			Quantity:  it.Quantity,
			UnitCost:  cost,
			Subtotal:  line,
			ITBIS:     tax,
		}
		subtotal = subtotal.Add(line)
		itbis = itbis.Add(tax)
	}

	po.SupplierID = supplier.ID
	po.Items = items
	po.Subtotal = subtotal
	po.ITBIS = itbis
	po.Total = subtotal.Add(itbis)
	po.PaymentMethod = paymentMethod
	po.ExpenseType = expenseType
	po.ExpectedDate = req.ExpectedDate
	po.Notes = strings.TrimSpace(req.Notes)
	return nil
}

func (s *purchaseService) Create(req *PurchaseOrderRequest, actor Actor) (*model.PurchaseOrder, error) {
	po := &model.PurchaseOrder{Status: model.PurchaseDraft}
	if err := s.build(po, req); err != nil {
		return nil, err
	}
	po.CreatedBy = actor.by()
	po.UpdatedBy = actor.by()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		n, err := s.counters.Next(tx, model.CounterPurchaseOrder)
		if err != nil {
			return err
		}
		po.Number = model.PurchaseOrderNumber(n)
		if err := s.orders.Create(tx, po); err != nil {
			return err
		}
		return s.audit.Record(tx, actor, model.AuditCreate, "purchase_order", po.ID.String(), map[string]interface{}{
			"number":      po.Number,
			"supplier_id": po.SupplierID,
			"total":       po.Total,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(po.ID)
}

func (s *purchaseService) Update(id uuid.UUID, req *PurchaseOrderRequest, actor Actor) (*model.PurchaseOrder, error) {
	po, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if po.Status != model.PurchaseDraft {
		return nil, ErrPurchaseState
	}
	if err := s.build(po, req); err != nil {
		return nil, err
	}
	po.Supplier = nil
	po.UpdatedBy = actor.by()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Conditional no-op transition: fails if the order left DRAFT since
		// it was read.
		if err := s.orders.Transition(tx, id, model.PurchaseDraft, model.PurchaseDraft, nil); err != nil {
			if errors.Is(err, repository.ErrStaleState) {
				return ErrPurchaseState
			}
			return err
		}
		if err := s.orders.ReplaceItems(tx, po); err != nil {
			return err
		}
		return s.audit.Record(tx, actor, model.AuditUpdate, "purchase_order", id.String(), map[string]interface{}{
			"number": po.Number,
			"total":  po.Total,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

func (s *purchaseService) Order(id uuid.UUID, actor Actor) (*model.PurchaseOrder, error) {
	po, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !po.Status.CanTransitionTo(model.PurchaseOrdered) {
		return nil, ErrPurchaseState
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		err := s.orders.Transition(tx, id, model.PurchaseDraft, model.PurchaseOrdered, map[string]interface{}{
			"ordered_at": s.now(),
			"updated_by": actor.by(),
		})
		if err != nil {
			if errors.Is(err, repository.ErrStaleState) {
				return ErrPurchaseState
			}
			return err
		}
		return s.audit.Record(tx, actor, model.AuditUpdate, "purchase_order", id.String(), map[string]interface{}{
			"number": po.Number,
			"status": model.PurchaseOrdered,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

func (s *purchaseService) Receive(id uuid.UUID, req *ReceivePurchaseRequest, actor Actor) (*model.PurchaseOrder, error) {
	var supplierNCF *string
	if req.SupplierNCF != "" {
		ncf := strings.ToUpper(strings.TrimSpace(req.SupplierNCF))
		if _, _, _, err := model.ParseNCF(ncf); err != nil {
			return nil, newError(ErrValidation, err.Error())
		}
		supplierNCF = &ncf
	}

	now := s.now()
	invoiceDate := now
	if req.InvoiceDate != nil {
		invoiceDate = *req.InvoiceDate
	}

	var (
		po     *model.PurchaseOrder
		stocks = map[uuid.UUID]int{}
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		po, err = s.orders.FindByID(tx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrPurchaseNotFound
			}
			return err
		}
		if !po.Status.CanTransitionTo(model.PurchaseReceived) {
			return ErrPurchaseState
		}

		fields := map[string]interface{}{
			"received_at":    now,
			"received_by_id": actor.idPtr(),
			"invoice_date":   invoiceDate,
			"updated_by":     actor.by(),
		}
		if supplierNCF != nil {
			fields["supplier_ncf"] = *supplierNCF
		}
		if req.PaymentDate != nil {
			fields["payment_date"] = *req.PaymentDate
		}
		if err := s.orders.Transition(tx, id, model.PurchaseOrdered, model.PurchaseReceived, fields); err != nil {
			if errors.Is(err, repository.ErrStaleState) {
				return ErrPurchaseState
			}
			return err
		}

		poID := po.ID
		for _, it := range po.Items {
			after, err := s.products.IncrementStock(tx, it.ProductID, it.Quantity, actor.by())
			if err != nil {
				return err
			}
			stocks[it.ProductID] = after
			if err := s.products.UpdateCost(tx, it.ProductID, it.UnitCost, actor.by()); err != nil {
				return err
			}
			movement := &model.StockMovement{
				ProductID:     it.ProductID,
				Type:          model.MovementPurchase,
				Quantity:      it.Quantity,
				StockAfter:    after,
				ReferenceType: model.RefPurchaseOrder,
				ReferenceID:   &poID,
				Note:          po.Number,
				UserID:        actor.idPtr(),
			}
			if err := s.movements.Create(tx, movement); err != nil {
				return err
			}
		}

		return s.audit.Record(tx, actor, model.AuditReceive, "purchase_order", id.String(), map[string]interface{}{
			"number":       po.Number,
			"supplier_ncf": supplierNCF,
			"total":        po.Total,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.PurchaseReceived()
	s.log.Info("purchase order received",
		zap.String("purchase_order_id", id.String()),
		zap.String("number", po.Number),
		zap.Int("items", len(po.Items)),
		zap.String("total", po.Total.StringFixed(2)),
	)
	for _, it := range po.Items {
		data := map[string]interface{}{"id": it.ProductID, "stock": stocks[it.ProductID], "reference": po.Number}
		if it.Product != nil {
			data["sku"] = it.Product.SKU
			data["name"] = it.Product.Name
		}
		s.events.Publish(ws.Event{Type: "stock_update", Action: "purchase_received", Data: data, User: actor.wsActor()})
	}
	s.events.Publish(ws.Event{
		Type:    "purchase_update",
		Action:  "received",
		Data:    map[string]interface{}{"id": po.ID, "number": po.Number, "status": model.PurchaseReceived},
		User:    actor.wsActor(),
		Message: fmt.Sprintf("%s recibió la orden %s", actor.Name, po.Number),
	})
	return s.Get(id)
}

func (s *purchaseService) Cancel(id uuid.UUID, actor Actor) (*model.PurchaseOrder, error) {
	po, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !po.Status.CanTransitionTo(model.PurchaseCancelled) {
		return nil, ErrPurchaseState
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		err := s.orders.Transition(tx, id, po.Status, model.PurchaseCancelled, map[string]interface{}{
			"cancelled_at": s.now(),
			"updated_by":   actor.by(),
		})
		if err != nil {
			if errors.Is(err, repository.ErrStaleState) {
				return ErrPurchaseState
			}
			return err
		}
		return s.audit.Record(tx, actor, model.AuditCancel, "purchase_order", id.String(), map[string]interface{}{
			"number": po.Number,
			"from":   po.Status,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

func (s *purchaseService) Get(id uuid.UUID) (*model.PurchaseOrder, error) {
	po, err := s.orders.FindByID(nil, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrPurchaseNotFound
		}
		return nil, err
	}
	return po, nil
}

func (s *purchaseService) List(filter repository.PurchaseFilter) (model.Page[model.PurchaseOrder], error) {
	filter.Pagination = filter.Pagination.Normalize()
	orders, total, err := s.orders.List(filter)
	if err != nil {
		return model.Page[model.PurchaseOrder]{}, err
	}
	return model.NewPage(orders, total, filter.Pagination.Page, filter.Pagination.Limit), nil
}
