package service

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-pos-rd/internal/metrics"
	"go-pos-rd/internal/model"
	"go-pos-rd/internal/repository"
	"go-pos-rd/internal/ws"
	"go-pos-rd/pkg/cache"
)

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []ws.Event
}

func (r *recorder) Publish(e ws.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) ofType(t string) []ws.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ws.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

// testEnv wires the real repositories over sqlite.
type testEnv struct {
	db      *gorm.DB
	log     *zap.Logger
	events  *recorder
	metrics *metrics.Metrics
	store   *cache.MemoryStore

	products   repository.ProductRepository
	categories repository.CategoryRepository
	customers  repository.CustomerRepository
	suppliers  repository.SupplierRepository
	sales      repository.SaleRepository
	movements  repository.StockMovementRepository
	counters   repository.CounterRepository
	ncfRepo    repository.NcfSequenceRepository
	settings   repository.SettingsRepository
	purchases  repository.PurchaseOrderRepository
	auditRepo  repository.AuditRepository

	audit AuditService
	ncf   NcfService
	sale  SaleService
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	e := &testEnv{
		db:      db,
		log:     zap.NewNop(),
		events:  &recorder{},
		metrics: metrics.New(),
		store:   cache.NewMemoryStore(),

		products:   repository.NewProductRepo(db),
		categories: repository.NewCategoryRepo(db),
		customers:  repository.NewCustomerRepo(db),
		suppliers:  repository.NewSupplierRepo(db),
		sales:      repository.NewSaleRepo(db),
		movements:  repository.NewStockMovementRepo(db),
		counters:   repository.NewCounterRepo(db),
		ncfRepo:    repository.NewNcfSequenceRepo(db),
		settings:   repository.NewSettingsRepo(db, decimal.RequireFromString("0.18"), 5),
		purchases:  repository.NewPurchaseOrderRepo(db),
		auditRepo:  repository.NewAuditRepo(db),
	}
	e.audit = NewAuditService(e.auditRepo, e.log)
	e.ncf = NewNcfService(e.ncfRepo, e.settings, e.audit, e.events, e.metrics, e.log)
	e.sale = NewSaleService(SaleDeps{
		DB:          db,
		Sales:       e.sales,
		Products:    e.products,
		Customers:   e.customers,
		Movements:   e.movements,
		Counters:    e.counters,
		Settings:    e.settings,
		Ncf:         e.ncf,
		Audit:       e.audit,
		Events:      e.events,
		Metrics:     e.metrics,
		Idempotency: e.store,
		Log:         e.log,
		Location:    time.UTC,
	})
	return e
}

var cashier = Actor{ID: uuid.MustParse("7f1c2d3e-4b5a-4c6d-8e9f-0a1b2c3d4e5f"), Name: "María Cajera", Email: "maria@example.com", IP: "127.0.0.1"}

func (e *testEnv) product(t *testing.T, sku string, stock int, price string, taxable bool) *model.Product {
	t.Helper()
	p := &model.Product{
		SKU:      sku,
		Name:     "Producto " + sku,
		Price:    decimal.RequireFromString(price),
		Cost:     decimal.RequireFromString(price).Div(decimal.NewFromInt(2)).Round(2),
		Stock:    stock,
		Unit:     "UND",
		Taxable:  taxable,
		IsActive: true,
	}
	require.NoError(t, e.products.Create(p))
	return p
}

func (e *testEnv) customer(t *testing.T, name string, docType model.DocumentType, doc string, limit string) *model.Customer {
	t.Helper()
	c := &model.Customer{
		Name:         name,
		DocumentType: docType,
		Phone:        "8095551234",
		CreditLimit:  decimal.RequireFromString(limit),
		IsActive:     true,
	}
	if doc != "" {
		c.DocumentNumber = &doc
	}
	require.NoError(t, e.customers.Create(c))
	return c
}

func (e *testEnv) sequence(t *testing.T, typ model.NcfType, start, max int64) *model.NcfSequence {
	t.Helper()
	seq := &model.NcfSequence{
		Type:          typ,
		Series:        "B",
		StartNumber:   start,
		CurrentNumber: start - 1,
		MaxNumber:     max,
		IsActive:      true,
	}
	require.NoError(t, e.ncfRepo.Create(seq))
	return seq
}

func (e *testEnv) stockOf(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := e.products.FindByID(nil, id)
	require.NoError(t, err)
	return p.Stock
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
