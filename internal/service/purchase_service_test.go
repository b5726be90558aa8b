package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-rd/internal/model"
	"go-pos-rd/internal/repository"
)

func newPurchaseService(e *testEnv) PurchaseService {
	return NewPurchaseService(e.db, e.purchases, e.suppliers, e.products, e.movements, e.counters, e.settings, e.audit, e.events, e.metrics, e.log)
}

func (e *testEnv) supplier(t *testing.T, rnc string, active bool) *model.Supplier {
	t.Helper()
	s := &model.Supplier{Name: "Suplidor " + rnc, RNC: rnc, IsActive: active}
	require.NoError(t, e.suppliers.Create(s))
	return s
}

func TestPurchaseService_Lifecycle(t *testing.T) {
	e := newEnv(t)
	svc := newPurchaseService(e)
	buyer := Actor{ID: uuid.New(), Name: "Compras"}
	sup := e.supplier(t, "131246796", true)
	rice := e.product(t, "ARROZ", 5, "100.00", true)
	bread := e.product(t, "PAN", 0, "25.00", false)

	po, err := svc.Create(&PurchaseOrderRequest{
		SupplierID: sup.ID,
		Items: []PurchaseItemRequest{
			{ProductID: rice.ID, Quantity: 10, UnitCost: dec("60")},
			{ProductID: bread.ID, Quantity: 20, UnitCost: dec("10")},
		},
	}, buyer)
	require.NoError(t, err)
	assert.Equal(t, "OC-000001", po.Number)
	assert.Equal(t, model.PurchaseDraft, po.Status)
	assert.Equal(t, "04", po.PaymentMethod)
	assert.Equal(t, model.DefaultExpenseType, po.ExpenseType)
	assert.True(t, dec("800").Equal(po.Subtotal))
	assert.True(t, dec("108").Equal(po.ITBIS))
	assert.True(t, dec("908").Equal(po.Total))

	po, err = svc.Update(po.ID, &PurchaseOrderRequest{
		SupplierID: sup.ID,
		Items:      []PurchaseItemRequest{{ProductID: rice.ID, Quantity: 12, UnitCost: dec("55.50")}},
	}, buyer)
	require.NoError(t, err)
	require.Len(t, po.Items, 1)
	assert.True(t, dec("666").Equal(po.Subtotal))

	_, err = svc.Receive(po.ID, &ReceivePurchaseRequest{}, buyer)
	assert.ErrorIs(t, err, ErrPurchaseState, "drafts must be ordered first")

	po, err = svc.Order(po.ID, buyer)
	require.NoError(t, err)
	assert.Equal(t, model.PurchaseOrdered, po.Status)
	assert.NotNil(t, po.OrderedAt)

	_, err = svc.Update(po.ID, &PurchaseOrderRequest{SupplierID: sup.ID, Items: []PurchaseItemRequest{{ProductID: rice.ID, Quantity: 1}}}, buyer)
	assert.ErrorIs(t, err, ErrPurchaseState)

	invoice := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	po, err = svc.Receive(po.ID, &ReceivePurchaseRequest{SupplierNCF: "b0100000077", InvoiceDate: &invoice}, buyer)
	require.NoError(t, err)
	assert.Equal(t, model.PurchaseReceived, po.Status)
	require.NotNil(t, po.SupplierNCF)
	assert.Equal(t, "B0100000077", *po.SupplierNCF)
	require.NotNil(t, po.ReceivedByID)
	assert.Equal(t, buyer.ID, *po.ReceivedByID)

	got, err := e.products.FindByID(nil, rice.ID)
	require.NoError(t, err)
	assert.Equal(t, 17, got.Stock)
	assert.True(t, dec("55.5").Equal(got.Cost))

	_, total, err := e.movements.List(repository.MovementFilter{Type: model.MovementPurchase})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, e.events.ofType("purchase_update"), 1)

	_, err = svc.Receive(po.ID, &ReceivePurchaseRequest{}, buyer)
	assert.ErrorIs(t, err, ErrPurchaseState, "receiving twice is rejected")
	_, err = svc.Cancel(po.ID, buyer)
	assert.ErrorIs(t, err, ErrPurchaseState)
	assert.Equal(t, 17, e.stockOf(t, rice.ID))
}

func TestPurchaseService_Cancel(t *testing.T) {
	e := newEnv(t)
	svc := newPurchaseService(e)
	sup := e.supplier(t, "131246796", true)
	rice := e.product(t, "ARROZ", 5, "100.00", true)

	po, err := svc.Create(&PurchaseOrderRequest{SupplierID: sup.ID, Items: []PurchaseItemRequest{{ProductID: rice.ID, Quantity: 1, UnitCost: dec("50")}}}, Actor{})
	require.NoError(t, err)

	po, err = svc.Cancel(po.ID, Actor{})
	require.NoError(t, err)
	assert.Equal(t, model.PurchaseCancelled, po.Status)
	assert.NotNil(t, po.CancelledAt)

	_, err = svc.Order(po.ID, Actor{})
	assert.ErrorIs(t, err, ErrPurchaseState)
	assert.Equal(t, 5, e.stockOf(t, rice.ID))
}

func TestPurchaseService_Validation(t *testing.T) {
	e := newEnv(t)
	svc := newPurchaseService(e)
	active := e.supplier(t, "131246796", true)
	inactive := e.supplier(t, "101010101", false)
	rice := e.product(t, "ARROZ", 5, "100.00", true)
	items := []PurchaseItemRequest{{ProductID: rice.ID, Quantity: 1, UnitCost: dec("50")}}

	cases := []struct {
		name string
		req  *PurchaseOrderRequest
		want error
	}{
		{"unknown supplier", &PurchaseOrderRequest{SupplierID: uuid.New(), Items: items}, ErrSupplierNotFound},
		{"inactive supplier", &PurchaseOrderRequest{SupplierID: inactive.ID, Items: items}, ErrValidation},
		{"payment form", &PurchaseOrderRequest{SupplierID: active.ID, Items: items, PaymentMethod: "09"}, ErrValidation},
		{"expense type", &PurchaseOrderRequest{SupplierID: active.ID, Items: items, ExpenseType: "12"}, ErrValidation},
		{"unknown product", &PurchaseOrderRequest{SupplierID: active.ID, Items: []PurchaseItemRequest{{ProductID: uuid.New(), Quantity: 1}}}, ErrProductNotFound},
		{"negative cost", &PurchaseOrderRequest{SupplierID: active.ID, Items: []PurchaseItemRequest{{ProductID: rice.ID, Quantity: 1, UnitCost: dec("-1")}}}, ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(tc.req, Actor{})
			assert.ErrorIs(t, err, tc.want)
		})
	}

	po, err := svc.Create(&PurchaseOrderRequest{SupplierID: active.ID, Items: items}, Actor{})
	require.NoError(t, err)
	_, err = svc.Order(po.ID, Actor{})
	require.NoError(t, err)
	_, err = svc.Receive(po.ID, &ReceivePurchaseRequest{SupplierNCF: "123"}, Actor{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Get(uuid.New())
	assert.ErrorIs(t, err, ErrPurchaseNotFound)
}
