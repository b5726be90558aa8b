package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-rd/internal/model"
	"go-pos-rd/internal/repository"
)

type deliveryFixture struct {
	*testEnv
	svc   DeliveryService
	order *model.Sale
}

func newDeliveryFixture(t *testing.T) *deliveryFixture {
	e := newEnv(t)
	e.sequence(t, model.NcfConsumo, 1, 100)
	rice := e.product(t, "ARROZ", 10, "100.00", true)
	buyer := &model.Customer{Name: "Ana Reyes", DocumentType: model.DocNone, Phone: "8295550199", Address: "Av. Duarte 12, Santiago", IsActive: true}
	require.NoError(t, e.customers.Create(buyer))

	sale, err := e.sale.Create(context.Background(), &CreateSaleRequest{
		CustomerID:    &buyer.ID,
		PaymentMethod: model.PaymentCard,
		Items:         []SaleItemRequest{{ProductID: rice.ID, Quantity: 1}},
	}, "", cashier)
	require.NoError(t, err)

	svc := NewDeliveryService(repository.NewDriverRepo(e.db), repository.NewDeliveryRepo(e.db), e.sales, e.audit, e.events, e.log)
	return &deliveryFixture{testEnv: e, svc: svc, order: sale}
}

func TestDeliveryService_Flow(t *testing.T) {
	f := newDeliveryFixture(t)

	d, err := f.svc.Create(&CreateDeliveryRequest{SaleID: f.order.ID, Fee: dec("150.456")}, cashier)
	require.NoError(t, err)
	assert.Equal(t, model.DeliveryPending, d.Status)
	assert.Equal(t, "Av. Duarte 12, Santiago", d.Address, "falls back to the customer address")
	assert.Equal(t, "8295550199", d.Phone)
	assert.True(t, dec("150.46").Equal(d.Fee))

	_, err = f.svc.Create(&CreateDeliveryRequest{SaleID: f.order.ID}, cashier)
	assert.ErrorIs(t, err, ErrDeliveryExists)

	_, err = f.svc.UpdateStatus(d.ID, &DeliveryStatusRequest{Status: model.DeliveryInTransit}, cashier)
	assert.ErrorIs(t, err, ErrInvalidTransition, "needs a driver first")

	pedro, err := f.svc.CreateDriver(&DriverRequest{Name: " Pedro ", Phone: "8095550001", Plate: "a123456"}, cashier)
	require.NoError(t, err)
	assert.Equal(t, "Pedro", pedro.Name)
	assert.Equal(t, "A123456", pedro.Plate)
	assert.True(t, pedro.IsActive)

	luis, err := f.svc.CreateDriver(&DriverRequest{Name: "Luis"}, cashier)
	require.NoError(t, err)

	d, err = f.svc.Assign(d.ID, &AssignDriverRequest{DriverID: pedro.ID}, cashier)
	require.NoError(t, err)
	assert.Equal(t, model.DeliveryAssigned, d.Status)
	require.NotNil(t, d.Driver)
	assert.Equal(t, "Pedro", d.Driver.Name)

	d, err = f.svc.Assign(d.ID, &AssignDriverRequest{DriverID: luis.ID}, cashier)
	require.NoError(t, err, "an assigned delivery can change driver")
	assert.Equal(t, "Luis", d.Driver.Name)

	drivers, err := f.svc.ListDrivers(true)
	require.NoError(t, err)
	require.Len(t, drivers, 2)
	assert.Equal(t, "Luis", drivers[0].Name)
	assert.Equal(t, int64(1), drivers[0].ActiveDeliveries)

	_, err = f.svc.UpdateStatus(d.ID, &DeliveryStatusRequest{Status: model.DeliveryAssigned}, cashier)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	d, err = f.svc.UpdateStatus(d.ID, &DeliveryStatusRequest{Status: model.DeliveryInTransit}, cashier)
	require.NoError(t, err)
	assert.NotNil(t, d.DispatchedAt)

	_, err = f.svc.Assign(d.ID, &AssignDriverRequest{DriverID: pedro.ID}, cashier)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.svc.UpdateStatus(d.ID, &DeliveryStatusRequest{Status: model.DeliveryCancelled}, cashier)
	assert.ErrorIs(t, err, ErrInvalidTransition, "in transit deliveries cannot be cancelled")

	d, err = f.svc.UpdateStatus(d.ID, &DeliveryStatusRequest{Status: model.DeliveryDelivered}, cashier)
	require.NoError(t, err)
	assert.Equal(t, model.DeliveryDelivered, d.Status)
	assert.NotNil(t, d.DeliveredAt)

	_, err = f.svc.UpdateStatus(d.ID, &DeliveryStatusRequest{Status: model.DeliveryPending}, cashier)
	assert.ErrorIs(t, err, ErrInvalidTransition, "delivered is final")

	assert.Len(t, f.events.ofType("delivery_update"), 5)
}

func TestDeliveryService_CancelAllowsNewDelivery(t *testing.T) {
	f := newDeliveryFixture(t)

	d, err := f.svc.Create(&CreateDeliveryRequest{SaleID: f.order.ID, Address: "Calle 5, Higüey"}, cashier)
	require.NoError(t, err)
	assert.Equal(t, "Calle 5, Higüey", d.Address)

	d, err = f.svc.UpdateStatus(d.ID, &DeliveryStatusRequest{Status: model.DeliveryCancelled}, cashier)
	require.NoError(t, err)
	assert.NotNil(t, d.CancelledAt)

	_, err = f.svc.Create(&CreateDeliveryRequest{SaleID: f.order.ID}, cashier)
	require.NoError(t, err)

	page, err := f.svc.List(model.DeliveryPending, model.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	_, err = f.svc.List("LOST", model.Pagination{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeliveryService_CreateRejections(t *testing.T) {
	f := newDeliveryFixture(t)

	_, err := f.svc.Create(&CreateDeliveryRequest{SaleID: uuid.New(), Address: "x"}, cashier)
	assert.ErrorIs(t, err, ErrSaleNotFound)

	_, err = f.svc.Create(&CreateDeliveryRequest{SaleID: f.order.ID, Fee: dec("-1")}, cashier)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.testEnv.sale.Cancel(f.order.ID, &CancelSaleRequest{Reason: "error"}, cashier)
	require.NoError(t, err)
	_, err = f.svc.Create(&CreateDeliveryRequest{SaleID: f.order.ID}, cashier)
	assert.ErrorIs(t, err, ErrSaleCancelled)

	inactive := false
	driver, err := f.svc.CreateDriver(&DriverRequest{Name: "Inactivo", IsActive: &inactive}, cashier)
	require.NoError(t, err)
	assert.False(t, driver.IsActive)

	_, err = f.svc.UpdateDriver(uuid.New(), &DriverRequest{Name: "Nadie"}, cashier)
	assert.ErrorIs(t, err, ErrDriverNotFound)
	_, err = f.svc.Get(uuid.New())
	assert.ErrorIs(t, err, ErrDeliveryNotFound)
}
