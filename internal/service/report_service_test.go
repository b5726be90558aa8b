package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-rd/internal/model"
	"go-pos-rd/internal/repository"
)

func (e *testEnv) businessRNC(t *testing.T, number string) {
	t.Helper()
	s, err := e.settings.Get()
	require.NoError(t, err)
	s.RNC = number
	require.NoError(t, e.settings.Save(s))
}

func (e *testEnv) fiscalSale(t *testing.T, n int64, status model.SaleStatus, method model.PaymentMethod, subtotal, itbis string, at time.Time) {
	t.Helper()
	sale := &model.Sale{
		SaleNumber:    model.SaleNumber(n),
		NCF:           model.FormatNCF("B", model.NcfConsumo, n),
		NcfType:       model.NcfConsumo,
		CashierID:     uuid.New(),
		Status:        status,
		PaymentMethod: method,
		Subtotal:      dec(subtotal),
		ITBIS:         dec(itbis),
		Total:         dec(subtotal).Add(dec(itbis)),
		AmountPaid:    dec(subtotal).Add(dec(itbis)),
	}
	sale.CreatedAt = at
	require.NoError(t, e.sales.Create(nil, sale))
}

func TestReportService_Sales607(t *testing.T) {
	e := newEnv(t)
	svc := NewReportService(e.sales, e.purchases, e.settings, e.audit, e.log, time.UTC)

	_, err := svc.Sales607("202503", cashier)
	assert.ErrorIs(t, err, ErrBusinessRNC)

	e.businessRNC(t, "131246796")
	march := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	e.fiscalSale(t, 1, model.SaleCompleted, model.PaymentCash, "100.00", "18.00", march)
	e.fiscalSale(t, 2, model.SaleCompleted, model.PaymentCard, "200.00", "36.00", march.Add(time.Hour))
	e.fiscalSale(t, 3, model.SaleCancelled, model.PaymentCash, "50.00", "9.00", march.Add(2*time.Hour))
	e.fiscalSale(t, 4, model.SaleCompleted, model.PaymentCash, "999.00", "0.00", time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))

	report, err := svc.Sales607("202503", cashier)
	require.NoError(t, err)
	assert.Equal(t, "DGII_607_131246796_202503.xml", report.FileName)
	assert.Equal(t, 2, report.Records)

	body := string(report.Body)
	assert.Contains(t, body, "<?xml")
	assert.Contains(t, body, "<NCF>B0200000001</NCF>")
	assert.Contains(t, body, "<NCF>B0200000002</NCF>")
	assert.NotContains(t, body, "B0200000003")
	assert.NotContains(t, body, "B0200000004")
	assert.Contains(t, body, "<TarjetaDebitoCredito>236.00</TarjetaDebitoCredito>")
	assert.Contains(t, body, "<TotalMontoFacturado>300.00</TotalMontoFacturado>")
	assert.Contains(t, body, "<TotalITBISFacturado>54.00</TotalITBISFacturado>")
	assert.Contains(t, body, "<CantidadAnulados>1</CantidadAnulados>")

	logs, _, err := e.auditRepo.List(repository.AuditFilter{Action: model.AuditExport})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "dgii_607", logs[0].Entity)
	assert.Equal(t, "202503", logs[0].EntityID)
}

func TestReportService_Sales607KeepsDeletedCustomer(t *testing.T) {
	e := newEnv(t)
	svc := NewReportService(e.sales, e.purchases, e.settings, e.audit, e.log, time.UTC)
	e.businessRNC(t, "131246796")
	e.sequence(t, model.NcfCreditoFiscal, 1, 100)
	rice := e.product(t, "ARROZ", 10, "100.00", true)
	buyer := e.customer(t, "Comercial Duarte", model.DocRNC, "101010632", "0")

	sale, err := e.sale.Create(context.Background(), &CreateSaleRequest{
		NcfType:       model.NcfCreditoFiscal,
		CustomerID:    &buyer.ID,
		PaymentMethod: model.PaymentCard,
		Items:         []SaleItemRequest{{ProductID: rice.ID, Quantity: 1}},
	}, "", cashier)
	require.NoError(t, err)
	require.NoError(t, e.customers.Delete(buyer.ID, "admin"))

	report, err := svc.Sales607(sale.CreatedAt.UTC().Format("200601"), cashier)
	require.NoError(t, err)
	require.Equal(t, 1, report.Records)

	body := string(report.Body)
	assert.Contains(t, body, "<RNCCedula>101010632</RNCCedula>")
	assert.Contains(t, body, "<TipoIdentificacion>1</TipoIdentificacion>")
	assert.Contains(t, body, "<NCF>B0100000001</NCF>")
}

func TestReportService_Purchases606(t *testing.T) {
	e := newEnv(t)
	svc := NewReportService(e.sales, e.purchases, e.settings, e.audit, e.log, time.UTC)
	e.businessRNC(t, "131246796")

	sup := &model.Supplier{Name: "Distribuidora Cibao SRL", RNC: "101010632", IsActive: true}
	require.NoError(t, e.suppliers.Create(sup))

	invoiced := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	ncf := "B0100000077"
	received := &model.PurchaseOrder{
		Number:        "OC-000001",
		SupplierID:    sup.ID,
		Status:        model.PurchaseReceived,
		PaymentMethod: "04",
		ExpenseType:   model.DefaultExpenseType,
		SupplierNCF:   &ncf,
		InvoiceDate:   &invoiced,
		Subtotal:      dec("800.00"),
		ITBIS:         dec("144.00"),
		Total:         dec("944.00"),
	}
	require.NoError(t, e.purchases.Create(nil, received))
	draft := &model.PurchaseOrder{
		Number:        "OC-000002",
		SupplierID:    sup.ID,
		Status:        model.PurchaseDraft,
		PaymentMethod: "04",
		ExpenseType:   model.DefaultExpenseType,
	}
	require.NoError(t, e.purchases.Create(nil, draft))

	report, err := svc.Purchases606("202503", cashier)
	require.NoError(t, err)
	assert.Equal(t, "DGII_606_131246796_202503.xml", report.FileName)
	assert.Equal(t, 1, report.Records)
	body := string(report.Body)
	assert.Contains(t, body, "<NCF>B0100000077</NCF>")
	assert.Contains(t, body, "<FechaComprobante>20250315</FechaComprobante>")
	assert.Contains(t, body, "<MontoFacturadoBienes>800.00</MontoFacturadoBienes>")
	assert.Contains(t, body, "<ITBISFacturado>144.00</ITBISFacturado>")

	empty, err := svc.Purchases606("202502", cashier)
	require.NoError(t, err)
	assert.Zero(t, empty.Records)
}

func TestReportService_InvalidPeriod(t *testing.T) {
	e := newEnv(t)
	svc := NewReportService(e.sales, e.purchases, e.settings, e.audit, e.log, time.UTC)
	e.businessRNC(t, "131246796")

	for _, period := range []string{"", "2025-03", "202513"} {
		_, err := svc.Sales607(period, cashier)
		assert.ErrorIs(t, err, ErrInvalidPeriod, period)
		assert.ErrorIs(t, err, ErrValidation, period)
	}
}
