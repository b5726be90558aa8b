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

func TestComputeLines(t *testing.T) {
	rate := dec("0.18")
	a := model.Product{Name: "Arroz", Price: dec("100.00"), Taxable: true, IsActive: true}
	a.ID = uuid.New()
	b := model.Product{Name: "Pan", Price: dec("50.00"), Taxable: false, IsActive: true}
	b.ID = uuid.New()
	products := map[uuid.UUID]model.Product{a.ID: a, b.ID: b}

	t.Run("itbis on taxable lines only", func(t *testing.T) {
		items, err := computeLines(&CreateSaleRequest{Items: []SaleItemRequest{
			{ProductID: a.ID, Quantity: 2},
			{ProductID: b.ID, Quantity: 1},
		}}, products, rate)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.True(t, dec("200").Equal(items[0].Subtotal))
		assert.True(t, dec("36").Equal(items[0].ITBIS))
		assert.True(t, dec("236").Equal(items[0].Total))
		assert.True(t, items[1].ITBIS.IsZero())

		subtotal, discount, itbis := sumLines(items)
		assert.True(t, dec("250").Equal(subtotal))
		assert.True(t, discount.IsZero())
		assert.True(t, dec("36").Equal(itbis))
	})

	t.Run("sale discount spread by gross amount", func(t *testing.T) {
		items, err := computeLines(&CreateSaleRequest{
			Discount: dec("30"),
			Items: []SaleItemRequest{
				{ProductID: a.ID, Quantity: 2},
				{ProductID: b.ID, Quantity: 2},
			},
		}, products, rate)
		require.NoError(t, err)
		assert.True(t, dec("20").Equal(items[0].Discount), items[0].Discount.String())
		assert.True(t, dec("10").Equal(items[1].Discount), items[1].Discount.String())
		assert.True(t, dec("180").Equal(items[0].Subtotal))
		assert.True(t, dec("32.4").Equal(items[0].ITBIS))
	})

	t.Run("line and sale discounts add up", func(t *testing.T) {
		items, err := computeLines(&CreateSaleRequest{
			Discount: dec("10"),
			Items:    []SaleItemRequest{{ProductID: a.ID, Quantity: 1, Discount: dec("5")}},
		}, products, rate)
		require.NoError(t, err)
		assert.True(t, dec("15").Equal(items[0].Discount))
		assert.True(t, dec("85").Equal(items[0].Subtotal))
	})

	t.Run("rejections", func(t *testing.T) {
		inactive := model.Product{Name: "Viejo", Price: dec("10"), IsActive: false}
		inactive.ID = uuid.New()
		withInactive := map[uuid.UUID]model.Product{inactive.ID: inactive}

		cases := map[string]struct {
			req      *CreateSaleRequest
			products map[uuid.UUID]model.Product
			want     error
		}{
			"unknown product": {&CreateSaleRequest{Items: []SaleItemRequest{{ProductID: uuid.New(), Quantity: 1}}}, products, ErrProductNotFound},
			"inactive":        {&CreateSaleRequest{Items: []SaleItemRequest{{ProductID: inactive.ID, Quantity: 1}}}, withInactive, ErrValidation},
			"negative":        {&CreateSaleRequest{Discount: dec("-1"), Items: []SaleItemRequest{{ProductID: a.ID, Quantity: 1}}}, products, ErrValidation},
			"line too big":    {&CreateSaleRequest{Items: []SaleItemRequest{{ProductID: a.ID, Quantity: 1, Discount: dec("101")}}}, products, ErrValidation},
			"sale too big":    {&CreateSaleRequest{Discount: dec("100.01"), Items: []SaleItemRequest{{ProductID: a.ID, Quantity: 1}}}, products, ErrValidation},
		}
		for name, tc := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := computeLines(tc.req, tc.products, rate)
				assert.ErrorIs(t, err, tc.want)
			})
		}
	})
}

func TestSaleService_CreateCash(t *testing.T) {
	e := newEnv(t)
	e.sequence(t, model.NcfConsumo, 1, 100)
	rice := e.product(t, "ARROZ", 10, "100.00", true)
	bread := e.product(t, "PAN", 5, "25.00", false)

	sale, err := e.sale.Create(context.Background(), &CreateSaleRequest{
		PaymentMethod: model.PaymentCash,
		AmountPaid:    dec("300"),
		Items: []SaleItemRequest{
			{ProductID: rice.ID, Quantity: 2},
			{ProductID: bread.ID, Quantity: 1},
		},
	}, "", cashier)
	require.NoError(t, err)

	assert.Equal(t, "V-00000001", sale.SaleNumber)
	assert.Equal(t, "B0200000001", sale.NCF)
	assert.Equal(t, model.NcfConsumo, sale.NcfType)
	assert.Equal(t, model.SaleCompleted, sale.Status)
	assert.True(t, dec("225").Equal(sale.Subtotal))
	assert.True(t, dec("36").Equal(sale.ITBIS))
	assert.True(t, dec("261").Equal(sale.Total))
	assert.True(t, dec("39").Equal(sale.Change))
	assert.Len(t, sale.Items, 2)

	assert.Equal(t, 8, e.stockOf(t, rice.ID))
	assert.Equal(t, 4, e.stockOf(t, bread.ID))

	movements, total, err := e.movements.List(repository.MovementFilter{Type: model.MovementSale})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, m := range movements {
		assert.Negative(t, m.Quantity)
		require.NotNil(t, m.ReferenceID)
		assert.Equal(t, sale.ID, *m.ReferenceID)
	}

	logs, _, err := e.auditRepo.List(repository.AuditFilter{Entity: "sale"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditCreate, logs[0].Action)

	assert.Len(t, e.events.ofType("sale_created"), 1)
	assert.Len(t, e.events.ofType("stock_update"), 2)

	second, err := e.sale.Create(context.Background(), &CreateSaleRequest{
		PaymentMethod: model.PaymentCard,
		Items:         []SaleItemRequest{{ProductID: bread.ID, Quantity: 1}},
	}, "", cashier)
	require.NoError(t, err)
	assert.Equal(t, "V-00000002", second.SaleNumber)
	assert.Equal(t, "B0200000002", second.NCF)
	assert.True(t, second.AmountPaid.Equal(second.Total))
}

func TestSaleService_CreateRollsBackOnInsufficientStock(t *testing.T) {
	e := newEnv(t)
	e.sequence(t, model.NcfConsumo, 1, 100)
	rice := e.product(t, "ARROZ", 10, "100.00", true)
	bread := e.product(t, "PAN", 1, "25.00", false)

	_, err := e.sale.Create(context.Background(), &CreateSaleRequest{
		PaymentMethod: model.PaymentCard,
		Items: []SaleItemRequest{
			{ProductID: rice.ID, Quantity: 3},
			{ProductID: bread.ID, Quantity: 2},
		},
	}, "", cashier)
	require.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "Producto PAN")

	assert.Equal(t, 10, e.stockOf(t, rice.ID), "earlier lines are rolled back")
	seq, err := e.ncfRepo.FindByType(model.NcfConsumo)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq[0].CurrentNumber, "no NCF consumed")

	sale, err := e.sale.Create(context.Background(), &CreateSaleRequest{
		PaymentMethod: model.PaymentCard,
		Items:         []SaleItemRequest{{ProductID: bread.ID, Quantity: 1}},
	}, "", cashier)
	require.NoError(t, err)
	assert.Equal(t, "V-00000001", sale.SaleNumber, "sale numbers have no gaps")
	assert.Equal(t, "B0200000001", sale.NCF)
	assert.Len(t, e.events.ofType("sale_created"), 1)
}

func TestSaleService_CreateValidations(t *testing.T) {
	e := newEnv(t)
	e.sequence(t, model.NcfConsumo, 1, 100)
	rice := e.product(t, "ARROZ", 10, "100.00", true)
	walkIn := e.customer(t, "Cliente sin documento", model.DocNone, "", "0")
	items := []SaleItemRequest{{ProductID: rice.ID, Quantity: 1}}

	cases := []struct {
		name string
		req  *CreateSaleRequest
		want error
	}{
		{"credito fiscal without customer", &CreateSaleRequest{NcfType: model.NcfCreditoFiscal, PaymentMethod: model.PaymentCard, Items: items}, ErrTaxIDRequired},
		{"credito fiscal without tax id", &CreateSaleRequest{NcfType: model.NcfCreditoFiscal, CustomerID: &walkIn.ID, PaymentMethod: model.PaymentCard, Items: items}, ErrTaxIDRequired},
		{"credit needs a customer", &CreateSaleRequest{PaymentMethod: model.PaymentCredit, Items: items}, ErrCustomerRequired},
		{"cash short", &CreateSaleRequest{PaymentMethod: model.PaymentCash, AmountPaid: dec("117.99"), Items: items}, ErrInsufficientAmount},
		{"credit note type", &CreateSaleRequest{NcfType: model.NcfNotaCredito, PaymentMethod: model.PaymentCard, Items: items}, ErrInvalidNcfType},
		{"unknown customer", &CreateSaleRequest{CustomerID: ptr(uuid.New()), PaymentMethod: model.PaymentCard, Items: items}, ErrCustomerNotFound},
		{"no sequence", &CreateSaleRequest{NcfType: model.NcfGubernamental, CustomerID: ptr(e.customer(t, "Ministerio", model.DocRNC, "401000001", "0").ID), PaymentMethod: model.PaymentTransfer, Items: items}, ErrNcfUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.sale.Create(context.Background(), tc.req, "", cashier)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, 10, e.stockOf(t, rice.ID))
}

func TestSaleService_CreditSale(t *testing.T) {
	e := newEnv(t)
	e.sequence(t, model.NcfCreditoFiscal, 1, 100)
	rice := e.product(t, "ARROZ", 50, "100.00", true)
	company := e.customer(t, "Distribuidora Caribe", model.DocRNC, "131246796", "300")

	req := func(qty int) *CreateSaleRequest {
		return &CreateSaleRequest{
			NcfType:       model.NcfCreditoFiscal,
			CustomerID:    &company.ID,
			PaymentMethod: model.PaymentCredit,
			Items:         []SaleItemRequest{{ProductID: rice.ID, Quantity: qty}},
		}
	}

	sale, err := e.sale.Create(context.Background(), req(2), "", cashier)
	require.NoError(t, err)
	assert.Equal(t, "B0100000001", sale.NCF)
	assert.True(t, sale.AmountPaid.IsZero())

	c, err := e.customers.FindByID(nil, company.ID)
	require.NoError(t, err)
	assert.True(t, dec("236").Equal(c.Balance))

	_, err = e.sale.Create(context.Background(), req(1), "", cashier)
	assert.ErrorIs(t, err, ErrCreditLimit)
	assert.Equal(t, 48, e.stockOf(t, rice.ID))

	_, err = e.sale.Cancel(sale.ID, &CancelSaleRequest{Reason: "devolución"}, cashier)
	require.NoError(t, err)
	c, err = e.customers.FindByID(nil, company.ID)
	require.NoError(t, err)
	assert.True(t, c.Balance.IsZero(), "cancel releases the credit")
}

func TestSaleService_Idempotency(t *testing.T) {
	e := newEnv(t)
	e.sequence(t, model.NcfConsumo, 1, 100)
	rice := e.product(t, "ARROZ", 1, "100.00", true)
	req := &CreateSaleRequest{PaymentMethod: model.PaymentCard, Items: []SaleItemRequest{{ProductID: rice.ID, Quantity: 1}}}
	ctx := context.Background()

	_, err := e.sale.Create(ctx, &CreateSaleRequest{PaymentMethod: model.PaymentCard, Items: []SaleItemRequest{{ProductID: rice.ID, Quantity: 5}}}, "key-1", cashier)
	require.ErrorIs(t, err, ErrConflict)

	_, err = e.sale.Create(ctx, req, "key-1", cashier)
	require.NoError(t, err, "a failed attempt releases its key")

	_, err = e.sale.Create(ctx, req, "key-1", cashier)
	assert.ErrorIs(t, err, ErrDuplicateRequest)

	page, err := e.sale.List(repository.SaleFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestSaleService_Cancel(t *testing.T) {
	e := newEnv(t)
	e.sequence(t, model.NcfConsumo, 1, 100)
	rice := e.product(t, "ARROZ", 10, "100.00", true)

	sale, err := e.sale.Create(context.Background(), &CreateSaleRequest{
		PaymentMethod: model.PaymentTransfer,
		Items:         []SaleItemRequest{{ProductID: rice.ID, Quantity: 4}},
	}, "", cashier)
	require.NoError(t, err)
	require.Equal(t, 6, e.stockOf(t, rice.ID))

	manager := Actor{ID: uuid.New(), Name: "Gerente"}
	cancelled, err := e.sale.Cancel(sale.ID, &CancelSaleRequest{Reason: " error de digitación "}, manager)
	require.NoError(t, err)
	assert.Equal(t, model.SaleCancelled, cancelled.Status)
	assert.Equal(t, "error de digitación", cancelled.CancelReason)
	require.NotNil(t, cancelled.CancelledByID)
	assert.Equal(t, manager.ID, *cancelled.CancelledByID)
	assert.Equal(t, sale.NCF, cancelled.NCF, "the NCF stays with the cancelled sale")
	assert.Equal(t, 10, e.stockOf(t, rice.ID))

	_, total, err := e.movements.List(repository.MovementFilter{Type: model.MovementSaleCancel})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, err = e.sale.Cancel(sale.ID, &CancelSaleRequest{Reason: "otra vez"}, manager)
	assert.ErrorIs(t, err, ErrSaleCancelled)
	assert.Equal(t, 10, e.stockOf(t, rice.ID), "stock is restored once")

	_, err = e.sale.Cancel(uuid.New(), &CancelSaleRequest{Reason: "x"}, manager)
	assert.ErrorIs(t, err, ErrSaleNotFound)
	assert.Len(t, e.events.ofType("sale_cancelled"), 1)
}

func TestSaleService_CancelAfterProductDeleted(t *testing.T) {
	e := newEnv(t)
	e.sequence(t, model.NcfConsumo, 1, 100)
	rice := e.product(t, "ARROZ", 10, "100.00", true)
	beans := e.product(t, "HABICHUELA", 5, "80.00", false)

	sale, err := e.sale.Create(context.Background(), &CreateSaleRequest{
		PaymentMethod: model.PaymentCard,
		Items: []SaleItemRequest{
			{ProductID: rice.ID, Quantity: 3},
			{ProductID: beans.ID, Quantity: 2},
		},
	}, "", cashier)
	require.NoError(t, err)
	require.NoError(t, e.products.Delete(rice.ID, "admin"))

	cancelled, err := e.sale.Cancel(sale.ID, &CancelSaleRequest{Reason: "devolución"}, cashier)
	require.NoError(t, err)
	assert.Equal(t, model.SaleCancelled, cancelled.Status)
	assert.Equal(t, 5, e.stockOf(t, beans.ID))

	var deleted model.Product
	require.NoError(t, e.db.Unscoped().First(&deleted, "id = ?", rice.ID).Error)
	assert.Equal(t, 10, deleted.Stock, "stock goes back to the deleted product")

	_, total, err := e.movements.List(repository.MovementFilter{Type: model.MovementSaleCancel})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestSaleService_SnapshotsBuyerDocument(t *testing.T) {
	e := newEnv(t)
	e.sequence(t, model.NcfCreditoFiscal, 1, 100)
	rice := e.product(t, "ARROZ", 10, "100.00", true)
	company := e.customer(t, "Distribuidora Caribe", model.DocRNC, "131246796", "0")

	sale, err := e.sale.Create(context.Background(), &CreateSaleRequest{
		NcfType:       model.NcfCreditoFiscal,
		CustomerID:    &company.ID,
		PaymentMethod: model.PaymentCard,
		Items:         []SaleItemRequest{{ProductID: rice.ID, Quantity: 1}},
	}, "", cashier)
	require.NoError(t, err)

	doc := "101010632"
	company.DocumentNumber = &doc
	require.NoError(t, e.customers.Update(company))

	got, err := e.sale.Get(sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "Distribuidora Caribe", got.CustomerName)
	assert.Equal(t, model.DocRNC, got.CustomerDocumentType)
	assert.Equal(t, "131246796", got.CustomerDocument)

	receipt, err := e.sale.Receipt(sale.ID)
	require.NoError(t, err)
	assert.Contains(t, receipt.Text, "RNC/Cédula: 1-31-24679-6")
}

func TestSaleService_GetAndReceipt(t *testing.T) {
	e := newEnv(t)
	e.sequence(t, model.NcfConsumo, 1, 100)
	rice := e.product(t, "ARROZ", 10, "100.00", true)

	sale, err := e.sale.Create(context.Background(), &CreateSaleRequest{
		PaymentMethod: model.PaymentCash,
		AmountPaid:    dec("200"),
		Items:         []SaleItemRequest{{ProductID: rice.ID, Quantity: 1}},
	}, "", cashier)
	require.NoError(t, err)

	got, err := e.sale.Get(sale.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.NCF, got.NCF)

	_, err = e.sale.Get(uuid.New())
	assert.ErrorIs(t, err, ErrSaleNotFound)

	receipt, err := e.sale.Receipt(sale.ID)
	require.NoError(t, err)
	assert.NotNil(t, receipt)
}

func ptr[T any](v T) *T { return &v }
