package dgii

import (
	"encoding/xml"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-rd/internal/model"
)

func santoDomingo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Santo_Domingo")
	if err != nil {
		return time.FixedZone("AST", -4*3600)
	}
	return loc
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string { return &s }

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("202610")
	require.NoError(t, err)
	assert.Equal(t, 2026, p.Year)
	assert.Equal(t, time.October, p.Month)
	assert.Equal(t, "202610", p.String())

	for _, bad := range []string{"", "2026", "2026-10", "202613", "abcdef"} {
		_, err := ParsePeriod(bad)
		assert.ErrorIs(t, err, ErrInvalidPeriod, bad)
	}
}

func TestPeriodRange(t *testing.T) {
	loc := santoDomingo(t)
	p := Period{Year: 2026, Month: time.December}
	from, to := p.Range(loc)
	assert.Equal(t, time.Date(2026, time.December, 1, 0, 0, 0, 0, loc), from)
	assert.Equal(t, time.Date(2027, time.January, 1, 0, 0, 0, 0, loc), to)
}

func TestFileName(t *testing.T) {
	p := Period{Year: 2026, Month: time.March}
	assert.Equal(t, "DGII_607_131246796_202603.xml", FileName("607", "131246796", p))
}

func TestBuild607(t *testing.T) {
	loc := santoDomingo(t)
	created := time.Date(2026, time.October, 5, 23, 30, 0, 0, loc)
	sales := []model.Sale{
		{
			BaseModel:            model.BaseModel{CreatedAt: created},
			NCF:                  "B0100000001",
			Status:               model.SaleCompleted,
			PaymentMethod:        model.PaymentCredit,
			Subtotal:             dec("1000"),
			ITBIS:                dec("180"),
			Total:                dec("1180"),
			CustomerDocumentType: model.DocRNC,
			CustomerDocument:     "131246796",
		},
		{
			BaseModel:     model.BaseModel{CreatedAt: created},
			NCF:           "B0200000001",
			Status:        model.SaleCompleted,
			PaymentMethod: model.PaymentCash,
			Subtotal:      dec("50.5"),
			ITBIS:         dec("9.09"),
			Total:         dec("59.59"),
		},
		{
			BaseModel: model.BaseModel{CreatedAt: created},
			NCF:       "B0200000002",
			Status:    model.SaleCancelled,
			Subtotal:  dec("10"),
			Total:     dec("10"),
		},
	}

	doc := Build607("101010632", Period{Year: 2026, Month: time.October}, sales, 1, loc)

	require.Len(t, doc.Registros, 2)
	assert.Equal(t, 2, doc.CantidadRegistros)
	assert.Equal(t, int64(1), doc.CantidadAnulados)
	assert.Equal(t, "1050.50", doc.TotalMontoFacturado)
	assert.Equal(t, "189.09", doc.TotalITBISFacturado)

	credit := doc.Registros[0]
	assert.Equal(t, "131246796", credit.RNCCedula)
	assert.Equal(t, "1", credit.TipoIdentificacion)
	assert.Equal(t, "20261005", credit.FechaComprobante)
	assert.Equal(t, "1180.00", credit.VentaCredito)
	assert.Equal(t, "0.00", credit.Efectivo)
	assert.Equal(t, TipoIngresoOperaciones, credit.TipoIngreso)

	cash := doc.Registros[1]
	assert.Empty(t, cash.RNCCedula)
	assert.Empty(t, cash.TipoIdentificacion)
	assert.Equal(t, "59.59", cash.Efectivo)
}

func TestBuild606(t *testing.T) {
	loc := santoDomingo(t)
	invoice := time.Date(2026, time.October, 2, 10, 0, 0, 0, loc)
	paid := time.Date(2026, time.October, 20, 10, 0, 0, 0, loc)
	orders := []model.PurchaseOrder{
		{
			Status:        model.PurchaseReceived,
			Supplier:      &model.Supplier{RNC: "131246796"},
			SupplierNCF:   strPtr("B0100000123"),
			InvoiceDate:   &invoice,
			PaymentDate:   &paid,
			PaymentMethod: "02",
			ExpenseType:   "09",
			Subtotal:      dec("500"),
			ITBIS:         dec("90"),
		},
		{
			Status:        model.PurchaseReceived,
			Supplier:      &model.Supplier{RNC: "00112345678"},
			SupplierNCF:   strPtr("B1100000001"),
			InvoiceDate:   &invoice,
			PaymentMethod: "01",
			ExpenseType:   "02",
			Subtotal:      dec("100"),
		},
		{
			Status:      model.PurchaseReceived,
			Supplier:    &model.Supplier{RNC: "131246796"},
			InvoiceDate: &invoice,
			Subtotal:    dec("999"),
		},
	}

	doc := Build606("101010632", Period{Year: 2026, Month: time.October}, orders, loc)

	require.Len(t, doc.Registros, 2)
	goods := doc.Registros[0]
	assert.Equal(t, "500.00", goods.MontoFacturadoBienes)
	assert.Equal(t, "0.00", goods.MontoFacturadoServicios)
	assert.Equal(t, "20261020", goods.FechaPago)
	assert.Equal(t, "02", goods.FormaPago)

	services := doc.Registros[1]
	assert.Equal(t, "2", services.TipoIdentificacion)
	assert.Equal(t, "100.00", services.MontoFacturadoServicios)
	assert.Empty(t, services.FechaPago)

	assert.Equal(t, "600.00", doc.TotalMontoFacturado)
	assert.Equal(t, "90.00", doc.TotalITBISFacturado)
}

func TestMarshal(t *testing.T) {
	doc := Build607("101010632", Period{Year: 2026, Month: time.January}, nil, 0, time.UTC)
	out, err := Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), xml.Header)
	assert.Contains(t, string(out), "<Formato607>")
	assert.Contains(t, string(out), "<RNCEmisor>101010632</RNCEmisor>")
	assert.Contains(t, string(out), "<CantidadRegistros>0</CantidadRegistros>")

	var back Formato607
	require.NoError(t, xml.Unmarshal(out, &back))
	assert.Equal(t, "202601", back.Periodo)
}
