// Package dgii builds the monthly 606 (purchases) and 607 (sales) reports the
// Dirección General de Impuestos Internos expects, as XML documents.
package dgii

import (
	"encoding/xml"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"go-pos-rd/internal/model"
	"go-pos-rd/pkg/money"
	"go-pos-rd/pkg/rnc"
)

var ErrInvalidPeriod = errors.New("periodo inválido: use el formato AAAAMM")

const dateLayout = "20060102"

// Period is a reporting month.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod accepts YYYYMM.
func ParsePeriod(s string) (Period, error) {
	if len(s) != 6 {
		return Period{}, ErrInvalidPeriod
	}
	t, err := time.Parse("200601", s)
	if err != nil {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d%02d", p.Year, int(p.Month))
}

// Range returns the month as [first day, first day of next month) in loc.
func (p Period) Range(loc *time.Location) (time.Time, time.Time) {
	from := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 1, 0)
}

// FileName is the download name, e.g. DGII_607_131246796_202610.xml.
func FileName(format, rncEmisor string, p Period) string {
	return fmt.Sprintf("DGII_%s_%s_%s.xml", format, rncEmisor, p)
}

// Marshal renders a report with the XML declaration.
func Marshal(doc interface{}) ([]byte, error) {
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

type Formato607 struct {
	XMLName             xml.Name      `xml:"Formato607"`
	RNCEmisor           string        `xml:"RNCEmisor"`
	Periodo             string        `xml:"Periodo"`
	CantidadRegistros   int           `xml:"CantidadRegistros"`
	Registros           []Registro607 `xml:"Registro"`
	TotalMontoFacturado string        `xml:"TotalMontoFacturado"`
	TotalITBISFacturado string        `xml:"TotalITBISFacturado"`
	// Cancelled receipts belong to the 608 report and are only counted here.
	CantidadAnulados int64 `xml:"CantidadAnulados"`
}

type Registro607 struct {
	RNCCedula            string `xml:"RNCCedula"`
	TipoIdentificacion   string `xml:"TipoIdentificacion"`
	NCF                  string `xml:"NCF"`
	NCFModificado        string `xml:"NCFModificado"`
	TipoIngreso          string `xml:"TipoIngreso"`
	FechaComprobante     string `xml:"FechaComprobante"`
	MontoFacturado       string `xml:"MontoFacturado"`
	ITBISFacturado       string `xml:"ITBISFacturado"`
	Efectivo             string `xml:"Efectivo"`
	ChequeTransferencia  string `xml:"ChequeTransferencia"`
	TarjetaDebitoCredito string `xml:"TarjetaDebitoCredito"`
	VentaCredito         string `xml:"VentaCredito"`
}

// TipoIngresoOperaciones is "Ingresos por operaciones (no financieros)".
const TipoIngresoOperaciones = "01"

// Build607 lists every completed sale. Dates are rendered in loc.
func Build607(rncEmisor string, p Period, sales []model.Sale, cancelled int64, loc *time.Location) *Formato607 {
	doc := &Formato607{
		RNCEmisor:        rncEmisor,
		Periodo:          p.String(),
		Registros:        make([]Registro607, 0, len(sales)),
		CantidadAnulados: cancelled,
	}
	totalMonto, totalITBIS := decimal.Zero, decimal.Zero
	for _, sale := range sales {
		if sale.Status != model.SaleCompleted || sale.NCF == "" {
			continue
		}
		r := Registro607{
			NCF:                  sale.NCF,
			TipoIngreso:          TipoIngresoOperaciones,
			FechaComprobante:     sale.CreatedAt.In(loc).Format(dateLayout),
			MontoFacturado:       money.Plain(sale.Subtotal),
			ITBISFacturado:       money.Plain(sale.ITBIS),
			Efectivo:             money.Plain(decimal.Zero),
			ChequeTransferencia:  money.Plain(decimal.Zero),
			TarjetaDebitoCredito: money.Plain(decimal.Zero),
			VentaCredito:         money.Plain(decimal.Zero),
		}
		if sale.CustomerDocument != "" {
			if number, kind, err := rnc.Parse(sale.CustomerDocument); err == nil {
				r.RNCCedula = number
				r.TipoIdentificacion = rnc.DGIIIdentificationType(kind)
			}
		}
		total := money.Plain(sale.Total)
		switch sale.PaymentMethod {
		case model.PaymentCash:
			r.Efectivo = total
		case model.PaymentTransfer:
			r.ChequeTransferencia = total
		case model.PaymentCard:
			r.TarjetaDebitoCredito = total
		case model.PaymentCredit:
			r.VentaCredito = total
		}
		doc.Registros = append(doc.Registros, r)
		totalMonto = totalMonto.Add(sale.Subtotal)
		totalITBIS = totalITBIS.Add(sale.ITBIS)
	}
	doc.CantidadRegistros = len(doc.Registros)
	doc.TotalMontoFacturado = money.Plain(totalMonto)
	doc.TotalITBISFacturado = money.Plain(totalITBIS)
	return doc
}

type Formato606 struct {
	XMLName             xml.Name      `xml:"Formato606"`
	RNCEmisor           string        `xml:"RNCEmisor"`
	Periodo             string        `xml:"Periodo"`
	CantidadRegistros   int           `xml:"CantidadRegistros"`
	Registros           []Registro606 `xml:"Registro"`
	TotalMontoFacturado string        `xml:"TotalMontoFacturado"`
	TotalITBISFacturado string        `xml:"TotalITBISFacturado"`
}

type Registro606 struct {
	RNCCedula               string `xml:"RNCCedula"`
	TipoIdentificacion      string `xml:"TipoIdentificacion"`
	TipoBienesServicios     string `xml:"TipoBienesServicios"`
	NCF                     string `xml:"NCF"`
	FechaComprobante        string `xml:"FechaComprobante"`
	FechaPago               string `xml:"FechaPago"`
	MontoFacturadoServicios string `xml:"MontoFacturadoServicios"`
	MontoFacturadoBienes    string `xml:"MontoFacturadoBienes"`
	TotalMontoFacturado     string `xml:"TotalMontoFacturado"`
	ITBISFacturado          string `xml:"ITBISFacturado"`
	FormaPago               string `xml:"FormaPago"`
}

// Build606 lists received purchase orders that carry a supplier NCF.
func Build606(rncEmisor string, p Period, orders []model.PurchaseOrder, loc *time.Location) *Formato606 {
	doc := &Formato606{
		RNCEmisor: rncEmisor,
		Periodo:   p.String(),
		Registros: make([]Registro606, 0, len(orders)),
	}
	totalMonto, totalITBIS := decimal.Zero, decimal.Zero
	for _, po := range orders {
		if po.Status != model.PurchaseReceived || po.SupplierNCF == nil || *po.SupplierNCF == "" || po.InvoiceDate == nil {
			continue
		}
		r := Registro606{
			TipoBienesServicios:     po.ExpenseType,
			NCF:                     *po.SupplierNCF,
			FechaComprobante:        po.InvoiceDate.In(loc).Format(dateLayout),
			MontoFacturadoServicios: money.Plain(decimal.Zero),
			MontoFacturadoBienes:    money.Plain(decimal.Zero),
			TotalMontoFacturado:     money.Plain(po.Subtotal),
			ITBISFacturado:          money.Plain(po.ITBIS),
			FormaPago:               po.PaymentMethod,
		}
		if po.PaymentDate != nil {
			r.FechaPago = po.PaymentDate.In(loc).Format(dateLayout)
		}
		if po.Supplier != nil {
			if number, kind, err := rnc.Parse(po.Supplier.RNC); err == nil {
				r.RNCCedula = number
				r.TipoIdentificacion = rnc.DGIIIdentificationType(kind)
			}
		}
		if model.IsGoodsExpense(po.ExpenseType) {
			r.MontoFacturadoBienes = money.Plain(po.Subtotal)
		} else {
			r.MontoFacturadoServicios = money.Plain(po.Subtotal)
		}
		doc.Registros = append(doc.Registros, r)
		totalMonto = totalMonto.Add(po.Subtotal)
		totalITBIS = totalITBIS.Add(po.ITBIS)
	}
	doc.CantidadRegistros = len(doc.Registros)
	doc.TotalMontoFacturado = money.Plain(totalMonto)
	doc.TotalITBISFacturado = money.Plain(totalITBIS)
	return doc
}
