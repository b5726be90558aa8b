package service

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"go-pos-rd/internal/model"
	"go-pos-rd/pkg/money"
	"go-pos-rd/pkg/rnc"
)

// ReceiptWidth fits 58 mm thermal printers.
const ReceiptWidth = 40

// Receipt is the printable ticket of a sale.
type Receipt struct {
	Sale     *model.Sale             `json:"sale"`
	Business *model.BusinessSettings `json:"business"`
	Text     string                  `json:"text"`
}

// A Caser is stateful, so each call builds its own.
func upperES(s string) string {
	return cases.Upper(language.Spanish).String(s)
}

var receiptTitles = map[model.NcfType]string{
	model.NcfCreditoFiscal: "Factura de Crédito Fiscal",
	model.NcfConsumo:       "Factura de Consumo",
	model.NcfRegimenEsp:    "Factura de Regímenes Especiales",
	model.NcfGubernamental: "Factura Gubernamental",
}

func BuildReceipt(sale *model.Sale, business *model.BusinessSettings, loc *time.Location) *Receipt {
	if loc == nil {
		loc = time.UTC
	}
	var b strings.Builder
	rule := strings.Repeat("-", ReceiptWidth)

	center(&b, upperES(business.BusinessName))
	if business.RNC != "" {
		center(&b, "RNC: "+rnc.Format(business.RNC))
	}
	if business.Address != "" {
		center(&b, business.Address)
	}
	if business.Phone != "" {
		center(&b, "Tel: "+business.Phone)
	}
	b.WriteString(rule + "\n")

	title, ok := receiptTitles[sale.NcfType]
	if !ok {
		title = "Factura"
	}
	center(&b, upperES(title))
	if sale.Status == model.SaleCancelled {
		center(&b, "*** ANULADA ***")
	}
	fmt.Fprintf(&b, "NCF: %s\n", sale.NCF)
	fmt.Fprintf(&b, "Venta: %s\n", sale.SaleNumber)
	fmt.Fprintf(&b, "Fecha: %s\n", sale.CreatedAt.In(loc).Format("02/01/2006 15:04"))
	if sale.Cashier != nil {
		fmt.Fprintf(&b, "Cajero: %s\n", sale.Cashier.FullName)
	}
	if sale.CustomerName != "" {
		fmt.Fprintf(&b, "Cliente: %s\n", sale.CustomerName)
	}
	if sale.CustomerDocument != "" {
		fmt.Fprintf(&b, "RNC/Cédula: %s\n", rnc.Format(sale.CustomerDocument))
	}
	b.WriteString(rule + "\n")

	for _, it := range sale.Items {
		b.WriteString(truncate(it.ProductName, ReceiptWidth) + "\n")
		qty := fmt.Sprintf("  %d x %s", it.Quantity, money.Format(it.UnitPrice))
		if !it.Taxable {
			qty += " E"
		}
		pair(&b, qty, money.Format(it.Subtotal.Add(it.Discount)))
		if it.Discount.IsPositive() {
			pair(&b, "  Descuento", money.Format(it.Discount.Neg()))
		}
	}
	b.WriteString(rule + "\n")

	pair(&b, "Subtotal", money.Format(sale.Subtotal))
	if sale.Discount.IsPositive() {
		pair(&b, "Descuentos aplicados", money.Format(sale.Discount.Neg()))
	}
	pair(&b, "ITBIS", money.Format(sale.ITBIS))
	pair(&b, "TOTAL", money.Format(sale.Total))
	pair(&b, "Forma de pago", model.PaymentMethodLabel(sale.PaymentMethod))
	if sale.PaymentMethod == model.PaymentCash {
		pair(&b, "Recibido", money.Format(sale.AmountPaid))
		pair(&b, "Cambio", money.Format(sale.Change))
	}
	b.WriteString(rule + "\n")

	if sale.Status == model.SaleCancelled && sale.CancelReason != "" {
		b.WriteString("Motivo de anulación: " + sale.CancelReason + "\n")
	}
	if business.ReceiptFooter != "" {
		center(&b, business.ReceiptFooter)
	}

	return &Receipt{Sale: sale, Business: business, Text: b.String()}
}

func center(b *strings.Builder, s string) {
	s = truncate(s, ReceiptWidth)
	pad := (ReceiptWidth - utf8.RuneCountInString(s)) / 2
	b.WriteString(strings.Repeat(" ", pad) + s + "\n")
}

// pair writes left and right aligned to the receipt edges.
func pair(b *strings.Builder, left, right string) {
	gap := ReceiptWidth - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if gap < 1 {
		gap = 1
	}
	b.WriteString(left + strings.Repeat(" ", gap) + right + "\n")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
