// Package money holds decimal helpers for Dominican peso amounts.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Scale is the number of decimal places amounts are stored and reported with.
const Scale = 2

// DefaultITBISRate is the general ITBIS rate (18%).
var DefaultITBISRate = decimal.NewFromFloat(0.18)

// Dominican amounts group with commas and use a dot decimal separator, the
// same convention as English.
var printer = message.NewPrinter(language.English)

// Round rounds half away from zero to two decimals.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// ITBIS returns the tax owed on a taxable, tax-exclusive amount.
func ITBIS(amount, rate decimal.Decimal) decimal.Decimal {
	return Round(amount.Mul(rate))
}

// LineSubtotal is price*qty minus the line discount, never below zero.
func LineSubtotal(price decimal.Decimal, qty int, discount decimal.Decimal) decimal.Decimal {
	sub := price.Mul(decimal.NewFromInt(int64(qty))).Sub(discount)
	if sub.IsNegative() {
		return decimal.Zero
	}
	return Round(sub)
}

// Format renders an amount as "RD$1,234.50".
func Format(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	return sign + "RD$" + printer.Sprintf("%.2f", Round(d).InexactFloat64())
}

// Plain renders an amount with two decimals and no grouping, as DGII files expect.
func Plain(d decimal.Decimal) string {
	return Round(d).StringFixed(Scale)
}

// Parse accepts "1,234.50", "RD$ 1234.5" or "1234.50".
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "RD$")
	s = strings.ReplaceAll(s, ",", "")
	return decimal.NewFromString(strings.TrimSpace(s))
}

// Allocate splits amount across weights proportionally, rounded to cents. The
// rounding remainder goes to the last non-zero weight so the parts always sum
// to the rounded amount.
func Allocate(amount decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	parts := make([]decimal.Decimal, len(weights))
	for i := range parts {
		parts[i] = decimal.Zero
	}
	sum := decimal.Zero
	last := -1
	for i, w := range weights {
		if w.IsPositive() {
			sum = sum.Add(w)
			last = i
		}
	}
	if last < 0 || amount.IsZero() {
		return parts
	}
	amount = Round(amount)
	assigned := decimal.Zero
	for i, w := range weights {
		if !w.IsPositive() || i == last {
			continue
		}
		parts[i] = Round(amount.Mul(w).Div(sum))
		assigned = assigned.Add(parts[i])
	}
	parts[last] = amount.Sub(assigned)
	return parts
}
