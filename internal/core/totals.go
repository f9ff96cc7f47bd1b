package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// LineAmounts is the minimal shape needed to recompute document totals.
// Every line-item type (order, delivery note, invoice) reduces to it.
type LineAmounts struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	VATRate   decimal.Decimal // percentage, e.g. 4 for 4%
}

// LineTotal computes quantity × unit price rounded to cents.
func LineTotal(qty, unitPrice decimal.Decimal) decimal.Decimal {
	return qty.Mul(unitPrice).Round(2)
}

// ComputeTotals derives subtotal, VAT amount, and grand total from line
// items. Totals are never trusted from stored columns or client input —
// every mutating write recomputes them through this function inside the
// same transaction. VAT is rounded per line, then summed.
func ComputeTotals(lines []LineAmounts) (subtotal, vatAmount, total decimal.Decimal) {
	hundred := decimal.NewFromInt(100)
	for _, l := range lines {
		lineTotal := LineTotal(l.Quantity, l.UnitPrice)
		subtotal = subtotal.Add(lineTotal)
		vatAmount = vatAmount.Add(lineTotal.Mul(l.VATRate).Div(hundred).Round(2))
	}
	return subtotal.Round(2), vatAmount.Round(2), subtotal.Add(vatAmount).Round(2)
}

// NetQuantity computes the true purchase need: requested minus available,
// floored at zero.
func NetQuantity(requested, available decimal.Decimal) decimal.Decimal {
	net := requested.Sub(available)
	if net.IsNegative() {
		return decimal.Zero
	}
	return net
}

// NormalizeProductName lowercases, trims, and collapses inner whitespace so
// free-text lines like "Mele  Golden " and "mele golden" aggregate together.
func NormalizeProductName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// ProductKey builds the aggregation key used by the netting engine and by
// idempotent shopping list regeneration. Catalog lines key on the product
// ID; free-text lines on the normalized description.
func ProductKey(kind ItemKind, productID *int, description string) string {
	if kind == ItemKindCatalog && productID != nil {
		return "p:" + strconv.Itoa(*productID)
	}
	return "f:" + NormalizeProductName(description)
}
