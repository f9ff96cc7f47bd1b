package core_test

import (
	"testing"

	"frutta-gest/internal/core"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeTotals_PerLineVATRounding(t *testing.T) {
	// 10 kg × 1.50 @ 4% = 15.00 + 0.60
	// 2 cassa × 0.50 @ 4% = 1.00 + 0.04
	lines := []core.LineAmounts{
		{Quantity: dec("10"), UnitPrice: dec("1.50"), VATRate: dec("4")},
		{Quantity: dec("2"), UnitPrice: dec("0.50"), VATRate: dec("4")},
	}
	subtotal, vat, total := core.ComputeTotals(lines)
	if !subtotal.Equal(dec("16.00")) {
		t.Errorf("expected subtotal 16.00, got %s", subtotal)
	}
	if !vat.Equal(dec("0.64")) {
		t.Errorf("expected VAT 0.64, got %s", vat)
	}
	if !total.Equal(dec("16.64")) {
		t.Errorf("expected total 16.64, got %s", total)
	}
}

func TestComputeTotals_MixedRates(t *testing.T) {
	// 10.00 @ 4% gives 0.40, 6.00 @ 10% gives 0.60.
	lines := []core.LineAmounts{
		{Quantity: dec("4"), UnitPrice: dec("2.50"), VATRate: dec("4")},
		{Quantity: dec("3"), UnitPrice: dec("2.00"), VATRate: dec("10")},
	}
	subtotal, vat, total := core.ComputeTotals(lines)
	if !subtotal.Equal(dec("16.00")) {
		t.Errorf("expected subtotal 16.00, got %s", subtotal)
	}
	if !vat.Equal(dec("1.00")) {
		t.Errorf("expected VAT 1.00, got %s", vat)
	}
	if !total.Equal(dec("17.00")) {
		t.Errorf("expected total 17.00, got %s", total)
	}
}

func TestComputeTotals_AllThreeRates(t *testing.T) {
	// 10.00 @ 4% + 4.00 @ 10% + 2.00 @ 22% = 16.00 + 1.24.
	lines := []core.LineAmounts{
		{Quantity: dec("10"), UnitPrice: dec("1.00"), VATRate: dec("4")},
		{Quantity: dec("2"), UnitPrice: dec("2.00"), VATRate: dec("10")},
		{Quantity: dec("1"), UnitPrice: dec("2.00"), VATRate: dec("22")},
	}
	subtotal, vat, total := core.ComputeTotals(lines)
	if !subtotal.Equal(dec("16.00")) {
		t.Errorf("expected subtotal 16.00, got %s", subtotal)
	}
	if !vat.Equal(dec("1.24")) {
		t.Errorf("expected VAT 1.24, got %s", vat)
	}
	if !total.Equal(dec("17.24")) {
		t.Errorf("expected total 17.24, got %s", total)
	}
}

func TestComputeTotals_RoundsEachLine(t *testing.T) {
	// 3 × 0.333 = 0.999, rounded to 1.00 per line before summing.
	lines := []core.LineAmounts{
		{Quantity: dec("3"), UnitPrice: dec("0.333"), VATRate: dec("22")},
		{Quantity: dec("3"), UnitPrice: dec("0.333"), VATRate: dec("22")},
	}
	subtotal, vat, total := core.ComputeTotals(lines)
	if !subtotal.Equal(dec("2.00")) {
		t.Errorf("expected subtotal 2.00, got %s", subtotal)
	}
	if !vat.Equal(dec("0.44")) {
		t.Errorf("expected VAT 0.44, got %s", vat)
	}
	if !total.Equal(dec("2.44")) {
		t.Errorf("expected total 2.44, got %s", total)
	}
}

func TestComputeTotals_Empty(t *testing.T) {
	subtotal, vat, total := core.ComputeTotals(nil)
	if !subtotal.IsZero() || !vat.IsZero() || !total.IsZero() {
		t.Errorf("expected all-zero totals, got %s / %s / %s", subtotal, vat, total)
	}
}

func TestNetQuantity(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		available string
		want      string
	}{
		{"partial stock", "50", "12", "38"},
		{"surplus stock", "50", "60", "0"},
		{"exact stock", "50", "50", "0"},
		{"no stock", "50", "0", "50"},
		{"negative ledger balance", "50", "-10", "60"},
		{"fractional", "12.500", "4.250", "8.25"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.NetQuantity(dec(tt.requested), dec(tt.available))
			if !got.Equal(dec(tt.want)) {
				t.Errorf("NetQuantity(%s, %s) = %s, want %s", tt.requested, tt.available, got, tt.want)
			}
		})
	}
}

func TestNormalizeProductName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Mele  Golden ", "mele golden"},
		{"mele golden", "mele golden"},
		{"  POMODORI   Ciliegino  ", "pomodori ciliegino"},
		{"Basilico\tin vaso", "basilico in vaso"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := core.NormalizeProductName(tt.in); got != tt.want {
			t.Errorf("NormalizeProductName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProductKey(t *testing.T) {
	id := 42
	if got := core.ProductKey(core.ItemKindCatalog, &id, "ignored"); got != "p:42" {
		t.Errorf("catalog key = %q, want p:42", got)
	}
	if got := core.ProductKey(core.ItemKindFreeText, nil, "Mele  Golden"); got != "f:mele golden" {
		t.Errorf("free-text key = %q, want f:mele golden", got)
	}
	// A catalog kind with a lost product reference degrades to the name key
	// rather than panicking.
	if got := core.ProductKey(core.ItemKindCatalog, nil, "Mele"); got != "f:mele" {
		t.Errorf("catalog key without id = %q, want f:mele", got)
	}
}

func TestLineTotal_RoundsToCents(t *testing.T) {
	if got := core.LineTotal(dec("3"), dec("1.333")); !got.Equal(dec("4.00")) {
		t.Errorf("LineTotal(3, 1.333) = %s, want 4.00", got)
	}
	if got := core.LineTotal(dec("2.5"), dec("1.99")); !got.Equal(dec("4.98")) {
		t.Errorf("LineTotal(2.5, 1.99) = %s, want 4.98", got)
	}
}
