package core_test

import (
	"errors"
	"testing"
	"time"

	"frutta-gest/internal/core"
)

func TestStockService_MovementsAreSigned(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	in, err := f.stock.CreateMovement(f.ctx, core.StockMovementInput{
		ProductID: f.mele.ID, Type: core.MovementCarico, Quantity: dec("25"),
	})
	if err != nil {
		t.Fatalf("CreateMovement failed: %v", err)
	}
	if !in.Quantity.Equal(dec("25")) {
		t.Errorf("expected +25, got %s", in.Quantity)
	}
	if in.Unit != f.mele.Unit {
		t.Errorf("expected unit %q from the product, got %q", f.mele.Unit, in.Unit)
	}
	if in.MovementDate != time.Now().Format("2006-01-02") {
		t.Errorf("expected today's movement date, got %s", in.MovementDate)
	}

	// Outbound types are stored negative regardless of the input sign.
	out, err := f.stock.CreateMovement(f.ctx, core.StockMovementInput{
		ProductID: f.mele.ID, Type: core.MovementScarto, Quantity: dec("5"), Notes: "cassa schiacciata",
	})
	if err != nil {
		t.Fatalf("CreateMovement failed: %v", err)
	}
	if !out.Quantity.Equal(dec("-5")) {
		t.Errorf("expected -5, got %s", out.Quantity)
	}
}

func TestStockService_RejectsBadInput(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	if _, err := f.stock.CreateMovement(f.ctx, core.StockMovementInput{
		ProductID: f.mele.ID, Type: core.MovementCarico, Quantity: dec("0"),
	}); err == nil {
		t.Error("expected error for zero quantity")
	}
	if _, err := f.stock.CreateMovement(f.ctx, core.StockMovementInput{
		ProductID: f.mele.ID, Type: core.MovementType("TRAVASO"), Quantity: dec("1"),
	}); err == nil {
		t.Error("expected error for unknown movement type")
	}
	if _, err := f.stock.CreateMovement(f.ctx, core.StockMovementInput{
		ProductID: 99999, Type: core.MovementCarico, Quantity: dec("1"),
	}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown product, got %v", err)
	}
}

func TestStockService_SummarySumsLedger(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	seed := []struct {
		typ core.MovementType
		qty string
	}{
		{core.MovementCarico, "40"},
		{core.MovementScarico, "12"},
		{core.MovementScarto, "3"},
		{core.MovementRettificaPos, "1.5"},
	}
	for _, s := range seed {
		if _, err := f.stock.CreateMovement(f.ctx, core.StockMovementInput{
			ProductID: f.mele.ID, Type: s.typ, Quantity: dec(s.qty),
		}); err != nil {
			t.Fatalf("CreateMovement(%s) failed: %v", s.typ, err)
		}
	}

	summary, err := f.stock.GetStockSummary(f.ctx)
	if err != nil {
		t.Fatalf("GetStockSummary failed: %v", err)
	}

	var found bool
	for _, it := range summary {
		if it.ProductID != f.mele.ID {
			// Products with no movements still appear, at zero.
			if !it.Available.IsZero() {
				t.Errorf("product %s: expected 0, got %s", it.ProductCode, it.Available)
			}
			continue
		}
		found = true
		if !it.Available.Equal(dec("26.5")) {
			t.Errorf("expected 40-12-3+1.5 = 26.5, got %s", it.Available)
		}
	}
	if !found {
		t.Error("mele missing from stock summary")
	}
}

func TestStockService_MovementsNewestFirst(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	for _, qty := range []string{"10", "20"} {
		if _, err := f.stock.CreateMovement(f.ctx, core.StockMovementInput{
			ProductID: f.mele.ID, Type: core.MovementCarico, Quantity: dec(qty),
		}); err != nil {
			t.Fatalf("CreateMovement failed: %v", err)
		}
	}

	movements, err := f.stock.GetMovements(f.ctx, f.mele.ID)
	if err != nil {
		t.Fatalf("GetMovements failed: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(movements))
	}
	if !movements[0].Quantity.Equal(dec("20")) || !movements[1].Quantity.Equal(dec("10")) {
		t.Errorf("expected newest first, got %s then %s", movements[0].Quantity, movements[1].Quantity)
	}
}
