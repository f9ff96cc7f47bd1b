package core_test

import (
	"errors"
	"testing"

	"frutta-gest/internal/core"

	"github.com/shopspring/decimal"
)

// confirmOrder moves a fresh order to CONFIRMED so the netting engine sees it.
func (f *domainFixture) confirmOrder(t *testing.T, orderID int) {
	t.Helper()
	if _, err := f.orders.UpdateOrderStatus(f.ctx, orderID, core.OrderConfirmed); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
}

func itemByKey(t *testing.T, list *core.ShoppingList, key string) *core.ShoppingListItem {
	t.Helper()
	for i := range list.Items {
		if list.Items[i].ProductKey == key {
			return &list.Items[i]
		}
	}
	t.Fatalf("no list item with key %q", key)
	return nil
}

func TestShoppingListService_GenerateNetsAgainstStock(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	// 12 kg of mele on hand.
	if _, err := f.stock.CreateMovement(f.ctx, core.StockMovementInput{
		ProductID: f.mele.ID, Type: core.MovementCarico, Quantity: dec("12"),
	}); err != nil {
		t.Fatalf("CreateMovement failed: %v", err)
	}

	// Two confirmed orders asking 30 + 20 kg of mele for the same date.
	date := "2026-09-10"
	o1 := f.mustCreateOrder(t, date, core.OrderItemInput{ProductID: &f.mele.ID, Quantity: dec("30")})
	o2 := f.mustCreateOrder(t, date, core.OrderItemInput{ProductID: &f.mele.ID, Quantity: dec("20")})
	f.confirmOrder(t, o1.ID)
	f.confirmOrder(t, o2.ID)

	// A RECEIVED order for the same date is not yet netting-eligible.
	f.mustCreateOrder(t, date, core.OrderItemInput{ProductID: &f.mele.ID, Quantity: dec("100")})

	list, err := f.lists.GenerateFromOrders(f.ctx, date)
	if err != nil {
		t.Fatalf("GenerateFromOrders failed: %v", err)
	}
	if list.Status != core.ListDraft {
		t.Errorf("expected DRAFT list, got %s", list.Status)
	}
	if len(list.Items) != 1 {
		t.Fatalf("expected 1 aggregated line, got %d", len(list.Items))
	}

	item := list.Items[0]
	if !item.RequestedQty.Equal(dec("50")) {
		t.Errorf("expected requested 50, got %s", item.RequestedQty)
	}
	if !item.AvailableQty.Equal(dec("12")) {
		t.Errorf("expected available 12, got %s", item.AvailableQty)
	}
	if !item.NetQty.Equal(dec("38")) {
		t.Errorf("expected net 38, got %s", item.NetQty)
	}
	// Default supplier prefilled from the product.
	if item.SupplierID == nil || *item.SupplierID != f.supplier1.ID {
		t.Errorf("expected default supplier %d, got %v", f.supplier1.ID, item.SupplierID)
	}
}

func TestShoppingListService_SurplusStockNetsToZero(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	if _, err := f.stock.CreateMovement(f.ctx, core.StockMovementInput{
		ProductID: f.mele.ID, Type: core.MovementCarico, Quantity: dec("60"),
	}); err != nil {
		t.Fatalf("CreateMovement failed: %v", err)
	}

	date := "2026-09-10"
	o := f.mustCreateOrder(t, date, core.OrderItemInput{ProductID: &f.mele.ID, Quantity: dec("50")})
	f.confirmOrder(t, o.ID)

	list, err := f.lists.GenerateFromOrders(f.ctx, date)
	if err != nil {
		t.Fatalf("GenerateFromOrders failed: %v", err)
	}
	if !list.Items[0].NetQty.IsZero() {
		t.Errorf("expected net 0 with surplus stock, got %s", list.Items[0].NetQty)
	}
}

func TestShoppingListService_FreeTextAggregation(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	date := "2026-09-10"
	o1 := f.mustCreateOrder(t, date, core.OrderItemInput{
		Description: "Mele  Golden ", Quantity: dec("5"), Unit: "kg", UnitPrice: dec("2.00"), VATRate: dec("4"),
	})
	o2 := f.mustCreateOrder(t, date, core.OrderItemInput{
		Description: "mele golden", Quantity: dec("3"), Unit: "kg", UnitPrice: dec("2.10"), VATRate: dec("4"),
	})
	f.confirmOrder(t, o1.ID)
	f.confirmOrder(t, o2.ID)

	list, err := f.lists.GenerateFromOrders(f.ctx, date)
	if err != nil {
		t.Fatalf("GenerateFromOrders failed: %v", err)
	}
	if len(list.Items) != 1 {
		t.Fatalf("expected normalized names to aggregate into 1 line, got %d", len(list.Items))
	}
	item := list.Items[0]
	if item.ProductKey != "f:mele golden" {
		t.Errorf("expected key f:mele golden, got %s", item.ProductKey)
	}
	if !item.RequestedQty.Equal(dec("8")) {
		t.Errorf("expected requested 8, got %s", item.RequestedQty)
	}
	// Free-text lines have no stock position: full quantity is the need.
	if !item.NetQty.Equal(dec("8")) {
		t.Errorf("expected net 8, got %s", item.NetQty)
	}
	if item.SupplierID != nil {
		t.Error("free-text line must not get a default supplier")
	}
}

func TestShoppingListService_NoOrdersForDate(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	_, err := f.lists.GenerateFromOrders(f.ctx, "2026-12-24")
	if !errors.Is(err, core.ErrNoOrdersForDate) {
		t.Errorf("expected ErrNoOrdersForDate, got %v", err)
	}
}

func TestShoppingListService_RegenerationPreservesAssignments(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	date := "2026-09-10"
	o1 := f.mustCreateOrder(t, date, core.OrderItemInput{ProductID: &f.basilico.ID, Quantity: dec("10")})
	f.confirmOrder(t, o1.ID)

	list, err := f.lists.GenerateFromOrders(f.ctx, date)
	if err != nil {
		t.Fatalf("GenerateFromOrders failed: %v", err)
	}
	item := list.Items[0]
	if item.SupplierID != nil {
		t.Fatal("basilico has no default supplier, expected unassigned line")
	}

	// Manual assignment plus a note.
	notes := "prendere dal banco 12"
	if _, err := f.lists.UpdateItem(f.ctx, item.ID, core.ShoppingListItemUpdate{
		SupplierID: &f.supplier2.ID, Notes: &notes,
	}); err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}

	// New demand arrives, list is regenerated.
	o2 := f.mustCreateOrder(t, date, core.OrderItemInput{ProductID: &f.basilico.ID, Quantity: dec("4")})
	f.confirmOrder(t, o2.ID)

	regenerated, err := f.lists.GenerateFromOrders(f.ctx, date)
	if err != nil {
		t.Fatalf("regeneration failed: %v", err)
	}
	if regenerated.ID != list.ID {
		t.Errorf("expected same list %d, got %d", list.ID, regenerated.ID)
	}
	reItem := itemByKey(t, regenerated, item.ProductKey)
	if !reItem.RequestedQty.Equal(dec("14")) {
		t.Errorf("expected requested 14 after regeneration, got %s", reItem.RequestedQty)
	}
	if reItem.SupplierID == nil || *reItem.SupplierID != f.supplier2.ID {
		t.Error("manual supplier assignment lost on regeneration")
	}
	if reItem.Notes != notes {
		t.Errorf("notes lost on regeneration: %q", reItem.Notes)
	}
}

func TestShoppingListService_RegenerationOnlyWhileDraft(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	date := "2026-09-10"
	o := f.mustCreateOrder(t, date)
	f.confirmOrder(t, o.ID)

	list, err := f.lists.GenerateFromOrders(f.ctx, date)
	if err != nil {
		t.Fatalf("GenerateFromOrders failed: %v", err)
	}
	if _, err := f.lists.UpdateStatus(f.ctx, list.ID, core.ListFinalized); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if _, err := f.lists.GenerateFromOrders(f.ctx, date); !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition regenerating a FINALIZED list, got %v", err)
	}
}

func TestShoppingListService_UpdateItemGuards(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	date := "2026-09-10"
	o := f.mustCreateOrder(t, date)
	f.confirmOrder(t, o.ID)
	list, err := f.lists.GenerateFromOrders(f.ctx, date)
	if err != nil {
		t.Fatalf("GenerateFromOrders failed: %v", err)
	}
	itemID := list.Items[0].ID

	// Negative manual net quantity rejected.
	neg := decimal.NewFromInt(-1)
	if _, err := f.lists.UpdateItem(f.ctx, itemID, core.ShoppingListItemUpdate{NetQty: &neg}); err == nil {
		t.Error("expected error for negative net quantity")
	}

	// Unknown supplier rejected.
	unknown := 99999
	if _, err := f.lists.UpdateItem(f.ctx, itemID, core.ShoppingListItemUpdate{SupplierID: &unknown}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown supplier, got %v", err)
	}

	// ClearSupplier removes the default assignment.
	cleared, err := f.lists.UpdateItem(f.ctx, itemID, core.ShoppingListItemUpdate{ClearSupplier: true})
	if err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	if cleared.SupplierID != nil {
		t.Error("expected supplier cleared")
	}
}
