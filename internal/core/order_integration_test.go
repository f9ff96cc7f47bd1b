package core_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"frutta-gest/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
)

// domainFixture wires every core service over one test pool and seeds a
// small produce catalog through the party service, so master data codes come
// from the real numbering sequences.
type domainFixture struct {
	pool      *pgxpool.Pool
	ctx       context.Context
	numbering core.NumberingService
	stock     core.StockService
	orders    core.OrderService
	notes     core.DeliveryNoteService
	invoices  core.InvoiceService
	lists     core.ShoppingListService
	pos       core.PurchaseOrderService
	parties   core.PartyService

	customer  *core.Customer
	supplier1 *core.Supplier
	supplier2 *core.Supplier
	mele      *core.Product // default supplier 1
	pomodori  *core.Product // default supplier 2
	basilico  *core.Product // no default supplier
}

func setupDomainTestDB(t *testing.T) *domainFixture {
	t.Helper()
	pool := setupTestDB(t)
	ctx := context.Background()

	f := &domainFixture{pool: pool, ctx: ctx}
	f.numbering = core.NewNumberingService(pool)
	f.stock = core.NewStockService(pool)
	f.orders = core.NewOrderService(pool, f.numbering)
	f.notes = core.NewDeliveryNoteService(pool, f.numbering, f.stock)
	f.invoices = core.NewInvoiceService(pool, f.numbering)
	f.lists = core.NewShoppingListService(pool, f.stock)
	f.pos = core.NewPurchaseOrderService(pool, f.numbering, f.stock)
	f.parties = core.NewPartyService(pool, f.numbering)

	var err error
	f.customer, err = f.parties.CreateCustomer(ctx, core.CustomerInput{Name: "Ristorante Da Mario"})
	if err != nil {
		t.Fatalf("Failed to seed customer: %v", err)
	}
	f.supplier1, err = f.parties.CreateSupplier(ctx, core.SupplierInput{Name: "Ortofrutta Toscana"})
	if err != nil {
		t.Fatalf("Failed to seed supplier 1: %v", err)
	}
	f.supplier2, err = f.parties.CreateSupplier(ctx, core.SupplierInput{Name: "Agricola Verdi"})
	if err != nil {
		t.Fatalf("Failed to seed supplier 2: %v", err)
	}

	f.mele, err = f.parties.CreateProduct(ctx, core.ProductInput{
		Code: "MELA", Name: "Mele Golden", Unit: "kg",
		DefaultPrice: dec("1.50"), VATRate: dec("4"),
		DefaultSupplierID: &f.supplier1.ID,
	})
	if err != nil {
		t.Fatalf("Failed to seed product mele: %v", err)
	}
	f.pomodori, err = f.parties.CreateProduct(ctx, core.ProductInput{
		Code: "POMO", Name: "Pomodori ciliegino", Unit: "kg",
		DefaultPrice: dec("3.80"), VATRate: dec("4"),
		DefaultSupplierID: &f.supplier2.ID,
	})
	if err != nil {
		t.Fatalf("Failed to seed product pomodori: %v", err)
	}
	f.basilico, err = f.parties.CreateProduct(ctx, core.ProductInput{
		Code: "BASI", Name: "Basilico", Unit: "pz",
		DefaultPrice: dec("1.60"), VATRate: dec("10"),
	})
	if err != nil {
		t.Fatalf("Failed to seed product basilico: %v", err)
	}

	if _, err := f.parties.SetSupplierPrice(ctx, f.supplier1.ID, f.mele.ID, dec("1.40")); err != nil {
		t.Fatalf("Failed to seed supplier price: %v", err)
	}
	if _, err := f.parties.SetSupplierPrice(ctx, f.supplier2.ID, f.pomodori.ID, dec("2.60")); err != nil {
		t.Fatalf("Failed to seed supplier price: %v", err)
	}

	return f
}

// mustCreateOrder creates an order for the fixture customer with one catalog
// line of 10 kg mele, unless items override it.
func (f *domainFixture) mustCreateOrder(t *testing.T, date string, items ...core.OrderItemInput) *core.Order {
	t.Helper()
	if len(items) == 0 {
		items = []core.OrderItemInput{{ProductID: &f.mele.ID, Quantity: dec("10")}}
	}
	order, err := f.orders.CreateOrder(f.ctx, core.OrderInput{
		CustomerID:   f.customer.ID,
		Channel:      core.ChannelManual,
		DeliveryDate: date,
		Items:        items,
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	return order
}

// mustAdvanceOrder walks an order RECEIVED → CONFIRMED → IN_PREPARATION.
func (f *domainFixture) mustAdvanceOrder(t *testing.T, orderID int) *core.Order {
	t.Helper()
	if _, err := f.orders.UpdateOrderStatus(f.ctx, orderID, core.OrderConfirmed); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	order, err := f.orders.UpdateOrderStatus(f.ctx, orderID, core.OrderInPreparation)
	if err != nil {
		t.Fatalf("move to IN_PREPARATION failed: %v", err)
	}
	return order
}

func TestOrderService_CreateOrder(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	order := f.mustCreateOrder(t, "2026-09-01",
		core.OrderItemInput{ProductID: &f.mele.ID, Quantity: dec("10")},
		core.OrderItemInput{Description: "Cassette legno", Quantity: dec("2"), Unit: "pz", UnitPrice: dec("0.50"), VATRate: dec("4")},
	)

	if order.Status != core.OrderReceived {
		t.Errorf("expected RECEIVED, got %s", order.Status)
	}
	want := fmt.Sprintf("ORD-%d-00001", time.Now().Year())
	if order.Number != want {
		t.Errorf("expected number %s, got %s", want, order.Number)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(order.Items))
	}

	// Catalog line pulled name, unit, price, and VAT from the product.
	first := order.Items[0]
	if first.Kind != core.ItemKindCatalog {
		t.Errorf("expected CATALOG line, got %s", first.Kind)
	}
	if first.Description != "Mele Golden" || first.Unit != "kg" {
		t.Errorf("catalog defaults not applied: %q %q", first.Description, first.Unit)
	}
	if !first.UnitPrice.Equal(dec("1.50")) {
		t.Errorf("expected unit price 1.50, got %s", first.UnitPrice)
	}

	second := order.Items[1]
	if second.Kind != core.ItemKindFreeText {
		t.Errorf("expected FREE_TEXT line, got %s", second.Kind)
	}

	// 10×1.50=15.00 @4% + 2×0.50=1.00 @4% → 16.00 / 0.64 / 16.64
	if !order.Subtotal.Equal(dec("16.00")) {
		t.Errorf("expected subtotal 16.00, got %s", order.Subtotal)
	}
	if !order.VATAmount.Equal(dec("0.64")) {
		t.Errorf("expected VAT 0.64, got %s", order.VATAmount)
	}
	if !order.Total.Equal(dec("16.64")) {
		t.Errorf("expected total 16.64, got %s", order.Total)
	}
}

func TestOrderService_CreateOrderValidation(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	// Free-text line without description
	_, err := f.orders.CreateOrder(f.ctx, core.OrderInput{
		CustomerID: f.customer.ID, Channel: core.ChannelManual, DeliveryDate: "2026-09-01",
		Items: []core.OrderItemInput{{Quantity: dec("1"), Unit: "kg"}},
	})
	if err == nil {
		t.Error("expected error for free-text line without description")
	}

	// Unknown channel
	_, err = f.orders.CreateOrder(f.ctx, core.OrderInput{
		CustomerID: f.customer.ID, Channel: "fax", DeliveryDate: "2026-09-01",
		Items: []core.OrderItemInput{{ProductID: &f.mele.ID, Quantity: dec("1")}},
	})
	if err == nil {
		t.Error("expected error for unknown channel")
	}

	// Bad delivery date
	_, err = f.orders.CreateOrder(f.ctx, core.OrderInput{
		CustomerID: f.customer.ID, Channel: core.ChannelManual, DeliveryDate: "01/09/2026",
		Items: []core.OrderItemInput{{ProductID: &f.mele.ID, Quantity: dec("1")}},
	})
	if err == nil {
		t.Error("expected error for malformed delivery date")
	}
	// Malformed input is a plain validation failure, not a numbering-period
	// violation.
	if errors.Is(err, core.ErrInvalidPeriod) {
		t.Errorf("date validation must not report a numbering period error: %v", err)
	}

	// Unknown customer
	_, err = f.orders.CreateOrder(f.ctx, core.OrderInput{
		CustomerID: 99999, Channel: core.ChannelManual, DeliveryDate: "2026-09-01",
		Items: []core.OrderItemInput{{ProductID: &f.mele.ID, Quantity: dec("1")}},
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// Non-positive quantity
	_, err = f.orders.CreateOrder(f.ctx, core.OrderInput{
		CustomerID: f.customer.ID, Channel: core.ChannelManual, DeliveryDate: "2026-09-01",
		Items: []core.OrderItemInput{{ProductID: &f.mele.ID, Quantity: dec("0")}},
	})
	if err == nil {
		t.Error("expected error for zero quantity")
	}
}

func TestOrderService_StatusGuards(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	order := f.mustCreateOrder(t, "2026-09-01")

	// DELIVERED and INVOICED are side-effect-only targets.
	if _, err := f.orders.UpdateOrderStatus(f.ctx, order.ID, core.OrderDelivered); !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition for direct DELIVERED, got %v", err)
	}
	if _, err := f.orders.UpdateOrderStatus(f.ctx, order.ID, core.OrderInvoiced); !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition for direct INVOICED, got %v", err)
	}

	// Skipping CONFIRMED is not allowed.
	if _, err := f.orders.UpdateOrderStatus(f.ctx, order.ID, core.OrderInPreparation); !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition for RECEIVED → IN_PREPARATION, got %v", err)
	}

	order2, err := f.orders.UpdateOrderStatus(f.ctx, order.ID, core.OrderConfirmed)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if order2.Status != core.OrderConfirmed {
		t.Errorf("expected CONFIRMED, got %s", order2.Status)
	}

	// CANCELLED is reachable from CONFIRMED but not from IN_PREPARATION.
	if _, err := f.orders.UpdateOrderStatus(f.ctx, order.ID, core.OrderCancelled); err != nil {
		t.Errorf("cancel from CONFIRMED failed: %v", err)
	}
	prepared := f.mustAdvanceOrder(t, f.mustCreateOrder(t, "2026-09-02").ID)
	if _, err := f.orders.UpdateOrderStatus(f.ctx, prepared.ID, core.OrderCancelled); !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition cancelling IN_PREPARATION, got %v", err)
	}
}

func TestOrderService_UpdateLockedOrder(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	order := f.mustCreateOrder(t, "2026-09-01")
	if _, err := f.orders.UpdateOrderStatus(f.ctx, order.ID, core.OrderCancelled); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	_, err := f.orders.UpdateOrder(f.ctx, order.ID, core.OrderInput{
		CustomerID: f.customer.ID, Channel: core.ChannelManual, DeliveryDate: "2026-09-05",
		Items: []core.OrderItemInput{{ProductID: &f.mele.ID, Quantity: dec("5")}},
	})
	if !errors.Is(err, core.ErrOrderLocked) {
		t.Errorf("expected ErrOrderLocked for cancelled order, got %v", err)
	}
}

func TestOrderService_UpdateRecomputesTotals(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	order := f.mustCreateOrder(t, "2026-09-01")
	updated, err := f.orders.UpdateOrder(f.ctx, order.ID, core.OrderInput{
		CustomerID: f.customer.ID, Channel: core.ChannelWhatsApp, DeliveryDate: "2026-09-02",
		Items: []core.OrderItemInput{
			{ProductID: &f.pomodori.ID, Quantity: dec("5")},
		},
	})
	if err != nil {
		t.Fatalf("UpdateOrder failed: %v", err)
	}
	if len(updated.Items) != 1 {
		t.Fatalf("expected item set replaced, got %d items", len(updated.Items))
	}
	// 5 × 3.80 = 19.00 @4% → 0.76
	if !updated.Subtotal.Equal(dec("19.00")) || !updated.Total.Equal(dec("19.76")) {
		t.Errorf("totals not recomputed: %s / %s", updated.Subtotal, updated.Total)
	}
	if updated.Channel != core.ChannelWhatsApp || updated.DeliveryDate != "2026-09-02" {
		t.Errorf("header fields not updated: %s %s", updated.Channel, updated.DeliveryDate)
	}
}

func TestOrderService_DeleteCascadesDraftNotes(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	order := f.mustCreateOrder(t, "2026-09-01")
	f.mustAdvanceOrder(t, order.ID)
	note, err := f.notes.CreateDeliveryNote(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("CreateDeliveryNote failed: %v", err)
	}

	if err := f.orders.DeleteOrder(f.ctx, order.ID); err != nil {
		t.Fatalf("delete with only draft notes should succeed: %v", err)
	}
	if _, err := f.notes.GetDeliveryNote(f.ctx, note.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected draft note gone with the order, got %v", err)
	}
}

func TestOrderService_DeleteDetachesIssuedNotes(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	order := f.mustCreateOrder(t, "2026-09-01")
	f.mustAdvanceOrder(t, order.ID)
	note, err := f.notes.CreateDeliveryNote(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("CreateDeliveryNote failed: %v", err)
	}
	if _, err := f.notes.UpdateDeliveryNoteStatus(f.ctx, note.ID, core.DDTIssued); err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := f.notes.UpdateDeliveryNoteStatus(f.ctx, note.ID, core.DDTDelivered); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}

	// A delivered order that was never invoiced can still go; its transport
	// document survives without an origin reference.
	if err := f.orders.DeleteOrder(f.ctx, order.ID); err != nil {
		t.Fatalf("delete of delivered order failed: %v", err)
	}
	reloaded, err := f.notes.GetDeliveryNote(f.ctx, note.ID)
	if err != nil {
		t.Fatalf("GetDeliveryNote failed: %v", err)
	}
	if reloaded.OrderID != nil {
		t.Errorf("expected note detached, still references order %d", *reloaded.OrderID)
	}
	if reloaded.Status != core.DDTDelivered {
		t.Errorf("expected note status untouched, got %s", reloaded.Status)
	}
}

func TestOrderService_DeleteBlockedOnceInvoiced(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	order, note := f.mustIssuedNote(t, "2026-09-01")
	if _, err := f.notes.UpdateDeliveryNoteStatus(f.ctx, note.ID, core.DDTDelivered); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if _, err := f.invoices.CreateInvoice(f.ctx, core.InvoiceInput{
		CustomerID: f.customer.ID, DDTIDs: []int{note.ID},
		IssueDate: "2026-09-02", DueDate: "2026-10-02",
	}); err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}

	if err := f.orders.DeleteOrder(f.ctx, order.ID); !errors.Is(err, core.ErrOrderLocked) {
		t.Errorf("expected ErrOrderLocked for invoiced order, got %v", err)
	}
}

func TestOrderService_Filters(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	o1 := f.mustCreateOrder(t, "2026-09-01")
	f.mustCreateOrder(t, "2026-09-01")
	f.mustCreateOrder(t, "2026-09-02")

	if _, err := f.orders.UpdateOrderStatus(f.ctx, o1.ID, core.OrderConfirmed); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	all, err := f.orders.GetOrders(f.ctx, nil, nil)
	if err != nil {
		t.Fatalf("GetOrders failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 orders, got %d", len(all))
	}

	confirmed := core.OrderConfirmed
	byStatus, err := f.orders.GetOrders(f.ctx, &confirmed, nil)
	if err != nil {
		t.Fatalf("GetOrders by status failed: %v", err)
	}
	if len(byStatus) != 1 {
		t.Errorf("expected 1 CONFIRMED order, got %d", len(byStatus))
	}

	date := "2026-09-01"
	byDate, err := f.orders.GetOrders(f.ctx, nil, &date)
	if err != nil {
		t.Fatalf("GetOrders by date failed: %v", err)
	}
	if len(byDate) != 2 {
		t.Errorf("expected 2 orders on %s, got %d", date, len(byDate))
	}
}
