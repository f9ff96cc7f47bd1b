package core_test

import (
	"errors"
	"testing"

	"frutta-gest/internal/core"
)

func TestDeliveryNoteService_CreateRequiresPreparation(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	order := f.mustCreateOrder(t, "2026-09-01")

	if _, err := f.notes.CreateDeliveryNote(f.ctx, order.ID); !errors.Is(err, core.ErrOrderNotReady) {
		t.Errorf("expected ErrOrderNotReady for RECEIVED order, got %v", err)
	}

	f.mustAdvanceOrder(t, order.ID)
	note, err := f.notes.CreateDeliveryNote(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("CreateDeliveryNote failed: %v", err)
	}
	if note.Status != core.DDTDraft {
		t.Errorf("expected DRAFT, got %s", note.Status)
	}
	if note.OrderID == nil || *note.OrderID != order.ID {
		t.Error("note not linked to origin order")
	}
	if note.TransportDate != order.DeliveryDate {
		t.Errorf("expected transport date %s, got %s", order.DeliveryDate, note.TransportDate)
	}
	if len(note.Items) != len(order.Items) {
		t.Errorf("expected %d snapshotted items, got %d", len(order.Items), len(note.Items))
	}
	if !note.Total.Equal(order.Total) {
		t.Errorf("expected note total %s, got %s", order.Total, note.Total)
	}
}

func TestDeliveryNoteService_SnapshotIsImmutable(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	order := f.mustCreateOrder(t, "2026-09-01")
	f.mustAdvanceOrder(t, order.ID)
	note, err := f.notes.CreateDeliveryNote(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("CreateDeliveryNote failed: %v", err)
	}
	originalPrice := note.Items[0].UnitPrice

	// Changing the catalog price afterwards must not reach the snapshot.
	_, err = f.pool.Exec(f.ctx, "UPDATE products SET default_price = 9.99 WHERE id = $1", f.mele.ID)
	if err != nil {
		t.Fatalf("failed to bump catalog price: %v", err)
	}

	reloaded, err := f.notes.GetDeliveryNote(f.ctx, note.ID)
	if err != nil {
		t.Fatalf("GetDeliveryNote failed: %v", err)
	}
	if !reloaded.Items[0].UnitPrice.Equal(originalPrice) {
		t.Errorf("snapshot price changed: was %s, now %s", originalPrice, reloaded.Items[0].UnitPrice)
	}
}

func TestDeliveryNoteService_IssueWritesStockOut(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	order := f.mustCreateOrder(t, "2026-09-01",
		core.OrderItemInput{ProductID: &f.mele.ID, Quantity: dec("10")},
		core.OrderItemInput{Description: "Servizio consegna", Quantity: dec("1"), Unit: "pz", UnitPrice: dec("5.00"), VATRate: dec("22")},
	)
	f.mustAdvanceOrder(t, order.ID)
	note, err := f.notes.CreateDeliveryNote(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("CreateDeliveryNote failed: %v", err)
	}

	issued, err := f.notes.UpdateDeliveryNoteStatus(f.ctx, note.ID, core.DDTIssued)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if issued.Status != core.DDTIssued {
		t.Errorf("expected ISSUED, got %s", issued.Status)
	}

	// One SCARICO for the catalog line only, signed negative, linked back to
	// the note.
	movements, err := f.stock.GetMovements(f.ctx, f.mele.ID)
	if err != nil {
		t.Fatalf("GetMovements failed: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(movements))
	}
	m := movements[0]
	if m.Type != core.MovementScarico {
		t.Errorf("expected SCARICO, got %s", m.Type)
	}
	if !m.Quantity.Equal(dec("-10")) {
		t.Errorf("expected signed quantity -10, got %s", m.Quantity)
	}
	if m.ReferenceType == nil || *m.ReferenceType != core.StockRefDeliveryNote || m.ReferenceID == nil || *m.ReferenceID != note.ID {
		t.Error("movement not linked to delivery note")
	}
}

func TestDeliveryNoteService_DeliveredFlipsOrder(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	order := f.mustCreateOrder(t, "2026-09-01")
	f.mustAdvanceOrder(t, order.ID)
	note, err := f.notes.CreateDeliveryNote(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("CreateDeliveryNote failed: %v", err)
	}

	// DRAFT → DELIVERED skips ISSUED and must fail.
	if _, err := f.notes.UpdateDeliveryNoteStatus(f.ctx, note.ID, core.DDTDelivered); !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	if _, err := f.notes.UpdateDeliveryNoteStatus(f.ctx, note.ID, core.DDTIssued); err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := f.notes.UpdateDeliveryNoteStatus(f.ctx, note.ID, core.DDTDelivered); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}

	reloaded, err := f.orders.GetOrder(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if reloaded.Status != core.OrderDelivered {
		t.Errorf("expected order DELIVERED, got %s", reloaded.Status)
	}
}

func TestDeliveryNoteService_UpdatePatchesHeader(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	order := f.mustCreateOrder(t, "2026-09-01")
	f.mustAdvanceOrder(t, order.ID)
	note, err := f.notes.CreateDeliveryNote(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("CreateDeliveryNote failed: %v", err)
	}

	carrier := "Trasporti Rossi"
	packages := 4
	updated, err := f.notes.UpdateDeliveryNote(f.ctx, note.ID, core.DeliveryNoteUpdate{
		Carrier: &carrier, PackageCount: &packages,
	})
	if err != nil {
		t.Fatalf("UpdateDeliveryNote failed: %v", err)
	}
	if updated.Carrier != carrier || updated.PackageCount != packages {
		t.Errorf("patch not applied: %q %d", updated.Carrier, updated.PackageCount)
	}
	// Untouched fields survive the patch.
	if updated.TransportDate != note.TransportDate {
		t.Errorf("transport date changed unexpectedly: %s", updated.TransportDate)
	}

	// Issuing does not freeze the header; the note is still a working
	// document until it is delivered or invoiced.
	if _, err := f.notes.UpdateDeliveryNoteStatus(f.ctx, note.ID, core.DDTIssued); err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	other := "Corriere Bianchi"
	if _, err := f.notes.UpdateDeliveryNote(f.ctx, note.ID, core.DeliveryNoteUpdate{Carrier: &other}); err != nil {
		t.Errorf("update of issued unlinked note failed: %v", err)
	}
}

func TestDeliveryNoteService_DeleteIssuedReversesStock(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	_, note := f.mustIssuedNote(t, "2026-09-01")

	if err := f.notes.DeleteDeliveryNote(f.ctx, note.ID); err != nil {
		t.Fatalf("delete of issued unlinked note failed: %v", err)
	}
	if _, err := f.notes.GetDeliveryNote(f.ctx, note.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected note gone, got %v", err)
	}

	// The SCARICO written at issue is compensated, not erased: two ledger
	// rows summing to zero.
	movements, err := f.stock.GetMovements(f.ctx, f.mele.ID)
	if err != nil {
		t.Fatalf("GetMovements failed: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(movements))
	}
	if movements[0].Type != core.MovementRettificaPos || !movements[0].Quantity.Equal(dec("10")) {
		t.Errorf("expected RETTIFICA_POS +10, got %s %s", movements[0].Type, movements[0].Quantity)
	}
	sum := movements[0].Quantity.Add(movements[1].Quantity)
	if !sum.IsZero() {
		t.Errorf("expected ledger back to zero, got %s", sum)
	}
}

func TestDeliveryNoteService_DeliveredOrInvoicedIsFrozen(t *testing.T) {
	f := setupDomainTestDB(t)
	defer f.pool.Close()

	carrier := "Trasporti Rossi"

	// Delivered: goods are with the customer, nothing may change.
	_, delivered := f.mustIssuedNote(t, "2026-09-01")
	if _, err := f.notes.UpdateDeliveryNoteStatus(f.ctx, delivered.ID, core.DDTDelivered); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if _, err := f.notes.UpdateDeliveryNote(f.ctx, delivered.ID, core.DeliveryNoteUpdate{Carrier: &carrier}); !errors.Is(err, core.ErrDDTLocked) {
		t.Errorf("expected ErrDDTLocked updating delivered note, got %v", err)
	}
	if err := f.notes.DeleteDeliveryNote(f.ctx, delivered.ID); !errors.Is(err, core.ErrDDTLocked) {
		t.Errorf("expected ErrDDTLocked deleting delivered note, got %v", err)
	}

	// Invoiced: the link freezes the note even while merely ISSUED.
	_, invoiced := f.mustIssuedNote(t, "2026-09-02")
	if _, err := f.invoices.CreateInvoice(f.ctx, core.InvoiceInput{
		CustomerID: f.customer.ID, DDTIDs: []int{invoiced.ID},
		IssueDate: "2026-09-03", DueDate: "2026-10-03",
	}); err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}
	if _, err := f.notes.UpdateDeliveryNote(f.ctx, invoiced.ID, core.DeliveryNoteUpdate{Carrier: &carrier}); !errors.Is(err, core.ErrDDTLocked) {
		t.Errorf("expected ErrDDTLocked updating invoiced note, got %v", err)
	}
	if err := f.notes.DeleteDeliveryNote(f.ctx, invoiced.ID); !errors.Is(err, core.ErrDDTLocked) {
		t.Errorf("expected ErrDDTLocked deleting invoiced note, got %v", err)
	}
}
