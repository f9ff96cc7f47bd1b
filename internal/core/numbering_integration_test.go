package core_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"frutta-gest/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE payments, stock_movements,
			purchase_order_items, purchase_orders,
			shopping_list_items, shopping_lists,
			invoice_ddt_links, invoice_items, invoices,
			delivery_note_items, delivery_notes,
			order_items, orders,
			supplier_products, products, suppliers, customers,
			number_sequences
		CASCADE;
	`)
	if err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}

	return pool
}

func TestNumbering_SequentialPerTypeAndYear(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	numbering := core.NewNumberingService(pool)
	ctx := context.Background()

	n1, err := numbering.NextNumber(ctx, core.DocTypeOrder, 2026)
	if err != nil {
		t.Fatalf("NextNumber failed: %v", err)
	}
	if n1 != "ORD-2026-00001" {
		t.Errorf("expected ORD-2026-00001, got %s", n1)
	}

	n2, err := numbering.NextNumber(ctx, core.DocTypeOrder, 2026)
	if err != nil {
		t.Fatalf("NextNumber failed: %v", err)
	}
	if n2 != "ORD-2026-00002" {
		t.Errorf("expected ORD-2026-00002, got %s", n2)
	}

	// A different document type and a different year each own their own
	// sequence starting from 1.
	n3, err := numbering.NextNumber(ctx, core.DocTypeInvoice, 2026)
	if err != nil {
		t.Fatalf("NextNumber failed: %v", err)
	}
	if n3 != "FAT-2026-00001" {
		t.Errorf("expected FAT-2026-00001, got %s", n3)
	}

	n4, err := numbering.NextNumber(ctx, core.DocTypeOrder, 2027)
	if err != nil {
		t.Fatalf("NextNumber failed: %v", err)
	}
	if n4 != "ORD-2027-00001" {
		t.Errorf("expected ORD-2027-00001, got %s", n4)
	}
}

func TestNumbering_ConcurrentAllocations(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	numbering := core.NewNumberingService(pool)
	ctx := context.Background()

	const workers = 20
	results := make(chan string, workers)
	errs := make(chan error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := numbering.NextNumber(ctx, core.DocTypeDeliveryNote, 2026)
			if err != nil {
				errs <- err
				return
			}
			results <- n
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent NextNumber failed: %v", err)
	}

	seen := make(map[string]bool)
	for n := range results {
		if seen[n] {
			t.Errorf("duplicate number issued: %s", n)
		}
		seen[n] = true
	}
	if len(seen) != workers {
		t.Errorf("expected %d unique numbers, got %d", workers, len(seen))
	}
	if !seen[fmt.Sprintf("DDT-2026-%05d", workers)] {
		t.Errorf("expected highest number DDT-2026-%05d to be present", workers)
	}
}

func TestNumbering_YearBounds(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	numbering := core.NewNumberingService(pool)
	ctx := context.Background()

	if _, err := numbering.NextNumber(ctx, core.DocTypeOrder, 1999); err == nil {
		t.Error("expected error for year 1999")
	}
	if _, err := numbering.NextNumber(ctx, core.DocTypeOrder, 2101); err == nil {
		t.Error("expected error for year 2101")
	}
	if _, err := numbering.NextNumber(ctx, core.DocType("RECEIPT"), 2026); err == nil {
		t.Error("expected error for unknown document type")
	}
}

func TestNumbering_RolledBackAllocationIsReused(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	numbering := core.NewNumberingService(pool)
	ctx := context.Background()

	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	n1, err := numbering.NextNumberTx(ctx, tx, core.DocTypePurchaseOrder, 2026)
	if err != nil {
		t.Fatalf("NextNumberTx failed: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	// The increment rolled back with the document, so the sequence stays
	// gapless: the next allocation gets the same number.
	n2, err := numbering.NextNumber(ctx, core.DocTypePurchaseOrder, 2026)
	if err != nil {
		t.Fatalf("NextNumber failed: %v", err)
	}
	if n1 != n2 {
		t.Errorf("expected rolled-back number %s to be reissued, got %s", n1, n2)
	}
}
