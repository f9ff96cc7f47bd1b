package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PurchaseOrderService explodes finalized shopping lists into per-supplier
// purchase orders and drives the PO lifecycle through to goods receipt.
type PurchaseOrderService interface {
	// CreateFromShoppingList groups the list's purchasable lines by supplier
	// and creates one purchase order per supplier. Lines without a supplier
	// or without a positive net quantity are skipped and counted, never
	// fatal; zero eligible lines yields ErrNoSupplierAssigned. The list
	// flips to ORDERED in the same transaction.
	CreateFromShoppingList(ctx context.Context, listID int) (*ExplodeResult, error)
	// UpdateStatus applies SENT or CANCELLED. RECEIVED goes through
	// ReceivePO so goods receipt and the transition stay atomic.
	UpdateStatus(ctx context.Context, poID int, target POStatus) (*PurchaseOrder, error)
	// ReceivePO records CARICO stock movements for the PO's catalog lines
	// and sets RECEIVED. Receiving the last open PO of a shopping list
	// flips the list ORDERED→RECEIVED.
	ReceivePO(ctx context.Context, poID int) (*PurchaseOrder, error)

	GetPurchaseOrder(ctx context.Context, poID int) (*PurchaseOrder, error)
	GetPurchaseOrders(ctx context.Context, status *POStatus) ([]PurchaseOrder, error)
}

type purchaseOrderService struct {
	pool      *pgxpool.Pool
	numbering NumberingService
	stock     StockService
}

func NewPurchaseOrderService(pool *pgxpool.Pool, numbering NumberingService, stock StockService) PurchaseOrderService {
	return &purchaseOrderService{pool: pool, numbering: numbering, stock: stock}
}

func (s *purchaseOrderService) CreateFromShoppingList(ctx context.Context, listID int) (*ExplodeResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status ListStatus
	err = tx.QueryRow(ctx, "SELECT status FROM shopping_lists WHERE id = $1 FOR UPDATE", listID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("shopping list %d: %w", listID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch shopping list %d: %w", listID, err)
	}
	if status != ListFinalized {
		return nil, fmt.Errorf("shopping list %d is %s, must be FINALIZED: %w", listID, status, ErrInvalidTransition)
	}

	type eligibleLine struct {
		itemID      int
		kind        ItemKind
		productID   *int
		description string
		unit        string
		netQty      decimal.Decimal
	}

	rows, err := tx.Query(ctx, `
		SELECT id, kind, product_id, description, unit, net_qty, supplier_id
		FROM shopping_list_items
		WHERE list_id = $1
		ORDER BY product_key, unit
	`, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shopping list items: %w", err)
	}

	bySupplier := make(map[int][]eligibleLine)
	skipped := 0
	for rows.Next() {
		var l eligibleLine
		var supplierID *int
		if err := rows.Scan(&l.itemID, &l.kind, &l.productID, &l.description, &l.unit, &l.netQty, &supplierID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan shopping list item: %w", err)
		}
		if supplierID == nil || !l.netQty.IsPositive() {
			skipped++
			continue
		}
		bySupplier[*supplierID] = append(bySupplier[*supplierID], l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(bySupplier) == 0 {
		return nil, fmt.Errorf("shopping list %d has no purchasable lines: %w", listID, ErrNoSupplierAssigned)
	}

	supplierIDs := make([]int, 0, len(bySupplier))
	for id := range bySupplier {
		supplierIDs = append(supplierIDs, id)
	}
	sort.Ints(supplierIDs)

	today := time.Now().Format(dateLayout)
	year := time.Now().Year()
	result := &ExplodeResult{SkippedCount: skipped}

	for _, supplierID := range supplierIDs {
		lines := bySupplier[supplierID]

		number, err := s.numbering.NextNumberTx(ctx, tx, DocTypePurchaseOrder, year)
		if err != nil {
			return nil, err
		}

		var poID int
		err = tx.QueryRow(ctx, `
			INSERT INTO purchase_orders (number, supplier_id, shopping_list_id, status, order_date, total)
			VALUES ($1, $2, $3, 'CREATED', $4, 0)
			RETURNING id
		`, number, supplierID, listID, today).Scan(&poID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert purchase order for supplier %d: %w", supplierID, err)
		}

		total := decimal.Zero
		for i, l := range lines {
			// Supplier catalog price when listed; an unpriced line still goes
			// out, the supplier quotes it on confirmation.
			var unitPrice, lineTotal *decimal.Decimal
			if l.kind == ItemKindCatalog && l.productID != nil {
				var cp decimal.Decimal
				err = tx.QueryRow(ctx,
					"SELECT cost_price FROM supplier_products WHERE supplier_id = $1 AND product_id = $2",
					supplierID, *l.productID,
				).Scan(&cp)
				if err != nil && !errors.Is(err, pgx.ErrNoRows) {
					return nil, fmt.Errorf("failed to resolve cost price (supplier %d, product %d): %w", supplierID, *l.productID, err)
				}
				if err == nil {
					lt := LineTotal(l.netQty, cp)
					unitPrice, lineTotal = &cp, &lt
					total = total.Add(lt)
				}
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO purchase_order_items (purchase_order_id, line_number, kind, product_id, description, quantity, unit, unit_price, line_total)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			`, poID, i+1, string(l.kind), l.productID, l.description, l.netQty, l.unit, unitPrice, lineTotal)
			if err != nil {
				return nil, fmt.Errorf("failed to insert purchase order item %d: %w", i+1, err)
			}

			if _, err := tx.Exec(ctx,
				"UPDATE shopping_list_items SET is_ordered = true WHERE id = $1",
				l.itemID,
			); err != nil {
				return nil, fmt.Errorf("failed to flag shopping list item %d: %w", l.itemID, err)
			}
		}

		if _, err := tx.Exec(ctx,
			"UPDATE purchase_orders SET total = $1 WHERE id = $2",
			total, poID,
		); err != nil {
			return nil, fmt.Errorf("failed to set purchase order total: %w", err)
		}

		result.CreatedCount++
		result.PONumbers = append(result.PONumbers, number)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE shopping_lists SET status = 'ORDERED', updated_at = NOW() WHERE id = $1",
		listID,
	); err != nil {
		return nil, fmt.Errorf("failed to flip shopping list %d to ORDERED: %w", listID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit shopping list explosion: %w", err)
	}
	return result, nil
}

func (s *purchaseOrderService) UpdateStatus(ctx context.Context, poID int, target POStatus) (*PurchaseOrder, error) {
	if target == POReceived {
		return nil, fmt.Errorf("RECEIVED is set by goods receipt, not directly: %w", ErrInvalidTransition)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status POStatus
	err = tx.QueryRow(ctx, "SELECT status FROM purchase_orders WHERE id = $1 FOR UPDATE", poID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("purchase order %d: %w", poID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch purchase order %d: %w", poID, err)
	}
	if !CanTransitionPO(status, target) {
		return nil, fmt.Errorf("purchase order %d: %s → %s: %w", poID, status, target, ErrInvalidTransition)
	}

	_, err = tx.Exec(ctx,
		"UPDATE purchase_orders SET status = $1, updated_at = NOW() WHERE id = $2",
		string(target), poID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to transition purchase order %d: %w", poID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit purchase order transition: %w", err)
	}

	return s.GetPurchaseOrder(ctx, poID)
}

func (s *purchaseOrderService) ReceivePO(ctx context.Context, poID int) (*PurchaseOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status POStatus
	var listID *int
	err = tx.QueryRow(ctx,
		"SELECT status, shopping_list_id FROM purchase_orders WHERE id = $1 FOR UPDATE",
		poID,
	).Scan(&status, &listID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("purchase order %d: %w", poID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch purchase order %d: %w", poID, err)
	}
	if !CanTransitionPO(status, POReceived) {
		return nil, fmt.Errorf("purchase order %d: %s → RECEIVED: %w", poID, status, ErrInvalidTransition)
	}

	items, err := fetchPurchaseOrderItemsQ(ctx, tx, poID)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.Kind != ItemKindCatalog || it.ProductID == nil {
			continue
		}
		err := s.stock.AddMovementTx(ctx, tx, StockMovementInput{
			ProductID: *it.ProductID,
			Type:      MovementCarico,
			Quantity:  it.Quantity,
		}, StockRefPurchaseOrder, poID)
		if err != nil {
			return nil, fmt.Errorf("failed to record goods receipt for purchase order %d: %w", poID, err)
		}
	}

	if _, err := tx.Exec(ctx,
		"UPDATE purchase_orders SET status = 'RECEIVED', updated_at = NOW() WHERE id = $1",
		poID,
	); err != nil {
		return nil, fmt.Errorf("failed to mark purchase order %d received: %w", poID, err)
	}

	if listID != nil {
		if err := flipListIfFullyReceivedTx(ctx, tx, *listID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit goods receipt: %w", err)
	}

	return s.GetPurchaseOrder(ctx, poID)
}

// flipListIfFullyReceivedTx moves an ORDERED shopping list to RECEIVED once
// none of its purchase orders remain open. Cancelled POs do not hold the
// list open.
func flipListIfFullyReceivedTx(ctx context.Context, tx pgx.Tx, listID int) error {
	var status ListStatus
	err := tx.QueryRow(ctx, "SELECT status FROM shopping_lists WHERE id = $1 FOR UPDATE", listID).Scan(&status)
	if err != nil {
		return fmt.Errorf("failed to fetch shopping list %d: %w", listID, err)
	}
	if status != ListOrdered {
		return nil
	}

	var open int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM purchase_orders
		WHERE shopping_list_id = $1 AND status NOT IN ('RECEIVED', 'CANCELLED')
	`, listID).Scan(&open)
	if err != nil {
		return fmt.Errorf("failed to count open purchase orders for list %d: %w", listID, err)
	}
	if open > 0 {
		return nil
	}

	if _, err := tx.Exec(ctx,
		"UPDATE shopping_lists SET status = 'RECEIVED', updated_at = NOW() WHERE id = $1",
		listID,
	); err != nil {
		return fmt.Errorf("failed to flip shopping list %d to RECEIVED: %w", listID, err)
	}
	return nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

const purchaseOrderSelect = `
	SELECT po.id, po.number, po.supplier_id, s.code, s.name, po.shopping_list_id,
	       po.status, po.order_date::text, po.notes, po.total, po.created_at, po.updated_at
	FROM purchase_orders po
	JOIN suppliers s ON s.id = po.supplier_id
`

func scanPurchaseOrder(row pgx.Row, po *PurchaseOrder) error {
	return row.Scan(
		&po.ID, &po.Number, &po.SupplierID, &po.SupplierCode, &po.SupplierName, &po.ShoppingListID,
		&po.Status, &po.OrderDate, &po.Notes, &po.Total, &po.CreatedAt, &po.UpdatedAt,
	)
}

func (s *purchaseOrderService) GetPurchaseOrder(ctx context.Context, poID int) (*PurchaseOrder, error) {
	var po PurchaseOrder
	err := scanPurchaseOrder(s.pool.QueryRow(ctx, purchaseOrderSelect+" WHERE po.id = $1", poID), &po)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("purchase order %d: %w", poID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch purchase order %d: %w", poID, err)
	}

	items, err := fetchPurchaseOrderItemsQ(ctx, s.pool, poID)
	if err != nil {
		return nil, err
	}
	po.Items = items
	return &po, nil
}

func (s *purchaseOrderService) GetPurchaseOrders(ctx context.Context, status *POStatus) ([]PurchaseOrder, error) {
	query := purchaseOrderSelect + " WHERE 1=1"
	var args []any
	if status != nil {
		args = append(args, string(*status))
		query += " AND po.status = $1"
	}
	query += " ORDER BY po.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase orders: %w", err)
	}
	defer rows.Close()

	var orders []PurchaseOrder
	for rows.Next() {
		var po PurchaseOrder
		if err := scanPurchaseOrder(rows, &po); err != nil {
			return nil, fmt.Errorf("failed to scan purchase order: %w", err)
		}
		orders = append(orders, po)
	}
	return orders, rows.Err()
}

func fetchPurchaseOrderItemsQ(ctx context.Context, q pgxRowQuerier, poID int) ([]PurchaseOrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, purchase_order_id, line_number, kind, product_id, description, quantity, unit, unit_price, line_total
		FROM purchase_order_items
		WHERE purchase_order_id = $1
		ORDER BY line_number
	`, poID)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase order items: %w", err)
	}
	defer rows.Close()

	var items []PurchaseOrderItem
	for rows.Next() {
		var it PurchaseOrderItem
		if err := rows.Scan(
			&it.ID, &it.PurchaseOrderID, &it.LineNumber, &it.Kind, &it.ProductID,
			&it.Description, &it.Quantity, &it.Unit, &it.UnitPrice, &it.LineTotal,
		); err != nil {
			return nil, fmt.Errorf("failed to scan purchase order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
