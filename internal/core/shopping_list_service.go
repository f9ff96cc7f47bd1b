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

// ShoppingListService is the procurement netting engine: it turns the day's
// confirmed orders and the current stock position into the quantities that
// actually need buying.
type ShoppingListService interface {
	// GenerateFromOrders builds (or, while still DRAFT, rebuilds) the list
	// for a delivery date from orders in CONFIRMED or IN_PREPARATION.
	// Regeneration preserves supplier assignments and ordered flags by
	// product key. No matching orders yields ErrNoOrdersForDate.
	GenerateFromOrders(ctx context.Context, date string) (*ShoppingList, error)
	// UpdateItem patches supplier assignment, net quantity, or notes on a
	// line of a DRAFT or FINALIZED list.
	UpdateItem(ctx context.Context, itemID int, update ShoppingListItemUpdate) (*ShoppingListItem, error)
	// UpdateStatus applies the next sequential list transition.
	UpdateStatus(ctx context.Context, listID int, target ListStatus) (*ShoppingList, error)
	// Delete removes a list while still DRAFT or FINALIZED.
	Delete(ctx context.Context, listID int) error

	GetList(ctx context.Context, listID int) (*ShoppingList, error)
	GetListByDate(ctx context.Context, date string) (*ShoppingList, error)
	GetLists(ctx context.Context) ([]ShoppingList, error)
}

type shoppingListService struct {
	pool  *pgxpool.Pool
	stock StockService
}

func NewShoppingListService(pool *pgxpool.Pool, stock StockService) ShoppingListService {
	return &shoppingListService{pool: pool, stock: stock}
}

// aggregatedNeed is one netted line before persistence.
type aggregatedNeed struct {
	productKey  string
	kind        ItemKind
	productID   *int
	description string
	unit        string
	requested   decimal.Decimal
}

func (s *shoppingListService) GenerateFromOrders(ctx context.Context, date string) (*ShoppingList, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid list date %q", date)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Manual state carried over from a previous generation of the same line.
	type preserved struct {
		supplierID *int
		isOrdered  bool
		notes      string
	}
	kept := make(map[string]preserved)

	var listID int
	var listStatus ListStatus
	err = tx.QueryRow(ctx,
		"SELECT id, status FROM shopping_lists WHERE list_date = $1 FOR UPDATE",
		date,
	).Scan(&listID, &listStatus)
	switch {
	case err == nil:
		if listStatus != ListDraft {
			return nil, fmt.Errorf("shopping list for %s is %s: %w", date, listStatus, ErrInvalidTransition)
		}
		rows, err := tx.Query(ctx,
			"SELECT product_key, supplier_id, is_ordered, notes FROM shopping_list_items WHERE list_id = $1",
			listID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to read existing list items: %w", err)
		}
		for rows.Next() {
			var key string
			var p preserved
			if err := rows.Scan(&key, &p.supplierID, &p.isOrdered, &p.notes); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan existing list item: %w", err)
			}
			kept[key] = p
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	case errors.Is(err, pgx.ErrNoRows):
		listID = 0
	default:
		return nil, fmt.Errorf("failed to fetch shopping list for %s: %w", date, err)
	}

	needs, err := aggregateOrderNeedsTx(ctx, tx, date)
	if err != nil {
		return nil, err
	}
	if len(needs) == 0 {
		return nil, fmt.Errorf("delivery date %s: %w", date, ErrNoOrdersForDate)
	}

	if listID == 0 {
		err = tx.QueryRow(ctx,
			"INSERT INTO shopping_lists (list_date, status) VALUES ($1, 'DRAFT') RETURNING id",
			date,
		).Scan(&listID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert shopping list: %w", err)
		}
	} else {
		if _, err := tx.Exec(ctx, "DELETE FROM shopping_list_items WHERE list_id = $1", listID); err != nil {
			return nil, fmt.Errorf("failed to clear shopping list items: %w", err)
		}
		if _, err := tx.Exec(ctx, "UPDATE shopping_lists SET updated_at = NOW() WHERE id = $1", listID); err != nil {
			return nil, fmt.Errorf("failed to touch shopping list: %w", err)
		}
	}

	for _, need := range needs {
		// Free-text lines have no stock position; their full quantity is
		// the purchase need.
		available := decimal.Zero
		if need.kind == ItemKindCatalog && need.productID != nil {
			available, err = s.stock.AvailableStockTx(ctx, tx, *need.productID)
			if err != nil {
				return nil, err
			}
		}
		net := NetQuantity(need.requested, available)

		var supplierID *int
		isOrdered := false
		notes := ""
		if p, ok := kept[need.productKey]; ok {
			supplierID = p.supplierID
			isOrdered = p.isOrdered
			notes = p.notes
		} else if need.productID != nil {
			var defaultSupplier *int
			err = tx.QueryRow(ctx,
				"SELECT default_supplier_id FROM products WHERE id = $1",
				*need.productID,
			).Scan(&defaultSupplier)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("failed to read default supplier for product %d: %w", *need.productID, err)
			}
			supplierID = defaultSupplier
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO shopping_list_items (list_id, product_key, kind, product_id, description, unit, requested_qty, available_qty, net_qty, supplier_id, is_ordered, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, listID, need.productKey, string(need.kind), need.productID, need.description, need.unit,
			need.requested, available, net, supplierID, isOrdered, notes)
		if err != nil {
			return nil, fmt.Errorf("failed to insert shopping list item %q: %w", need.productKey, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit shopping list generation: %w", err)
	}

	return s.GetList(ctx, listID)
}

// aggregateOrderNeedsTx sums order item quantities for the date across all
// netting-eligible orders, grouped by product key and unit.
func aggregateOrderNeedsTx(ctx context.Context, tx pgx.Tx, date string) ([]aggregatedNeed, error) {
	rows, err := tx.Query(ctx, `
		SELECT oi.kind, oi.product_id, oi.description, oi.unit, oi.quantity
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.delivery_date = $1 AND o.status IN ('CONFIRMED', 'IN_PREPARATION')
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items for %s: %w", date, err)
	}
	defer rows.Close()

	type groupKey struct {
		key  string
		unit string
	}
	groups := make(map[groupKey]*aggregatedNeed)
	var order []groupKey

	for rows.Next() {
		var kind ItemKind
		var productID *int
		var description, unit string
		var qty decimal.Decimal
		if err := rows.Scan(&kind, &productID, &description, &unit, &qty); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		gk := groupKey{key: ProductKey(kind, productID, description), unit: unit}
		if need, ok := groups[gk]; ok {
			need.requested = need.requested.Add(qty)
			continue
		}
		groups[gk] = &aggregatedNeed{
			productKey:  gk.key,
			kind:        kind,
			productID:   productID,
			description: description,
			unit:        unit,
			requested:   qty,
		}
		order = append(order, gk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].key != order[j].key {
			return order[i].key < order[j].key
		}
		return order[i].unit < order[j].unit
	})
	needs := make([]aggregatedNeed, 0, len(order))
	for _, gk := range order {
		needs = append(needs, *groups[gk])
	}
	return needs, nil
}

func (s *shoppingListService) UpdateItem(ctx context.Context, itemID int, update ShoppingListItemUpdate) (*ShoppingListItem, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var listID int
	var status ListStatus
	err = tx.QueryRow(ctx, `
		SELECT sl.id, sl.status
		FROM shopping_list_items sli
		JOIN shopping_lists sl ON sl.id = sli.list_id
		WHERE sli.id = $1
		FOR UPDATE OF sl
	`, itemID).Scan(&listID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("shopping list item %d: %w", itemID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch shopping list item %d: %w", itemID, err)
	}
	if status != ListDraft && status != ListFinalized {
		return nil, fmt.Errorf("shopping list %d is %s: %w", listID, status, ErrInvalidTransition)
	}

	if update.NetQty != nil && update.NetQty.IsNegative() {
		return nil, fmt.Errorf("net quantity cannot be negative, got %s", update.NetQty)
	}
	if update.SupplierID != nil {
		var exists int
		err = tx.QueryRow(ctx, "SELECT id FROM suppliers WHERE id = $1 AND is_active = true", *update.SupplierID).Scan(&exists)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("supplier %d: %w", *update.SupplierID, ErrNotFound)
			}
			return nil, fmt.Errorf("failed to resolve supplier %d: %w", *update.SupplierID, err)
		}
	}

	query := "UPDATE shopping_list_items SET id = id"
	var args []any
	if update.ClearSupplier {
		query += ", supplier_id = NULL"
	} else if update.SupplierID != nil {
		args = append(args, *update.SupplierID)
		query += fmt.Sprintf(", supplier_id = $%d", len(args))
	}
	if update.NetQty != nil {
		args = append(args, *update.NetQty)
		query += fmt.Sprintf(", net_qty = $%d", len(args))
	}
	if update.Notes != nil {
		args = append(args, *update.Notes)
		query += fmt.Sprintf(", notes = $%d", len(args))
	}
	args = append(args, itemID)
	query += fmt.Sprintf(" WHERE id = $%d", len(args))

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update shopping list item %d: %w", itemID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit shopping list item update: %w", err)
	}

	return s.getItem(ctx, itemID)
}

func (s *shoppingListService) UpdateStatus(ctx context.Context, listID int, target ListStatus) (*ShoppingList, error) {
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
	if !CanTransitionList(status, target) {
		return nil, fmt.Errorf("shopping list %d: %s → %s: %w", listID, status, target, ErrInvalidTransition)
	}

	_, err = tx.Exec(ctx,
		"UPDATE shopping_lists SET status = $1, updated_at = NOW() WHERE id = $2",
		string(target), listID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to transition shopping list %d: %w", listID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit shopping list transition: %w", err)
	}

	return s.GetList(ctx, listID)
}

func (s *shoppingListService) Delete(ctx context.Context, listID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status ListStatus
	err = tx.QueryRow(ctx, "SELECT status FROM shopping_lists WHERE id = $1 FOR UPDATE", listID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("shopping list %d: %w", listID, ErrNotFound)
		}
		return fmt.Errorf("failed to fetch shopping list %d: %w", listID, err)
	}
	if status != ListDraft && status != ListFinalized {
		return fmt.Errorf("shopping list %d is %s: %w", listID, status, ErrInvalidTransition)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM shopping_list_items WHERE list_id = $1", listID); err != nil {
		return fmt.Errorf("failed to delete shopping list items: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM shopping_lists WHERE id = $1", listID); err != nil {
		return fmt.Errorf("failed to delete shopping list %d: %w", listID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit shopping list deletion: %w", err)
	}
	return nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *shoppingListService) GetList(ctx context.Context, listID int) (*ShoppingList, error) {
	var sl ShoppingList
	err := s.pool.QueryRow(ctx,
		"SELECT id, list_date::text, status, created_at, updated_at FROM shopping_lists WHERE id = $1",
		listID,
	).Scan(&sl.ID, &sl.ListDate, &sl.Status, &sl.CreatedAt, &sl.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("shopping list %d: %w", listID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch shopping list %d: %w", listID, err)
	}

	items, err := s.fetchListItems(ctx, listID)
	if err != nil {
		return nil, err
	}
	sl.Items = items
	return &sl, nil
}

func (s *shoppingListService) GetListByDate(ctx context.Context, date string) (*ShoppingList, error) {
	var listID int
	err := s.pool.QueryRow(ctx, "SELECT id FROM shopping_lists WHERE list_date = $1", date).Scan(&listID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("shopping list for %s: %w", date, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lookup shopping list for %s: %w", date, err)
	}
	return s.GetList(ctx, listID)
}

func (s *shoppingListService) GetLists(ctx context.Context) ([]ShoppingList, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, list_date::text, status, created_at, updated_at FROM shopping_lists ORDER BY list_date DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query shopping lists: %w", err)
	}
	defer rows.Close()

	var lists []ShoppingList
	for rows.Next() {
		var sl ShoppingList
		if err := rows.Scan(&sl.ID, &sl.ListDate, &sl.Status, &sl.CreatedAt, &sl.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shopping list: %w", err)
		}
		lists = append(lists, sl)
	}
	return lists, rows.Err()
}

const listItemSelect = `
	SELECT sli.id, sli.list_id, sli.product_key, sli.kind, sli.product_id, sli.description, sli.unit,
	       sli.requested_qty, sli.available_qty, sli.net_qty, sli.supplier_id, s.name, sli.is_ordered, sli.notes
	FROM shopping_list_items sli
	LEFT JOIN suppliers s ON s.id = sli.supplier_id
`

func scanListItem(row pgx.Row, it *ShoppingListItem) error {
	return row.Scan(
		&it.ID, &it.ListID, &it.ProductKey, &it.Kind, &it.ProductID, &it.Description, &it.Unit,
		&it.RequestedQty, &it.AvailableQty, &it.NetQty, &it.SupplierID, &it.SupplierName, &it.IsOrdered, &it.Notes,
	)
}

func (s *shoppingListService) fetchListItems(ctx context.Context, listID int) ([]ShoppingListItem, error) {
	rows, err := s.pool.Query(ctx, listItemSelect+" WHERE sli.list_id = $1 ORDER BY sli.product_key, sli.unit", listID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shopping list items: %w", err)
	}
	defer rows.Close()

	var items []ShoppingListItem
	for rows.Next() {
		var it ShoppingListItem
		if err := scanListItem(rows, &it); err != nil {
			return nil, fmt.Errorf("failed to scan shopping list item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *shoppingListService) getItem(ctx context.Context, itemID int) (*ShoppingListItem, error) {
	var it ShoppingListItem
	err := scanListItem(s.pool.QueryRow(ctx, listItemSelect+" WHERE sli.id = $1", itemID), &it)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("shopping list item %d: %w", itemID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch shopping list item %d: %w", itemID, err)
	}
	return &it, nil
}
