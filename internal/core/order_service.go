package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// OrderService manages the customer order lifecycle. Orders are the root of
// the document chain: delivery notes derive from them, invoices aggregate
// the delivery notes, and the netting engine reads confirmed orders.
type OrderService interface {
	CreateOrder(ctx context.Context, input OrderInput) (*Order, error)
	// UpdateOrder replaces the order's editable fields and item set. Fails
	// with ErrOrderLocked once the order is INVOICED or CANCELLED.
	UpdateOrder(ctx context.Context, orderID int, input OrderInput) (*Order, error)
	// UpdateOrderStatus applies a direct transition. DELIVERED and INVOICED
	// are reached only through document side effects and are rejected here.
	UpdateOrderStatus(ctx context.Context, orderID int, target OrderStatus) (*Order, error)
	// DeleteOrder removes the order, cascades its DRAFT delivery notes, and
	// detaches issued or delivered ones. Blocked only once INVOICED.
	DeleteOrder(ctx context.Context, orderID int) error

	GetOrder(ctx context.Context, orderID int) (*Order, error)
	GetOrders(ctx context.Context, status *OrderStatus, deliveryDate *string) ([]Order, error)
}

type orderService struct {
	pool      *pgxpool.Pool
	numbering NumberingService
}

func NewOrderService(pool *pgxpool.Pool, numbering NumberingService) OrderService {
	return &orderService{pool: pool, numbering: numbering}
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared query helpers.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgxRowQuerier is satisfied by both *pgxpool.Pool and pgx.Tx (for Query).
type pgxRowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const dateLayout = "2006-01-02"

func validateOrderInput(input OrderInput) error {
	if input.CustomerID == 0 {
		return fmt.Errorf("order must reference a customer")
	}
	if !ValidChannel(input.Channel) {
		return fmt.Errorf("unknown order channel %q", input.Channel)
	}
	if len(input.Items) == 0 {
		return fmt.Errorf("order must have at least one item")
	}
	if _, err := time.Parse(dateLayout, input.DeliveryDate); err != nil {
		return fmt.Errorf("invalid delivery date %q", input.DeliveryDate)
	}
	return nil
}

// resolvedOrderLine is an order line after catalog resolution: kind derived
// from the presence of a product reference, defaults filled from the product
// row, line total computed.
type resolvedOrderLine struct {
	kind        ItemKind
	productID   *int
	description string
	quantity    decimal.Decimal
	unit        string
	unitPrice   decimal.Decimal
	vatRate     decimal.Decimal
	lineTotal   decimal.Decimal
}

// resolveOrderLines turns raw item inputs into storable lines. Catalog lines
// snapshot the product's name, unit, price, and VAT rate unless the input
// overrides them; free-text lines must carry description and unit themselves.
func resolveOrderLines(ctx context.Context, q pgxQuerier, items []OrderItemInput) ([]resolvedOrderLine, error) {
	var resolved []resolvedOrderLine
	for i, input := range items {
		if !input.Quantity.IsPositive() {
			return nil, fmt.Errorf("line %d: quantity must be positive, got %s", i+1, input.Quantity)
		}

		line := resolvedOrderLine{
			quantity:    input.Quantity,
			description: input.Description,
			unit:        input.Unit,
			unitPrice:   input.UnitPrice,
			vatRate:     input.VATRate,
		}

		if input.ProductID != nil {
			var p Product
			err := q.QueryRow(ctx,
				"SELECT id, name, unit, default_price, vat_rate FROM products WHERE id = $1 AND is_active = true",
				*input.ProductID,
			).Scan(&p.ID, &p.Name, &p.Unit, &p.DefaultPrice, &p.VATRate)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, fmt.Errorf("line %d: product %d: %w", i+1, *input.ProductID, ErrNotFound)
				}
				return nil, fmt.Errorf("line %d: failed to resolve product %d: %w", i+1, *input.ProductID, err)
			}

			line.kind = ItemKindCatalog
			line.productID = input.ProductID
			if line.description == "" {
				line.description = p.Name
			}
			if line.unit == "" {
				line.unit = p.Unit
			}
			if line.unitPrice.IsZero() {
				line.unitPrice = p.DefaultPrice
			}
			if line.vatRate.IsZero() {
				line.vatRate = p.VATRate
			}
		} else {
			line.kind = ItemKindFreeText
			if line.description == "" {
				return nil, fmt.Errorf("line %d: free-text item requires a description", i+1)
			}
			if line.unit == "" {
				return nil, fmt.Errorf("line %d: free-text item requires a unit", i+1)
			}
		}

		line.lineTotal = LineTotal(line.quantity, line.unitPrice)
		resolved = append(resolved, line)
	}
	return resolved, nil
}

func lineAmounts(lines []resolvedOrderLine) []LineAmounts {
	amounts := make([]LineAmounts, len(lines))
	for i, l := range lines {
		amounts[i] = LineAmounts{Quantity: l.quantity, UnitPrice: l.unitPrice, VATRate: l.vatRate}
	}
	return amounts
}

// ── Order Lifecycle ──────────────────────────────────────────────────────────

func (s *orderService) CreateOrder(ctx context.Context, input OrderInput) (*Order, error) {
	if err := validateOrderInput(input); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var customerID int
	err = tx.QueryRow(ctx, "SELECT id FROM customers WHERE id = $1 AND is_active = true", input.CustomerID).Scan(&customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("customer %d: %w", input.CustomerID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to resolve customer %d: %w", input.CustomerID, err)
	}

	resolved, err := resolveOrderLines(ctx, tx, input.Items)
	if err != nil {
		return nil, err
	}
	subtotal, vatAmount, total := ComputeTotals(lineAmounts(resolved))

	// Number and header insert land in the same tx, so a failed insert never
	// consumes a number.
	number, err := s.numbering.NextNumberTx(ctx, tx, DocTypeOrder, time.Now().Year())
	if err != nil {
		return nil, err
	}

	var orderID int
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (number, customer_id, channel, status, delivery_date, notes, subtotal, vat_amount, total)
		VALUES ($1, $2, $3, 'RECEIVED', $4, $5, $6, $7, $8)
		RETURNING id
	`, number, customerID, string(input.Channel), input.DeliveryDate, input.Notes, subtotal, vatAmount, total).Scan(&orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	if err := insertOrderItemsTx(ctx, tx, orderID, resolved); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order creation: %w", err)
	}

	return s.GetOrder(ctx, orderID)
}

func insertOrderItemsTx(ctx context.Context, tx pgx.Tx, orderID int, lines []resolvedOrderLine) error {
	for i, l := range lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, line_number, kind, product_id, description, quantity, unit, unit_price, vat_rate, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, orderID, i+1, string(l.kind), l.productID, l.description, l.quantity, l.unit, l.unitPrice, l.vatRate, l.lineTotal)
		if err != nil {
			return fmt.Errorf("failed to insert order item %d: %w", i+1, err)
		}
	}
	return nil
}

func (s *orderService) UpdateOrder(ctx context.Context, orderID int, input OrderInput) (*Order, error) {
	if err := validateOrderInput(input); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status OrderStatus
	err = tx.QueryRow(ctx, "SELECT status FROM orders WHERE id = $1 FOR UPDATE", orderID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}
	if !orderEditable(status) {
		return nil, fmt.Errorf("order %d is %s: %w", orderID, status, ErrOrderLocked)
	}

	var customerID int
	err = tx.QueryRow(ctx, "SELECT id FROM customers WHERE id = $1 AND is_active = true", input.CustomerID).Scan(&customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("customer %d: %w", input.CustomerID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to resolve customer %d: %w", input.CustomerID, err)
	}

	resolved, err := resolveOrderLines(ctx, tx, input.Items)
	if err != nil {
		return nil, err
	}
	subtotal, vatAmount, total := ComputeTotals(lineAmounts(resolved))

	// Full item replacement: delete and reinsert under the row lock.
	if _, err := tx.Exec(ctx, "DELETE FROM order_items WHERE order_id = $1", orderID); err != nil {
		return nil, fmt.Errorf("failed to clear order items: %w", err)
	}
	if err := insertOrderItemsTx(ctx, tx, orderID, resolved); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders
		SET customer_id = $1, channel = $2, delivery_date = $3, notes = $4,
		    subtotal = $5, vat_amount = $6, total = $7, updated_at = NOW()
		WHERE id = $8
	`, customerID, string(input.Channel), input.DeliveryDate, input.Notes, subtotal, vatAmount, total, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to update order %d: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order update: %w", err)
	}

	return s.GetOrder(ctx, orderID)
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID int, target OrderStatus) (*Order, error) {
	if sideEffectOnlyTargets[target] {
		return nil, fmt.Errorf("status %s is set by document events, not directly: %w", target, ErrInvalidTransition)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status OrderStatus
	err = tx.QueryRow(ctx, "SELECT status FROM orders WHERE id = $1 FOR UPDATE", orderID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}
	if !CanTransitionOrder(status, target) {
		return nil, fmt.Errorf("order %d: %s → %s: %w", orderID, status, target, ErrInvalidTransition)
	}

	_, err = tx.Exec(ctx, "UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2", string(target), orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to transition order %d: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order transition: %w", err)
	}

	return s.GetOrder(ctx, orderID)
}

func (s *orderService) DeleteOrder(ctx context.Context, orderID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status OrderStatus
	err = tx.QueryRow(ctx, "SELECT status FROM orders WHERE id = $1 FOR UPDATE", orderID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}
	if status == OrderInvoiced {
		return fmt.Errorf("order %d is invoiced: %w", orderID, ErrOrderLocked)
	}

	// Draft notes die with the order. Issued or delivered notes are real
	// documents with ledger entries behind them; they survive the deletion
	// and only lose their origin reference.
	if _, err := tx.Exec(ctx,
		"DELETE FROM delivery_note_items WHERE delivery_note_id IN (SELECT id FROM delivery_notes WHERE order_id = $1 AND status = 'DRAFT')",
		orderID,
	); err != nil {
		return fmt.Errorf("failed to delete draft delivery note items: %w", err)
	}
	if _, err := tx.Exec(ctx,
		"DELETE FROM delivery_notes WHERE order_id = $1 AND status = 'DRAFT'",
		orderID,
	); err != nil {
		return fmt.Errorf("failed to delete draft delivery notes: %w", err)
	}
	if _, err := tx.Exec(ctx,
		"UPDATE delivery_notes SET order_id = NULL, updated_at = NOW() WHERE order_id = $1",
		orderID,
	); err != nil {
		return fmt.Errorf("failed to detach delivery notes from order %d: %w", orderID, err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM order_items WHERE order_id = $1", orderID); err != nil {
		return fmt.Errorf("failed to delete order items: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM orders WHERE id = $1", orderID); err != nil {
		return fmt.Errorf("failed to delete order %d: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order deletion: %w", err)
	}
	return nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

const orderSelect = `
	SELECT o.id, o.number, o.customer_id, c.code, c.name,
	       o.channel, o.status, o.delivery_date::text, o.notes,
	       o.subtotal, o.vat_amount, o.total, o.created_at, o.updated_at
	FROM orders o
	JOIN customers c ON c.id = o.customer_id
`

func scanOrder(row pgx.Row, o *Order) error {
	return row.Scan(
		&o.ID, &o.Number, &o.CustomerID, &o.CustomerCode, &o.CustomerName,
		&o.Channel, &o.Status, &o.DeliveryDate, &o.Notes,
		&o.Subtotal, &o.VATAmount, &o.Total, &o.CreatedAt, &o.UpdatedAt,
	)
}

func (s *orderService) GetOrder(ctx context.Context, orderID int) (*Order, error) {
	var o Order
	err := scanOrder(s.pool.QueryRow(ctx, orderSelect+" WHERE o.id = $1", orderID), &o)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}

	items, err := fetchOrderItemsQ(ctx, s.pool, orderID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (s *orderService) GetOrders(ctx context.Context, status *OrderStatus, deliveryDate *string) ([]Order, error) {
	query := orderSelect + " WHERE 1=1"
	var args []any

	if status != nil {
		args = append(args, string(*status))
		query += fmt.Sprintf(" AND o.status = $%d", len(args))
	}
	if deliveryDate != nil {
		args = append(args, *deliveryDate)
		query += fmt.Sprintf(" AND o.delivery_date = $%d", len(args))
	}
	query += " ORDER BY o.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func fetchOrderItemsQ(ctx context.Context, q pgxRowQuerier, orderID int) ([]OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.line_number, oi.kind, oi.product_id, p.code,
		       oi.description, oi.quantity, oi.unit, oi.unit_price, oi.vat_rate, oi.line_total
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.line_number
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.LineNumber, &it.Kind, &it.ProductID, &it.ProductCode,
			&it.Description, &it.Quantity, &it.Unit, &it.UnitPrice, &it.VATRate, &it.LineTotal,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
