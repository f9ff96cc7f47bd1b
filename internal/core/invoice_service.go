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

// InvoiceService aggregates issued delivery notes into invoices and manages
// the invoice and payment lifecycle.
type InvoiceService interface {
	// CreateInvoice builds a DRAFT invoice from the given delivery notes.
	// Every note must belong to the customer, be ISSUED or DELIVERED, and
	// not already be linked to an invoice.
	CreateInvoice(ctx context.Context, input InvoiceInput) (*Invoice, error)
	// UpdateInvoiceStatus applies ISSUED/SENT/CANCELLED transitions. PAID is
	// reached only through full payment. Cancelling releases the delivery
	// note links so the notes become invoicable again.
	UpdateInvoiceStatus(ctx context.Context, invoiceID int, target InvoiceStatus) (*Invoice, error)
	// DeleteInvoice removes an unpaid invoice with no payments, releasing
	// its delivery note links and reverting any promoted orders.
	DeleteInvoice(ctx context.Context, invoiceID int) error
	// CreatePayment records a payment against an invoice or purchase order,
	// capped at the open amount. Full payment of an invoice flips it to PAID.
	CreatePayment(ctx context.Context, input PaymentInput) (*Payment, error)

	GetInvoice(ctx context.Context, invoiceID int) (*Invoice, error)
	GetInvoices(ctx context.Context, status *InvoiceStatus) ([]Invoice, error)
	GetPayments(ctx context.Context, invoiceID *int, purchaseOrderID *int) ([]Payment, error)
}

type invoiceService struct {
	pool      *pgxpool.Pool
	numbering NumberingService
}

func NewInvoiceService(pool *pgxpool.Pool, numbering NumberingService) InvoiceService {
	return &invoiceService{pool: pool, numbering: numbering}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, input InvoiceInput) (*Invoice, error) {
	if len(input.DDTIDs) == 0 {
		return nil, fmt.Errorf("invoice must aggregate at least one delivery note")
	}
	if _, err := time.Parse(dateLayout, input.IssueDate); err != nil {
		return nil, fmt.Errorf("invalid issue date %q", input.IssueDate)
	}
	if _, err := time.Parse(dateLayout, input.DueDate); err != nil {
		return nil, fmt.Errorf("invalid due date %q", input.DueDate)
	}

	// The same note listed twice collapses to one; the unique link below
	// would otherwise reject the whole invoice.
	seen := make(map[int]bool, len(input.DDTIDs))
	ddtIDs := make([]int, 0, len(input.DDTIDs))
	for _, id := range input.DDTIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		ddtIDs = append(ddtIDs, id)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock every note up front; concurrent invoicing of the same note
	// serializes here and the loser fails the link check below.
	type noteLine struct {
		ddtID int
		item  DeliveryNoteItem
	}
	var lines []noteLine
	affectedOrders := make(map[int]bool)

	for _, ddtID := range ddtIDs {
		var status DDTStatus
		var customerID int
		var orderID *int
		err = tx.QueryRow(ctx,
			"SELECT status, customer_id, order_id FROM delivery_notes WHERE id = $1 FOR UPDATE",
			ddtID,
		).Scan(&status, &customerID, &orderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("delivery note %d: %w", ddtID, ErrNotFound)
			}
			return nil, fmt.Errorf("failed to fetch delivery note %d: %w", ddtID, err)
		}
		if customerID != input.CustomerID {
			return nil, fmt.Errorf("delivery note %d belongs to customer %d, not %d", ddtID, customerID, input.CustomerID)
		}
		if status != DDTIssued && status != DDTDelivered {
			return nil, fmt.Errorf("delivery note %d is %s, must be issued: %w", ddtID, status, ErrInvalidTransition)
		}

		var linked int
		err = tx.QueryRow(ctx,
			"SELECT COUNT(*) FROM invoice_ddt_links WHERE delivery_note_id = $1",
			ddtID,
		).Scan(&linked)
		if err != nil {
			return nil, fmt.Errorf("failed to check links for delivery note %d: %w", ddtID, err)
		}
		if linked > 0 {
			return nil, fmt.Errorf("delivery note %d: %w", ddtID, ErrDDTAlreadyInvoiced)
		}

		items, err := fetchDeliveryNoteItemsQ(ctx, tx, ddtID)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			lines = append(lines, noteLine{ddtID: ddtID, item: it})
		}
		if orderID != nil {
			affectedOrders[*orderID] = true
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("selected delivery notes have no items")
	}

	amounts := make([]LineAmounts, len(lines))
	for i, l := range lines {
		amounts[i] = LineAmounts{Quantity: l.item.Quantity, UnitPrice: l.item.UnitPrice, VATRate: l.item.VATRate}
	}
	subtotal, vatAmount, total := ComputeTotals(amounts)

	number, err := s.numbering.NextNumberTx(ctx, tx, DocTypeInvoice, time.Now().Year())
	if err != nil {
		return nil, err
	}

	var invoiceID int
	err = tx.QueryRow(ctx, `
		INSERT INTO invoices (number, customer_id, status, issue_date, due_date, notes, subtotal, vat_amount, total, paid_amount)
		VALUES ($1, $2, 'DRAFT', $3, $4, $5, $6, $7, $8, 0)
		RETURNING id
	`, number, input.CustomerID, input.IssueDate, input.DueDate, input.Notes, subtotal, vatAmount, total).Scan(&invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert invoice: %w", err)
	}

	for i, l := range lines {
		it := l.item

		// Margin back-reference: cost and supplier from the price list, when
		// the line has a product with a priced supplier.
		var costPrice *decimal.Decimal
		var supplierID *int
		if it.Kind == ItemKindCatalog && it.ProductID != nil {
			var cp decimal.Decimal
			var sid int
			err = tx.QueryRow(ctx, `
				SELECT sp.supplier_id, sp.cost_price
				FROM supplier_products sp
				JOIN products p ON p.id = sp.product_id
				WHERE sp.product_id = $1
				ORDER BY (sp.supplier_id = p.default_supplier_id) DESC, sp.supplier_id
				LIMIT 1
			`, *it.ProductID).Scan(&sid, &cp)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("failed to resolve cost price for product %d: %w", *it.ProductID, err)
			}
			if err == nil {
				costPrice = &cp
				supplierID = &sid
			}
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO invoice_items (invoice_id, line_number, kind, product_id, source_ddt_id, description, quantity, unit, unit_price, vat_rate, line_total, cost_price, supplier_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`, invoiceID, i+1, string(it.Kind), it.ProductID, l.ddtID, it.Description,
			it.Quantity, it.Unit, it.UnitPrice, it.VATRate, it.LineTotal, costPrice, supplierID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert invoice item %d: %w", i+1, err)
		}
	}

	for _, ddtID := range ddtIDs {
		if _, err := tx.Exec(ctx,
			"INSERT INTO invoice_ddt_links (invoice_id, delivery_note_id) VALUES ($1, $2)",
			invoiceID, ddtID,
		); err != nil {
			return nil, fmt.Errorf("failed to link delivery note %d: %w", ddtID, err)
		}
	}

	for orderID := range affectedOrders {
		if err := promoteOrderIfFullyInvoicedTx(ctx, tx, orderID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit invoice creation: %w", err)
	}

	return s.GetInvoice(ctx, invoiceID)
}

// promoteOrderIfFullyInvoicedTx flips a DELIVERED order to INVOICED once
// every one of its issued delivery notes is linked to an invoice.
func promoteOrderIfFullyInvoicedTx(ctx context.Context, tx pgx.Tx, orderID int) error {
	var status OrderStatus
	err := tx.QueryRow(ctx, "SELECT status FROM orders WHERE id = $1 FOR UPDATE", orderID).Scan(&status)
	if err != nil {
		return fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}
	if status != OrderDelivered {
		return nil
	}

	var unlinked int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM delivery_notes dn
		LEFT JOIN invoice_ddt_links idl ON idl.delivery_note_id = dn.id
		WHERE dn.order_id = $1 AND dn.status <> 'DRAFT' AND idl.invoice_id IS NULL
	`, orderID).Scan(&unlinked)
	if err != nil {
		return fmt.Errorf("failed to count uninvoiced delivery notes for order %d: %w", orderID, err)
	}
	if unlinked > 0 {
		return nil
	}

	if _, err := tx.Exec(ctx,
		"UPDATE orders SET status = 'INVOICED', updated_at = NOW() WHERE id = $1",
		orderID,
	); err != nil {
		return fmt.Errorf("failed to mark order %d invoiced: %w", orderID, err)
	}
	return nil
}

// demoteInvoicedOrdersTx reverts INVOICED origin orders of an invoice back to
// DELIVERED. Called when the invoice is deleted or cancelled and its
// delivery note links are released.
func demoteInvoicedOrdersTx(ctx context.Context, tx pgx.Tx, invoiceID int) error {
	_, err := tx.Exec(ctx, `
		UPDATE orders SET status = 'DELIVERED', updated_at = NOW()
		WHERE status = 'INVOICED' AND id IN (
			SELECT DISTINCT dn.order_id
			FROM invoice_ddt_links idl
			JOIN delivery_notes dn ON dn.id = idl.delivery_note_id
			WHERE idl.invoice_id = $1 AND dn.order_id IS NOT NULL
		)
	`, invoiceID)
	if err != nil {
		return fmt.Errorf("failed to revert orders of invoice %d: %w", invoiceID, err)
	}
	return nil
}

func (s *invoiceService) UpdateInvoiceStatus(ctx context.Context, invoiceID int, target InvoiceStatus) (*Invoice, error) {
	if target == InvoicePaid {
		return nil, fmt.Errorf("PAID is set by full payment, not directly: %w", ErrInvalidTransition)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status InvoiceStatus
	var paidAmount decimal.Decimal
	err = tx.QueryRow(ctx,
		"SELECT status, paid_amount FROM invoices WHERE id = $1 FOR UPDATE",
		invoiceID,
	).Scan(&status, &paidAmount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice %d: %w", invoiceID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch invoice %d: %w", invoiceID, err)
	}
	if !CanTransitionInvoice(status, target) {
		return nil, fmt.Errorf("invoice %d: %s → %s: %w", invoiceID, status, target, ErrInvalidTransition)
	}

	if target == InvoiceCancelled {
		if paidAmount.IsPositive() {
			return nil, fmt.Errorf("invoice %d has recorded payments: %w", invoiceID, ErrInvalidTransition)
		}
		if err := demoteInvoicedOrdersTx(ctx, tx, invoiceID); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, "DELETE FROM invoice_ddt_links WHERE invoice_id = $1", invoiceID); err != nil {
			return nil, fmt.Errorf("failed to release delivery note links: %w", err)
		}
	}

	_, err = tx.Exec(ctx,
		"UPDATE invoices SET status = $1, updated_at = NOW() WHERE id = $2",
		string(target), invoiceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to transition invoice %d: %w", invoiceID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit invoice transition: %w", err)
	}

	return s.GetInvoice(ctx, invoiceID)
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, invoiceID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status InvoiceStatus
	err = tx.QueryRow(ctx, "SELECT status FROM invoices WHERE id = $1 FOR UPDATE", invoiceID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("invoice %d: %w", invoiceID, ErrNotFound)
		}
		return fmt.Errorf("failed to fetch invoice %d: %w", invoiceID, err)
	}
	if status == InvoicePaid {
		return fmt.Errorf("invoice %d is paid: %w", invoiceID, ErrInvalidTransition)
	}

	var paymentCount int
	err = tx.QueryRow(ctx, "SELECT COUNT(*) FROM payments WHERE invoice_id = $1", invoiceID).Scan(&paymentCount)
	if err != nil {
		return fmt.Errorf("failed to count payments for invoice %d: %w", invoiceID, err)
	}
	if paymentCount > 0 {
		return fmt.Errorf("invoice %d has %d payment(s): %w", invoiceID, paymentCount, ErrInvalidTransition)
	}

	// Releasing the links makes the notes invoicable again; their origin
	// orders step back to DELIVERED.
	if err := demoteInvoicedOrdersTx(ctx, tx, invoiceID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM invoice_ddt_links WHERE invoice_id = $1", invoiceID); err != nil {
		return fmt.Errorf("failed to release delivery note links: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM invoice_items WHERE invoice_id = $1", invoiceID); err != nil {
		return fmt.Errorf("failed to delete invoice items: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM invoices WHERE id = $1", invoiceID); err != nil {
		return fmt.Errorf("failed to delete invoice %d: %w", invoiceID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit invoice deletion: %w", err)
	}
	return nil
}

// ── Payments ─────────────────────────────────────────────────────────────────

func (s *invoiceService) CreatePayment(ctx context.Context, input PaymentInput) (*Payment, error) {
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("payment amount must be positive, got %s", input.Amount)
	}
	switch input.Direction {
	case PaymentIncoming:
		if input.InvoiceID == nil || input.PurchaseOrderID != nil {
			return nil, fmt.Errorf("incoming payment must reference an invoice only")
		}
	case PaymentOutgoing:
		if input.PurchaseOrderID == nil || input.InvoiceID != nil {
			return nil, fmt.Errorf("outgoing payment must reference a purchase order only")
		}
	default:
		return nil, fmt.Errorf("unknown payment direction %q", input.Direction)
	}

	paymentDate := input.PaymentDate
	if paymentDate == "" {
		paymentDate = time.Now().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, paymentDate); err != nil {
		return nil, fmt.Errorf("invalid payment date %q", paymentDate)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if input.Direction == PaymentIncoming {
		if err := s.applyInvoicePaymentTx(ctx, tx, *input.InvoiceID, input.Amount); err != nil {
			return nil, err
		}
	} else {
		if err := s.checkPurchaseOrderPaymentTx(ctx, tx, *input.PurchaseOrderID, input.Amount); err != nil {
			return nil, err
		}
	}

	var paymentID int
	err = tx.QueryRow(ctx, `
		INSERT INTO payments (direction, amount, method, payment_date, invoice_id, purchase_order_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, string(input.Direction), input.Amount, input.Method, paymentDate,
		input.InvoiceID, input.PurchaseOrderID, input.Notes).Scan(&paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert payment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}

	return s.getPayment(ctx, paymentID)
}

// applyInvoicePaymentTx locks the invoice, enforces the payment cap, bumps
// paid_amount, and flips the invoice to PAID when fully covered.
func (s *invoiceService) applyInvoicePaymentTx(ctx context.Context, tx pgx.Tx, invoiceID int, amount decimal.Decimal) error {
	var status InvoiceStatus
	var total, paidAmount decimal.Decimal
	err := tx.QueryRow(ctx,
		"SELECT status, total, paid_amount FROM invoices WHERE id = $1 FOR UPDATE",
		invoiceID,
	).Scan(&status, &total, &paidAmount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("invoice %d: %w", invoiceID, ErrNotFound)
		}
		return fmt.Errorf("failed to fetch invoice %d: %w", invoiceID, err)
	}
	if status != InvoiceIssued && status != InvoiceSent {
		return fmt.Errorf("invoice %d is %s, cannot accept payments: %w", invoiceID, status, ErrInvalidTransition)
	}

	newPaid := paidAmount.Add(amount)
	if newPaid.GreaterThan(total) {
		return fmt.Errorf("payment of %s on invoice %d exceeds open amount %s: %w",
			amount, invoiceID, total.Sub(paidAmount), ErrOverPayment)
	}

	newStatus := status
	if newPaid.Equal(total) {
		newStatus = InvoicePaid
	}
	if _, err := tx.Exec(ctx,
		"UPDATE invoices SET paid_amount = $1, status = $2, updated_at = NOW() WHERE id = $3",
		newPaid, string(newStatus), invoiceID,
	); err != nil {
		return fmt.Errorf("failed to apply payment to invoice %d: %w", invoiceID, err)
	}
	return nil
}

// checkPurchaseOrderPaymentTx enforces the cap on outgoing payments: the sum
// of payments against a purchase order never exceeds its total.
func (s *invoiceService) checkPurchaseOrderPaymentTx(ctx context.Context, tx pgx.Tx, poID int, amount decimal.Decimal) error {
	var total decimal.Decimal
	err := tx.QueryRow(ctx, "SELECT total FROM purchase_orders WHERE id = $1 FOR UPDATE", poID).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("purchase order %d: %w", poID, ErrNotFound)
		}
		return fmt.Errorf("failed to fetch purchase order %d: %w", poID, err)
	}

	var paid decimal.Decimal
	err = tx.QueryRow(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM payments WHERE purchase_order_id = $1",
		poID,
	).Scan(&paid)
	if err != nil {
		return fmt.Errorf("failed to sum payments for purchase order %d: %w", poID, err)
	}

	if paid.Add(amount).GreaterThan(total) {
		return fmt.Errorf("payment of %s on purchase order %d exceeds open amount %s: %w",
			amount, poID, total.Sub(paid), ErrOverPayment)
	}
	return nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

const invoiceSelect = `
	SELECT i.id, i.number, i.customer_id, c.code, c.name, i.status,
	       i.issue_date::text, i.due_date::text, i.notes,
	       i.subtotal, i.vat_amount, i.total, i.paid_amount, i.created_at, i.updated_at
	FROM invoices i
	JOIN customers c ON c.id = i.customer_id
`

func scanInvoice(row pgx.Row, inv *Invoice) error {
	return row.Scan(
		&inv.ID, &inv.Number, &inv.CustomerID, &inv.CustomerCode, &inv.CustomerName, &inv.Status,
		&inv.IssueDate, &inv.DueDate, &inv.Notes,
		&inv.Subtotal, &inv.VATAmount, &inv.Total, &inv.PaidAmount, &inv.CreatedAt, &inv.UpdatedAt,
	)
}

// deriveOverdue computes the read-only overdue flag: past due date, still
// collectible, not fully paid.
func deriveOverdue(inv *Invoice, today string) {
	if inv.Status != InvoiceIssued && inv.Status != InvoiceSent {
		return
	}
	inv.Overdue = inv.DueDate < today && inv.PaidAmount.LessThan(inv.Total)
}

func (s *invoiceService) GetInvoice(ctx context.Context, invoiceID int) (*Invoice, error) {
	var inv Invoice
	err := scanInvoice(s.pool.QueryRow(ctx, invoiceSelect+" WHERE i.id = $1", invoiceID), &inv)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice %d: %w", invoiceID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch invoice %d: %w", invoiceID, err)
	}
	deriveOverdue(&inv, time.Now().Format(dateLayout))

	rows, err := s.pool.Query(ctx, `
		SELECT id, invoice_id, line_number, kind, product_id, source_ddt_id, description,
		       quantity, unit, unit_price, vat_rate, line_total, cost_price, supplier_id
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY line_number
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it InvoiceItem
		if err := rows.Scan(
			&it.ID, &it.InvoiceID, &it.LineNumber, &it.Kind, &it.ProductID, &it.SourceDDTID, &it.Description,
			&it.Quantity, &it.Unit, &it.UnitPrice, &it.VATRate, &it.LineTotal, &it.CostPrice, &it.SupplierID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invoice item: %w", err)
		}
		inv.Items = append(inv.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	linkRows, err := s.pool.Query(ctx,
		"SELECT delivery_note_id FROM invoice_ddt_links WHERE invoice_id = $1 ORDER BY delivery_note_id",
		invoiceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice links: %w", err)
	}
	defer linkRows.Close()

	for linkRows.Next() {
		var ddtID int
		if err := linkRows.Scan(&ddtID); err != nil {
			return nil, fmt.Errorf("failed to scan invoice link: %w", err)
		}
		inv.DDTIDs = append(inv.DDTIDs, ddtID)
	}
	return &inv, linkRows.Err()
}

func (s *invoiceService) GetInvoices(ctx context.Context, status *InvoiceStatus) ([]Invoice, error) {
	query := invoiceSelect + " WHERE 1=1"
	var args []any
	if status != nil {
		args = append(args, string(*status))
		query += " AND i.status = $1"
	}
	query += " ORDER BY i.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	today := time.Now().Format(dateLayout)
	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		if err := scanInvoice(rows, &inv); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		deriveOverdue(&inv, today)
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (s *invoiceService) GetPayments(ctx context.Context, invoiceID *int, purchaseOrderID *int) ([]Payment, error) {
	query := `
		SELECT id, direction, amount, method, payment_date::text, invoice_id, purchase_order_id, notes, created_at
		FROM payments
		WHERE 1=1
	`
	var args []any
	if invoiceID != nil {
		args = append(args, *invoiceID)
		query += fmt.Sprintf(" AND invoice_id = $%d", len(args))
	}
	if purchaseOrderID != nil {
		args = append(args, *purchaseOrderID)
		query += fmt.Sprintf(" AND purchase_order_id = $%d", len(args))
	}
	query += " ORDER BY id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.Direction, &p.Amount, &p.Method, &p.PaymentDate,
			&p.InvoiceID, &p.PurchaseOrderID, &p.Notes, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (s *invoiceService) getPayment(ctx context.Context, id int) (*Payment, error) {
	var p Payment
	err := s.pool.QueryRow(ctx, `
		SELECT id, direction, amount, method, payment_date::text, invoice_id, purchase_order_id, notes, created_at
		FROM payments
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Direction, &p.Amount, &p.Method, &p.PaymentDate,
		&p.InvoiceID, &p.PurchaseOrderID, &p.Notes, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("payment %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch payment %d: %w", id, err)
	}
	return &p, nil
}
