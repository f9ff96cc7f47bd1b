package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DeliveryNoteService derives transport documents from orders and drives
// their lifecycle. Issuing a note is the moment goods leave the warehouse,
// so that transition also writes the outgoing stock movements.
type DeliveryNoteService interface {
	// CreateDeliveryNote snapshots the order's items into a new DRAFT note.
	// The order must be IN_PREPARATION.
	CreateDeliveryNote(ctx context.Context, orderID int) (*DeliveryNote, error)
	// UpdateDeliveryNote patches transport header fields. Allowed until the
	// note is DELIVERED or linked to an invoice.
	UpdateDeliveryNote(ctx context.Context, ddtID int, update DeliveryNoteUpdate) (*DeliveryNote, error)
	// UpdateDeliveryNoteStatus applies DRAFT→ISSUED (writes SCARICO stock
	// movements for catalog lines) or ISSUED→DELIVERED (flips the origin
	// order to DELIVERED in the same transaction).
	UpdateDeliveryNoteStatus(ctx context.Context, ddtID int, target DDTStatus) (*DeliveryNote, error)
	// DeleteDeliveryNote removes a DRAFT or still-unlinked ISSUED note.
	// Deleting an issued note reverses its stock out with RETTIFICA_POS
	// entries. DELIVERED or invoiced notes are frozen.
	DeleteDeliveryNote(ctx context.Context, ddtID int) error

	GetDeliveryNote(ctx context.Context, ddtID int) (*DeliveryNote, error)
	GetDeliveryNotes(ctx context.Context, status *DDTStatus) ([]DeliveryNote, error)
}

type deliveryNoteService struct {
	pool      *pgxpool.Pool
	numbering NumberingService
	stock     StockService
}

func NewDeliveryNoteService(pool *pgxpool.Pool, numbering NumberingService, stock StockService) DeliveryNoteService {
	return &deliveryNoteService{pool: pool, numbering: numbering, stock: stock}
}

func (s *deliveryNoteService) CreateDeliveryNote(ctx context.Context, orderID int) (*DeliveryNote, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status OrderStatus
	var customerID int
	var deliveryDate string
	err = tx.QueryRow(ctx,
		"SELECT status, customer_id, delivery_date::text FROM orders WHERE id = $1 FOR UPDATE",
		orderID,
	).Scan(&status, &customerID, &deliveryDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}
	if status != OrderInPreparation {
		return nil, fmt.Errorf("order %d is %s, must be IN_PREPARATION: %w", orderID, status, ErrOrderNotReady)
	}

	items, err := fetchOrderItemsQ(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("order %d has no items", orderID)
	}

	amounts := make([]LineAmounts, len(items))
	for i, it := range items {
		amounts[i] = LineAmounts{Quantity: it.Quantity, UnitPrice: it.UnitPrice, VATRate: it.VATRate}
	}
	subtotal, vatAmount, total := ComputeTotals(amounts)

	number, err := s.numbering.NextNumberTx(ctx, tx, DocTypeDeliveryNote, time.Now().Year())
	if err != nil {
		return nil, err
	}

	var ddtID int
	err = tx.QueryRow(ctx, `
		INSERT INTO delivery_notes (number, order_id, customer_id, status, transport_date, subtotal, vat_amount, total)
		VALUES ($1, $2, $3, 'DRAFT', $4, $5, $6, $7)
		RETURNING id
	`, number, orderID, customerID, deliveryDate, subtotal, vatAmount, total).Scan(&ddtID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert delivery note: %w", err)
	}

	// Snapshot order lines. Price and VAT are copied verbatim; later catalog
	// edits never reach an existing note.
	for _, it := range items {
		_, err = tx.Exec(ctx, `
			INSERT INTO delivery_note_items (delivery_note_id, line_number, kind, product_id, description, quantity, unit, unit_price, vat_rate, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, ddtID, it.LineNumber, string(it.Kind), it.ProductID, it.Description, it.Quantity, it.Unit, it.UnitPrice, it.VATRate, it.LineTotal)
		if err != nil {
			return nil, fmt.Errorf("failed to insert delivery note item %d: %w", it.LineNumber, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit delivery note creation: %w", err)
	}

	return s.GetDeliveryNote(ctx, ddtID)
}

func (s *deliveryNoteService) UpdateDeliveryNote(ctx context.Context, ddtID int, update DeliveryNoteUpdate) (*DeliveryNote, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	status, linked, err := lockDeliveryNoteTx(ctx, tx, ddtID)
	if err != nil {
		return nil, err
	}
	if status == DDTDelivered {
		return nil, fmt.Errorf("delivery note %d is %s: %w", ddtID, status, ErrDDTLocked)
	}
	if linked {
		return nil, fmt.Errorf("delivery note %d is invoiced: %w", ddtID, ErrDDTLocked)
	}

	if update.TransportDate != nil {
		if _, err := time.Parse(dateLayout, *update.TransportDate); err != nil {
			return nil, fmt.Errorf("invalid transport date %q", *update.TransportDate)
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE delivery_notes
		SET transport_date = COALESCE($1, transport_date),
		    carrier        = COALESCE($2, carrier),
		    package_count  = COALESCE($3, package_count),
		    notes          = COALESCE($4, notes),
		    updated_at     = NOW()
		WHERE id = $5
	`, update.TransportDate, update.Carrier, update.PackageCount, update.Notes, ddtID)
	if err != nil {
		return nil, fmt.Errorf("failed to update delivery note %d: %w", ddtID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit delivery note update: %w", err)
	}

	return s.GetDeliveryNote(ctx, ddtID)
}

func (s *deliveryNoteService) UpdateDeliveryNoteStatus(ctx context.Context, ddtID int, target DDTStatus) (*DeliveryNote, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status DDTStatus
	var orderID *int
	err = tx.QueryRow(ctx,
		"SELECT status, order_id FROM delivery_notes WHERE id = $1 FOR UPDATE",
		ddtID,
	).Scan(&status, &orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("delivery note %d: %w", ddtID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch delivery note %d: %w", ddtID, err)
	}
	if !CanTransitionDDT(status, target) {
		return nil, fmt.Errorf("delivery note %d: %s → %s: %w", ddtID, status, target, ErrInvalidTransition)
	}

	switch target {
	case DDTIssued:
		// Goods leave the warehouse now. One SCARICO per catalog line;
		// free-text lines have no product to track.
		items, err := fetchDeliveryNoteItemsQ(ctx, tx, ddtID)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			if it.Kind != ItemKindCatalog || it.ProductID == nil {
				continue
			}
			err := s.stock.AddMovementTx(ctx, tx, StockMovementInput{
				ProductID: *it.ProductID,
				Type:      MovementScarico,
				Quantity:  it.Quantity,
			}, StockRefDeliveryNote, ddtID)
			if err != nil {
				return nil, fmt.Errorf("failed to record stock out for delivery note %d: %w", ddtID, err)
			}
		}

	case DDTDelivered:
		if orderID != nil {
			if err := markOrderDeliveredTx(ctx, tx, *orderID); err != nil {
				return nil, err
			}
		}
	}

	_, err = tx.Exec(ctx,
		"UPDATE delivery_notes SET status = $1, updated_at = NOW() WHERE id = $2",
		string(target), ddtID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to transition delivery note %d: %w", ddtID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit delivery note transition: %w", err)
	}

	return s.GetDeliveryNote(ctx, ddtID)
}

// markOrderDeliveredTx flips the origin order to DELIVERED when its note is
// delivered. The order may already be DELIVERED through a sibling note.
func markOrderDeliveredTx(ctx context.Context, tx pgx.Tx, orderID int) error {
	var status OrderStatus
	err := tx.QueryRow(ctx, "SELECT status FROM orders WHERE id = $1 FOR UPDATE", orderID).Scan(&status)
	if err != nil {
		return fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}
	if status == OrderDelivered || status == OrderInvoiced {
		return nil
	}
	if !CanTransitionOrder(status, OrderDelivered) {
		return fmt.Errorf("order %d: %s → DELIVERED: %w", orderID, status, ErrInvalidTransition)
	}
	if _, err := tx.Exec(ctx,
		"UPDATE orders SET status = 'DELIVERED', updated_at = NOW() WHERE id = $1",
		orderID,
	); err != nil {
		return fmt.Errorf("failed to mark order %d delivered: %w", orderID, err)
	}
	return nil
}

// lockDeliveryNoteTx locks the note row and reports its status and whether
// an invoice link exists.
func lockDeliveryNoteTx(ctx context.Context, tx pgx.Tx, ddtID int) (DDTStatus, bool, error) {
	var status DDTStatus
	err := tx.QueryRow(ctx, "SELECT status FROM delivery_notes WHERE id = $1 FOR UPDATE", ddtID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, fmt.Errorf("delivery note %d: %w", ddtID, ErrNotFound)
		}
		return "", false, fmt.Errorf("failed to fetch delivery note %d: %w", ddtID, err)
	}

	var links int
	err = tx.QueryRow(ctx,
		"SELECT COUNT(*) FROM invoice_ddt_links WHERE delivery_note_id = $1",
		ddtID,
	).Scan(&links)
	if err != nil {
		return "", false, fmt.Errorf("failed to check invoice links for delivery note %d: %w", ddtID, err)
	}
	return status, links > 0, nil
}

func (s *deliveryNoteService) DeleteDeliveryNote(ctx context.Context, ddtID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	status, linked, err := lockDeliveryNoteTx(ctx, tx, ddtID)
	if err != nil {
		return err
	}
	if status == DDTDelivered {
		return fmt.Errorf("delivery note %d is %s: %w", ddtID, status, ErrDDTLocked)
	}
	if linked {
		return fmt.Errorf("delivery note %d is invoiced: %w", ddtID, ErrDDTLocked)
	}

	// An issued note already moved goods out; reverse those entries so the
	// ledger sum returns to where it was. A draft never moved stock.
	if status == DDTIssued {
		items, err := fetchDeliveryNoteItemsQ(ctx, tx, ddtID)
		if err != nil {
			return err
		}
		for _, it := range items {
			if it.Kind != ItemKindCatalog || it.ProductID == nil {
				continue
			}
			err := s.stock.AddMovementTx(ctx, tx, StockMovementInput{
				ProductID: *it.ProductID,
				Type:      MovementRettificaPos,
				Quantity:  it.Quantity,
				Notes:     fmt.Sprintf("storno DDT %d", ddtID),
			}, StockRefDeliveryNote, ddtID)
			if err != nil {
				return fmt.Errorf("failed to reverse stock out for delivery note %d: %w", ddtID, err)
			}
		}
	}

	if _, err := tx.Exec(ctx, "DELETE FROM delivery_note_items WHERE delivery_note_id = $1", ddtID); err != nil {
		return fmt.Errorf("failed to delete delivery note items: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM delivery_notes WHERE id = $1", ddtID); err != nil {
		return fmt.Errorf("failed to delete delivery note %d: %w", ddtID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit delivery note deletion: %w", err)
	}
	return nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

const deliveryNoteSelect = `
	SELECT dn.id, dn.number, dn.order_id, o.number, dn.customer_id, c.code, c.name,
	       dn.status, dn.transport_date::text, dn.carrier, dn.package_count, dn.notes,
	       dn.subtotal, dn.vat_amount, dn.total, idl.invoice_id, dn.created_at, dn.updated_at
	FROM delivery_notes dn
	JOIN customers c ON c.id = dn.customer_id
	LEFT JOIN orders o ON o.id = dn.order_id
	LEFT JOIN invoice_ddt_links idl ON idl.delivery_note_id = dn.id
`

func scanDeliveryNote(row pgx.Row, dn *DeliveryNote) error {
	return row.Scan(
		&dn.ID, &dn.Number, &dn.OrderID, &dn.OrderNumber, &dn.CustomerID, &dn.CustomerCode, &dn.CustomerName,
		&dn.Status, &dn.TransportDate, &dn.Carrier, &dn.PackageCount, &dn.Notes,
		&dn.Subtotal, &dn.VATAmount, &dn.Total, &dn.InvoiceID, &dn.CreatedAt, &dn.UpdatedAt,
	)
}

func (s *deliveryNoteService) GetDeliveryNote(ctx context.Context, ddtID int) (*DeliveryNote, error) {
	var dn DeliveryNote
	err := scanDeliveryNote(s.pool.QueryRow(ctx, deliveryNoteSelect+" WHERE dn.id = $1", ddtID), &dn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("delivery note %d: %w", ddtID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch delivery note %d: %w", ddtID, err)
	}

	items, err := fetchDeliveryNoteItemsQ(ctx, s.pool, ddtID)
	if err != nil {
		return nil, err
	}
	dn.Items = items
	return &dn, nil
}

func (s *deliveryNoteService) GetDeliveryNotes(ctx context.Context, status *DDTStatus) ([]DeliveryNote, error) {
	query := deliveryNoteSelect + " WHERE 1=1"
	var args []any
	if status != nil {
		args = append(args, string(*status))
		query += " AND dn.status = $1"
	}
	query += " ORDER BY dn.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query delivery notes: %w", err)
	}
	defer rows.Close()

	var notes []DeliveryNote
	for rows.Next() {
		var dn DeliveryNote
		if err := scanDeliveryNote(rows, &dn); err != nil {
			return nil, fmt.Errorf("failed to scan delivery note: %w", err)
		}
		notes = append(notes, dn)
	}
	return notes, rows.Err()
}

func fetchDeliveryNoteItemsQ(ctx context.Context, q pgxRowQuerier, ddtID int) ([]DeliveryNoteItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, delivery_note_id, line_number, kind, product_id, description, quantity, unit, unit_price, vat_rate, line_total
		FROM delivery_note_items
		WHERE delivery_note_id = $1
		ORDER BY line_number
	`, ddtID)
	if err != nil {
		return nil, fmt.Errorf("failed to query delivery note items: %w", err)
	}
	defer rows.Close()

	var items []DeliveryNoteItem
	for rows.Next() {
		var it DeliveryNoteItem
		if err := rows.Scan(
			&it.ID, &it.DeliveryNoteID, &it.LineNumber, &it.Kind, &it.ProductID,
			&it.Description, &it.Quantity, &it.Unit, &it.UnitPrice, &it.VATRate, &it.LineTotal,
		); err != nil {
			return nil, fmt.Errorf("failed to scan delivery note item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
