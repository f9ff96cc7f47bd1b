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

// StockService is the append-only stock ledger. Document services (delivery
// note issue, purchase order receipt) write through the tx-scoped method so
// ledger entries land atomically with the document transition that caused
// them.
type StockService interface {
	// CreateMovement records a manual ledger entry (receipt, waste,
	// adjustment) in its own transaction.
	CreateMovement(ctx context.Context, input StockMovementInput) (*StockMovement, error)
	// AddMovementTx appends a ledger entry inside the caller's transaction,
	// linked to the originating document.
	AddMovementTx(ctx context.Context, tx pgx.Tx, input StockMovementInput, refType string, refID int) error
	// GetStockSummary returns current stock per catalog product.
	GetStockSummary(ctx context.Context) ([]StockItem, error)
	// GetMovements returns the ledger for one product, newest first.
	GetMovements(ctx context.Context, productID int) ([]StockMovement, error)
	// AvailableStockTx reads the signed sum for a product inside the caller's
	// transaction. Used by the netting engine for its availability snapshot.
	AvailableStockTx(ctx context.Context, tx pgx.Tx, productID int) (decimal.Decimal, error)
}

type stockService struct {
	pool *pgxpool.Pool
}

func NewStockService(pool *pgxpool.Pool) StockService {
	return &stockService{pool: pool}
}

func (s *stockService) CreateMovement(ctx context.Context, input StockMovementInput) (*StockMovement, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	id, err := insertMovementTx(ctx, tx, input, nil, nil)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit stock movement: %w", err)
	}
	return s.getMovement(ctx, id)
}

func (s *stockService) AddMovementTx(ctx context.Context, tx pgx.Tx, input StockMovementInput, refType string, refID int) error {
	_, err := insertMovementTx(ctx, tx, input, &refType, &refID)
	return err
}

// insertMovementTx validates the input, signs the quantity, and appends the
// ledger row. The row is immutable once written.
func insertMovementTx(ctx context.Context, tx pgx.Tx, input StockMovementInput, refType *string, refID *int) (int, error) {
	sign := input.Type.Sign()
	if sign == 0 {
		return 0, fmt.Errorf("unknown movement type %q", input.Type)
	}
	if !input.Quantity.IsPositive() {
		return 0, fmt.Errorf("movement quantity must be positive, got %s", input.Quantity)
	}

	var unit string
	err := tx.QueryRow(ctx,
		"SELECT unit FROM products WHERE id = $1 AND is_active = true",
		input.ProductID,
	).Scan(&unit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("product %d: %w", input.ProductID, ErrNotFound)
		}
		return 0, fmt.Errorf("failed to resolve product %d: %w", input.ProductID, err)
	}

	movementDate := input.MovementDate
	if movementDate == "" {
		movementDate = time.Now().Format("2006-01-02")
	}

	signed := input.Quantity
	if sign < 0 {
		signed = signed.Neg()
	}

	var id int
	err = tx.QueryRow(ctx, `
		INSERT INTO stock_movements (product_id, movement_type, quantity, unit, reference_type, reference_id, movement_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, input.ProductID, string(input.Type), signed, unit, refType, refID, movementDate, input.Notes).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert stock movement: %w", err)
	}
	return id, nil
}

func (s *stockService) GetStockSummary(ctx context.Context) ([]StockItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.code, p.name, p.unit, COALESCE(SUM(sm.quantity), 0)
		FROM products p
		LEFT JOIN stock_movements sm ON sm.product_id = p.id
		WHERE p.is_active = true
		GROUP BY p.id, p.code, p.name, p.unit
		ORDER BY p.code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock summary: %w", err)
	}
	defer rows.Close()

	var items []StockItem
	for rows.Next() {
		var it StockItem
		if err := rows.Scan(&it.ProductID, &it.ProductCode, &it.ProductName, &it.Unit, &it.Available); err != nil {
			return nil, fmt.Errorf("failed to scan stock item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *stockService) GetMovements(ctx context.Context, productID int) ([]StockMovement, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, product_id, movement_type, quantity, unit, reference_type, reference_id, movement_date::text, notes, created_at
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY id DESC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock movements: %w", err)
	}
	defer rows.Close()

	var movements []StockMovement
	for rows.Next() {
		var m StockMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Type, &m.Quantity, &m.Unit,
			&m.ReferenceType, &m.ReferenceID, &m.MovementDate, &m.Notes, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (s *stockService) AvailableStockTx(ctx context.Context, tx pgx.Tx, productID int) (decimal.Decimal, error) {
	var available decimal.Decimal
	err := tx.QueryRow(ctx,
		"SELECT COALESCE(SUM(quantity), 0) FROM stock_movements WHERE product_id = $1",
		productID,
	).Scan(&available)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum stock for product %d: %w", productID, err)
	}
	return available, nil
}

func (s *stockService) getMovement(ctx context.Context, id int) (*StockMovement, error) {
	var m StockMovement
	err := s.pool.QueryRow(ctx, `
		SELECT id, product_id, movement_type, quantity, unit, reference_type, reference_id, movement_date::text, notes, created_at
		FROM stock_movements
		WHERE id = $1
	`, id).Scan(&m.ID, &m.ProductID, &m.Type, &m.Quantity, &m.Unit,
		&m.ReferenceType, &m.ReferenceID, &m.MovementDate, &m.Notes, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("stock movement %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch stock movement %d: %w", id, err)
	}
	return &m, nil
}
