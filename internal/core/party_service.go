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

// CustomerInput creates a customer master record. The code is issued by the
// numbering service, not supplied.
type CustomerInput struct {
	Name      string
	VATNumber string
	Email     string
	Phone     string
	Address   string
	SDICode   string
	PEC       string
	IBAN      string
}

// SupplierInput creates a supplier master record.
type SupplierInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// ProductInput creates a catalog product.
type ProductInput struct {
	Code              string
	Name              string
	Unit              string
	DefaultPrice      decimal.Decimal
	VATRate           decimal.Decimal
	DefaultSupplierID *int
}

// PartyService manages master data: customers, suppliers, the product
// catalog, and supplier price lists.
type PartyService interface {
	CreateCustomer(ctx context.Context, input CustomerInput) (*Customer, error)
	GetCustomers(ctx context.Context) ([]Customer, error)

	CreateSupplier(ctx context.Context, input SupplierInput) (*Supplier, error)
	GetSuppliers(ctx context.Context) ([]Supplier, error)

	CreateProduct(ctx context.Context, input ProductInput) (*Product, error)
	GetProducts(ctx context.Context) ([]Product, error)

	// SetSupplierPrice upserts one price list row.
	SetSupplierPrice(ctx context.Context, supplierID, productID int, costPrice decimal.Decimal) (*SupplierPrice, error)
	GetSupplierPrices(ctx context.Context, supplierID int) ([]SupplierPrice, error)
}

type partyService struct {
	pool      *pgxpool.Pool
	numbering NumberingService
}

func NewPartyService(pool *pgxpool.Pool, numbering NumberingService) PartyService {
	return &partyService{pool: pool, numbering: numbering}
}

func (s *partyService) CreateCustomer(ctx context.Context, input CustomerInput) (*Customer, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("customer name is required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	code, err := s.numbering.NextNumberTx(ctx, tx, DocTypeCustomer, time.Now().Year())
	if err != nil {
		return nil, err
	}

	var c Customer
	err = tx.QueryRow(ctx, `
		INSERT INTO customers (code, name, vat_number, email, phone, address, sdi_code, pec, iban)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, code, name, vat_number, email, phone, address, sdi_code, pec, iban, created_at
	`, code, input.Name, input.VATNumber, input.Email, input.Phone, input.Address,
		input.SDICode, input.PEC, input.IBAN).Scan(
		&c.ID, &c.Code, &c.Name, &c.VATNumber, &c.Email, &c.Phone, &c.Address,
		&c.SDICode, &c.PEC, &c.IBAN, &c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit customer creation: %w", err)
	}
	return &c, nil
}

func (s *partyService) GetCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, code, name, vat_number, email, phone, address, sdi_code, pec, iban, created_at
		FROM customers
		WHERE is_active = true
		ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.VATNumber, &c.Email, &c.Phone, &c.Address,
			&c.SDICode, &c.PEC, &c.IBAN, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *partyService) CreateSupplier(ctx context.Context, input SupplierInput) (*Supplier, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("supplier name is required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	code, err := s.numbering.NextNumberTx(ctx, tx, DocTypeSupplier, time.Now().Year())
	if err != nil {
		return nil, err
	}

	var sup Supplier
	err = tx.QueryRow(ctx, `
		INSERT INTO suppliers (code, name, email, phone, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, code, name, email, phone, address, created_at
	`, code, input.Name, input.Email, input.Phone, input.Address).Scan(
		&sup.ID, &sup.Code, &sup.Name, &sup.Email, &sup.Phone, &sup.Address, &sup.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit supplier creation: %w", err)
	}
	return &sup, nil
}

func (s *partyService) GetSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, code, name, email, phone, address, created_at
		FROM suppliers
		WHERE is_active = true
		ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		var sup Supplier
		if err := rows.Scan(&sup.ID, &sup.Code, &sup.Name, &sup.Email, &sup.Phone, &sup.Address, &sup.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		suppliers = append(suppliers, sup)
	}
	return suppliers, rows.Err()
}

func (s *partyService) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	if input.Code == "" || input.Name == "" || input.Unit == "" {
		return nil, fmt.Errorf("product code, name, and unit are required")
	}
	if input.DefaultPrice.IsNegative() || input.VATRate.IsNegative() {
		return nil, fmt.Errorf("product price and VAT rate cannot be negative")
	}

	if input.DefaultSupplierID != nil {
		var exists int
		err := s.pool.QueryRow(ctx,
			"SELECT id FROM suppliers WHERE id = $1 AND is_active = true",
			*input.DefaultSupplierID,
		).Scan(&exists)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("supplier %d: %w", *input.DefaultSupplierID, ErrNotFound)
			}
			return nil, fmt.Errorf("failed to resolve supplier %d: %w", *input.DefaultSupplierID, err)
		}
	}

	var p Product
	err := s.pool.QueryRow(ctx, `
		INSERT INTO products (code, name, unit, default_price, vat_rate, default_supplier_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, code, name, unit, default_price, vat_rate, default_supplier_id, is_active, created_at
	`, input.Code, input.Name, input.Unit, input.DefaultPrice, input.VATRate, input.DefaultSupplierID).Scan(
		&p.ID, &p.Code, &p.Name, &p.Unit, &p.DefaultPrice, &p.VATRate, &p.DefaultSupplierID, &p.IsActive, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &p, nil
}

func (s *partyService) GetProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, code, name, unit, default_price, vat_rate, default_supplier_id, is_active, created_at
		FROM products
		WHERE is_active = true
		ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Unit, &p.DefaultPrice, &p.VATRate,
			&p.DefaultSupplierID, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *partyService) SetSupplierPrice(ctx context.Context, supplierID, productID int, costPrice decimal.Decimal) (*SupplierPrice, error) {
	if costPrice.IsNegative() {
		return nil, fmt.Errorf("cost price cannot be negative, got %s", costPrice)
	}

	var sp SupplierPrice
	err := s.pool.QueryRow(ctx, `
		INSERT INTO supplier_products (supplier_id, product_id, cost_price)
		VALUES ($1, $2, $3)
		ON CONFLICT (supplier_id, product_id)
		DO UPDATE SET cost_price = EXCLUDED.cost_price
		RETURNING supplier_id, product_id, cost_price
	`, supplierID, productID, costPrice).Scan(&sp.SupplierID, &sp.ProductID, &sp.CostPrice)
	if err != nil {
		return nil, fmt.Errorf("failed to set supplier price (supplier %d, product %d): %w", supplierID, productID, err)
	}
	return &sp, nil
}

func (s *partyService) GetSupplierPrices(ctx context.Context, supplierID int) ([]SupplierPrice, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT supplier_id, product_id, cost_price
		FROM supplier_products
		WHERE supplier_id = $1
		ORDER BY product_id
	`, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to query supplier prices: %w", err)
	}
	defer rows.Close()

	var prices []SupplierPrice
	for rows.Next() {
		var sp SupplierPrice
		if err := rows.Scan(&sp.SupplierID, &sp.ProductID, &sp.CostPrice); err != nil {
			return nil, fmt.Errorf("failed to scan supplier price: %w", err)
		}
		prices = append(prices, sp)
	}
	return prices, rows.Err()
}
