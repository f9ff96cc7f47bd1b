package app

import (
	"context"

	"frutta-gest/internal/core"
)

// ApplicationService is the single interface all adapters call. It decouples
// presentation from business logic. Implementations must contain no display
// logic of any kind.
type ApplicationService interface {
	// ── Orders ──

	// CreateOrder creates a new order in RECEIVED with a fresh ORD number.
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error)

	// UpdateOrder replaces an order's editable fields and items.
	UpdateOrder(ctx context.Context, orderID int, req CreateOrderRequest) (*OrderResult, error)

	// UpdateOrderStatus applies a direct order transition.
	UpdateOrderStatus(ctx context.Context, orderID int, status string) (*OrderResult, error)

	// DeleteOrder removes a non-invoiced order, cascading draft delivery
	// notes and detaching issued ones.
	DeleteOrder(ctx context.Context, orderID int) error

	// GetOrder returns one order with its items.
	GetOrder(ctx context.Context, orderID int) (*OrderResult, error)

	// ListOrders returns orders, optionally filtered by status and delivery date.
	ListOrders(ctx context.Context, status, deliveryDate string) (*OrderListResult, error)

	// ── Delivery notes ──

	// CreateDeliveryNote derives a DRAFT delivery note from an order.
	CreateDeliveryNote(ctx context.Context, orderID int) (*DeliveryNoteResult, error)

	// UpdateDeliveryNote patches transport header fields until the note is
	// delivered or invoiced.
	UpdateDeliveryNote(ctx context.Context, ddtID int, req UpdateDeliveryNoteRequest) (*DeliveryNoteResult, error)

	// UpdateDeliveryNoteStatus issues or delivers a note, with its stock and
	// order side effects.
	UpdateDeliveryNoteStatus(ctx context.Context, ddtID int, status string) (*DeliveryNoteResult, error)

	// DeleteDeliveryNote removes a draft or still-unlinked issued note,
	// reversing any stock movements the issue wrote.
	DeleteDeliveryNote(ctx context.Context, ddtID int) error

	// GetDeliveryNote returns one delivery note with its items.
	GetDeliveryNote(ctx context.Context, ddtID int) (*DeliveryNoteResult, error)

	// ListDeliveryNotes returns delivery notes, optionally filtered by status.
	ListDeliveryNotes(ctx context.Context, status string) (*DeliveryNoteListResult, error)

	// ── Invoices & payments ──

	// CreateInvoice aggregates issued delivery notes into a DRAFT invoice.
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResult, error)

	// UpdateInvoiceStatus applies a direct invoice transition.
	UpdateInvoiceStatus(ctx context.Context, invoiceID int, status string) (*InvoiceResult, error)

	// DeleteInvoice removes an unpaid invoice and releases its delivery notes.
	DeleteInvoice(ctx context.Context, invoiceID int) error

	// GetInvoice returns one invoice with items and linked note IDs.
	GetInvoice(ctx context.Context, invoiceID int) (*InvoiceResult, error)

	// ListInvoices returns invoices, optionally filtered by status.
	ListInvoices(ctx context.Context, status string) (*InvoiceListResult, error)

	// CreatePayment records an incoming or outgoing payment.
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*PaymentResult, error)

	// ListPayments returns payments, optionally filtered by linked document.
	ListPayments(ctx context.Context, invoiceID, purchaseOrderID *int) (*PaymentListResult, error)

	// ── Procurement ──

	// GenerateShoppingList nets the date's order demand against stock. A day
	// without eligible orders yields a result with NoOrders set, not an error.
	GenerateShoppingList(ctx context.Context, date string) (*ShoppingListGenerationResult, error)

	// UpdateShoppingListItem patches supplier assignment, quantity, or notes.
	UpdateShoppingListItem(ctx context.Context, itemID int, req UpdateListItemRequest) (*ShoppingListItemResult, error)

	// UpdateShoppingListStatus applies the next sequential list transition.
	UpdateShoppingListStatus(ctx context.Context, listID int, status string) (*ShoppingListResult, error)

	// DeleteShoppingList removes a DRAFT or FINALIZED list.
	DeleteShoppingList(ctx context.Context, listID int) error

	// GetShoppingList returns one list with its items.
	GetShoppingList(ctx context.Context, listID int) (*ShoppingListResult, error)

	// GetShoppingListByDate returns the list for a delivery date.
	GetShoppingListByDate(ctx context.Context, date string) (*ShoppingListResult, error)

	// ListShoppingLists returns all lists, newest date first.
	ListShoppingLists(ctx context.Context) (*ShoppingListListResult, error)

	// ExplodeShoppingList creates one purchase order per assigned supplier.
	ExplodeShoppingList(ctx context.Context, listID int) (*ExplodeResult, error)

	// UpdatePurchaseOrderStatus sends or cancels a purchase order.
	UpdatePurchaseOrderStatus(ctx context.Context, poID int, status string) (*PurchaseOrderResult, error)

	// ReceivePurchaseOrder records goods receipt and loads stock.
	ReceivePurchaseOrder(ctx context.Context, poID int) (*PurchaseOrderResult, error)

	// GetPurchaseOrder returns one purchase order with its items.
	GetPurchaseOrder(ctx context.Context, poID int) (*PurchaseOrderResult, error)

	// ListPurchaseOrders returns purchase orders, optionally filtered by status.
	ListPurchaseOrders(ctx context.Context, status string) (*PurchaseOrderListResult, error)

	// ── Stock ──

	// CreateStockMovement records a manual ledger entry.
	CreateStockMovement(ctx context.Context, req CreateMovementRequest) (*StockMovementResult, error)

	// GetStockSummary returns the current per-product stock position.
	GetStockSummary(ctx context.Context) (*StockSummaryResult, error)

	// ListStockMovements returns the ledger for one product, newest first.
	ListStockMovements(ctx context.Context, productID int) (*StockMovementListResult, error)

	// ── Master data ──

	// CreateCustomer creates a customer with a numbering-issued CLI code.
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*core.Customer, error)

	// ListCustomers returns all active customers.
	ListCustomers(ctx context.Context) (*CustomerListResult, error)

	// CreateSupplier creates a supplier with a numbering-issued FOR code.
	CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*core.Supplier, error)

	// ListSuppliers returns all active suppliers.
	ListSuppliers(ctx context.Context) (*SupplierListResult, error)

	// CreateProduct creates a catalog product.
	CreateProduct(ctx context.Context, req CreateProductRequest) (*core.Product, error)

	// ListProducts returns all active products.
	ListProducts(ctx context.Context) (*ProductListResult, error)

	// SetSupplierPrice upserts one supplier price list row.
	SetSupplierPrice(ctx context.Context, supplierID, productID int, costPrice string) (*core.SupplierPrice, error)

	// ListSupplierPrices returns a supplier's price list.
	ListSupplierPrices(ctx context.Context, supplierID int) (*SupplierPriceListResult, error)
}
