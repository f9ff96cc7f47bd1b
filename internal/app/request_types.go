package app

import "github.com/shopspring/decimal"

// CreateOrderRequest is the input for creating or replacing an order.
type CreateOrderRequest struct {
	CustomerID   int             `json:"customer_id"`
	Channel      string          `json:"channel"`
	DeliveryDate string          `json:"delivery_date"` // YYYY-MM-DD
	Notes        string          `json:"notes"`
	Items        []OrderLineInput `json:"items"`
}

// OrderLineInput is a single line within a CreateOrderRequest. A nil
// ProductID makes a free-text line.
type OrderLineInput struct {
	ProductID   *int            `json:"product_id,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"` // zero means "use product default"
	VATRate     decimal.Decimal `json:"vat_rate"`   // zero means "use product default"
}

// UpdateDeliveryNoteRequest patches transport header fields. Nil fields are
// left unchanged.
type UpdateDeliveryNoteRequest struct {
	TransportDate *string `json:"transport_date,omitempty"`
	Carrier       *string `json:"carrier,omitempty"`
	PackageCount  *int    `json:"package_count,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// CreateInvoiceRequest is the input for aggregating delivery notes.
type CreateInvoiceRequest struct {
	CustomerID int    `json:"customer_id"`
	DDTIDs     []int  `json:"ddt_ids"`
	IssueDate  string `json:"issue_date"` // YYYY-MM-DD
	DueDate    string `json:"due_date"`   // YYYY-MM-DD
	Notes      string `json:"notes"`
}

// CreatePaymentRequest is the input for recording a payment.
type CreatePaymentRequest struct {
	Direction       string          `json:"direction"` // INCOMING or OUTGOING
	Amount          decimal.Decimal `json:"amount"`
	Method          string          `json:"method"`
	PaymentDate     string          `json:"payment_date"` // YYYY-MM-DD, empty means today
	InvoiceID       *int            `json:"invoice_id,omitempty"`
	PurchaseOrderID *int            `json:"purchase_order_id,omitempty"`
	Notes           string          `json:"notes"`
}

// UpdateListItemRequest patches one shopping list line.
type UpdateListItemRequest struct {
	SupplierID    *int             `json:"supplier_id,omitempty"`
	ClearSupplier bool             `json:"clear_supplier,omitempty"`
	NetQty        *decimal.Decimal `json:"net_qty,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
}

// CreateMovementRequest is the input for a manual stock movement.
type CreateMovementRequest struct {
	ProductID    int             `json:"product_id"`
	Type         string          `json:"type"`
	Quantity     decimal.Decimal `json:"quantity"`
	MovementDate string          `json:"movement_date"` // YYYY-MM-DD, empty means today
	Notes        string          `json:"notes"`
}

// CreateCustomerRequest is the input for creating a customer.
type CreateCustomerRequest struct {
	Name      string `json:"name"`
	VATNumber string `json:"vat_number"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	SDICode   string `json:"sdi_code"`
	PEC       string `json:"pec"`
	IBAN      string `json:"iban"`
}

// CreateSupplierRequest is the input for creating a supplier.
type CreateSupplierRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// CreateProductRequest is the input for creating a catalog product.
type CreateProductRequest struct {
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	Unit              string          `json:"unit"`
	DefaultPrice      decimal.Decimal `json:"default_price"`
	VATRate           decimal.Decimal `json:"vat_rate"`
	DefaultSupplierID *int            `json:"default_supplier_id,omitempty"`
}
