package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// DDTStatus is the lifecycle state of a delivery note (DDT, documento di
// trasporto). Strictly sequential: DRAFT → ISSUED → DELIVERED.
type DDTStatus string

const (
	DDTDraft     DDTStatus = "DRAFT"
	DDTIssued    DDTStatus = "ISSUED"
	DDTDelivered DDTStatus = "DELIVERED"
)

var ddtTransitions = map[DDTStatus]DDTStatus{
	DDTDraft:  DDTIssued,
	DDTIssued: DDTDelivered,
}

// CanTransitionDDT reports whether from → to is the next sequential state.
func CanTransitionDDT(from, to DDTStatus) bool {
	return ddtTransitions[from] == to
}

// DeliveryNote is a transport document derived from an order. Its items are
// a snapshot taken at creation; prices and VAT rates are copied, never
// re-derived from the catalog afterwards.
type DeliveryNote struct {
	ID            int             `json:"id"`
	Number        string          `json:"number"`
	OrderID       *int            `json:"order_id,omitempty"`
	OrderNumber   *string         `json:"order_number,omitempty"` // joined from orders
	CustomerID    int             `json:"customer_id"`
	CustomerCode  string          `json:"customer_code"` // joined from customers
	CustomerName  string          `json:"customer_name"` // joined from customers
	Status        DDTStatus       `json:"status"`
	TransportDate string          `json:"transport_date"` // YYYY-MM-DD
	Carrier       string          `json:"carrier"`
	PackageCount  int             `json:"package_count"`
	Notes         string          `json:"notes"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
	Total         decimal.Decimal `json:"total"`
	InvoiceID     *int            `json:"invoice_id,omitempty"` // set once linked to an invoice
	Items         []DeliveryNoteItem `json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// DeliveryNoteItem is one snapshotted line of a delivery note.
type DeliveryNoteItem struct {
	ID             int             `json:"id"`
	DeliveryNoteID int             `json:"delivery_note_id"`
	LineNumber     int             `json:"line_number"`
	Kind           ItemKind        `json:"kind"`
	ProductID      *int            `json:"product_id,omitempty"`
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           string          `json:"unit"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	VATRate        decimal.Decimal `json:"vat_rate"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

// DeliveryNoteUpdate patches the transport header of a DRAFT delivery note.
// Nil fields are left unchanged.
type DeliveryNoteUpdate struct {
	TransportDate *string
	Carrier       *string
	PackageCount  *int
	Notes         *string
}
