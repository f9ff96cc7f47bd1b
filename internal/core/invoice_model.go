package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle state of a sales invoice.
//
//	DRAFT → ISSUED → SENT → PAID
//	CANCELLED from any non-PAID state with no payments recorded.
//
// OVERDUE is not a stored state: it is derived on read from due date,
// status, and paid amount.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "DRAFT"
	InvoiceIssued    InvoiceStatus = "ISSUED"
	InvoiceSent      InvoiceStatus = "SENT"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
)

var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceDraft:  {InvoiceIssued, InvoiceCancelled},
	InvoiceIssued: {InvoiceSent, InvoiceCancelled},
	InvoiceSent:   {InvoiceCancelled},
}

// CanTransitionInvoice reports whether from → to is allowed as a direct
// status update. PAID is never a direct target, only full payment sets it.
func CanTransitionInvoice(from, to InvoiceStatus) bool {
	for _, t := range invoiceTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Invoice aggregates one or more delivery notes of a single customer.
type Invoice struct {
	ID           int             `json:"id"`
	Number       string          `json:"number"`
	CustomerID   int             `json:"customer_id"`
	CustomerCode string          `json:"customer_code"` // joined from customers
	CustomerName string          `json:"customer_name"` // joined from customers
	Status       InvoiceStatus   `json:"status"`
	Overdue      bool            `json:"overdue"` // derived, never stored
	IssueDate    string          `json:"issue_date"` // YYYY-MM-DD
	DueDate      string          `json:"due_date"`   // YYYY-MM-DD
	Notes        string          `json:"notes"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	VATAmount    decimal.Decimal `json:"vat_amount"`
	Total        decimal.Decimal `json:"total"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	DDTIDs       []int           `json:"ddt_ids"`
	Items        []InvoiceItem   `json:"items"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// InvoiceItem is one invoice line, flattened 1:1 from a delivery note item.
// SourceDDTID keeps the trace back to the transport document; CostPrice and
// SupplierID come from the supplier price list at invoicing time and back a
// margin view, they never affect the invoice total.
type InvoiceItem struct {
	ID          int              `json:"id"`
	InvoiceID   int              `json:"invoice_id"`
	LineNumber  int              `json:"line_number"`
	Kind        ItemKind         `json:"kind"`
	ProductID   *int             `json:"product_id,omitempty"`
	SourceDDTID int              `json:"source_ddt_id"`
	Description string           `json:"description"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Unit        string           `json:"unit"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	VATRate     decimal.Decimal  `json:"vat_rate"`
	LineTotal   decimal.Decimal  `json:"line_total"`
	CostPrice   *decimal.Decimal `json:"cost_price,omitempty"`
	SupplierID  *int             `json:"supplier_id,omitempty"`
}

// InvoiceInput creates an invoice from issued delivery notes.
type InvoiceInput struct {
	CustomerID int
	DDTIDs     []int
	IssueDate  string // YYYY-MM-DD
	DueDate    string // YYYY-MM-DD
	Notes      string
}
