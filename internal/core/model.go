package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocType identifies a numbered document family. Each (DocType, year) pair
// owns an independent gapless sequence.
type DocType string

const (
	DocTypeOrder         DocType = "ORDER"
	DocTypeDeliveryNote  DocType = "DDT"
	DocTypeInvoice       DocType = "INVOICE"
	DocTypePurchaseOrder DocType = "PURCHASE_ORDER"
	DocTypeCustomer      DocType = "CUSTOMER"
	DocTypeSupplier      DocType = "SUPPLIER"
)

// docTypePrefixes maps a document family to the prefix used in formatted
// numbers, e.g. FAT-2026-00042.
var docTypePrefixes = map[DocType]string{
	DocTypeOrder:         "ORD",
	DocTypeDeliveryNote:  "DDT",
	DocTypeInvoice:       "FAT",
	DocTypePurchaseOrder: "ORF",
	DocTypeCustomer:      "CLI",
	DocTypeSupplier:      "FOR",
}

// ItemKind discriminates catalog lines (backed by a product record) from
// free-text lines (description only). Downstream code switches on it
// explicitly — netting, stock, and invoice back-references all treat the
// two variants differently.
type ItemKind string

const (
	ItemKindCatalog  ItemKind = "CATALOG"
	ItemKindFreeText ItemKind = "FREE_TEXT"
)

// Customer is a buyer master record. SDI/PEC/IBAN are Italian e-invoicing
// and banking identifiers stored as opaque strings.
type Customer struct {
	ID        int       `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	VATNumber string    `json:"vat_number"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	SDICode   string    `json:"sdi_code"`
	PEC       string    `json:"pec"`
	IBAN      string    `json:"iban"`
	CreatedAt time.Time `json:"created_at"`
}

// Supplier is a produce supplier master record.
type Supplier struct {
	ID        int       `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is a catalog item. DefaultSupplierID, when set, prefills the
// supplier assignment on generated shopping list lines.
type Product struct {
	ID                int             `json:"id"`
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	Unit              string          `json:"unit"`
	DefaultPrice      decimal.Decimal `json:"default_price"`
	VATRate           decimal.Decimal `json:"vat_rate"`
	DefaultSupplierID *int            `json:"default_supplier_id,omitempty"`
	IsActive          bool            `json:"is_active"`
	CreatedAt         time.Time       `json:"created_at"`
}

// SupplierPrice is one row of a supplier's price list for a product.
type SupplierPrice struct {
	SupplierID int             `json:"supplier_id"`
	ProductID  int             `json:"product_id"`
	CostPrice  decimal.Decimal `json:"cost_price"`
}

// PaymentDirection distinguishes customer receipts from supplier payments.
type PaymentDirection string

const (
	PaymentIncoming PaymentDirection = "INCOMING"
	PaymentOutgoing PaymentDirection = "OUTGOING"
)

// Payment is a recorded payment, optionally linked to an invoice (incoming)
// or a purchase order (outgoing). The sum of payments linked to a document
// never exceeds that document's total; enforced at creation time.
type Payment struct {
	ID              int              `json:"id"`
	Direction       PaymentDirection `json:"direction"`
	Amount          decimal.Decimal  `json:"amount"`
	Method          string           `json:"method"`
	PaymentDate     string           `json:"payment_date"` // YYYY-MM-DD
	InvoiceID       *int             `json:"invoice_id,omitempty"`
	PurchaseOrderID *int             `json:"purchase_order_id,omitempty"`
	Notes           string           `json:"notes"`
	CreatedAt       time.Time        `json:"created_at"`
}

// PaymentInput is the input for recording a payment.
type PaymentInput struct {
	Direction       PaymentDirection
	Amount          decimal.Decimal
	Method          string
	PaymentDate     string // YYYY-MM-DD, empty means today
	InvoiceID       *int
	PurchaseOrderID *int
	Notes           string
}
