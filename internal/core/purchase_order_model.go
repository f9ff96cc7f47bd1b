package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// POStatus is the lifecycle state of a supplier purchase order.
//
//	CREATED → SENT → RECEIVED
//	CANCELLED from CREATED or SENT.
type POStatus string

const (
	POCreated   POStatus = "CREATED"
	POSent      POStatus = "SENT"
	POReceived  POStatus = "RECEIVED"
	POCancelled POStatus = "CANCELLED"
)

var poTransitions = map[POStatus][]POStatus{
	POCreated: {POSent, POCancelled},
	POSent:    {POReceived, POCancelled},
}

// CanTransitionPO reports whether from → to is in the transition table.
func CanTransitionPO(from, to POStatus) bool {
	for _, t := range poTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// PurchaseOrder is one supplier's slice of an exploded shopping list.
type PurchaseOrder struct {
	ID             int                 `json:"id"`
	Number         string              `json:"number"`
	SupplierID     int                 `json:"supplier_id"`
	SupplierCode   string              `json:"supplier_code"` // joined from suppliers
	SupplierName   string              `json:"supplier_name"` // joined from suppliers
	ShoppingListID *int                `json:"shopping_list_id,omitempty"`
	Status         POStatus            `json:"status"`
	OrderDate      string              `json:"order_date"` // YYYY-MM-DD
	Notes          string              `json:"notes"`
	Total          decimal.Decimal     `json:"total"` // sum of priced lines only
	Items          []PurchaseOrderItem `json:"items"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// PurchaseOrderItem is one purchase line. UnitPrice is the supplier's
// catalog price at explosion time, nil when the supplier has no price for
// the product.
type PurchaseOrderItem struct {
	ID              int              `json:"id"`
	PurchaseOrderID int              `json:"purchase_order_id"`
	LineNumber      int              `json:"line_number"`
	Kind            ItemKind         `json:"kind"`
	ProductID       *int             `json:"product_id,omitempty"`
	Description     string           `json:"description"`
	Quantity        decimal.Decimal  `json:"quantity"`
	Unit            string           `json:"unit"`
	UnitPrice       *decimal.Decimal `json:"unit_price,omitempty"`
	LineTotal       *decimal.Decimal `json:"line_total,omitempty"`
}

// ExplodeResult summarizes one shopping list explosion.
type ExplodeResult struct {
	CreatedCount int      `json:"created_count"`
	PONumbers    []string `json:"po_numbers"`
	SkippedCount int      `json:"skipped_count"`
}
