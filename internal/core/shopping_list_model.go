package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListStatus is the lifecycle state of a daily shopping list. Strictly
// sequential: DRAFT → FINALIZED → ORDERED → RECEIVED.
type ListStatus string

const (
	ListDraft     ListStatus = "DRAFT"
	ListFinalized ListStatus = "FINALIZED"
	ListOrdered   ListStatus = "ORDERED"
	ListReceived  ListStatus = "RECEIVED"
)

var listTransitions = map[ListStatus]ListStatus{
	ListDraft:     ListFinalized,
	ListFinalized: ListOrdered,
	ListOrdered:   ListReceived,
}

// CanTransitionList reports whether from → to is the next sequential state.
func CanTransitionList(from, to ListStatus) bool {
	return listTransitions[from] == to
}

// ShoppingList is the netted purchase need for one delivery date. At most
// one list exists per date.
type ShoppingList struct {
	ID        int                `json:"id"`
	ListDate  string             `json:"list_date"` // YYYY-MM-DD
	Status    ListStatus         `json:"status"`
	Items     []ShoppingListItem `json:"items"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// ShoppingListItem is one aggregated line. ProductKey is the aggregation
// key (`p:<id>` or `f:<normalized name>`); regeneration matches on it to
// preserve manual supplier assignments and ordered flags.
type ShoppingListItem struct {
	ID           int             `json:"id"`
	ListID       int             `json:"list_id"`
	ProductKey   string          `json:"product_key"`
	Kind         ItemKind        `json:"kind"`
	ProductID    *int            `json:"product_id,omitempty"`
	Description  string          `json:"description"`
	Unit         string          `json:"unit"`
	RequestedQty decimal.Decimal `json:"requested_qty"`
	AvailableQty decimal.Decimal `json:"available_qty"`
	NetQty       decimal.Decimal `json:"net_qty"`
	SupplierID   *int            `json:"supplier_id,omitempty"`
	SupplierName *string         `json:"supplier_name,omitempty"` // joined from suppliers
	IsOrdered    bool            `json:"is_ordered"`
	Notes        string          `json:"notes"`
}

// ShoppingListItemUpdate patches a list line. Nil fields are unchanged;
// ClearSupplier removes the assignment.
type ShoppingListItemUpdate struct {
	SupplierID    *int
	ClearSupplier bool
	NetQty        *decimal.Decimal
	Notes         *string
}
