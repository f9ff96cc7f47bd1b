package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType classifies a stock ledger entry. The sign of the stored
// quantity is derived from the type at insert time.
type MovementType string

const (
	MovementCarico       MovementType = "CARICO"        // goods in (+)
	MovementScarico      MovementType = "SCARICO"       // goods out (−)
	MovementScarto       MovementType = "SCARTO"        // spoilage/waste (−)
	MovementRettificaPos MovementType = "RETTIFICA_POS" // positive adjustment (+)
	MovementRettificaNeg MovementType = "RETTIFICA_NEG" // negative adjustment (−)
)

// Sign returns +1 or −1 for the movement type, or 0 for an unknown type.
func (t MovementType) Sign() int {
	switch t {
	case MovementCarico, MovementRettificaPos:
		return 1
	case MovementScarico, MovementScarto, MovementRettificaNeg:
		return -1
	}
	return 0
}

// Movement reference kinds, linking a ledger entry to the document that
// caused it.
const (
	StockRefDeliveryNote  = "DDT"
	StockRefPurchaseOrder = "PURCHASE_ORDER"
)

// StockMovement is one append-only ledger row. Quantity is stored signed;
// current stock for a product is the signed sum of all its movements —
// never a mutable counter, so the ledger cannot drift.
type StockMovement struct {
	ID            int             `json:"id"`
	ProductID     int             `json:"product_id"`
	Type          MovementType    `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"` // signed
	Unit          string          `json:"unit"`
	ReferenceType *string         `json:"reference_type,omitempty"`
	ReferenceID   *int            `json:"reference_id,omitempty"`
	MovementDate  string          `json:"movement_date"` // YYYY-MM-DD
	Notes         string          `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
}

// StockMovementInput is the input for a manual ledger entry. Quantity is
// always entered positive; the service applies the type's sign.
type StockMovementInput struct {
	ProductID    int
	Type         MovementType
	Quantity     decimal.Decimal
	MovementDate string // YYYY-MM-DD, empty means today
	Notes        string
}

// StockItem is one row of the per-product stock summary.
type StockItem struct {
	ProductID   int             `json:"product_id"`
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	Unit        string          `json:"unit"`
	Available   decimal.Decimal `json:"available"`
}
