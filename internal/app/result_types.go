package app

import "frutta-gest/internal/core"

// OrderResult is returned by order lifecycle operations.
type OrderResult struct {
	Order *core.Order `json:"order"`
}

// OrderListResult is returned by ListOrders.
type OrderListResult struct {
	Orders []core.Order `json:"orders"`
}

// DeliveryNoteResult is returned by delivery note operations.
type DeliveryNoteResult struct {
	DeliveryNote *core.DeliveryNote `json:"delivery_note"`
}

// DeliveryNoteListResult is returned by ListDeliveryNotes.
type DeliveryNoteListResult struct {
	DeliveryNotes []core.DeliveryNote `json:"delivery_notes"`
}

// InvoiceResult is returned by invoice operations.
type InvoiceResult struct {
	Invoice *core.Invoice `json:"invoice"`
}

// InvoiceListResult is returned by ListInvoices.
type InvoiceListResult struct {
	Invoices []core.Invoice `json:"invoices"`
}

// PaymentResult is returned by CreatePayment.
type PaymentResult struct {
	Payment *core.Payment `json:"payment"`
}

// PaymentListResult is returned by ListPayments.
type PaymentListResult struct {
	Payments []core.Payment `json:"payments"`
}

// ShoppingListGenerationResult is returned by GenerateShoppingList. A day
// with no eligible orders is a valid outcome: NoOrders is set and List is
// nil.
type ShoppingListGenerationResult struct {
	NoOrders bool               `json:"no_orders"`
	Date     string             `json:"date"`
	List     *core.ShoppingList `json:"list,omitempty"`
}

// ShoppingListResult is returned by shopping list operations.
type ShoppingListResult struct {
	List *core.ShoppingList `json:"list"`
}

// ShoppingListListResult is returned by ListShoppingLists.
type ShoppingListListResult struct {
	Lists []core.ShoppingList `json:"lists"`
}

// ShoppingListItemResult is returned by UpdateShoppingListItem.
type ShoppingListItemResult struct {
	Item *core.ShoppingListItem `json:"item"`
}

// ExplodeResult is returned by ExplodeShoppingList.
type ExplodeResult struct {
	Result *core.ExplodeResult `json:"result"`
}

// PurchaseOrderResult is returned by purchase order operations.
type PurchaseOrderResult struct {
	PurchaseOrder *core.PurchaseOrder `json:"purchase_order"`
}

// PurchaseOrderListResult is returned by ListPurchaseOrders.
type PurchaseOrderListResult struct {
	PurchaseOrders []core.PurchaseOrder `json:"purchase_orders"`
}

// StockMovementResult is returned by CreateStockMovement.
type StockMovementResult struct {
	Movement *core.StockMovement `json:"movement"`
}

// StockMovementListResult is returned by ListStockMovements.
type StockMovementListResult struct {
	Movements []core.StockMovement `json:"movements"`
}

// StockSummaryResult is returned by GetStockSummary.
type StockSummaryResult struct {
	Items []core.StockItem `json:"items"`
}

// CustomerListResult is returned by ListCustomers.
type CustomerListResult struct {
	Customers []core.Customer `json:"customers"`
}

// SupplierListResult is returned by ListSuppliers.
type SupplierListResult struct {
	Suppliers []core.Supplier `json:"suppliers"`
}

// ProductListResult is returned by ListProducts.
type ProductListResult struct {
	Products []core.Product `json:"products"`
}

// SupplierPriceListResult is returned by ListSupplierPrices.
type SupplierPriceListResult struct {
	Prices []core.SupplierPrice `json:"prices"`
}
