package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of a customer order.
//
//	RECEIVED → CONFIRMED → IN_PREPARATION → DELIVERED → INVOICED
//	CANCELLED reachable from RECEIVED or CONFIRMED only.
type OrderStatus string

const (
	OrderReceived      OrderStatus = "RECEIVED"
	OrderConfirmed     OrderStatus = "CONFIRMED"
	OrderInPreparation OrderStatus = "IN_PREPARATION"
	OrderDelivered     OrderStatus = "DELIVERED"
	OrderInvoiced      OrderStatus = "INVOICED"
	OrderCancelled     OrderStatus = "CANCELLED"
)

// orderTransitions is the full allowed-transition table. INVOICED and
// CANCELLED are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderReceived:      {OrderConfirmed, OrderCancelled},
	OrderConfirmed:     {OrderInPreparation, OrderCancelled},
	OrderInPreparation: {OrderDelivered},
	OrderDelivered:     {OrderInvoiced},
}

// sideEffectOnlyTargets are order states reached exclusively through
// document events — DELIVERED when a delivery note is marked delivered,
// INVOICED when the last of the order's delivery notes is invoiced. They
// are never valid targets for a direct status update request.
var sideEffectOnlyTargets = map[OrderStatus]bool{
	OrderDelivered: true,
	OrderInvoiced:  true,
}

// CanTransitionOrder reports whether from → to is in the transition table.
func CanTransitionOrder(from, to OrderStatus) bool {
	for _, t := range orderTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// orderEditable reports whether items, customer, and delivery date may
// still change.
func orderEditable(status OrderStatus) bool {
	return status != OrderInvoiced && status != OrderCancelled
}

// OrderChannel records how the order reached the back office.
type OrderChannel string

const (
	ChannelManual   OrderChannel = "manual"
	ChannelWhatsApp OrderChannel = "whatsapp"
	ChannelEmail    OrderChannel = "email"
	ChannelAudio    OrderChannel = "audio"
	ChannelWeb      OrderChannel = "web"
)

// ValidChannel reports whether c is a known order channel.
func ValidChannel(c OrderChannel) bool {
	switch c {
	case ChannelManual, ChannelWhatsApp, ChannelEmail, ChannelAudio, ChannelWeb:
		return true
	}
	return false
}

// Order is a customer order header. Subtotal/VATAmount/Total are cached
// columns recomputed from the items on every mutating write — never
// authoritative on their own.
type Order struct {
	ID           int             `json:"id"`
	Number       string          `json:"number"`
	CustomerID   int             `json:"customer_id"`
	CustomerCode string          `json:"customer_code"` // joined from customers
	CustomerName string          `json:"customer_name"` // joined from customers
	Channel      OrderChannel    `json:"channel"`
	Status       OrderStatus     `json:"status"`
	DeliveryDate string          `json:"delivery_date"` // YYYY-MM-DD
	Notes        string          `json:"notes"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	VATAmount    decimal.Decimal `json:"vat_amount"`
	Total        decimal.Decimal `json:"total"`
	Items        []OrderItem     `json:"items"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// OrderItem is one order line. Catalog lines carry ProductID and joined
// product fields; free-text lines carry only Description.
type OrderItem struct {
	ID          int             `json:"id"`
	OrderID     int             `json:"order_id"`
	LineNumber  int             `json:"line_number"`
	Kind        ItemKind        `json:"kind"`
	ProductID   *int            `json:"product_id,omitempty"`
	ProductCode *string         `json:"product_code,omitempty"` // joined from products
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	VATRate     decimal.Decimal `json:"vat_rate"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderInput creates or replaces an order's editable fields. Items fully
// replace the existing item set on update.
type OrderInput struct {
	CustomerID   int
	Channel      OrderChannel
	DeliveryDate string // YYYY-MM-DD
	Notes        string
	Items        []OrderItemInput
}

// OrderItemInput is a single line in an OrderInput. A nil ProductID makes a
// free-text line, which then requires Description and Unit. For catalog
// lines, zero UnitPrice/VATRate and empty Unit fall back to the product
// defaults.
type OrderItemInput struct {
	ProductID   *int
	Description string
	Quantity    decimal.Decimal
	Unit        string
	UnitPrice   decimal.Decimal
	VATRate     decimal.Decimal
}
