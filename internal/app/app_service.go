package app

import (
	"context"
	"errors"
	"fmt"

	"frutta-gest/internal/core"

	"github.com/shopspring/decimal"
)

type appService struct {
	orders        core.OrderService
	deliveryNotes core.DeliveryNoteService
	invoices      core.InvoiceService
	shoppingLists core.ShoppingListService
	purchaseOrders core.PurchaseOrderService
	stock         core.StockService
	parties       core.PartyService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	orders core.OrderService,
	deliveryNotes core.DeliveryNoteService,
	invoices core.InvoiceService,
	shoppingLists core.ShoppingListService,
	purchaseOrders core.PurchaseOrderService,
	stock core.StockService,
	parties core.PartyService,
) ApplicationService {
	return &appService{
		orders:         orders,
		deliveryNotes:  deliveryNotes,
		invoices:       invoices,
		shoppingLists:  shoppingLists,
		purchaseOrders: purchaseOrders,
		stock:          stock,
		parties:        parties,
	}
}

func toOrderInput(req CreateOrderRequest) core.OrderInput {
	items := make([]core.OrderItemInput, len(req.Items))
	for i, l := range req.Items {
		items[i] = core.OrderItemInput{
			ProductID:   l.ProductID,
			Description: l.Description,
			Quantity:    l.Quantity,
			Unit:        l.Unit,
			UnitPrice:   l.UnitPrice,
			VATRate:     l.VATRate,
		}
	}
	return core.OrderInput{
		CustomerID:   req.CustomerID,
		Channel:      core.OrderChannel(req.Channel),
		DeliveryDate: req.DeliveryDate,
		Notes:        req.Notes,
		Items:        items,
	}
}

// ── Orders ───────────────────────────────────────────────────────────────────

func (s *appService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	order, err := s.orders.CreateOrder(ctx, toOrderInput(req))
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) UpdateOrder(ctx context.Context, orderID int, req CreateOrderRequest) (*OrderResult, error) {
	order, err := s.orders.UpdateOrder(ctx, orderID, toOrderInput(req))
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) UpdateOrderStatus(ctx context.Context, orderID int, status string) (*OrderResult, error) {
	order, err := s.orders.UpdateOrderStatus(ctx, orderID, core.OrderStatus(status))
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) DeleteOrder(ctx context.Context, orderID int) error {
	return s.orders.DeleteOrder(ctx, orderID)
}

func (s *appService) GetOrder(ctx context.Context, orderID int) (*OrderResult, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) ListOrders(ctx context.Context, status, deliveryDate string) (*OrderListResult, error) {
	var statusFilter *core.OrderStatus
	if status != "" {
		st := core.OrderStatus(status)
		statusFilter = &st
	}
	var dateFilter *string
	if deliveryDate != "" {
		dateFilter = &deliveryDate
	}
	orders, err := s.orders.GetOrders(ctx, statusFilter, dateFilter)
	if err != nil {
		return nil, err
	}
	return &OrderListResult{Orders: orders}, nil
}

// ── Delivery notes ───────────────────────────────────────────────────────────

func (s *appService) CreateDeliveryNote(ctx context.Context, orderID int) (*DeliveryNoteResult, error) {
	dn, err := s.deliveryNotes.CreateDeliveryNote(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &DeliveryNoteResult{DeliveryNote: dn}, nil
}

func (s *appService) UpdateDeliveryNote(ctx context.Context, ddtID int, req UpdateDeliveryNoteRequest) (*DeliveryNoteResult, error) {
	dn, err := s.deliveryNotes.UpdateDeliveryNote(ctx, ddtID, core.DeliveryNoteUpdate{
		TransportDate: req.TransportDate,
		Carrier:       req.Carrier,
		PackageCount:  req.PackageCount,
		Notes:         req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &DeliveryNoteResult{DeliveryNote: dn}, nil
}

func (s *appService) UpdateDeliveryNoteStatus(ctx context.Context, ddtID int, status string) (*DeliveryNoteResult, error) {
	dn, err := s.deliveryNotes.UpdateDeliveryNoteStatus(ctx, ddtID, core.DDTStatus(status))
	if err != nil {
		return nil, err
	}
	return &DeliveryNoteResult{DeliveryNote: dn}, nil
}

func (s *appService) DeleteDeliveryNote(ctx context.Context, ddtID int) error {
	return s.deliveryNotes.DeleteDeliveryNote(ctx, ddtID)
}

func (s *appService) GetDeliveryNote(ctx context.Context, ddtID int) (*DeliveryNoteResult, error) {
	dn, err := s.deliveryNotes.GetDeliveryNote(ctx, ddtID)
	if err != nil {
		return nil, err
	}
	return &DeliveryNoteResult{DeliveryNote: dn}, nil
}

func (s *appService) ListDeliveryNotes(ctx context.Context, status string) (*DeliveryNoteListResult, error) {
	var statusFilter *core.DDTStatus
	if status != "" {
		st := core.DDTStatus(status)
		statusFilter = &st
	}
	notes, err := s.deliveryNotes.GetDeliveryNotes(ctx, statusFilter)
	if err != nil {
		return nil, err
	}
	return &DeliveryNoteListResult{DeliveryNotes: notes}, nil
}

// ── Invoices & payments ──────────────────────────────────────────────────────

func (s *appService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResult, error) {
	inv, err := s.invoices.CreateInvoice(ctx, core.InvoiceInput{
		CustomerID: req.CustomerID,
		DDTIDs:     req.DDTIDs,
		IssueDate:  req.IssueDate,
		DueDate:    req.DueDate,
		Notes:      req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: inv}, nil
}

func (s *appService) UpdateInvoiceStatus(ctx context.Context, invoiceID int, status string) (*InvoiceResult, error) {
	inv, err := s.invoices.UpdateInvoiceStatus(ctx, invoiceID, core.InvoiceStatus(status))
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: inv}, nil
}

func (s *appService) DeleteInvoice(ctx context.Context, invoiceID int) error {
	return s.invoices.DeleteInvoice(ctx, invoiceID)
}

func (s *appService) GetInvoice(ctx context.Context, invoiceID int) (*InvoiceResult, error) {
	inv, err := s.invoices.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: inv}, nil
}

func (s *appService) ListInvoices(ctx context.Context, status string) (*InvoiceListResult, error) {
	var statusFilter *core.InvoiceStatus
	if status != "" {
		st := core.InvoiceStatus(status)
		statusFilter = &st
	}
	invoices, err := s.invoices.GetInvoices(ctx, statusFilter)
	if err != nil {
		return nil, err
	}
	return &InvoiceListResult{Invoices: invoices}, nil
}

func (s *appService) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*PaymentResult, error) {
	payment, err := s.invoices.CreatePayment(ctx, core.PaymentInput{
		Direction:       core.PaymentDirection(req.Direction),
		Amount:          req.Amount,
		Method:          req.Method,
		PaymentDate:     req.PaymentDate,
		InvoiceID:       req.InvoiceID,
		PurchaseOrderID: req.PurchaseOrderID,
		Notes:           req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &PaymentResult{Payment: payment}, nil
}

func (s *appService) ListPayments(ctx context.Context, invoiceID, purchaseOrderID *int) (*PaymentListResult, error) {
	payments, err := s.invoices.GetPayments(ctx, invoiceID, purchaseOrderID)
	if err != nil {
		return nil, err
	}
	return &PaymentListResult{Payments: payments}, nil
}

// ── Procurement ──────────────────────────────────────────────────────────────

func (s *appService) GenerateShoppingList(ctx context.Context, date string) (*ShoppingListGenerationResult, error) {
	list, err := s.shoppingLists.GenerateFromOrders(ctx, date)
	if err != nil {
		// A day without orders is an answer, not a failure.
		if errors.Is(err, core.ErrNoOrdersForDate) {
			return &ShoppingListGenerationResult{NoOrders: true, Date: date}, nil
		}
		return nil, err
	}
	return &ShoppingListGenerationResult{Date: date, List: list}, nil
}

func (s *appService) UpdateShoppingListItem(ctx context.Context, itemID int, req UpdateListItemRequest) (*ShoppingListItemResult, error) {
	item, err := s.shoppingLists.UpdateItem(ctx, itemID, core.ShoppingListItemUpdate{
		SupplierID:    req.SupplierID,
		ClearSupplier: req.ClearSupplier,
		NetQty:        req.NetQty,
		Notes:         req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &ShoppingListItemResult{Item: item}, nil
}

func (s *appService) UpdateShoppingListStatus(ctx context.Context, listID int, status string) (*ShoppingListResult, error) {
	list, err := s.shoppingLists.UpdateStatus(ctx, listID, core.ListStatus(status))
	if err != nil {
		return nil, err
	}
	return &ShoppingListResult{List: list}, nil
}

func (s *appService) DeleteShoppingList(ctx context.Context, listID int) error {
	return s.shoppingLists.Delete(ctx, listID)
}

func (s *appService) GetShoppingList(ctx context.Context, listID int) (*ShoppingListResult, error) {
	list, err := s.shoppingLists.GetList(ctx, listID)
	if err != nil {
		return nil, err
	}
	return &ShoppingListResult{List: list}, nil
}

func (s *appService) GetShoppingListByDate(ctx context.Context, date string) (*ShoppingListResult, error) {
	list, err := s.shoppingLists.GetListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	return &ShoppingListResult{List: list}, nil
}

func (s *appService) ListShoppingLists(ctx context.Context) (*ShoppingListListResult, error) {
	lists, err := s.shoppingLists.GetLists(ctx)
	if err != nil {
		return nil, err
	}
	return &ShoppingListListResult{Lists: lists}, nil
}

func (s *appService) ExplodeShoppingList(ctx context.Context, listID int) (*ExplodeResult, error) {
	result, err := s.purchaseOrders.CreateFromShoppingList(ctx, listID)
	if err != nil {
		return nil, err
	}
	return &ExplodeResult{Result: result}, nil
}

func (s *appService) UpdatePurchaseOrderStatus(ctx context.Context, poID int, status string) (*PurchaseOrderResult, error) {
	po, err := s.purchaseOrders.UpdateStatus(ctx, poID, core.POStatus(status))
	if err != nil {
		return nil, err
	}
	return &PurchaseOrderResult{PurchaseOrder: po}, nil
}

func (s *appService) ReceivePurchaseOrder(ctx context.Context, poID int) (*PurchaseOrderResult, error) {
	po, err := s.purchaseOrders.ReceivePO(ctx, poID)
	if err != nil {
		return nil, err
	}
	return &PurchaseOrderResult{PurchaseOrder: po}, nil
}

func (s *appService) GetPurchaseOrder(ctx context.Context, poID int) (*PurchaseOrderResult, error) {
	po, err := s.purchaseOrders.GetPurchaseOrder(ctx, poID)
	if err != nil {
		return nil, err
	}
	return &PurchaseOrderResult{PurchaseOrder: po}, nil
}

func (s *appService) ListPurchaseOrders(ctx context.Context, status string) (*PurchaseOrderListResult, error) {
	var statusFilter *core.POStatus
	if status != "" {
		st := core.POStatus(status)
		statusFilter = &st
	}
	orders, err := s.purchaseOrders.GetPurchaseOrders(ctx, statusFilter)
	if err != nil {
		return nil, err
	}
	return &PurchaseOrderListResult{PurchaseOrders: orders}, nil
}

// ── Stock ────────────────────────────────────────────────────────────────────

func (s *appService) CreateStockMovement(ctx context.Context, req CreateMovementRequest) (*StockMovementResult, error) {
	movement, err := s.stock.CreateMovement(ctx, core.StockMovementInput{
		ProductID:    req.ProductID,
		Type:         core.MovementType(req.Type),
		Quantity:     req.Quantity,
		MovementDate: req.MovementDate,
		Notes:        req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &StockMovementResult{Movement: movement}, nil
}

func (s *appService) GetStockSummary(ctx context.Context) (*StockSummaryResult, error) {
	items, err := s.stock.GetStockSummary(ctx)
	if err != nil {
		return nil, err
	}
	return &StockSummaryResult{Items: items}, nil
}

func (s *appService) ListStockMovements(ctx context.Context, productID int) (*StockMovementListResult, error) {
	movements, err := s.stock.GetMovements(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &StockMovementListResult{Movements: movements}, nil
}

// ── Master data ──────────────────────────────────────────────────────────────

func (s *appService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*core.Customer, error) {
	return s.parties.CreateCustomer(ctx, core.CustomerInput{
		Name:      req.Name,
		VATNumber: req.VATNumber,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		SDICode:   req.SDICode,
		PEC:       req.PEC,
		IBAN:      req.IBAN,
	})
}

func (s *appService) ListCustomers(ctx context.Context) (*CustomerListResult, error) {
	customers, err := s.parties.GetCustomers(ctx)
	if err != nil {
		return nil, err
	}
	return &CustomerListResult{Customers: customers}, nil
}

func (s *appService) CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*core.Supplier, error) {
	return s.parties.CreateSupplier(ctx, core.SupplierInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
}

func (s *appService) ListSuppliers(ctx context.Context) (*SupplierListResult, error) {
	suppliers, err := s.parties.GetSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	return &SupplierListResult{Suppliers: suppliers}, nil
}

func (s *appService) CreateProduct(ctx context.Context, req CreateProductRequest) (*core.Product, error) {
	return s.parties.CreateProduct(ctx, core.ProductInput{
		Code:              req.Code,
		Name:              req.Name,
		Unit:              req.Unit,
		DefaultPrice:      req.DefaultPrice,
		VATRate:           req.VATRate,
		DefaultSupplierID: req.DefaultSupplierID,
	})
}

func (s *appService) ListProducts(ctx context.Context) (*ProductListResult, error) {
	products, err := s.parties.GetProducts(ctx)
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: products}, nil
}

func (s *appService) SetSupplierPrice(ctx context.Context, supplierID, productID int, costPrice string) (*core.SupplierPrice, error) {
	price, err := decimal.NewFromString(costPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid cost price %q: %w", costPrice, err)
	}
	return s.parties.SetSupplierPrice(ctx, supplierID, productID, price)
}

func (s *appService) ListSupplierPrices(ctx context.Context, supplierID int) (*SupplierPriceListResult, error) {
	prices, err := s.parties.GetSupplierPrices(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	return &SupplierPriceListResult{Prices: prices}, nil
}
