package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"frutta-gest/internal/app"

	"github.com/go-chi/chi/v5"
)

// Handler holds the ApplicationService the routes dispatch to.
type Handler struct {
	svc app.ApplicationService
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins string) http.Handler {
	h := &Handler{svc: svc}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	r.Get("/api/health", h.health)

	// ── Orders ────────────────────────────────────────────────────────────
	r.Get("/api/orders", h.listOrders)
	r.Post("/api/orders", h.createOrder)
	r.Get("/api/orders/{id}", h.getOrder)
	r.Put("/api/orders/{id}", h.updateOrder)
	r.Delete("/api/orders/{id}", h.deleteOrder)
	r.Post("/api/orders/{id}/status", h.updateOrderStatus)
	r.Post("/api/orders/{id}/delivery-notes", h.createDeliveryNote)

	// ── Delivery notes ────────────────────────────────────────────────────
	r.Get("/api/delivery-notes", h.listDeliveryNotes)
	r.Get("/api/delivery-notes/{id}", h.getDeliveryNote)
	r.Patch("/api/delivery-notes/{id}", h.updateDeliveryNote)
	r.Delete("/api/delivery-notes/{id}", h.deleteDeliveryNote)
	r.Post("/api/delivery-notes/{id}/status", h.updateDeliveryNoteStatus)

	// ── Invoices & payments ───────────────────────────────────────────────
	r.Get("/api/invoices", h.listInvoices)
	r.Post("/api/invoices", h.createInvoice)
	r.Get("/api/invoices/{id}", h.getInvoice)
	r.Delete("/api/invoices/{id}", h.deleteInvoice)
	r.Post("/api/invoices/{id}/status", h.updateInvoiceStatus)
	r.Get("/api/payments", h.listPayments)
	r.Post("/api/payments", h.createPayment)

	// ── Procurement ───────────────────────────────────────────────────────
	r.Get("/api/shopping-lists", h.listShoppingLists)
	r.Post("/api/shopping-lists/generate", h.generateShoppingList)
	r.Get("/api/shopping-lists/by-date/{date}", h.getShoppingListByDate)
	r.Get("/api/shopping-lists/{id}", h.getShoppingList)
	r.Delete("/api/shopping-lists/{id}", h.deleteShoppingList)
	r.Post("/api/shopping-lists/{id}/status", h.updateShoppingListStatus)
	r.Post("/api/shopping-lists/{id}/explode", h.explodeShoppingList)
	r.Patch("/api/shopping-list-items/{id}", h.updateShoppingListItem)

	r.Get("/api/purchase-orders", h.listPurchaseOrders)
	r.Get("/api/purchase-orders/{id}", h.getPurchaseOrder)
	r.Post("/api/purchase-orders/{id}/status", h.updatePurchaseOrderStatus)
	r.Post("/api/purchase-orders/{id}/receive", h.receivePurchaseOrder)

	// ── Stock ─────────────────────────────────────────────────────────────
	r.Get("/api/stock", h.stockSummary)
	r.Post("/api/stock/movements", h.createStockMovement)
	r.Get("/api/products/{id}/movements", h.listStockMovements)

	// ── Master data ───────────────────────────────────────────────────────
	r.Get("/api/customers", h.listCustomers)
	r.Post("/api/customers", h.createCustomer)
	r.Get("/api/suppliers", h.listSuppliers)
	r.Post("/api/suppliers", h.createSupplier)
	r.Get("/api/suppliers/{id}/prices", h.listSupplierPrices)
	r.Put("/api/suppliers/{id}/prices/{productID}", h.setSupplierPrice)
	r.Get("/api/products", h.listProducts)
	r.Post("/api/products", h.createProduct)

	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// urlID extracts a numeric URL parameter and writes HTTP 400 on failure.
func urlID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid "+name+" parameter", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// decodeJSON decodes the request body into v and returns false + writes an
// error response on failure. HTTP 413 when the body exceeds the limit set by
// RequestBodyLimit; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
