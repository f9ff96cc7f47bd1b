package web

import (
	"net/http"

	"frutta-gest/internal/app"
)

// listCustomers handles GET /api/customers.
func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListCustomers(r.Context())
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// createCustomer handles POST /api/customers.
func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req app.CreateCustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, r, "name is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	customer, err := h.svc.CreateCustomer(r.Context(), req)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, customer)
}

// listSuppliers handles GET /api/suppliers.
func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListSuppliers(r.Context())
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// createSupplier handles POST /api/suppliers.
func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	var req app.CreateSupplierRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, r, "name is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	supplier, err := h.svc.CreateSupplier(r.Context(), req)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, supplier)
}

// listSupplierPrices handles GET /api/suppliers/{id}/prices.
func (h *Handler) listSupplierPrices(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.ListSupplierPrices(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// setSupplierPrice handles PUT /api/suppliers/{id}/prices/{productID}.
// Body: { cost_price }.
func (h *Handler) setSupplierPrice(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	productID, ok := urlID(w, r, "productID")
	if !ok {
		return
	}
	var body struct {
		CostPrice string `json:"cost_price"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.CostPrice == "" {
		writeError(w, r, "cost_price is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	price, err := h.svc.SetSupplierPrice(r.Context(), supplierID, productID, body.CostPrice)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, price)
}

// listProducts handles GET /api/products.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListProducts(r.Context())
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// createProduct handles POST /api/products.
func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req app.CreateProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Code == "" || req.Name == "" || req.Unit == "" {
		writeError(w, r, "code, name, and unit are required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	product, err := h.svc.CreateProduct(r.Context(), req)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, product)
}
