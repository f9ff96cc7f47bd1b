package web

import (
	"net/http"

	"frutta-gest/internal/app"

	"github.com/go-chi/chi/v5"
)

// listShoppingLists handles GET /api/shopping-lists.
func (h *Handler) listShoppingLists(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListShoppingLists(r.Context())
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// generateShoppingList handles POST /api/shopping-lists/generate.
// Body: { date }. A date without eligible orders returns 200 with no_orders.
func (h *Handler) generateShoppingList(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Date string `json:"date"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Date == "" {
		writeError(w, r, "date is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.GenerateShoppingList(r.Context(), body.Date)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// getShoppingListByDate handles GET /api/shopping-lists/by-date/{date}.
func (h *Handler) getShoppingListByDate(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	result, err := h.svc.GetShoppingListByDate(r.Context(), date)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// getShoppingList handles GET /api/shopping-lists/{id}.
func (h *Handler) getShoppingList(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.GetShoppingList(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// deleteShoppingList handles DELETE /api/shopping-lists/{id}.
func (h *Handler) deleteShoppingList(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteShoppingList(r.Context(), id); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// updateShoppingListStatus handles POST /api/shopping-lists/{id}/status.
func (h *Handler) updateShoppingListStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Status == "" {
		writeError(w, r, "status is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.UpdateShoppingListStatus(r.Context(), id, body.Status)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// explodeShoppingList handles POST /api/shopping-lists/{id}/explode.
func (h *Handler) explodeShoppingList(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.ExplodeShoppingList(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// updateShoppingListItem handles PATCH /api/shopping-list-items/{id}.
func (h *Handler) updateShoppingListItem(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req app.UpdateListItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.UpdateShoppingListItem(r.Context(), id, req)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// listPurchaseOrders handles GET /api/purchase-orders?status=.
func (h *Handler) listPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListPurchaseOrders(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// getPurchaseOrder handles GET /api/purchase-orders/{id}.
func (h *Handler) getPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.GetPurchaseOrder(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// updatePurchaseOrderStatus handles POST /api/purchase-orders/{id}/status.
func (h *Handler) updatePurchaseOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Status == "" {
		writeError(w, r, "status is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.UpdatePurchaseOrderStatus(r.Context(), id, body.Status)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// receivePurchaseOrder handles POST /api/purchase-orders/{id}/receive.
func (h *Handler) receivePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.ReceivePurchaseOrder(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}
