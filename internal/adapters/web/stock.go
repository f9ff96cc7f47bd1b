package web

import (
	"net/http"

	"frutta-gest/internal/app"
)

// stockSummary handles GET /api/stock.
func (h *Handler) stockSummary(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetStockSummary(r.Context())
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// createStockMovement handles POST /api/stock/movements.
func (h *Handler) createStockMovement(w http.ResponseWriter, r *http.Request) {
	var req app.CreateMovementRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.CreateStockMovement(r.Context(), req)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// listStockMovements handles GET /api/products/{id}/movements.
func (h *Handler) listStockMovements(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.ListStockMovements(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}
