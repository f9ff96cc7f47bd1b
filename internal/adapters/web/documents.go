package web

import (
	"net/http"
	"strconv"

	"frutta-gest/internal/app"
)

// ── Delivery notes ────────────────────────────────────────────────────────────

// createDeliveryNote handles POST /api/orders/{id}/delivery-notes.
func (h *Handler) createDeliveryNote(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.CreateDeliveryNote(r.Context(), orderID)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// listDeliveryNotes handles GET /api/delivery-notes?status=.
func (h *Handler) listDeliveryNotes(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListDeliveryNotes(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// getDeliveryNote handles GET /api/delivery-notes/{id}.
func (h *Handler) getDeliveryNote(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.GetDeliveryNote(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// updateDeliveryNote handles PATCH /api/delivery-notes/{id}.
func (h *Handler) updateDeliveryNote(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req app.UpdateDeliveryNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.UpdateDeliveryNote(r.Context(), id, req)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// deleteDeliveryNote handles DELETE /api/delivery-notes/{id}.
func (h *Handler) deleteDeliveryNote(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteDeliveryNote(r.Context(), id); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// updateDeliveryNoteStatus handles POST /api/delivery-notes/{id}/status.
func (h *Handler) updateDeliveryNoteStatus(w http.ResponseWriter, r *http.Request) {
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
	result, err := h.svc.UpdateDeliveryNoteStatus(r.Context(), id, body.Status)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// ── Invoices ──────────────────────────────────────────────────────────────────

// listInvoices handles GET /api/invoices?status=.
func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListInvoices(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// createInvoice handles POST /api/invoices.
func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req app.CreateInvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.DDTIDs) == 0 {
		writeError(w, r, "at least one delivery note is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.CreateInvoice(r.Context(), req)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// getInvoice handles GET /api/invoices/{id}.
func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.GetInvoice(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// deleteInvoice handles DELETE /api/invoices/{id}.
func (h *Handler) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteInvoice(r.Context(), id); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// updateInvoiceStatus handles POST /api/invoices/{id}/status.
func (h *Handler) updateInvoiceStatus(w http.ResponseWriter, r *http.Request) {
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
	result, err := h.svc.UpdateInvoiceStatus(r.Context(), id, body.Status)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// ── Payments ──────────────────────────────────────────────────────────────────

// listPayments handles GET /api/payments?invoice_id=&purchase_order_id=.
func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	var invoiceID, purchaseOrderID *int
	if v := r.URL.Query().Get("invoice_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, "invalid invoice_id", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		invoiceID = &id
	}
	if v := r.URL.Query().Get("purchase_order_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, "invalid purchase_order_id", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		purchaseOrderID = &id
	}
	result, err := h.svc.ListPayments(r.Context(), invoiceID, purchaseOrderID)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// createPayment handles POST /api/payments.
func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	var req app.CreatePaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.CreatePayment(r.Context(), req)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}
