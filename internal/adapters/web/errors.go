package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"frutta-gest/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeCoreError maps domain sentinel errors to HTTP status codes and
// machine-readable codes. Anything unmatched is treated as a validation
// failure: core services return wrapped sentinels for every systemic
// condition, so a plain error means bad input.
func writeCoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrInvalidTransition):
		writeError(w, r, err.Error(), "INVALID_TRANSITION", http.StatusConflict)
	case errors.Is(err, core.ErrOrderLocked):
		writeError(w, r, err.Error(), "ORDER_LOCKED", http.StatusConflict)
	case errors.Is(err, core.ErrDDTLocked):
		writeError(w, r, err.Error(), "DDT_LOCKED", http.StatusConflict)
	case errors.Is(err, core.ErrDDTAlreadyInvoiced):
		writeError(w, r, err.Error(), "DDT_ALREADY_INVOICED", http.StatusConflict)
	case errors.Is(err, core.ErrOverPayment):
		writeError(w, r, err.Error(), "OVER_PAYMENT", http.StatusConflict)
	case errors.Is(err, core.ErrOrderNotReady):
		writeError(w, r, err.Error(), "ORDER_NOT_READY", http.StatusConflict)
	case errors.Is(err, core.ErrConcurrentModification):
		writeError(w, r, err.Error(), "CONCURRENT_MODIFICATION", http.StatusConflict)
	case errors.Is(err, core.ErrNoSupplierAssigned):
		writeError(w, r, err.Error(), "NO_SUPPLIER_ASSIGNED", http.StatusUnprocessableEntity)
	case errors.Is(err, core.ErrInvalidPeriod):
		writeError(w, r, err.Error(), "INVALID_PERIOD", http.StatusBadRequest)
	case errors.Is(err, core.ErrSequenceExhausted):
		writeError(w, r, err.Error(), "SEQUENCE_EXHAUSTED", http.StatusInternalServerError)
	default:
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
	}
}
