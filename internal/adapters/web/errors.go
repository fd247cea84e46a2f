package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"taller/internal/core"

	"go.uber.org/zap"
)

type apiError struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func writeStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with {"error","code","request_id"}.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeStatus(w, status, apiError{Error: message, Code: code, RequestID: requestIDFromContext(r.Context())})
}

func writeJSON(w http.ResponseWriter, v any) { writeStatus(w, http.StatusOK, v) }

func writeCreated(w http.ResponseWriter, v any) { writeStatus(w, http.StatusCreated, v) }

// writeServiceError maps core sentinel errors to HTTP statuses. Anything
// unrecognised is logged and reported as a bare 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrInvalidTransition):
		writeError(w, r, err.Error(), "INVALID_TRANSITION", http.StatusUnprocessableEntity)
	case errors.Is(err, core.ErrValidation):
		writeError(w, r, err.Error(), "VALIDATION_ERROR", http.StatusUnprocessableEntity)
	case errors.Is(err, core.ErrWhatsAppNotConfigured):
		writeError(w, r, err.Error(), "WHATSAPP_NOT_CONFIGURED", http.StatusServiceUnavailable)
	default:
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.Error(err),
		)
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}

// notImplemented is a stub handler that returns HTTP 501 JSON.
func notImplemented(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, "not implemented", "NOT_IMPLEMENTED", http.StatusNotImplemented)
}
