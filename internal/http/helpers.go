package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service failures onto the API contract: validation
// failures surface verbatim with 422, store failures keep their sanitized
// message with 500, anything else is an opaque 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case core.IsValidationError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		var storeErr *storage.StoreError
		if errors.As(err, &storeErr) {
			writeError(w, http.StatusInternalServerError, storeErr.Error())
			return
		}
		s.logger.ErrorContext(r.Context(), "request failed",
			applog.FieldPath, r.URL.Path,
			applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
