package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// historySavedResponse is the body of a successful POST /api/history.
type historySavedResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// writeJSON sends data as JSON with the given status code.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// writeError logs err and reports it as 500 {"error": message}.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	logger.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	writeJSON(w, logger, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}
