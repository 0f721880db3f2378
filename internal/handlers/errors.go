package handlers

import (
	"log/slog"
	"net/http"

	"therapypal-gateway/internal/logging"
)

// NotFound answers unmatched routes with a JSON 404.
func NotFound(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logging.FromContext(r.Context(), logger).Warn("404 error", "method", r.Method, "url", r.URL.String())
		writeJSON(w, http.StatusNotFound, errorResp("Endpoint not found", "", r))
	}
}

// MethodNotAllowed answers known paths hit with the wrong method.
func MethodNotAllowed(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logging.FromContext(r.Context(), logger).Warn("405 error", "method", r.Method, "url", r.URL.String())
		writeJSON(w, http.StatusMethodNotAllowed, errorResp("Method not allowed", "", r))
	}
}
