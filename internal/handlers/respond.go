package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"therapypal-gateway/internal/models"
)

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(message, details string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error:     message,
		Details:   details,
		RequestID: r.Header.Get("X-Request-ID"),
	}
}

// timestampedErrorResp is used on /chat so failures carry a timestamp like successes do.
func timestampedErrorResp(message, details string, now time.Time, r *http.Request) models.ErrorResponse {
	resp := errorResp(message, details, r)
	resp.Timestamp = formatTimestamp(now)
	return resp
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
