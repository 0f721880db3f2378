package handlers

import (
	"context"
	"net/http"

	"therapypal-gateway/internal/models"
)

type healthChecker interface {
	Check(ctx context.Context) models.HealthStatus
}

type HealthHandler struct {
	checker healthChecker
}

func NewHealthHandler(checker healthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Health always answers 200; the body's status field reports degradation.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.checker.Check(r.Context()))
}
