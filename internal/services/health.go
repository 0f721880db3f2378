package services

import (
	"context"
	"log/slog"
	"time"

	"therapypal-gateway/internal/logging"
	"therapypal-gateway/internal/models"
)

// HealthObserver is notified of every probe result.
type HealthObserver interface {
	SetProviderHealth(healthy bool)
}

// HealthReporter probes the provider synchronously on every check.
type HealthReporter struct {
	prober           Prober
	apiKeyConfigured bool
	version          string
	timeout          time.Duration
	logger           *slog.Logger
	observer         HealthObserver
	now              func() time.Time
}

func NewHealthReporter(prober Prober, apiKeyConfigured bool, version string, timeout time.Duration, logger *slog.Logger, observer HealthObserver) *HealthReporter {
	return &HealthReporter{
		prober:           prober,
		apiKeyConfigured: apiKeyConfigured,
		version:          version,
		timeout:          timeout,
		logger:           logger,
		observer:         observer,
		now:              time.Now,
	}
}

// Check never fails; a failed probe yields a degraded status.
func (h *HealthReporter) Check(ctx context.Context) models.HealthStatus {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	status := models.HealthStatus{
		Status:    models.HealthStatusHealthy,
		Timestamp: h.now().UTC().Format(time.RFC3339Nano),
		Version:   h.version,
		Services: models.ServiceChecks{
			Gemini:           models.HealthStatusHealthy,
			APIKeyConfigured: h.apiKeyConfigured,
		},
	}

	err := h.prober.Probe(ctx)
	if err != nil {
		logging.FromContext(ctx, h.logger).Error("gemini health check failed", "error", logging.Truncate(err.Error(), logErrorLen))
		status.Status = models.HealthStatusDegraded
		status.Services.Gemini = "unhealthy: " + err.Error()
	}

	if h.observer != nil {
		h.observer.SetProviderHealth(err == nil)
	}

	return status
}
