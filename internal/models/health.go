package models

const (
	HealthStatusHealthy  = "healthy"
	HealthStatusDegraded = "degraded"
)

// HealthStatus is returned by GET /health. It is always served with 200;
// Status carries degradation.
type HealthStatus struct {
	Status    string        `json:"status"` // "healthy" | "degraded"
	Timestamp string        `json:"timestamp"`
	Version   string        `json:"version"`
	Services  ServiceChecks `json:"services"`
}

// ServiceChecks reports each dependency. Gemini is "healthy" or
// "unhealthy: <reason>".
type ServiceChecks struct {
	Gemini           string `json:"gemini"`
	APIKeyConfigured bool   `json:"api_key_configured"`
}
