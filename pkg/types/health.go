package types

// Health states reported by GET /health.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthResponse is the body of GET /health. Status is healthy when the
// provider answers its liveness probe, degraded when it was constructed
// but is not answering, unhealthy when construction itself failed.
type HealthResponse struct {
	Status            string `json:"status"`
	Provider          string `json:"provider"`
	Model             string `json:"model"`
	ProviderAvailable bool   `json:"provider_available"`
	Message           string `json:"message,omitempty"`
}
