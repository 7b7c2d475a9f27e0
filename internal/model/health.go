package model

const (
	HealthStatusActive = "active"
	ServiceName        = "SonicForge Backend"
)

// HealthResponse is returned by the root health probe.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// ServiceStatusResponse reports which upstream integrations are configured.
type ServiceStatusResponse struct {
	Status   string          `json:"status"`
	Services map[string]bool `json:"services"`
}
