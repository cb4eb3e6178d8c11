package models

// HealthCheckResponse returns the health check response, ALIVE!
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}
