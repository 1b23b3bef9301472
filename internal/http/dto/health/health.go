// Package health contiene DTOs para endpoints de health check.
package health

import "time"

// HealthStatus representa el estado de un componente específico.
type HealthStatus struct {
	Status  string `json:"status"`            // "ok" | "error" | "disabled"
	Message string `json:"message,omitempty"` // Detalle opcional
}

// HealthResponse: status es "ready" o "unavailable".
type HealthResponse struct {
	Status     string                  `json:"status"`
	Components map[string]HealthStatus `json:"components"`
	Version    string                  `json:"version,omitempty"`
	Retryable  bool                    `json:"retryable,omitempty"`
	Timestamp  time.Time               `json:"timestamp"`
}
