// Package health contiene los controllers de liveness y readiness.
package health

import svc "github.com/Juara-1/warung-backend/internal/http/services/health"

// Controllers agrupa los controllers del dominio health.
type Controllers struct {
	Health *HealthController
}

func NewControllers(s svc.Services) *Controllers {
	return &Controllers{Health: NewHealthController(s.Health)}
}
