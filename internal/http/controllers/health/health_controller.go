package health

import (
	"net/http"

	"github.com/Juara-1/warung-backend/internal/http/helpers"
	svc "github.com/Juara-1/warung-backend/internal/http/services/health"
	"github.com/Juara-1/warung-backend/internal/observability/logger"
)

// HealthController maneja las rutas de health check.
type HealthController struct {
	service svc.HealthService
}

// NewHealthController crea un nuevo controller de health check.
func NewHealthController(service svc.HealthService) *HealthController {
	return &HealthController{service: service}
}

// Healthz maneja GET /healthz. Solo indica que el proceso responde.
func (c *HealthController) Healthz(w http.ResponseWriter, _ *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz maneja GET /readyz
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("HealthController.Readyz"))

	resp := c.service.Check(ctx)

	if resp.Version != "" {
		w.Header().Set("X-Service-Version", resp.Version)
	}

	status := http.StatusOK
	if resp.Status == "unavailable" {
		status = http.StatusServiceUnavailable
		w.Header().Set("Retry-After", "1")
	}

	log.Debug("health check completed",
		logger.String("status", resp.Status),
		logger.Int("components_count", len(resp.Components)),
	)

	helpers.WriteJSON(w, status, resp)
}
