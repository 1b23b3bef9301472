package health

import (
	"context"
	"time"

	dto "github.com/Juara-1/warung-backend/internal/http/dto/health"
	"github.com/Juara-1/warung-backend/internal/observability/logger"
)

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// Deps contiene las dependencias inyectables para el health service.
type Deps struct {
	StoreCheck   func(ctx context.Context) error // crítico
	RedisCheck   func(ctx context.Context) error // nil = disabled
	CheckTimeout time.Duration
	Version      string
}

type healthService struct {
	deps Deps
}

// NewHealthService crea un nuevo service de health check.
func NewHealthService(deps Deps) HealthService {
	if deps.CheckTimeout <= 0 {
		deps.CheckTimeout = 2 * time.Second
	}
	return &healthService{deps: deps}
}

const componentHealth = "health"

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentHealth),
		logger.Op("Check"),
	)

	resp := dto.HealthResponse{
		Status:     "ready",
		Components: make(map[string]dto.HealthStatus),
		Version:    s.deps.Version,
		Timestamp:  time.Now().UTC(),
	}

	// 1) store (crítico)
	if err := s.runCheck(ctx, s.deps.StoreCheck); err != nil {
		resp.Components["store"] = dto.HealthStatus{Status: "error", Message: "unavailable"}
		resp.Status = "unavailable"
		resp.Retryable = true
		log.Error("store unavailable", logger.Err(err))
	} else if s.deps.StoreCheck != nil {
		resp.Components["store"] = dto.HealthStatus{Status: "ok"}
	} else {
		resp.Components["store"] = dto.HealthStatus{Status: "disabled"}
	}

	// 2) redis (no crítico: limiter hace fail-open y el sink de eventos descarta)
	switch {
	case s.deps.RedisCheck == nil:
		resp.Components["redis"] = dto.HealthStatus{Status: "disabled"}
	default:
		if err := s.runCheck(ctx, s.deps.RedisCheck); err != nil {
			resp.Components["redis"] = dto.HealthStatus{Status: "error", Message: "unavailable"}
			log.Warn("redis unavailable", logger.Err(err))
		} else {
			resp.Components["redis"] = dto.HealthStatus{Status: "ok"}
		}
	}

	return resp
}

func (s *healthService) runCheck(ctx context.Context, check func(context.Context) error) error {
	if check == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.deps.CheckTimeout)
	defer cancel()
	return check(ctx)
}
