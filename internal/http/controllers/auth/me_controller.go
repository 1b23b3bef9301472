package auth

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Juara-1/warung-backend/internal/domain/repository"
	dto "github.com/Juara-1/warung-backend/internal/http/dto/auth"
	httperrors "github.com/Juara-1/warung-backend/internal/http/errors"
	"github.com/Juara-1/warung-backend/internal/http/helpers"
	mw "github.com/Juara-1/warung-backend/internal/http/middlewares"
	svc "github.com/Juara-1/warung-backend/internal/http/services/auth"
	"github.com/Juara-1/warung-backend/internal/observability/logger"
)

// MeController maneja GET y PATCH /v1/me. Requiere RequireSession antes.
type MeController struct {
	service svc.ProfileService
}

func NewMeController(service svc.ProfileService) *MeController {
	return &MeController{service: service}
}

func (c *MeController) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("MeController.Get"))

	h := mw.GetScope(ctx)
	if h == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthenticated)
		return
	}

	p, err := c.service.Me(ctx, h)
	if err != nil {
		writeSessionError(w, log, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.FromPrincipal(p))
}

func (c *MeController) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("MeController.Update"))

	h := mw.GetScope(ctx)
	if h == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthenticated)
		return
	}

	var req dto.UpdateMeRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	p, err := c.service.Update(ctx, h, req)
	if err != nil {
		writeSessionError(w, log, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.FromPrincipal(p))
}

// writeSessionError: un token válido cuyo principal ya no existe se trata
// como sesión inválida.
func writeSessionError(w http.ResponseWriter, log *zap.Logger, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		httperrors.WriteError(w, httperrors.ErrUnauthenticated.WithCause(err))
		return
	}
	appErr := mapError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		log.Error("profile request failed", logger.Err(err))
	}
	httperrors.WriteError(w, appErr)
}
