package auth

import (
	"net/http"

	dto "github.com/Juara-1/warung-backend/internal/http/dto/auth"
	httperrors "github.com/Juara-1/warung-backend/internal/http/errors"
	"github.com/Juara-1/warung-backend/internal/http/helpers"
	svc "github.com/Juara-1/warung-backend/internal/http/services/auth"
	"github.com/Juara-1/warung-backend/internal/observability/logger"
)

// RegisterController maneja POST /v1/auth/register.
type RegisterController struct {
	service svc.RegisterService
}

func NewRegisterController(service svc.RegisterService) *RegisterController {
	return &RegisterController{service: service}
}

func (c *RegisterController) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RegisterController.Register"))

	var req dto.RegisterRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	p, err := c.service.Register(ctx, req)
	if err != nil {
		appErr := mapError(err)
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			log.Error("register failed", logger.Err(err))
		} else {
			log.Debug("register rejected", logger.String("code", appErr.Code))
		}
		httperrors.WriteError(w, appErr)
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, dto.FromPrincipal(p))
}
