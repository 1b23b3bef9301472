package auth

import (
	"errors"
	"net/http"

	dto "github.com/Juara-1/warung-backend/internal/http/dto/auth"
	httperrors "github.com/Juara-1/warung-backend/internal/http/errors"
	"github.com/Juara-1/warung-backend/internal/http/helpers"
	svc "github.com/Juara-1/warung-backend/internal/http/services/auth"
	"github.com/Juara-1/warung-backend/internal/observability/logger"
)

// LoginController maneja POST /v1/auth/login.
type LoginController struct {
	service svc.LoginService
}

func NewLoginController(service svc.LoginService) *LoginController {
	return &LoginController{service: service}
}

// Login responde {token, principal}. Handle desconocido y secreto incorrecto
// dan el mismo 401.
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Login"))

	var req dto.LoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	resp, err := c.service.Login(ctx, req)
	if err != nil {
		var appErr *httperrors.AppError
		if errors.Is(err, svc.ErrMissingFields) {
			appErr = httperrors.ErrMissingFields
		} else {
			appErr = httperrors.FromLoginError(err)
		}
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			log.Error("login failed", logger.Err(err))
		}
		httperrors.WriteError(w, appErr)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, resp)
}
