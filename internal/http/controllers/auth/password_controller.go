package auth

import (
	"net/http"

	dto "github.com/Juara-1/warung-backend/internal/http/dto/auth"
	httperrors "github.com/Juara-1/warung-backend/internal/http/errors"
	"github.com/Juara-1/warung-backend/internal/http/helpers"
	mw "github.com/Juara-1/warung-backend/internal/http/middlewares"
	svc "github.com/Juara-1/warung-backend/internal/http/services/auth"
	"github.com/Juara-1/warung-backend/internal/observability/logger"
)

// PasswordController maneja POST /v1/me/password.
type PasswordController struct {
	service svc.ProfileService
}

func NewPasswordController(service svc.ProfileService) *PasswordController {
	return &PasswordController{service: service}
}

// Change responde 204. Un secreto actual incorrecto da 401 INVALID_CREDENTIALS.
func (c *PasswordController) Change(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("PasswordController.Change"))

	h := mw.GetScope(ctx)
	if h == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthenticated)
		return
	}

	var req dto.ChangeSecretRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	if err := c.service.ChangeSecret(ctx, h, req); err != nil {
		writeSessionError(w, log, err)
		return
	}

	log.Info("secret changed")
	w.WriteHeader(http.StatusNoContent)
}
