package auth

import (
	"errors"

	httperrors "github.com/Juara-1/warung-backend/internal/http/errors"
	svc "github.com/Juara-1/warung-backend/internal/http/services/auth"
)

// mapError agrega a FromError los errores propios de la capa service.
func mapError(err error) *httperrors.AppError {
	if errors.Is(err, svc.ErrMissingFields) {
		return httperrors.ErrMissingFields
	}
	return httperrors.FromError(err)
}
