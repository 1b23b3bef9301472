package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/Juara-1/warung-backend/internal/auth"
	"github.com/Juara-1/warung-backend/internal/domain/repository"
	"github.com/Juara-1/warung-backend/internal/session"
)

// RetryAfterSeconds es lo que se sugiere en Retry-After para un 503.
const RetryAfterSeconds = "1"

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	Retryable bool   `json:"retryable"`
}

// WriteError escribe la respuesta para err. La causa nunca llega al cliente.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	resp := errorResponse{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Detail:    appErr.Detail,
		Retryable: appErr.Retryable,
	}

	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	if appErr.HTTPStatus == http.StatusServiceUnavailable && h.Get("Retry-After") == "" {
		h.Set("Retry-After", RetryAfterSeconds)
	}
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}

// FromError traduce errores de dominio a su AppError. Lo desconocido es 500.
//
// Los tres errores de sesión dan el mismo UNAUTHENTICATED. StoreUnavailable
// es un 503 retryable sin detalle del store. NotFound queda como 404; el login
// usa FromLoginError.
func FromError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	var policyErr *auth.PolicyError
	switch {
	case stderrors.As(err, &policyErr):
		return ErrWeakSecret.WithDetail(strings.Join(policyErr.Reasons, ",")).WithCause(err)
	case stderrors.Is(err, repository.ErrStoreUnavailable):
		return ErrServiceUnavailable.WithCause(err)
	case stderrors.Is(err, session.ErrMissingToken),
		stderrors.Is(err, session.ErrMalformedToken),
		stderrors.Is(err, session.ErrExpiredToken):
		return ErrUnauthenticated.WithCause(err)
	case stderrors.Is(err, auth.ErrInvalidCredential):
		return ErrInvalidCredentials.WithCause(err)
	case stderrors.Is(err, auth.ErrDuplicateIdentity):
		return ErrDuplicateIdentity.WithCause(err)
	case stderrors.Is(err, auth.ErrInvalidHandle):
		return ErrInvalidFormat.WithDetail("loginHandle").WithCause(err)
	case stderrors.Is(err, auth.ErrInvalidDisplayName):
		return ErrInvalidFormat.WithDetail("displayName").WithCause(err)
	case stderrors.Is(err, repository.ErrConflict):
		return ErrConflict.WithCause(err)
	case stderrors.Is(err, repository.ErrNotFound):
		return ErrNotFound.WithCause(err)
	}
	return ErrInternalServerError.WithCause(err)
}

// FromLoginError es FromError para la verificación de credenciales: handle
// inexistente y secreto incorrecto dan la misma respuesta.
func FromLoginError(err error) *AppError {
	if stderrors.Is(err, repository.ErrNotFound) || stderrors.Is(err, auth.ErrInvalidCredential) {
		return ErrInvalidCredentials.WithCause(err)
	}
	return FromError(err)
}
