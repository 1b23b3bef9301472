// Package auth contiene los services HTTP de registro, login y perfil. Orquestan
// auth.Verifier, session.Issuer y el handle del request; no conocen HTTP.
package auth

import (
	"context"
	"errors"

	"github.com/Juara-1/warung-backend/internal/auth"
	"github.com/Juara-1/warung-backend/internal/domain/repository"
	dto "github.com/Juara-1/warung-backend/internal/http/dto/auth"
	"github.com/Juara-1/warung-backend/internal/events"
	"github.com/Juara-1/warung-backend/internal/scope"
	"github.com/Juara-1/warung-backend/internal/session"
)

var ErrMissingFields = errors.New("missing required fields")

type RegisterService interface {
	Register(ctx context.Context, in dto.RegisterRequest) (repository.Principal, error)
}

type LoginService interface {
	Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error)
}

type ProfileService interface {
	Me(ctx context.Context, h *scope.Handle) (repository.Principal, error)
	Update(ctx context.Context, h *scope.Handle, in dto.UpdateMeRequest) (repository.Principal, error)
	ChangeSecret(ctx context.Context, h *scope.Handle, in dto.ChangeSecretRequest) error
}

// Deps contiene las dependencias para crear los services auth.
type Deps struct {
	Verifier *auth.Verifier
	Issuer   *session.Issuer
	Events   events.Publisher // nil = events.Nop
}

// Services agrupa todos los services del dominio auth.
type Services struct {
	Register RegisterService
	Login    LoginService
	Profile  ProfileService
}

func NewServices(d Deps) Services {
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	return Services{
		Register: &registerService{verifier: d.Verifier},
		Login:    &loginService{verifier: d.Verifier, issuer: d.Issuer},
		Profile:  &profileService{verifier: d.Verifier, events: d.Events},
	}
}
