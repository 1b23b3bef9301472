package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/Juara-1/warung-backend/internal/auth"
	dto "github.com/Juara-1/warung-backend/internal/http/dto/auth"
	"github.com/Juara-1/warung-backend/internal/observability/logger"
	"github.com/Juara-1/warung-backend/internal/session"
)

type loginService struct {
	verifier *auth.Verifier
	issuer   *session.Issuer
}

// Login verifica credenciales y emite un token nuevo. Un token anterior sigue
// siendo válido hasta su exp.
func (s *loginService) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("Login"),
	)

	if strings.TrimSpace(in.LoginHandle) == "" || in.PlaintextSecret == "" {
		return nil, ErrMissingFields
	}

	p, err := s.verifier.Verify(ctx, in.LoginHandle, in.PlaintextSecret)
	if err != nil {
		return nil, err
	}

	tok, err := s.issuer.Issue(p)
	if err != nil {
		log.Error("issue token failed", logger.Err(err))
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &dto.LoginResponse{
		Token:     tok.Value,
		TokenType: "Bearer",
		ExpiresIn: int64(s.issuer.TTL().Seconds()),
		Principal: dto.FromPrincipal(p),
	}, nil
}
