package auth

import (
	"context"
	"strings"

	"github.com/Juara-1/warung-backend/internal/auth"
	"github.com/Juara-1/warung-backend/internal/domain/repository"
	dto "github.com/Juara-1/warung-backend/internal/http/dto/auth"
)

type registerService struct {
	verifier *auth.Verifier
}

func (s *registerService) Register(ctx context.Context, in dto.RegisterRequest) (repository.Principal, error) {
	if strings.TrimSpace(in.LoginHandle) == "" || in.PlaintextSecret == "" {
		return repository.Principal{}, ErrMissingFields
	}
	return s.verifier.Register(ctx, auth.RegisterInput{
		LoginHandle: in.LoginHandle,
		Secret:      in.PlaintextSecret,
		DisplayName: in.DisplayName,
	})
}
