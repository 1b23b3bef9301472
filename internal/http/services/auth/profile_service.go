package auth

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/Juara-1/warung-backend/internal/auth"
	"github.com/Juara-1/warung-backend/internal/domain/repository"
	dto "github.com/Juara-1/warung-backend/internal/http/dto/auth"
	"github.com/Juara-1/warung-backend/internal/events"
	"github.com/Juara-1/warung-backend/internal/observability/logger"
	"github.com/Juara-1/warung-backend/internal/scope"
)

const maxDisplayNameLen = 100

type profileService struct {
	verifier *auth.Verifier
	events   events.Publisher
}

func (s *profileService) Me(ctx context.Context, h *scope.Handle) (repository.Principal, error) {
	return h.Principals().Current(ctx)
}

func (s *profileService) Update(ctx context.Context, h *scope.Handle, in dto.UpdateMeRequest) (repository.Principal, error) {
	if in.DisplayName == nil {
		return repository.Principal{}, ErrMissingFields
	}
	name := strings.TrimSpace(*in.DisplayName)
	if name == "" || utf8.RuneCountInString(name) > maxDisplayNameLen {
		return repository.Principal{}, auth.ErrInvalidDisplayName
	}

	p, err := h.Principals().UpdateCurrent(ctx, repository.UpdatePrincipalInput{DisplayName: &name})
	if err != nil {
		return repository.Principal{}, err
	}

	logger.From(ctx).Info("principal updated",
		logger.Layer("service"),
		logger.Component("auth.profile"),
		logger.Op("Update"),
	)
	s.events.Publish(events.Event{
		Type:        events.PrincipalUpdated,
		TenantID:    h.TenantID(),
		PrincipalID: p.ID,
		Attrs:       map[string]string{"fields": "displayName"},
	})
	return p, nil
}

func (s *profileService) ChangeSecret(ctx context.Context, h *scope.Handle, in dto.ChangeSecretRequest) error {
	if in.CurrentSecret == "" || in.NewSecret == "" {
		return ErrMissingFields
	}
	return s.verifier.ChangeSecret(ctx, h, in.CurrentSecret, in.NewSecret)
}
