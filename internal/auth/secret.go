package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/Juara-1/warung-backend/internal/domain/repository"
	"github.com/Juara-1/warung-backend/internal/events"
	"github.com/Juara-1/warung-backend/internal/metrics"
	"github.com/Juara-1/warung-backend/internal/observability/logger"
	"github.com/Juara-1/warung-backend/internal/scope"
	"github.com/Juara-1/warung-backend/internal/security/password"
)

// ChangeSecret reemplaza el secreto del caller. El secreto actual se verifica
// antes; si no coincide => ErrInvalidCredential. Lectura y escritura pasan por
// el handle, así que solo tocan la fila del propio tenant. La escritura es
// condicional al digest leído: si otro cambio ganó => repository.ErrConflict.
func (v *Verifier) ChangeSecret(ctx context.Context, h *scope.Handle, current, next string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth"),
		logger.Op("ChangeSecret"),
		logger.PrincipalID(h.PrincipalID()),
	)

	cred, err := h.Principals().CurrentCredential(ctx)
	if err != nil {
		return err
	}
	me := cred.Principal
	if !password.Verify(current, cred.Salt, cred.Digest) {
		metrics.AuthAttempts.WithLabelValues("change_secret", "invalid").Inc()
		log.Info("current secret mismatch")
		return ErrInvalidCredential
	}
	if err := v.checkSecret(next); err != nil {
		metrics.AuthAttempts.WithLabelValues("change_secret", "weak").Inc()
		return err
	}

	salt, digest, err := password.Hash(v.params, next)
	if err != nil {
		return fmt.Errorf("auth: hash: %w", err)
	}
	if err := h.Principals().SetCredential(ctx, me.ID, cred.Digest, salt, digest); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			metrics.AuthAttempts.WithLabelValues("change_secret", "conflict").Inc()
			log.Info("secret changed concurrently")
		}
		return err
	}

	metrics.AuthAttempts.WithLabelValues("change_secret", "ok").Inc()
	log.Info("secret changed")
	v.events.Publish(events.Event{
		Type:        events.SecretChanged,
		TenantID:    h.TenantID(),
		PrincipalID: me.ID,
	})
	return nil
}
