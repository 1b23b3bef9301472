// Package auth registra principals y verifica sus credenciales.
//
// Es el único código que deriva o compara digests. Los dos fallos de login
// (handle inexistente y secreto incorrecto) se distinguen acá para logs y
// métricas; la capa HTTP los colapsa en una sola respuesta.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Juara-1/warung-backend/internal/domain/repository"
	"github.com/Juara-1/warung-backend/internal/events"
	"github.com/Juara-1/warung-backend/internal/metrics"
	"github.com/Juara-1/warung-backend/internal/observability/logger"
	"github.com/Juara-1/warung-backend/internal/security/password"
)

var (
	ErrDuplicateIdentity  = errors.New("auth: duplicate identity")
	ErrInvalidCredential  = errors.New("auth: invalid credential")
	ErrInvalidHandle      = errors.New("auth: invalid login handle")
	ErrInvalidDisplayName = errors.New("auth: invalid display name")
)

// PolicyError: el secreto no cumple la política. Reasons son los códigos de
// password.Policy.
type PolicyError struct {
	Reasons []string
}

func (e *PolicyError) Error() string {
	return "auth: weak secret: " + strings.Join(e.Reasons, ",")
}

const (
	minHandleLen      = 3
	maxHandleLen      = 254
	maxDisplayNameLen = 100
)

type Deps struct {
	Store  repository.CredentialStore
	Params password.Params
	Policy password.Policy
	Events events.Publisher // nil = events.Nop
	NewID  func() string    // nil = uuid v4
}

type Verifier struct {
	store  repository.CredentialStore
	params password.Params
	policy password.Policy
	events events.Publisher
	newID  func() string

	// digest de relleno para que un handle inexistente cueste lo mismo que
	// uno con secreto incorrecto
	dummySalt   []byte
	dummyDigest string
}

func NewVerifier(d Deps) (*Verifier, error) {
	if d.Store == nil {
		return nil, errors.New("auth: nil credential store")
	}
	if err := d.Params.Validate(); err != nil {
		return nil, err
	}
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	salt, digest, err := password.Hash(d.Params, uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("auth: dummy digest: %w", err)
	}
	return &Verifier{
		store:       d.Store,
		params:      d.Params,
		policy:      d.Policy,
		events:      d.Events,
		newID:       d.NewID,
		dummySalt:   salt,
		dummyDigest: digest,
	}, nil
}

type RegisterInput struct {
	LoginHandle string
	Secret      string
	DisplayName string
	Role        repository.Role // vacío = RoleUser
}

// Register crea un principal, con rol user salvo que in.Role diga otra cosa. Handle existente (sin importar
// mayúsculas) => ErrDuplicateIdentity.
func (v *Verifier) Register(ctx context.Context, in RegisterInput) (repository.Principal, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth"),
		logger.Op("Register"),
	)

	handle := repository.NormalizeHandle(in.LoginHandle)
	if err := validateHandle(handle); err != nil {
		return repository.Principal{}, err
	}
	display := strings.TrimSpace(in.DisplayName)
	if display == "" {
		display = handle
	}
	if utf8.RuneCountInString(display) > maxDisplayNameLen {
		return repository.Principal{}, ErrInvalidDisplayName
	}
	if err := v.checkSecret(in.Secret); err != nil {
		metrics.AuthAttempts.WithLabelValues("register", "weak").Inc()
		return repository.Principal{}, err
	}

	role := in.Role
	if role == "" {
		role = repository.RoleUser
	}

	salt, digest, err := password.Hash(v.params, in.Secret)
	if err != nil {
		return repository.Principal{}, fmt.Errorf("auth: hash: %w", err)
	}

	p, err := v.store.Create(ctx, repository.CreatePrincipalInput{
		ID:          v.newID(),
		LoginHandle: handle,
		DisplayName: display,
		Role:        role,
		Salt:        salt,
		Digest:      digest,
	})
	switch {
	case errors.Is(err, repository.ErrConflict):
		metrics.AuthAttempts.WithLabelValues("register", "duplicate").Inc()
		log.Info("duplicate identity", logger.Handle(handle))
		return repository.Principal{}, ErrDuplicateIdentity
	case err != nil:
		metrics.AuthAttempts.WithLabelValues("register", "unavailable").Inc()
		log.Error("create principal failed", logger.Err(err))
		return repository.Principal{}, err
	}

	metrics.AuthAttempts.WithLabelValues("register", "ok").Inc()
	log.Info("principal registered", logger.PrincipalID(p.ID), logger.Handle(handle))
	v.events.Publish(events.Event{
		Type:        events.PrincipalRegistered,
		TenantID:    p.TenantID(),
		PrincipalID: p.ID,
		Attrs:       map[string]string{"handle": logger.MaskHandle(handle), "role": string(p.Role)},
	})
	return p, nil
}

// Verify retorna el principal si el secreto coincide. Handle inexistente =>
// repository.ErrNotFound; secreto incorrecto => ErrInvalidCredential. Nada se
// reintenta.
func (v *Verifier) Verify(ctx context.Context, loginHandle, secret string) (repository.Principal, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth"),
		logger.Op("Verify"),
	)
	handle := repository.NormalizeHandle(loginHandle)

	cred, found, err := v.store.CredentialByHandle(ctx, handle)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("login", "unavailable").Inc()
		log.Error("credential lookup failed", logger.Err(err))
		return repository.Principal{}, err
	}
	if !found {
		password.Verify(secret, v.dummySalt, v.dummyDigest)
		v.fail(log, handle, "", "unknown_handle")
		return repository.Principal{}, repository.ErrNotFound
	}
	if !password.Verify(secret, cred.Salt, cred.Digest) {
		v.fail(log, handle, cred.Principal.ID, "secret_mismatch")
		return repository.Principal{}, ErrInvalidCredential
	}

	p := cred.Principal
	metrics.AuthAttempts.WithLabelValues("login", "ok").Inc()
	log.Info("principal authenticated", logger.PrincipalID(p.ID))
	v.events.Publish(events.Event{
		Type:        events.PrincipalAuthenticated,
		TenantID:    p.TenantID(),
		PrincipalID: p.ID,
	})
	return p, nil
}

func (v *Verifier) fail(log *zap.Logger, handle, principalID, reason string) {
	metrics.AuthAttempts.WithLabelValues("login", "invalid").Inc()
	log.Info("authentication failed", logger.Handle(handle), logger.Reason(reason))
	v.events.Publish(events.Event{
		Type:        events.AuthenticationFailed,
		TenantID:    principalID,
		PrincipalID: principalID,
		Attrs:       map[string]string{"handle": logger.MaskHandle(handle), "reason": reason},
	})
}

func (v *Verifier) checkSecret(s string) error {
	if s == "" {
		return &PolicyError{Reasons: []string{"too_short"}}
	}
	if ok, reasons := v.policy.Validate(s); !ok {
		return &PolicyError{Reasons: reasons}
	}
	return nil
}

func validateHandle(h string) error {
	if n := utf8.RuneCountInString(h); n < minHandleLen || n > maxHandleLen {
		return ErrInvalidHandle
	}
	for _, r := range h {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return ErrInvalidHandle
		}
	}
	return nil
}
