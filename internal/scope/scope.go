// Package scope construye el acceso a datos acotado al tenant del caller.
//
// Un Handle se obtiene de claims ya validados y es la única forma en que un
// handler autenticado llega a los repositorios: cada operación inyecta el
// tenant del caller, así que un registro de otro tenant es indistinguible de
// uno inexistente (ErrNotFound).
package scope

import (
	"context"

	"github.com/Juara-1/warung-backend/internal/domain/repository"
	"github.com/Juara-1/warung-backend/internal/session"
)

// Factory produce Handles. No hace I/O.
type Factory struct {
	principals repository.PrincipalRepository
}

func NewFactory(principals repository.PrincipalRepository) *Factory {
	return &Factory{principals: principals}
}

// ForRequest arma el handle para un request autenticado.
func (f *Factory) ForRequest(c session.Claims) *Handle {
	return &Handle{
		tenantID:    c.TenantID,
		principalID: c.PrincipalID,
		principals:  f.principals,
	}
}

// Handle es el acceso a datos de un único tenant.
type Handle struct {
	tenantID    string
	principalID string
	principals  repository.PrincipalRepository
}

func (h *Handle) TenantID() string    { return h.tenantID }
func (h *Handle) PrincipalID() string { return h.principalID }

// Principals retorna la vista de principals del tenant.
func (h *Handle) Principals() *Principals {
	return &Principals{tenantID: h.tenantID, principalID: h.principalID, repo: h.principals}
}

// Binder adapta un repositorio tenant-aware a una vista ya acotada.
type Binder[R any] func(tenantID string) R

// Bind aplica b al tenant del handle. Lo usan las entidades que se agregan
// más allá de principals.
func Bind[R any](h *Handle, b Binder[R]) R {
	return b(h.tenantID)
}

// Principals es PrincipalRepository con el tenant fijado.
type Principals struct {
	tenantID    string
	principalID string
	repo        repository.PrincipalRepository
}

// Current retorna el principal del caller.
func (p *Principals) Current(ctx context.Context) (repository.Principal, error) {
	return p.FindByID(ctx, p.principalID)
}

func (p *Principals) FindByID(ctx context.Context, id string) (repository.Principal, error) {
	out, found, err := p.repo.FindByID(ctx, p.tenantID, id)
	if err != nil {
		return repository.Principal{}, err
	}
	if !found {
		return repository.Principal{}, repository.ErrNotFound
	}
	return out, nil
}

func (p *Principals) FindByHandle(ctx context.Context, handle string) (repository.Principal, error) {
	out, found, err := p.repo.FindByHandle(ctx, p.tenantID, repository.NormalizeHandle(handle))
	if err != nil {
		return repository.Principal{}, err
	}
	if !found {
		return repository.Principal{}, repository.ErrNotFound
	}
	return out, nil
}

// UpdateCurrent modifica el principal del caller.
func (p *Principals) UpdateCurrent(ctx context.Context, in repository.UpdatePrincipalInput) (repository.Principal, error) {
	return p.repo.Update(ctx, p.tenantID, p.principalID, in)
}

func (p *Principals) Update(ctx context.Context, id string, in repository.UpdatePrincipalInput) (repository.Principal, error) {
	return p.repo.Update(ctx, p.tenantID, id, in)
}

// CurrentCredential lee salt y digest del caller dentro de su tenant.
func (p *Principals) CurrentCredential(ctx context.Context) (repository.Credential, error) {
	out, found, err := p.repo.CredentialByID(ctx, p.tenantID, p.principalID)
	if err != nil {
		return repository.Credential{}, err
	}
	if !found {
		return repository.Credential{}, repository.ErrNotFound
	}
	return out, nil
}

func (p *Principals) SetCredential(ctx context.Context, id, oldDigest string, salt []byte, digest string) error {
	return p.repo.SetCredential(ctx, p.tenantID, id, oldDigest, salt, digest)
}
