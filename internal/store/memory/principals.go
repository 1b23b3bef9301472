// Package memory es un store en proceso para desarrollo y tests. Respeta las
// mismas reglas que el adapter pg: handle único case-insensitive, salt/digest
// solo en las lecturas de credencial y filtro por tenant en toda operación scoped.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Juara-1/warung-backend/internal/domain/repository"
)

type record struct {
	principal repository.Principal
	salt      []byte
	digest    string
}

type Principals struct {
	mu       sync.RWMutex
	byID     map[string]*record
	byHandle map[string]string // handle normalizado -> id
	now      func() time.Time
}

var (
	_ repository.CredentialStore     = (*Principals)(nil)
	_ repository.PrincipalRepository = (*Principals)(nil)
)

func NewPrincipals() *Principals {
	return &Principals{
		byID:     map[string]*record{},
		byHandle: map[string]string{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Principals) Create(ctx context.Context, in repository.CreatePrincipalInput) (repository.Principal, error) {
	if err := ctx.Err(); err != nil {
		return repository.Principal{}, repository.ErrStoreUnavailable
	}
	handle := repository.NormalizeHandle(in.LoginHandle)
	role := in.Role
	if role == "" {
		role = repository.RoleUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.byHandle[handle]; dup {
		return repository.Principal{}, repository.ErrConflict
	}
	if _, dup := s.byID[in.ID]; dup {
		return repository.Principal{}, repository.ErrConflict
	}
	now := s.now()
	rec := &record{
		principal: repository.Principal{
			ID:          in.ID,
			LoginHandle: handle,
			DisplayName: in.DisplayName,
			Role:        role,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		salt:   append([]byte(nil), in.Salt...),
		digest: in.Digest,
	}
	s.byID[in.ID] = rec
	s.byHandle[handle] = in.ID
	return rec.principal, nil
}

func (s *Principals) CredentialByHandle(ctx context.Context, handle string) (repository.Credential, bool, error) {
	if err := ctx.Err(); err != nil {
		return repository.Credential{}, false, repository.ErrStoreUnavailable
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byHandle[repository.NormalizeHandle(handle)]
	if !ok {
		return repository.Credential{}, false, nil
	}
	rec := s.byID[id]
	return repository.Credential{
		Principal: rec.principal,
		Salt:      append([]byte(nil), rec.salt...),
		Digest:    rec.digest,
	}, true, nil
}

// visible aplica el filtro de tenant: un principal solo es visible para sí mismo.
func (s *Principals) visible(tenantID, id string) (*record, bool) {
	if id != tenantID {
		return nil, false
	}
	rec, ok := s.byID[id]
	return rec, ok
}

func (s *Principals) FindByID(ctx context.Context, tenantID, id string) (repository.Principal, bool, error) {
	if err := ctx.Err(); err != nil {
		return repository.Principal{}, false, repository.ErrStoreUnavailable
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.visible(tenantID, id)
	if !ok {
		return repository.Principal{}, false, nil
	}
	return rec.principal, true, nil
}

func (s *Principals) FindByHandle(ctx context.Context, tenantID, handle string) (repository.Principal, bool, error) {
	if err := ctx.Err(); err != nil {
		return repository.Principal{}, false, repository.ErrStoreUnavailable
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byHandle[repository.NormalizeHandle(handle)]
	if !ok {
		return repository.Principal{}, false, nil
	}
	rec, ok := s.visible(tenantID, id)
	if !ok {
		return repository.Principal{}, false, nil
	}
	return rec.principal, true, nil
}

func (s *Principals) Update(ctx context.Context, tenantID, id string, in repository.UpdatePrincipalInput) (repository.Principal, error) {
	if err := ctx.Err(); err != nil {
		return repository.Principal{}, repository.ErrStoreUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.visible(tenantID, id)
	if !ok {
		return repository.Principal{}, repository.ErrNotFound
	}
	if in.DisplayName != nil {
		rec.principal.DisplayName = *in.DisplayName
	}
	if in.Role != nil {
		rec.principal.Role = *in.Role
	}
	rec.principal.UpdatedAt = s.now()
	return rec.principal, nil
}

func (s *Principals) CredentialByID(ctx context.Context, tenantID, id string) (repository.Credential, bool, error) {
	if err := ctx.Err(); err != nil {
		return repository.Credential{}, false, repository.ErrStoreUnavailable
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.visible(tenantID, id)
	if !ok {
		return repository.Credential{}, false, nil
	}
	return repository.Credential{
		Principal: rec.principal,
		Salt:      append([]byte(nil), rec.salt...),
		Digest:    rec.digest,
	}, true, nil
}

func (s *Principals) SetCredential(ctx context.Context, tenantID, id, oldDigest string, salt []byte, digest string) error {
	if err := ctx.Err(); err != nil {
		return repository.ErrStoreUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.visible(tenantID, id)
	if !ok {
		return repository.ErrNotFound
	}
	if rec.digest != oldDigest {
		return repository.ErrConflict
	}
	rec.salt = append([]byte(nil), salt...)
	rec.digest = digest
	rec.principal.UpdatedAt = s.now()
	return nil
}

func (s *Principals) Ping(ctx context.Context) error {
	if ctx.Err() != nil {
		return repository.ErrStoreUnavailable
	}
	return nil
}
