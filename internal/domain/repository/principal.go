package repository

import (
	"context"
	"strings"
	"time"
)

// Role es el rol de un principal.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Principal es la vista pública de una identidad. No tiene campos de credencial.
type Principal struct {
	ID          string
	LoginHandle string
	DisplayName string
	Role        Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TenantID: en este modelo cada principal es su propio tenant.
func (p Principal) TenantID() string { return p.ID }

// Credential es el material de verificación de un principal.
// Solo lo producen CredentialStore y lo consume auth.Verifier.
type Credential struct {
	Principal Principal
	Salt      []byte
	Digest    string
}

// CreatePrincipalInput son los datos para el registro. ID lo genera el caller.
type CreatePrincipalInput struct {
	ID          string
	LoginHandle string
	DisplayName string
	Role        Role
	Salt        []byte
	Digest      string
}

// UpdatePrincipalInput: campos nil no se tocan.
type UpdatePrincipalInput struct {
	DisplayName *string
	Role        *Role
}

// NormalizeHandle aplica la comparación case-insensitive de login handles.
func NormalizeHandle(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// CredentialStore es la superficie sin identidad de caller.
type CredentialStore interface {
	// Create inserta un principal. Handle duplicado => ErrConflict, sin fila parcial.
	Create(ctx context.Context, in CreatePrincipalInput) (Principal, error)

	// CredentialByHandle busca por handle normalizado. found=false si no existe.
	CredentialByHandle(ctx context.Context, handle string) (cred Credential, found bool, err error)
}

// PrincipalRepository es la superficie tenant-scoped. Toda operación filtra
// por tenantID además del criterio propio.
type PrincipalRepository interface {
	FindByID(ctx context.Context, tenantID, id string) (p Principal, found bool, err error)
	FindByHandle(ctx context.Context, tenantID, handle string) (p Principal, found bool, err error)

	// Update retorna ErrNotFound si no hay fila visible para el tenant.
	Update(ctx context.Context, tenantID, id string, in UpdatePrincipalInput) (Principal, error)

	// CredentialByID es la lectura scoped del material de verificación.
	CredentialByID(ctx context.Context, tenantID, id string) (cred Credential, found bool, err error)

	// SetCredential reemplaza salt y digest solo si el digest guardado sigue
	// siendo oldDigest. ErrNotFound si no hay fila visible, ErrConflict si otro
	// cambio ganó.
	SetCredential(ctx context.Context, tenantID, id, oldDigest string, salt []byte, digest string) error
}

// Pinger lo implementan los stores que pueden reportar salud.
type Pinger interface {
	Ping(ctx context.Context) error
}
