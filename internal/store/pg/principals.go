// Package pg implementa los repositorios de identidad sobre PostgreSQL (pgx/v5).
//
// Aislamiento en dos capas independientes:
//   - cada query tenant-scoped lleva un predicado explícito sobre la columna de tenant;
//   - la transacción fija app.tenant_id (set_config local) para que las políticas
//     RLS de la tabla apliquen aunque el predicado faltara.
package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Juara-1/warung-backend/internal/domain/repository"
	"github.com/Juara-1/warung-backend/internal/store"
)

// DB es el subconjunto de pgxpool.Pool que usan los repositorios.
// pgxmock.PgxPoolIface también lo satisface.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

const (
	// principals es su propio ancla de tenant: la columna de tenant es id.
	tenantColumn = "id"

	principalColumns = `id::text, login_handle, display_name, role, created_at, updated_at`

	setTenantSQL = `SELECT set_config('app.tenant_id', $1, true)`

	insertPrincipalSQL = `INSERT INTO principals (id, login_handle, display_name, role, password_salt, password_digest)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + principalColumns

	credentialByHandleSQL = `SELECT ` + principalColumns + `, password_salt, password_digest
FROM auth_credential_by_handle($1)`

	findByIDSQL = `SELECT ` + principalColumns + ` FROM principals
WHERE id = $1 AND ` + tenantColumn + ` = $2`

	findByHandleSQL = `SELECT ` + principalColumns + ` FROM principals
WHERE lower(login_handle) = $1 AND ` + tenantColumn + ` = $2`

	updatePrincipalSQL = `UPDATE principals
SET display_name = COALESCE($3, display_name), role = COALESCE($4, role), updated_at = now()
WHERE id = $1 AND ` + tenantColumn + ` = $2
RETURNING ` + principalColumns

	credentialByIDSQL = `SELECT ` + principalColumns + `, password_salt, password_digest FROM principals
WHERE id = $1 AND ` + tenantColumn + ` = $2`

	// Condicional sobre el digest leído: dos cambios concurrentes no se pisan.
	setCredentialSQL = `UPDATE principals
SET password_salt = $3, password_digest = $4, updated_at = now()
WHERE id = $1 AND ` + tenantColumn + ` = $2 AND password_digest = $5`

	currentDigestSQL = `SELECT password_digest FROM principals
WHERE id = $1 AND ` + tenantColumn + ` = $2`
)

// Principals implementa repository.CredentialStore y repository.PrincipalRepository.
type Principals struct {
	db     DB
	policy store.Policy
}

var (
	_ repository.CredentialStore     = (*Principals)(nil)
	_ repository.PrincipalRepository = (*Principals)(nil)
)

func NewPrincipals(db DB, policy store.Policy) *Principals {
	return &Principals{db: db, policy: policy}
}

// Create corre bajo el tenant del principal nuevo: no hay caller todavía y la
// política de INSERT/RETURNING solo admite la propia fila.
func (r *Principals) Create(ctx context.Context, in repository.CreatePrincipalInput) (repository.Principal, error) {
	role := in.Role
	if role == "" {
		role = repository.RoleUser
	}
	var out repository.Principal
	err := r.policy.Run(ctx, "principals.create", func(ctx context.Context) error {
		return r.inTenant(ctx, in.ID, func(tx pgx.Tx) error {
			p, err := scanPrincipal(tx.QueryRow(ctx, insertPrincipalSQL,
				in.ID, repository.NormalizeHandle(in.LoginHandle), in.DisplayName, string(role), in.Salt, in.Digest))
			if err != nil {
				return mapError("insert principal", err)
			}
			out = p
			return nil
		})
	})
	return out, err
}

func (r *Principals) CredentialByHandle(ctx context.Context, handle string) (repository.Credential, bool, error) {
	var (
		cred  repository.Credential
		found bool
	)
	err := r.policy.Run(ctx, "principals.credential_by_handle", func(ctx context.Context) error {
		var role string
		p := &cred.Principal
		err := r.db.QueryRow(ctx, credentialByHandleSQL, repository.NormalizeHandle(handle)).
			Scan(&p.ID, &p.LoginHandle, &p.DisplayName, &role, &p.CreatedAt, &p.UpdatedAt, &cred.Salt, &cred.Digest)
		if errors.Is(err, pgx.ErrNoRows) {
			found = false
			return nil
		}
		if err != nil {
			return mapError("credential by handle", err)
		}
		p.Role = repository.Role(role)
		found = true
		return nil
	})
	if err != nil || !found {
		return repository.Credential{}, false, err
	}
	return cred, true, nil
}

func (r *Principals) FindByID(ctx context.Context, tenantID, id string) (repository.Principal, bool, error) {
	if !validID(tenantID) || !validID(id) {
		return repository.Principal{}, false, nil
	}
	return r.findOne(ctx, "principals.find_by_id", tenantID, findByIDSQL, id)
}

func (r *Principals) FindByHandle(ctx context.Context, tenantID, handle string) (repository.Principal, bool, error) {
	if !validID(tenantID) {
		return repository.Principal{}, false, nil
	}
	return r.findOne(ctx, "principals.find_by_handle", tenantID, findByHandleSQL, repository.NormalizeHandle(handle))
}

func (r *Principals) findOne(ctx context.Context, op, tenantID, sql string, key string) (repository.Principal, bool, error) {
	var (
		out   repository.Principal
		found bool
	)
	err := r.policy.Run(ctx, op, func(ctx context.Context) error {
		return r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
			p, err := scanPrincipal(tx.QueryRow(ctx, sql, key, tenantID))
			if errors.Is(err, pgx.ErrNoRows) {
				found = false
				return nil
			}
			if err != nil {
				return mapError(op, err)
			}
			out, found = p, true
			return nil
		})
	})
	if err != nil || !found {
		return repository.Principal{}, false, err
	}
	return out, true, nil
}

func (r *Principals) Update(ctx context.Context, tenantID, id string, in repository.UpdatePrincipalInput) (repository.Principal, error) {
	if !validID(tenantID) || !validID(id) {
		return repository.Principal{}, repository.ErrNotFound
	}
	var role *string
	if in.Role != nil {
		s := string(*in.Role)
		role = &s
	}
	var out repository.Principal
	err := r.policy.Run(ctx, "principals.update", func(ctx context.Context) error {
		return r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
			p, err := scanPrincipal(tx.QueryRow(ctx, updatePrincipalSQL, id, tenantID, in.DisplayName, role))
			if errors.Is(err, pgx.ErrNoRows) {
				return repository.ErrNotFound
			}
			if err != nil {
				return mapError("update principal", err)
			}
			out = p
			return nil
		})
	})
	return out, err
}

func (r *Principals) CredentialByID(ctx context.Context, tenantID, id string) (repository.Credential, bool, error) {
	if !validID(tenantID) || !validID(id) {
		return repository.Credential{}, false, nil
	}
	var (
		cred  repository.Credential
		found bool
	)
	err := r.policy.Run(ctx, "principals.credential_by_id", func(ctx context.Context) error {
		return r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
			var role string
			p := &cred.Principal
			err := tx.QueryRow(ctx, credentialByIDSQL, id, tenantID).
				Scan(&p.ID, &p.LoginHandle, &p.DisplayName, &role, &p.CreatedAt, &p.UpdatedAt, &cred.Salt, &cred.Digest)
			if errors.Is(err, pgx.ErrNoRows) {
				found = false
				return nil
			}
			if err != nil {
				return mapError("credential by id", err)
			}
			p.Role = repository.Role(role)
			found = true
			return nil
		})
	})
	if err != nil || !found {
		return repository.Credential{}, false, err
	}
	return cred, true, nil
}

func (r *Principals) SetCredential(ctx context.Context, tenantID, id, oldDigest string, salt []byte, digest string) error {
	if !validID(tenantID) || !validID(id) {
		return repository.ErrNotFound
	}
	return r.policy.Run(ctx, "principals.set_credential", func(ctx context.Context) error {
		return r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
			tag, err := tx.Exec(ctx, setCredentialSQL, id, tenantID, salt, digest, oldDigest)
			if err != nil {
				return mapError("set credential", err)
			}
			if tag.RowsAffected() == 1 {
				return nil
			}
			// 0 filas: o no existe, o el digest cambió. Si ya es el nuestro, un
			// reintento tras commit ambiguo llegó acá y la escritura sí ocurrió.
			var current string
			err = tx.QueryRow(ctx, currentDigestSQL, id, tenantID).Scan(&current)
			switch {
			case errors.Is(err, pgx.ErrNoRows):
				return repository.ErrNotFound
			case err != nil:
				return mapError("set credential", err)
			case current == digest:
				return nil
			default:
				return fmt.Errorf("pg: set credential: %w", repository.ErrConflict)
			}
		})
	})
}

func (r *Principals) Ping(ctx context.Context) error {
	return r.policy.Run(ctx, "principals.ping", r.db.Ping)
}

// inTenant abre una transacción con app.tenant_id fijado y ejecuta fn.
func (r *Principals) inTenant(ctx context.Context, tenantID string, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pg: begin tx: %w", err)
	}
	if _, err := tx.Exec(ctx, setTenantSQL, tenantID); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("pg: bind tenant: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("pg: commit: %w", err)
	}
	return nil
}

func scanPrincipal(row pgx.Row) (repository.Principal, error) {
	var (
		p    repository.Principal
		role string
	)
	if err := row.Scan(&p.ID, &p.LoginHandle, &p.DisplayName, &role, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return repository.Principal{}, err
	}
	p.Role = repository.Role(role)
	return p, nil
}

// mapError traduce unique_violation a ErrConflict; el resto queda para Policy.Run.
func mapError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("pg: %s: %w", op, repository.ErrConflict)
	}
	return fmt.Errorf("pg: %s: %w", op, err)
}

// validID evita mandar al store ids que no son uuid: no pueden existir.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
