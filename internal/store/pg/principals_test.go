package pg

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Juara-1/warung-backend/internal/domain/repository"
	"github.com/Juara-1/warung-backend/internal/store"
)

const (
	aliceID = "0b6c2f4e-8a51-4f0e-9a57-3c1d2e9f7a10"
	bobID   = "5d7e1c2a-93b4-4c6f-8e21-7a0f3b9d4c88"
)

var (
	principalCols = []string{"id", "login_handle", "display_name", "role", "created_at", "updated_at"}
	ts            = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	testPolicy    = store.Policy{Timeout: time.Second, MaxAttempts: 2, BaseBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
)

func newRepo(t *testing.T) (*Principals, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPrincipals(mock, testPolicy), mock
}

func expectTenant(mock pgxmock.PgxPoolIface, tenantID string) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT set_config('app.tenant_id', $1, true)")).
		WithArgs(tenantID).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
}

func TestCreate_BindsOwnTenantAndNormalizesHandle(t *testing.T) {
	repo, mock := newRepo(t)
	salt := make([]byte, 16)

	expectTenant(mock, aliceID)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO principals")).
		WithArgs(aliceID, "alice@x", "Alice", "user", pgxmock.AnyArg(), "$argon2id$v=19$m=64,t=1,p=1$abc").
		WillReturnRows(pgxmock.NewRows(principalCols).AddRow(aliceID, "alice@x", "Alice", "user", ts, ts))
	mock.ExpectCommit()

	p, err := repo.Create(context.Background(), repository.CreatePrincipalInput{
		ID: aliceID, LoginHandle: "  Alice@X ", DisplayName: "Alice", Salt: salt, Digest: "$argon2id$v=19$m=64,t=1,p=1$abc",
	})
	require.NoError(t, err)
	assert.Equal(t, aliceID, p.ID)
	assert.Equal(t, "alice@x", p.LoginHandle)
	assert.Equal(t, repository.RoleUser, p.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolationIsConflict(t *testing.T) {
	repo, mock := newRepo(t)

	expectTenant(mock, bobID)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO principals")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "principals_login_handle_uq"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), repository.CreatePrincipalInput{
		ID: bobID, LoginHandle: "alice@x", Salt: make([]byte, 16), Digest: "$argon2id$x",
	})
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialByHandle(t *testing.T) {
	repo, mock := newRepo(t)
	salt := []byte("0123456789abcdef")

	mock.ExpectQuery(regexp.QuoteMeta("FROM auth_credential_by_handle($1)")).
		WithArgs("alice@x").
		WillReturnRows(pgxmock.NewRows(append(principalCols, "password_salt", "password_digest")).
			AddRow(aliceID, "alice@x", "Alice", "user", ts, ts, salt, "$argon2id$digest"))

	cred, found, err := repo.CredentialByHandle(context.Background(), "ALICE@x")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, aliceID, cred.Principal.ID)
	assert.Equal(t, salt, cred.Salt)
	assert.Equal(t, "$argon2id$digest", cred.Digest)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialByHandle_NoRowIsEmptyResult(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM auth_credential_by_handle($1)")).
		WithArgs("ghost@x").
		WillReturnRows(pgxmock.NewRows(append(principalCols, "password_salt", "password_digest")))

	_, found, err := repo.CredentialByHandle(context.Background(), "ghost@x")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_InjectsTenantPredicate(t *testing.T) {
	repo, mock := newRepo(t)

	expectTenant(mock, aliceID)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND id = $2")).
		WithArgs(aliceID, aliceID).
		WillReturnRows(pgxmock.NewRows(principalCols).AddRow(aliceID, "alice@x", "Alice", "user", ts, ts))
	mock.ExpectCommit()

	p, found, err := repo.FindByID(context.Background(), aliceID, aliceID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "alice@x", p.LoginHandle)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_OtherTenantLooksAbsent(t *testing.T) {
	repo, mock := newRepo(t)

	expectTenant(mock, aliceID)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND id = $2")).
		WithArgs(bobID, aliceID).
		WillReturnRows(pgxmock.NewRows(principalCols))
	mock.ExpectCommit()

	_, found, err := repo.FindByID(context.Background(), aliceID, bobID)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_InvalidIDSkipsStore(t *testing.T) {
	repo, mock := newRepo(t)

	_, found, err := repo.FindByID(context.Background(), aliceID, "not-a-uuid")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByHandle(t *testing.T) {
	repo, mock := newRepo(t)

	expectTenant(mock, aliceID)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE lower(login_handle) = $1 AND id = $2")).
		WithArgs("alice@x", aliceID).
		WillReturnRows(pgxmock.NewRows(principalCols).AddRow(aliceID, "alice@x", "Alice", "user", ts, ts))
	mock.ExpectCommit()

	p, found, err := repo.FindByHandle(context.Background(), aliceID, "Alice@X")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, aliceID, p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_NoRowIsNotFound(t *testing.T) {
	repo, mock := newRepo(t)
	name := "Bob"

	expectTenant(mock, aliceID)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE principals")).
		WithArgs(bobID, aliceID, &name, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(principalCols))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), aliceID, bobID, repository.UpdatePrincipalInput{DisplayName: &name})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialByID_ReadsInsideTenant(t *testing.T) {
	repo, mock := newRepo(t)
	salt := []byte("0123456789abcdef")

	expectTenant(mock, aliceID)
	mock.ExpectQuery(regexp.QuoteMeta("password_salt, password_digest FROM principals\nWHERE id = $1 AND id = $2")).
		WithArgs(aliceID, aliceID).
		WillReturnRows(pgxmock.NewRows(append(principalCols, "password_salt", "password_digest")).
			AddRow(aliceID, "alice@x", "Alice", "user", ts, ts, salt, "$argon2id$digest"))
	mock.ExpectCommit()

	cred, found, err := repo.CredentialByID(context.Background(), aliceID, aliceID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, salt, cred.Salt)
	assert.Equal(t, "$argon2id$digest", cred.Digest)

	// id ajeno: el predicado de tenant no matchea
	expectTenant(mock, aliceID)
	mock.ExpectQuery(regexp.QuoteMeta("password_salt, password_digest FROM principals")).
		WithArgs(bobID, aliceID).
		WillReturnRows(pgxmock.NewRows(append(principalCols, "password_salt", "password_digest")))
	mock.ExpectCommit()

	_, found, err = repo.CredentialByID(context.Background(), aliceID, bobID)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetCredential(t *testing.T) {
	repo, mock := newRepo(t)
	salt := make([]byte, 16)

	expectTenant(mock, aliceID)
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND id = $2 AND password_digest = $5")).
		WithArgs(aliceID, aliceID, pgxmock.AnyArg(), "$argon2id$new", "$argon2id$old").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	assert.NoError(t, repo.SetCredential(context.Background(), aliceID, aliceID, "$argon2id$old", salt, "$argon2id$new"))

	expectTenant(mock, aliceID)
	mock.ExpectExec(regexp.QuoteMeta("AND password_digest = $5")).
		WithArgs(bobID, aliceID, pgxmock.AnyArg(), "$argon2id$new", "$argon2id$old").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT password_digest FROM principals")).
		WithArgs(bobID, aliceID).
		WillReturnRows(pgxmock.NewRows([]string{"password_digest"}))
	mock.ExpectRollback()

	err := repo.SetCredential(context.Background(), aliceID, bobID, "$argon2id$old", salt, "$argon2id$new")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetCredential_StaleDigestIsConflict(t *testing.T) {
	repo, mock := newRepo(t)
	salt := make([]byte, 16)

	expectTenant(mock, aliceID)
	mock.ExpectExec(regexp.QuoteMeta("AND password_digest = $5")).
		WithArgs(aliceID, aliceID, pgxmock.AnyArg(), "$argon2id$mine", "$argon2id$old").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT password_digest FROM principals")).
		WithArgs(aliceID, aliceID).
		WillReturnRows(pgxmock.NewRows([]string{"password_digest"}).AddRow("$argon2id$theirs"))
	mock.ExpectRollback()

	err := repo.SetCredential(context.Background(), aliceID, aliceID, "$argon2id$old", salt, "$argon2id$mine")
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetCredential_RetryAfterOwnCommitSucceeds(t *testing.T) {
	repo, mock := newRepo(t)
	salt := make([]byte, 16)

	// el digest guardado ya es el que intentamos escribir
	expectTenant(mock, aliceID)
	mock.ExpectExec(regexp.QuoteMeta("AND password_digest = $5")).
		WithArgs(aliceID, aliceID, pgxmock.AnyArg(), "$argon2id$mine", "$argon2id$old").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT password_digest FROM principals")).
		WithArgs(aliceID, aliceID).
		WillReturnRows(pgxmock.NewRows([]string{"password_digest"}).AddRow("$argon2id$mine"))
	mock.ExpectCommit()

	assert.NoError(t, repo.SetCredential(context.Background(), aliceID, aliceID, "$argon2id$old", salt, "$argon2id$mine"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransientErrorIsRetriedThenUnavailable(t *testing.T) {
	repo, mock := newRepo(t)

	for i := 0; i < testPolicy.MaxAttempts; i++ {
		mock.ExpectBegin().WillReturnError(&pgconn.PgError{Code: "08006"})
	}

	_, _, err := repo.FindByID(context.Background(), aliceID, aliceID)
	assert.ErrorIs(t, err, repository.ErrStoreUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}
