package pg

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	migrations "github.com/Juara-1/warung-backend/migrations/postgres"
)

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"00001_principals.sql", "00002_tenant_policy.sql"}, files)
}

func TestRunMigrations_UsesEmbeddedRoot(t *testing.T) {
	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}
	require.NoError(t, RunMigrations(context.Background(), nil))
	assert.Equal(t, ".", gotDir)

	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	assert.ErrorContains(t, RunMigrations(context.Background(), nil), "migrate up")
}

func TestPrincipalsMigration_LoginLookupNotUnlockableBySession(t *testing.T) {
	raw, err := fs.ReadFile(migrations.FS, "00001_principals.sql")
	require.NoError(t, err)
	body := string(raw)
	up := body[:strings.Index(body, "-- +goose Down")]

	// Ninguna política puede depender de un GUC que la sesión controla.
	assert.NotContains(t, body, "app.credential_lookup")
	assert.Equal(t, 1, strings.Count(up, "CREATE POLICY"), "solo la política de tenant")
	assert.Contains(t, up, "CREATE POLICY principals_tenant_isolation")
	assert.Contains(t, up, "FORCE ROW LEVEL SECURITY")

	assert.Contains(t, up, "CREATE ROLE warung_credential_lookup NOLOGIN BYPASSRLS")
	assert.Contains(t, up, "ALTER FUNCTION auth_credential_by_handle(text) OWNER TO warung_credential_lookup")
	assert.Contains(t, up, "REVOKE ALL ON FUNCTION auth_credential_by_handle(text) FROM PUBLIC")
	assert.Contains(t, up, "GRANT EXECUTE ON FUNCTION auth_credential_by_handle(text) TO warung_app")
	assert.NotContains(t, up, "warung_app NOLOGIN BYPASSRLS")
}
