package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Juara-1/warung-backend/internal/auth"
	"github.com/Juara-1/warung-backend/internal/domain/repository"
	"github.com/Juara-1/warung-backend/internal/security/password"
	"github.com/Juara-1/warung-backend/internal/store/memory"
)

var fast = password.Params{Memory: 64, Time: 1, Parallelism: 1, KeyLen: 32, SaltLen: 16}

func newVerifier(t *testing.T) *auth.Verifier {
	t.Helper()
	v, err := auth.NewVerifier(auth.Deps{Store: memory.NewPrincipals(), Params: fast, Policy: password.DefaultPolicy})
	require.NoError(t, err)
	return v
}

func TestCreateAdmin_NonInteractive(t *testing.T) {
	v := newVerifier(t)
	var out bytes.Buffer

	p, err := CreateAdmin(context.Background(), AdminConfig{
		Registrar:   v,
		LoginHandle: "root@x",
		Secret:      "s3cret-admin",
		Out:         &out,
	})
	require.NoError(t, err)
	assert.Equal(t, repository.RoleAdmin, p.Role)
	assert.Contains(t, out.String(), p.ID)

	got, err := v.Verify(context.Background(), "root@x", "s3cret-admin")
	require.NoError(t, err)
	assert.Equal(t, repository.RoleAdmin, got.Role)
}

func TestCreateAdmin_Prompts(t *testing.T) {
	v := newVerifier(t)
	secrets := []string{"prompted1", "prompted1"}
	read := func() (string, error) {
		s := secrets[0]
		secrets = secrets[1:]
		return s, nil
	}

	p, err := CreateAdmin(context.Background(), AdminConfig{
		Registrar:  v,
		In:         strings.NewReader("ops@x\n"),
		Out:        &bytes.Buffer{},
		ReadSecret: read,
	})
	require.NoError(t, err)
	assert.Equal(t, "ops@x", p.LoginHandle)
}

func TestCreateAdmin_MismatchAndDuplicate(t *testing.T) {
	v := newVerifier(t)
	n := 0
	read := func() (string, error) {
		n++
		return strings.Repeat("x", 6+n), nil
	}
	_, err := CreateAdmin(context.Background(), AdminConfig{
		Registrar: v, LoginHandle: "a@x", Out: &bytes.Buffer{}, ReadSecret: read,
	})
	assert.ErrorContains(t, err, "do not match")

	cfg := AdminConfig{Registrar: v, LoginHandle: "dup@x", Secret: "s3cret", Out: &bytes.Buffer{}}
	_, err = CreateAdmin(context.Background(), cfg)
	require.NoError(t, err)
	_, err = CreateAdmin(context.Background(), cfg)
	assert.True(t, errors.Is(err, auth.ErrDuplicateIdentity))
}
