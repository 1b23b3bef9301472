package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Juara-1/warung-backend/internal/domain/repository"
	"github.com/Juara-1/warung-backend/internal/events"
	"github.com/Juara-1/warung-backend/internal/scope"
	"github.com/Juara-1/warung-backend/internal/security/password"
	"github.com/Juara-1/warung-backend/internal/session"
	"github.com/Juara-1/warung-backend/internal/store/memory"
)

var fast = password.Params{Memory: 64, Time: 1, Parallelism: 1, KeyLen: 32, SaltLen: 16}

type published struct {
	mu  sync.Mutex
	evs []events.Event
}

func (p *published) Publish(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evs = append(p.evs, e)
}

func (p *published) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.evs))
	for _, e := range p.evs {
		out = append(out, e.Type)
	}
	return out
}

func newVerifier(t *testing.T) (*Verifier, *memory.Principals, *published) {
	t.Helper()
	st := memory.NewPrincipals()
	pub := &published{}
	v, err := NewVerifier(Deps{Store: st, Params: fast, Policy: password.DefaultPolicy, Events: pub})
	require.NoError(t, err)
	return v, st, pub
}

func TestAliceScenario(t *testing.T) {
	v, st, _ := newVerifier(t)
	ctx := context.Background()

	alice, err := v.Register(ctx, RegisterInput{LoginHandle: "alice@x", Secret: "s3cret"})
	require.NoError(t, err)

	// lookup por handle: el shape retornado no tiene salt ni digest
	found, ok, err := st.FindByHandle(ctx, alice.ID, "alice@x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, alice.ID, found.ID)
	assert.IsType(t, repository.Principal{}, found)

	got, err := v.Verify(ctx, "alice@x", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = v.Verify(ctx, "alice@x", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	cfg := session.Config{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		TTL:    time.Minute,
		Now:    func() time.Time { return now },
	}
	iss, err := session.NewIssuer(cfg)
	require.NoError(t, err)
	tok, err := iss.Issue(got)
	require.NoError(t, err)

	cfg.Now = func() time.Time { return now.Add(2 * time.Minute) }
	val, err := session.NewValidator(cfg)
	require.NoError(t, err)
	_, err = val.Validate(tok.Value)
	assert.ErrorIs(t, err, session.ErrExpiredToken)
}

func TestRegister_DuplicateCaseInsensitive(t *testing.T) {
	v, _, pub := newVerifier(t)
	ctx := context.Background()

	_, err := v.Register(ctx, RegisterInput{LoginHandle: "Alice@X", Secret: "s3cret-1"})
	require.NoError(t, err)

	_, err = v.Register(ctx, RegisterInput{LoginHandle: "alice@x", Secret: "s3cret-2"})
	assert.ErrorIs(t, err, ErrDuplicateIdentity)

	// el segundo intento no pisó al primero
	_, err = v.Verify(ctx, "alice@x", "s3cret-1")
	assert.NoError(t, err)
	assert.Equal(t, []events.Type{events.PrincipalRegistered, events.PrincipalAuthenticated}, pub.types())
}

func TestRegister_Validation(t *testing.T) {
	v, _, _ := newVerifier(t)
	ctx := context.Background()

	_, err := v.Register(ctx, RegisterInput{LoginHandle: "a b@x", Secret: "s3cret"})
	assert.ErrorIs(t, err, ErrInvalidHandle)

	_, err = v.Register(ctx, RegisterInput{LoginHandle: "ab", Secret: "s3cret"})
	assert.ErrorIs(t, err, ErrInvalidHandle)

	_, err = v.Register(ctx, RegisterInput{LoginHandle: "bob@x", Secret: "abc"})
	var pe *PolicyError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, []string{"too_short"}, pe.Reasons)

	p, err := v.Register(ctx, RegisterInput{LoginHandle: " Bob@X ", Secret: "s3cret", DisplayName: "  Bob "})
	require.NoError(t, err)
	assert.Equal(t, "bob@x", p.LoginHandle)
	assert.Equal(t, "Bob", p.DisplayName)
	assert.Equal(t, repository.RoleUser, p.Role)
}

func TestVerify_UnknownHandle(t *testing.T) {
	v, _, pub := newVerifier(t)

	_, err := v.Verify(context.Background(), "ghost@x", "whatever")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NotErrorIs(t, err, ErrInvalidCredential)

	require.Len(t, pub.evs, 1)
	assert.Equal(t, events.AuthenticationFailed, pub.evs[0].Type)
	assert.Equal(t, "unknown_handle", pub.evs[0].Attrs["reason"])
	assert.Equal(t, "gh***@x", pub.evs[0].Attrs["handle"])
}

type downStore struct{ repository.CredentialStore }

func (downStore) CredentialByHandle(context.Context, string) (repository.Credential, bool, error) {
	return repository.Credential{}, false, repository.ErrStoreUnavailable
}

func TestVerify_StoreUnavailable(t *testing.T) {
	v, err := NewVerifier(Deps{Store: downStore{}, Params: fast})
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), "alice@x", "s3cret")
	assert.ErrorIs(t, err, repository.ErrStoreUnavailable)
}

func TestChangeSecret(t *testing.T) {
	v, st, pub := newVerifier(t)
	ctx := context.Background()

	alice, err := v.Register(ctx, RegisterInput{LoginHandle: "alice@x", Secret: "s3cret"})
	require.NoError(t, err)
	h := scope.NewFactory(st).ForRequest(session.Claims{PrincipalID: alice.ID, TenantID: alice.ID})

	assert.ErrorIs(t, v.ChangeSecret(ctx, h, "wrong", "n3w-secret"), ErrInvalidCredential)

	var pe *PolicyError
	assert.True(t, errors.As(v.ChangeSecret(ctx, h, "s3cret", "x"), &pe))

	require.NoError(t, v.ChangeSecret(ctx, h, "s3cret", "n3w-secret"))

	_, err = v.Verify(ctx, "alice@x", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredential)
	_, err = v.Verify(ctx, "alice@x", "n3w-secret")
	assert.NoError(t, err)
	assert.Contains(t, pub.types(), events.SecretChanged)
}

func TestChangeSecret_OtherTenantHandle(t *testing.T) {
	v, st, _ := newVerifier(t)
	ctx := context.Background()

	_, err := v.Register(ctx, RegisterInput{LoginHandle: "alice@x", Secret: "s3cret"})
	require.NoError(t, err)
	bob, err := v.Register(ctx, RegisterInput{LoginHandle: "bob@x", Secret: "s3cret"})
	require.NoError(t, err)

	// claims inconsistentes (sub de bob, tid ajeno) no alcanzan ninguna fila
	h := scope.NewFactory(st).ForRequest(session.Claims{PrincipalID: bob.ID, TenantID: "other"})
	assert.ErrorIs(t, v.ChangeSecret(ctx, h, "s3cret", "n3w-secret"), repository.ErrNotFound)
}

// racingRepo simula otro cambio de secreto que commitea entre la lectura y la
// escritura de ChangeSecret.
type racingRepo struct {
	*memory.Principals
}

func (r racingRepo) CredentialByID(ctx context.Context, tenantID, id string) (repository.Credential, bool, error) {
	cred, found, err := r.Principals.CredentialByID(ctx, tenantID, id)
	if err == nil && found {
		salt, digest, herr := password.Hash(fast, "other-secret")
		if herr != nil {
			return repository.Credential{}, false, herr
		}
		if serr := r.Principals.SetCredential(ctx, tenantID, id, cred.Digest, salt, digest); serr != nil {
			return repository.Credential{}, false, serr
		}
	}
	return cred, found, err
}

func TestChangeSecret_ConcurrentChangeIsConflict(t *testing.T) {
	v, st, pub := newVerifier(t)
	ctx := context.Background()

	alice, err := v.Register(ctx, RegisterInput{LoginHandle: "alice@x", Secret: "s3cret"})
	require.NoError(t, err)
	h := scope.NewFactory(racingRepo{st}).ForRequest(session.Claims{PrincipalID: alice.ID, TenantID: alice.ID})

	assert.ErrorIs(t, v.ChangeSecret(ctx, h, "s3cret", "n3w-secret"), repository.ErrConflict)
	assert.NotContains(t, pub.types(), events.SecretChanged)

	// gana el cambio que commiteó primero
	_, err = v.Verify(ctx, "alice@x", "n3w-secret")
	assert.ErrorIs(t, err, ErrInvalidCredential)
	_, err = v.Verify(ctx, "alice@x", "other-secret")
	assert.NoError(t, err)
}
