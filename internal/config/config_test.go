package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)

	c, err := Load("")
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "dev", c.App.Env)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "memory", c.Storage.Driver)
	assert.Equal(t, 3*time.Second, c.Storage.Resilience.Timeout)
	assert.Equal(t, 3, c.Storage.Resilience.MaxAttempts)
	assert.Equal(t, 24*time.Hour, c.JWT.AccessTTL)
	assert.Equal(t, 16, c.Password.Argon2.SaltLen)
	assert.Equal(t, uint32(64*1024), c.Password.Argon2.MemoryKiB)
	assert.Equal(t, 10, c.Rate.Login.Limit)
	assert.Equal(t, time.Minute, c.Rate.Login.Window)
	assert.Equal(t, 256, c.Events.Buffer)
	assert.Equal(t, "/metrics", c.Metrics.Path)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  env: staging
server:
  addr: ":9090"
storage:
  driver: postgres
  dsn: postgres://warung@localhost/warung
  resilience:
    timeout: 500ms
jwt:
  secret: `+secret+`
  access_ttl: 2h
rate:
  enabled: true
  login:
    limit: 3
    window: 30s
`), 0o600))

	t.Setenv("SERVER_ADDR", ":7070")
	t.Setenv("JWT_ACCESS_TTL", "90m")

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "staging", c.App.Env)
	assert.Equal(t, ":7070", c.Server.Addr)
	assert.Equal(t, "postgres", c.Storage.Driver)
	assert.Equal(t, 500*time.Millisecond, c.Storage.Resilience.Timeout)
	assert.Equal(t, 90*time.Minute, c.JWT.AccessTTL)
	assert.True(t, c.Rate.Enabled)
	assert.Equal(t, 3, c.Rate.Login.Limit)
	assert.Equal(t, 30*time.Second, c.Rate.Login.Window)
}

func TestValidate_Errors(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	c.JWT.Secret = "short"
	c.Storage.Driver = "postgres"
	c.Storage.Resilience.Timeout = -time.Second
	c.Password.Argon2.SaltLen = 8
	c.Rate.Enabled = true
	c.Rate.Backend = "redis"

	err = c.Validate()
	require.Error(t, err)
	for _, want := range []string{
		"jwt.secret", "storage.dsn", "storage.resilience.timeout", "salt_len", "redis.addr",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoad_TrustedProxiesFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("SERVER_TRUSTED_PROXIES", " 10.0.0.0/8, ,192.168.1.7 ")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.7"}, c.Server.TrustedProxies)
	require.NoError(t, c.Validate())

	c.Server.TrustedProxies = append(c.Server.TrustedProxies, "lb.internal")
	err = c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.trusted_proxies")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
