package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		TrustedProxies  []string      `yaml:"trusted_proxies"` // IPs o CIDRs que pueden fijar X-Forwarded-For
	} `yaml:"server"`

	Storage struct {
		Driver   string `yaml:"driver"` // memory | postgres
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int32         `yaml:"max_conns"`
			MinConns        int32         `yaml:"min_conns"`
			ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
		Resilience struct {
			Timeout     time.Duration `yaml:"timeout"`
			MaxAttempts int           `yaml:"max_attempts"`
			BaseBackoff time.Duration `yaml:"base_backoff"`
			MaxBackoff  time.Duration `yaml:"max_backoff"`
		} `yaml:"resilience"`
	} `yaml:"storage"`

	JWT struct {
		Secret    string        `yaml:"secret"`
		Issuer    string        `yaml:"issuer"`
		AccessTTL time.Duration `yaml:"access_ttl"`
		Leeway    time.Duration `yaml:"leeway"`
	} `yaml:"jwt"`

	Password struct {
		Argon2 struct {
			MemoryKiB   uint32 `yaml:"memory_kib"`
			Time        uint32 `yaml:"time"`
			Parallelism uint8  `yaml:"parallelism"`
			KeyLen      uint32 `yaml:"key_len"`
			SaltLen     int    `yaml:"salt_len"`
		} `yaml:"argon2"`
		Policy struct {
			MinLength     int    `yaml:"min_length"`
			MaxLength     int    `yaml:"max_length"`
			RequireUpper  bool   `yaml:"require_upper"`
			RequireLower  bool   `yaml:"require_lower"`
			RequireDigit  bool   `yaml:"require_digit"`
			RequireSymbol bool   `yaml:"require_symbol"`
			BlacklistPath string `yaml:"blacklist_path"`
		} `yaml:"policy"`
	} `yaml:"password"`

	Rate struct {
		Enabled bool   `yaml:"enabled"`
		Backend string `yaml:"backend"` // memory | redis
		Login   struct {
			Limit  int           `yaml:"limit"`
			Window time.Duration `yaml:"window"`
		} `yaml:"login"`
	} `yaml:"rate"`

	Redis struct {
		Addr     string `yaml:"addr"`
		DB       int    `yaml:"db"`
		Password string `yaml:"password"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`

	Events struct {
		Buffer          int           `yaml:"buffer"`
		DeliveryTimeout time.Duration `yaml:"delivery_timeout"`
		RedisStream     string        `yaml:"redis_stream"` // vacío = sin sink de Redis
		StreamMaxLen    int64         `yaml:"stream_max_len"`
	} `yaml:"events"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
}

// Load lee path (si no es vacío), aplica defaults y luego las variables de
// entorno. No valida: eso lo hace Validate.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	c.applyDefaults()
	c.applyEnvOverrides()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.Postgres.MaxConns == 0 {
		c.Storage.Postgres.MaxConns = 10
	}
	if c.Storage.Postgres.ConnMaxLifetime == 0 {
		c.Storage.Postgres.ConnMaxLifetime = 30 * time.Minute
	}
	if c.Storage.Resilience.Timeout == 0 {
		c.Storage.Resilience.Timeout = 3 * time.Second
	}
	if c.Storage.Resilience.MaxAttempts == 0 {
		c.Storage.Resilience.MaxAttempts = 3
	}
	if c.Storage.Resilience.BaseBackoff == 0 {
		c.Storage.Resilience.BaseBackoff = 50 * time.Millisecond
	}
	if c.Storage.Resilience.MaxBackoff == 0 {
		c.Storage.Resilience.MaxBackoff = time.Second
	}

	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "warung"
	}
	if c.JWT.AccessTTL == 0 {
		c.JWT.AccessTTL = 24 * time.Hour
	}

	a := &c.Password.Argon2
	if a.MemoryKiB == 0 {
		a.MemoryKiB = 64 * 1024
	}
	if a.Time == 0 {
		a.Time = 3
	}
	if a.Parallelism == 0 {
		a.Parallelism = 1
	}
	if a.KeyLen == 0 {
		a.KeyLen = 32
	}
	if a.SaltLen == 0 {
		a.SaltLen = 16
	}
	if c.Password.Policy.MinLength == 0 {
		c.Password.Policy.MinLength = 6
	}
	if c.Password.Policy.MaxLength == 0 {
		c.Password.Policy.MaxLength = 128
	}

	if c.Rate.Backend == "" {
		c.Rate.Backend = "memory"
	}
	if c.Rate.Login.Limit == 0 {
		c.Rate.Login.Limit = 10
	}
	if c.Rate.Login.Window == 0 {
		c.Rate.Login.Window = time.Minute
	}

	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "warung:"
	}

	if c.Events.Buffer == 0 {
		c.Events.Buffer = 256
	}
	if c.Events.DeliveryTimeout == 0 {
		c.Events.DeliveryTimeout = 2 * time.Second
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}

// applyEnvOverrides: pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP / LOG
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvDur("SERVER_READ_TIMEOUT"); ok {
		c.Server.ReadTimeout = v
	}
	if v, ok := getEnvDur("SERVER_WRITE_TIMEOUT"); ok {
		c.Server.WriteTimeout = v
	}
	if v, ok := getEnvDur("SERVER_SHUTDOWN_TIMEOUT"); ok {
		c.Server.ShutdownTimeout = v
	}
	if v, ok := getEnvStr("SERVER_TRUSTED_PROXIES"); ok {
		c.Server.TrustedProxies = splitList(v)
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_CONNS"); ok {
		c.Storage.Postgres.MaxConns = int32(v)
	}
	if v, ok := getEnvInt("POSTGRES_MIN_CONNS"); ok {
		c.Storage.Postgres.MinConns = int32(v)
	}
	if v, ok := getEnvDur("STORAGE_TIMEOUT"); ok {
		c.Storage.Resilience.Timeout = v
	}
	if v, ok := getEnvInt("STORAGE_MAX_ATTEMPTS"); ok {
		c.Storage.Resilience.MaxAttempts = v
	}

	// JWT
	if v, ok := getEnvStr("JWT_SECRET"); ok {
		c.JWT.Secret = v
	}
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvDur("JWT_ACCESS_TTL"); ok {
		c.JWT.AccessTTL = v
	}
	if v, ok := getEnvDur("JWT_LEEWAY"); ok {
		c.JWT.Leeway = v
	}

	// PASSWORD
	if v, ok := getEnvInt("PASSWORD_MIN_LENGTH"); ok {
		c.Password.Policy.MinLength = v
	}
	if v, ok := getEnvStr("PASSWORD_BLACKLIST_PATH"); ok {
		c.Password.Policy.BlacklistPath = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_BACKEND"); ok {
		c.Rate.Backend = strings.ToLower(v)
	}
	if v, ok := getEnvInt("RATE_LOGIN_LIMIT"); ok {
		c.Rate.Login.Limit = v
	}
	if v, ok := getEnvDur("RATE_LOGIN_WINDOW"); ok {
		c.Rate.Login.Window = v
	}

	// REDIS
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Redis.Password = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Redis.Prefix = v
	}

	// EVENTS
	if v, ok := getEnvInt("EVENTS_BUFFER"); ok {
		c.Events.Buffer = v
	}
	if v, ok := getEnvStr("EVENTS_REDIS_STREAM"); ok {
		c.Events.RedisStream = v
	}

	// METRICS
	if v, ok := getEnvBool("METRICS_ENABLED"); ok {
		c.Metrics.Enabled = v
	}
}

// Validate reporta todos los problemas juntos.
func (c *Config) Validate() error {
	var errs []error
	for _, p := range c.Server.TrustedProxies {
		if !validProxy(p) {
			errs = append(errs, fmt.Errorf("server.trusted_proxies: %q is not an IP or CIDR", p))
		}
	}
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q not supported", c.Storage.Driver))
	}
	if c.Storage.Resilience.Timeout <= 0 {
		errs = append(errs, errors.New("storage.resilience.timeout must be > 0"))
	}
	if c.Storage.Resilience.MaxAttempts < 1 || c.Storage.Resilience.MaxAttempts > 10 {
		errs = append(errs, errors.New("storage.resilience.max_attempts must be between 1 and 10"))
	}
	if len(c.JWT.Secret) < 32 {
		errs = append(errs, errors.New("jwt.secret must be at least 32 bytes"))
	}
	if c.JWT.AccessTTL <= 0 {
		errs = append(errs, errors.New("jwt.access_ttl must be > 0"))
	}
	if c.Password.Argon2.SaltLen < 16 {
		errs = append(errs, errors.New("password.argon2.salt_len must be at least 16"))
	}
	if c.Rate.Enabled {
		switch c.Rate.Backend {
		case "memory":
		case "redis":
			if c.Redis.Addr == "" {
				errs = append(errs, errors.New("redis.addr is required for rate.backend=redis"))
			}
		default:
			errs = append(errs, fmt.Errorf("rate.backend %q not supported", c.Rate.Backend))
		}
	}
	if c.Events.RedisStream != "" && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required for events.redis_stream"))
	}
	return errors.Join(errs...)
}

func validProxy(s string) bool {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		_, err := netip.ParsePrefix(s)
		return err == nil
	}
	_, err := netip.ParseAddr(s)
	return err == nil
}

func (c *Config) IsProd() bool { return c.App.Env == "prod" }
