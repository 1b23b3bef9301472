// Package app arma el proceso completo a partir de config.Config: store,
// hashing, sesiones, eventos, rate limiting y el servidor HTTP.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/Juara-1/warung-backend/internal/auth"
	"github.com/Juara-1/warung-backend/internal/config"
	"github.com/Juara-1/warung-backend/internal/domain/repository"
	"github.com/Juara-1/warung-backend/internal/events"
	authctrl "github.com/Juara-1/warung-backend/internal/http/controllers/auth"
	healthctrl "github.com/Juara-1/warung-backend/internal/http/controllers/health"
	"github.com/Juara-1/warung-backend/internal/http/helpers"
	"github.com/Juara-1/warung-backend/internal/http/router"
	authsvc "github.com/Juara-1/warung-backend/internal/http/services/auth"
	healthsvc "github.com/Juara-1/warung-backend/internal/http/services/health"
	"github.com/Juara-1/warung-backend/internal/metrics"
	"github.com/Juara-1/warung-backend/internal/observability/logger"
	"github.com/Juara-1/warung-backend/internal/rate"
	"github.com/Juara-1/warung-backend/internal/scope"
	"github.com/Juara-1/warung-backend/internal/security/password"
	"github.com/Juara-1/warung-backend/internal/session"
	"github.com/Juara-1/warung-backend/internal/store"
	"github.com/Juara-1/warung-backend/internal/store/memory"
	"github.com/Juara-1/warung-backend/internal/store/pg"
)

// principalStore es lo que un backend de storage tiene que ofrecer.
type principalStore interface {
	repository.CredentialStore
	repository.PrincipalRepository
	repository.Pinger
}

// Options son valores que no vienen de config.
type Options struct {
	Version string
	Store   principalStore // nil = según cfg.Storage.Driver
}

// App es el proceso cableado.
type App struct {
	cfg        *config.Config
	Handler    http.Handler
	Events     *events.Dispatcher
	Verifier   *auth.Verifier
	Issuer     *session.Issuer
	Validator  *session.Validator
	Scopes     *scope.Factory
	Principals principalStore

	pool  *pgxpool.Pool
	redis *redis.Client
}

// New construye todas las dependencias. Si algo falla, libera lo que ya abrió.
func New(ctx context.Context, cfg *config.Config, opts Options) (_ *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("app: invalid config: %w", err)
	}
	log := logger.L().With(logger.Component("app"))

	a := &App{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	// 1) Storage
	a.Principals = opts.Store
	if a.Principals == nil {
		if a.Principals, err = a.openStore(ctx); err != nil {
			return nil, err
		}
	}
	log.Info("storage ready", logger.String("driver", cfg.Storage.Driver))

	// 2) Redis (solo si algo lo usa)
	if needsRedis(cfg) {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			Password: cfg.Redis.Password,
		})
	}

	// 3) Eventos
	sinks := []events.Sink{events.NewAuditSink(logger.L())}
	if cfg.Events.RedisStream != "" {
		sinks = append(sinks, events.NewRedisStreamSink(a.redis, cfg.Events.RedisStream, cfg.Events.StreamMaxLen))
	}
	a.Events = events.New(cfg.Events.Buffer, cfg.Events.DeliveryTimeout, sinks...)

	// 4) Hashing y política
	policy, err := buildPolicy(cfg)
	if err != nil {
		return nil, err
	}
	a.Verifier, err = auth.NewVerifier(auth.Deps{
		Store:  a.Principals,
		Params: argonParams(cfg),
		Policy: policy,
		Events: a.Events,
	})
	if err != nil {
		return nil, fmt.Errorf("app: verifier: %w", err)
	}

	// 5) Sesiones
	scfg := session.Config{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.AccessTTL,
		Leeway: cfg.JWT.Leeway,
	}
	if a.Issuer, err = session.NewIssuer(scfg); err != nil {
		return nil, fmt.Errorf("app: session issuer: %w", err)
	}
	if a.Validator, err = session.NewValidator(scfg); err != nil {
		return nil, fmt.Errorf("app: session validator: %w", err)
	}
	a.Scopes = scope.NewFactory(a.Principals)

	// 6) HTTP
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		var extra []prometheus.Collector
		if a.pool != nil {
			extra = append(extra, metrics.NewPoolCollector(a.pool))
		}
		if err := metrics.Register(reg, extra...); err != nil {
			return nil, fmt.Errorf("app: metrics: %w", err)
		}
		metricsHandler = metrics.Handler(reg)
	}

	trust, err := helpers.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	authControllers := authctrl.NewControllers(authsvc.NewServices(authsvc.Deps{
		Verifier: a.Verifier,
		Issuer:   a.Issuer,
		Events:   a.Events,
	}))
	healthControllers := healthctrl.NewControllers(healthsvc.NewServices(a.healthDeps(opts.Version)))

	a.Handler = router.New(router.Deps{
		AuthControllers:   authControllers,
		HealthControllers: healthControllers,
		Sessions:          a.Validator,
		Scopes:            a.Scopes,
		LoginLimiter:      a.loginLimiter(),
		TrustedProxies:    trust,
		Metrics:           metricsHandler,
		MetricsPath:       cfg.Metrics.Path,
	})
	return a, nil
}

func (a *App) openStore(ctx context.Context) (principalStore, error) {
	switch a.cfg.Storage.Driver {
	case "postgres":
		pool, err := pg.Open(ctx, pg.PoolConfig{
			DSN:             a.cfg.Storage.DSN,
			MaxConns:        a.cfg.Storage.Postgres.MaxConns,
			MinConns:        a.cfg.Storage.Postgres.MinConns,
			ConnMaxLifetime: a.cfg.Storage.Postgres.ConnMaxLifetime,
			ConnectTimeout:  a.cfg.Storage.Resilience.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		a.pool = pool
		return pg.NewPrincipals(pool, storePolicy(a.cfg)), nil
	default:
		return memory.NewPrincipals(), nil
	}
}

func (a *App) healthDeps(version string) healthsvc.Deps {
	d := healthsvc.Deps{
		StoreCheck:   a.Principals.Ping,
		CheckTimeout: a.cfg.Storage.Resilience.Timeout,
		Version:      version,
	}
	if a.redis != nil {
		d.RedisCheck = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
	}
	return d
}

func (a *App) loginLimiter() rate.Limiter {
	if !a.cfg.Rate.Enabled {
		return nil
	}
	l := a.cfg.Rate.Login
	if a.cfg.Rate.Backend == "redis" {
		return rate.NewRedisLimiter(a.redis, a.cfg.Redis.Prefix+"rl:login:", l.Limit, l.Window)
	}
	return rate.NewMemoryLimiter(l.Limit, l.Window)
}

// Run sirve HTTP y entrega eventos hasta que ctx termina. El apagado cierra
// primero el servidor y después vacía la cola de eventos, así lo publicado
// por requests en curso se entrega.
func (a *App) Run(ctx context.Context) error {
	log := logger.L().With(logger.Component("app"))

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           a.Handler,
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: a.cfg.Server.ReadTimeout,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
		IdleTimeout:       2 * a.cfg.Server.WriteTimeout,
	}

	evCtx, stopEvents := context.WithCancel(context.Background())
	defer stopEvents()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return a.Events.Run(evCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		stopEvents()
		return err
	})

	err := g.Wait()
	log.Info("server exited")
	return err
}

// Close libera pool y cliente Redis. Es seguro llamarlo más de una vez.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	if a.redis != nil {
		_ = a.redis.Close()
		a.redis = nil
	}
}

func needsRedis(cfg *config.Config) bool {
	return (cfg.Rate.Enabled && cfg.Rate.Backend == "redis") || cfg.Events.RedisStream != ""
}

func storePolicy(cfg *config.Config) store.Policy {
	r := cfg.Storage.Resilience
	return store.Policy{
		Timeout:     r.Timeout,
		MaxAttempts: r.MaxAttempts,
		BaseBackoff: r.BaseBackoff,
		MaxBackoff:  r.MaxBackoff,
	}
}

func argonParams(cfg *config.Config) password.Params {
	a := cfg.Password.Argon2
	return password.Params{
		Memory:      a.MemoryKiB,
		Time:        a.Time,
		Parallelism: a.Parallelism,
		KeyLen:      a.KeyLen,
		SaltLen:     a.SaltLen,
	}
}

func buildPolicy(cfg *config.Config) (password.Policy, error) {
	p := cfg.Password.Policy
	policy := password.Policy{
		MinLength:     p.MinLength,
		MaxLength:     p.MaxLength,
		RequireUpper:  p.RequireUpper,
		RequireLower:  p.RequireLower,
		RequireDigit:  p.RequireDigit,
		RequireSymbol: p.RequireSymbol,
	}
	if p.BlacklistPath != "" {
		bl, err := password.LoadBlacklist(p.BlacklistPath)
		if err != nil {
			return password.Policy{}, fmt.Errorf("app: password blacklist: %w", err)
		}
		policy.Blacklist = bl
	}
	return policy, nil
}
