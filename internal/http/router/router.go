// Package router arma el árbol de rutas HTTP sobre chi.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authctrl "github.com/Juara-1/warung-backend/internal/http/controllers/auth"
	healthctrl "github.com/Juara-1/warung-backend/internal/http/controllers/health"
	httperrors "github.com/Juara-1/warung-backend/internal/http/errors"
	"github.com/Juara-1/warung-backend/internal/http/helpers"
	mw "github.com/Juara-1/warung-backend/internal/http/middlewares"
	"github.com/Juara-1/warung-backend/internal/rate"
	"github.com/Juara-1/warung-backend/internal/scope"
)

const LoginRoute = "/v1/auth/login"

// Deps contiene todo lo que necesita el router.
type Deps struct {
	AuthControllers   *authctrl.Controllers
	HealthControllers *healthctrl.Controllers
	Sessions          mw.SessionValidator
	Scopes            *scope.Factory
	LoginLimiter      rate.Limiter        // nil = sin rate limit
	TrustedProxies    *helpers.ProxyTrust // nil = X-Forwarded-For se ignora
	Metrics           http.Handler        // nil = sin endpoint de métricas
	MetricsPath       string              // default /metrics
}

// New devuelve el handler raíz.
func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithClientIP(d.TrustedProxies),
		mw.WithMetrics(),
		mw.WithLogging(),
		mw.WithSecurityHeaders(),
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	registerHealthRoutes(r, d)
	registerAuthRoutes(r, d)
	registerMeRoutes(r, d)

	return r
}

func registerHealthRoutes(r chi.Router, d Deps) {
	if d.HealthControllers != nil {
		r.Get("/healthz", d.HealthControllers.Health.Healthz)
		r.Get("/readyz", d.HealthControllers.Health.Readyz)
	}
	if d.Metrics != nil {
		path := d.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, d.Metrics)
	}
}

// registerAuthRoutes: rutas públicas. Respuestas con credenciales o tokens no
// se cachean.
func registerAuthRoutes(r chi.Router, d Deps) {
	c := d.AuthControllers
	r.Group(func(r chi.Router) {
		r.Use(mw.WithNoStore())
		r.Post("/v1/auth/register", c.Register.Register)
		r.With(mw.WithRateLimit(mw.RateLimitConfig{
			Limiter: d.LoginLimiter,
			Route:   LoginRoute,
		})).Post(LoginRoute, c.Login.Login)
	})
}

func registerMeRoutes(r chi.Router, d Deps) {
	c := d.AuthControllers
	r.Group(func(r chi.Router) {
		r.Use(mw.WithNoStore(), mw.RequireSession(d.Sessions, d.Scopes))
		r.Get("/v1/me", c.Me.Get)
		r.Patch("/v1/me", c.Me.Update)
		r.Post("/v1/me/password", c.Password.Change)
	})
}
