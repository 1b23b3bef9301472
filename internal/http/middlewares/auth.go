package middlewares

import (
	"errors"
	"net/http"

	httperrors "github.com/Juara-1/warung-backend/internal/http/errors"
	"github.com/Juara-1/warung-backend/internal/metrics"
	"github.com/Juara-1/warung-backend/internal/observability/logger"
	"github.com/Juara-1/warung-backend/internal/scope"
	"github.com/Juara-1/warung-backend/internal/session"
)

// SessionValidator lo implementa *session.Validator.
type SessionValidator interface {
	ValidateHeader(authorization string) (session.Claims, error)
}

// RequireSession valida el Bearer token y deja en el contexto las claims y el
// handle acotado al tenant. Cualquier falla del token es el mismo 401; el
// motivo solo queda en logs y métricas.
func RequireSession(v SessionValidator, f *scope.Factory) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := v.ValidateHeader(r.Header.Get("Authorization"))
			if err != nil {
				reason := rejectReason(err)
				metrics.SessionRejects.WithLabelValues(reason).Inc()
				logger.From(r.Context()).Debug("session rejected",
					logger.Layer("middleware"),
					logger.Reason(reason),
				)
				w.Header().Set("WWW-Authenticate", `Bearer realm="warung"`)
				httperrors.WriteError(w, httperrors.ErrUnauthenticated.WithCause(err))
				return
			}

			ctx := withSession(r.Context(), claims, f.ForRequest(claims))
			ctx = logger.ToContext(ctx, logger.From(ctx).With(
				logger.TenantID(claims.TenantID),
				logger.PrincipalID(claims.PrincipalID),
			))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, session.ErrMissingToken):
		return "missing"
	case errors.Is(err, session.ErrExpiredToken):
		return "expired"
	default:
		return "malformed"
	}
}
