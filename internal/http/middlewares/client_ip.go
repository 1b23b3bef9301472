package middlewares

import (
	"net/http"

	"github.com/Juara-1/warung-backend/internal/http/helpers"
)

// WithClientIP resuelve el IP del cliente una vez por request. X-Forwarded-For
// solo cuenta si el peer está en trust; trust nil usa siempre RemoteAddr.
func WithClientIP(trust *helpers.ProxyTrust) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := helpers.WithClientIP(r.Context(), trust.Resolve(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
