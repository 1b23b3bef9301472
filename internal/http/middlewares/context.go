package middlewares

import (
	"context"

	"github.com/Juara-1/warung-backend/internal/scope"
	"github.com/Juara-1/warung-backend/internal/session"
)

type ctxKey string

const (
	ctxClaimsKey    ctxKey = "claims"
	ctxScopeKey     ctxKey = "scope"
	ctxRequestIDKey ctxKey = "request_id"
)

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// withSession guarda claims y handle. Solo RequireSession lo llama, así que
// un handler nunca ve claims sin validar.
func withSession(ctx context.Context, c session.Claims, h *scope.Handle) context.Context {
	ctx = context.WithValue(ctx, ctxClaimsKey, c)
	return context.WithValue(ctx, ctxScopeKey, h)
}

// GetRequestID retorna "" si WithRequestID no se aplicó.
func GetRequestID(ctx context.Context) string {
	if s, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return s
	}
	return ""
}

// GetClaims retorna las claims validadas del request.
func GetClaims(ctx context.Context) (session.Claims, bool) {
	c, ok := ctx.Value(ctxClaimsKey).(session.Claims)
	return c, ok
}

// GetScope retorna el handle del request, o nil en rutas sin RequireSession.
func GetScope(ctx context.Context) *scope.Handle {
	h, _ := ctx.Value(ctxScopeKey).(*scope.Handle)
	return h
}
