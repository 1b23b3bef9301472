// Package session emite y valida tokens de sesión firmados (JWT HS256).
//
// Un token lleva sub (principal), tid (tenant), iat, exp, iss y jti. No hay
// refresh ni revocación: la sesión termina por expiración o se reemplaza
// emitiendo un token nuevo.
package session

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken   = errors.New("session: missing token")
	ErrMalformedToken = errors.New("session: malformed token")
	ErrExpiredToken   = errors.New("session: expired token")
)

// MinSecretLen es el largo mínimo del secreto HMAC.
const MinSecretLen = 32

// Claims es el contenido verificado de un token.
type Claims struct {
	PrincipalID string
	TenantID    string
	TokenID     string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// tokenClaims es la forma en el wire.
type tokenClaims struct {
	jwtv5.RegisteredClaims
	TenantID string `json:"tid"`
}

type Config struct {
	Secret []byte
	Issuer string
	// TTL de la sesión. Default 24h.
	TTL time.Duration
	// Leeway tolera desfase de reloj al validar exp/iat.
	Leeway time.Duration
	// Now permite inyectar el reloj (tests).
	Now func() time.Time
}

const DefaultTTL = 24 * time.Hour

func (c Config) normalized() (Config, error) {
	if len(c.Secret) < MinSecretLen {
		return c, fmt.Errorf("session: secret must be at least %d bytes", MinSecretLen)
	}
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
	if c.TTL < 0 || c.Leeway < 0 {
		return c, errors.New("session: ttl and leeway must be positive")
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c, nil
}
