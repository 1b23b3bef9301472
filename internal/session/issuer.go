package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/Juara-1/warung-backend/internal/domain/repository"
)

// Issuer es el único productor de tokens. Inmutable después de construido.
type Issuer struct {
	cfg Config
}

// Token es el resultado de Issue.
type Token struct {
	Value  string
	Claims Claims
}

func NewIssuer(cfg Config) (*Issuer, error) {
	cfg, err := cfg.normalized()
	if err != nil {
		return nil, err
	}
	return &Issuer{cfg: cfg}, nil
}

func (i *Issuer) TTL() time.Duration { return i.cfg.TTL }

// Issue firma un token para p. tenant = principal en este modelo.
func (i *Issuer) Issue(p repository.Principal) (Token, error) {
	if p.ID == "" {
		return Token{}, fmt.Errorf("session: principal without id")
	}
	now := i.cfg.Now().UTC().Truncate(time.Second)
	c := Claims{
		PrincipalID: p.ID,
		TenantID:    p.TenantID(),
		TokenID:     uuid.NewString(),
		IssuedAt:    now,
		ExpiresAt:   now.Add(i.cfg.TTL),
	}
	tc := tokenClaims{
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    i.cfg.Issuer,
			Subject:   c.PrincipalID,
			ID:        c.TokenID,
			IssuedAt:  jwtv5.NewNumericDate(c.IssuedAt),
			ExpiresAt: jwtv5.NewNumericDate(c.ExpiresAt),
		},
		TenantID: c.TenantID,
	}
	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, tc).SignedString(i.cfg.Secret)
	if err != nil {
		return Token{}, fmt.Errorf("session: sign: %w", err)
	}
	return Token{Value: signed, Claims: c}, nil
}
