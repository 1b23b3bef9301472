package session

import (
	"errors"
	"strings"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Validator es el único consumidor de la verificación de firma.
type Validator struct {
	cfg    Config
	parser *jwtv5.Parser
}

func NewValidator(cfg Config) (*Validator, error) {
	cfg, err := cfg.normalized()
	if err != nil {
		return nil, err
	}
	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithIssuedAt(),
		jwtv5.WithLeeway(cfg.Leeway),
		jwtv5.WithTimeFunc(cfg.Now),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwtv5.WithIssuer(cfg.Issuer))
	}
	return &Validator{cfg: cfg, parser: jwtv5.NewParser(opts...)}, nil
}

// Validate verifica firma, estructura y expiración.
func (v *Validator) Validate(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrMissingToken
	}

	var tc tokenClaims
	_, err := v.parser.ParseWithClaims(raw, &tc, func(t *jwtv5.Token) (any, error) {
		return v.cfg.Secret, nil
	})
	switch {
	case err == nil:
	case isOnlyExpired(err):
		return Claims{}, ErrExpiredToken
	default:
		return Claims{}, errors.Join(ErrMalformedToken, err)
	}

	if tc.Subject == "" || tc.TenantID == "" || tc.ExpiresAt == nil || tc.IssuedAt == nil {
		return Claims{}, ErrMalformedToken
	}
	return Claims{
		PrincipalID: tc.Subject,
		TenantID:    tc.TenantID,
		TokenID:     tc.ID,
		IssuedAt:    tc.IssuedAt.Time.UTC(),
		ExpiresAt:   tc.ExpiresAt.Time.UTC(),
	}, nil
}

// ValidateHeader extrae el bearer de un header Authorization y lo valida.
func (v *Validator) ValidateHeader(authorization string) (Claims, error) {
	raw, ok := BearerToken(authorization)
	if !ok {
		return Claims{}, ErrMissingToken
	}
	return v.Validate(raw)
}

// BearerToken devuelve el token de "Bearer <token>" (esquema case-insensitive).
func BearerToken(authorization string) (string, bool) {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(authorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

// isOnlyExpired: la firma y la estructura pasaron y el único claim inválido es exp.
// Firma inválida o issuer ajeno ganan sobre expiración.
func isOnlyExpired(err error) bool {
	if !errors.Is(err, jwtv5.ErrTokenExpired) {
		return false
	}
	for _, other := range []error{
		jwtv5.ErrTokenMalformed,
		jwtv5.ErrTokenSignatureInvalid,
		jwtv5.ErrTokenUnverifiable,
		jwtv5.ErrTokenInvalidIssuer,
		jwtv5.ErrTokenUsedBeforeIssued,
	} {
		if errors.Is(err, other) {
			return false
		}
	}
	return true
}
