package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// JWTValidator validates HMAC-signed JWTs. The subject claim must be the user UUID.
type JWTValidator struct {
	secret   []byte
	issuer   string
	audience string
	parser   *jwt.Parser
}

// JWTOption configures a JWTValidator.
type JWTOption func(*JWTValidator)

// WithIssuer requires the iss claim to equal issuer.
func WithIssuer(issuer string) JWTOption {
	return func(v *JWTValidator) {
		v.issuer = issuer
	}
}

// WithAudience requires the aud claim to contain audience.
func WithAudience(audience string) JWTOption {
	return func(v *JWTValidator) {
		v.audience = audience
	}
}

// NewJWTValidator creates a validator for tokens signed with secret.
func NewJWTValidator(secret []byte, opts ...JWTOption) (*JWTValidator, error) {
	if len(secret) == 0 {
		return nil, ErrSecretRequired
	}
	v := &JWTValidator{
		secret: secret,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{
			jwt.SigningMethodHS256.Alg(),
			jwt.SigningMethodHS384.Alg(),
			jwt.SigningMethodHS512.Alg(),
		})),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Validate parses and verifies token.
func (v *JWTValidator) Validate(_ context.Context, token string) (*Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrSessionNotFound
	}

	var claims jwt.RegisteredClaims
	parsed, err := v.parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrSessionExpired
	case err != nil:
		return nil, errors.Join(ErrInvalidSession, err)
	case !parsed.Valid:
		return nil, ErrInvalidSession
	}

	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: token has no expiry", ErrInvalidSession)
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return nil, fmt.Errorf("%w: issuer mismatch", ErrInvalidSession)
	}
	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidSession)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidSession)
	}

	return &Identity{
		UserID:    userID,
		SessionID: claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
