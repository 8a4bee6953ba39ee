package extractor

import (
	"context"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid bearer token")
)

// Identity is the authenticated caller, as asserted by the hosted auth
// service's token. Token keeps the raw credential so downstream store calls
// run under the caller's own access rules.
type Identity struct {
	UserID string
	Email  string
	Token  string
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func FromContext(ctx context.Context) (Identity, error) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.UserID == "" {
		return Identity{}, ErrMissingToken
	}
	return id, nil
}

type Extractor interface {
	FromAuthHeader(header string) (Identity, error)
}

type extractor struct {
	secret []byte
}

func New(secret string) Extractor {
	return &extractor{secret: []byte(secret)}
}

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// FromAuthHeader parses "Bearer <jwt>" and returns the caller identity.
func (e *extractor) FromAuthHeader(header string) (Identity, error) {
	const scheme = "Bearer "
	if !strings.HasPrefix(header, scheme) {
		return Identity{}, ErrMissingToken
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, scheme))
	if raw == "" {
		return Identity{}, ErrMissingToken
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return e.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}

	return Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Token:  raw,
	}, nil
}
