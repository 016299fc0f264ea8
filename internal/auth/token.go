package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kristianfreeman/saas-starter/internal/shared"
)

// TokenRepo is the persistence surface Tokens needs.
type TokenRepo interface {
	CreateToken(ctx context.Context, token APIToken) (APIToken, error)
	TokenActive(ctx context.Context, id string) (bool, error)
	RevokeToken(ctx context.Context, userID, tokenID string) error
	ListTokens(ctx context.Context, userID string) ([]APIToken, error)
}

// Tokens issues and verifies bearer tokens: an HS256 JWT carrying the caller
// identity, cross-checked against a revocable api_tokens record on every
// verification.
type Tokens struct {
	repo   TokenRepo
	secret []byte
	ttl    time.Duration
}

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// NewTokens constructs a Tokens issuer/verifier. ttl of zero means tokens
// never expire and rely on revocation alone.
func NewTokens(repo TokenRepo, secret string, ttl time.Duration) *Tokens {
	return &Tokens{repo: repo, secret: []byte(secret), ttl: ttl}
}

// Issue creates an API token for the caller and returns the signed bearer
// string alongside the record.
func (t *Tokens) Issue(ctx context.Context, user User, name string) (string, APIToken, error) {
	record, err := t.repo.CreateToken(ctx, APIToken{
		ID:     uuid.NewString(),
		UserID: user.ID,
		Name:   name,
	})
	if err != nil {
		return "", APIToken{}, err
	}

	claims := accessClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  user.ID,
			ID:       record.ID,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if t.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(t.ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", APIToken{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, record, nil
}

// Verify resolves an identity from a bearer string. Malformed or
// bad-signature tokens are ErrInvalidToken, expiry is ErrTokenExpired, and a
// revoked or unknown backing record is ErrInvalidToken.
func (t *Tokens) Verify(ctx context.Context, token string) (shared.Identity, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return shared.Identity{}, ErrTokenExpired
		}
		return shared.Identity{}, ErrInvalidToken
	}
	if claims.Subject == "" || claims.ID == "" {
		return shared.Identity{}, ErrInvalidToken
	}
	active, err := t.repo.TokenActive(ctx, claims.ID)
	if err != nil {
		return shared.Identity{}, fmt.Errorf("auth: verify token: %w", err)
	}
	if !active {
		return shared.Identity{}, ErrInvalidToken
	}
	return shared.Identity{ID: claims.Subject, Email: claims.Email}, nil
}
