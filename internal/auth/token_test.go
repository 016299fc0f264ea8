package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTokenRepo struct {
	active map[string]bool
}

func newStubTokenRepo() *stubTokenRepo {
	return &stubTokenRepo{active: make(map[string]bool)}
}

func (s *stubTokenRepo) CreateToken(_ context.Context, token APIToken) (APIToken, error) {
	token.CreatedAt = time.Now()
	s.active[token.ID] = true
	return token, nil
}

func (s *stubTokenRepo) TokenActive(_ context.Context, id string) (bool, error) {
	return s.active[id], nil
}

func (s *stubTokenRepo) RevokeToken(_ context.Context, _, tokenID string) error {
	if !s.active[tokenID] {
		return ErrTokenNotFound
	}
	s.active[tokenID] = false
	return nil
}

func (s *stubTokenRepo) ListTokens(context.Context, string) ([]APIToken, error) {
	return nil, nil
}

func TestTokenIssueVerifyRoundTrip(t *testing.T) {
	repo := newStubTokenRepo()
	tokens := NewTokens(repo, "secret", time.Hour)

	user := User{ID: "u1", Email: "u1@example.com"}
	signed, record, err := tokens.Issue(context.Background(), user, "ci token")
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	assert.Equal(t, "u1", record.UserID)
	assert.Equal(t, "ci token", record.Name)

	identity, err := tokens.Verify(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.ID)
	assert.Equal(t, "u1@example.com", identity.Email)
}

func TestTokenVerifyGarbage(t *testing.T) {
	tokens := NewTokens(newStubTokenRepo(), "secret", time.Hour)

	_, err := tokens.Verify(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenVerifyWrongSecret(t *testing.T) {
	repo := newStubTokenRepo()
	issuer := NewTokens(repo, "secret-a", time.Hour)
	verifier := NewTokens(repo, "secret-b", time.Hour)

	signed, _, err := issuer.Issue(context.Background(), User{ID: "u1"}, "t")
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenVerifyExpired(t *testing.T) {
	tokens := NewTokens(newStubTokenRepo(), "secret", time.Hour)

	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ID:        "t1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = tokens.Verify(context.Background(), signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenVerifyRevoked(t *testing.T) {
	repo := newStubTokenRepo()
	tokens := NewTokens(repo, "secret", time.Hour)

	signed, record, err := tokens.Issue(context.Background(), User{ID: "u1"}, "t")
	require.NoError(t, err)
	require.NoError(t, repo.RevokeToken(context.Background(), "u1", record.ID))

	_, err = tokens.Verify(context.Background(), signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenVerifyRejectsMissingBackingRecord(t *testing.T) {
	tokens := NewTokens(newStubTokenRepo(), "secret", time.Hour)

	// A structurally valid JWT whose jti has no api_tokens row.
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", ID: "ghost"},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = tokens.Verify(context.Background(), signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenVerifyRejectsEmptyClaims(t *testing.T) {
	tokens := NewTokens(newStubTokenRepo(), "secret", time.Hour)

	claims := accessClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = tokens.Verify(context.Background(), signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
