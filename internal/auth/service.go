package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kristianfreeman/saas-starter/internal/shared"
)

// UserRepo is the persistence surface Service needs for accounts.
type UserRepo interface {
	CreateUser(ctx context.Context, user User) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
}

// Service implements credential validation and the Provider entry points the
// pipeline authenticates against.
type Service struct {
	repo     UserRepo
	sessions *SessionStore
	tokens   *Tokens
}

// NewService constructs a Service.
func NewService(repo UserRepo, sessions *SessionStore, tokens *Tokens) *Service {
	return &Service{repo: repo, sessions: sessions, tokens: tokens}
}

// Signup registers a new least-privileged account.
func (s *Service) Signup(ctx context.Context, email, password, name string) (User, error) {
	return s.CreateAccount(ctx, email, password, name, "user")
}

// CreateAccount registers an account with an explicit role. Only the admin
// surface calls this with anything other than "user".
func (s *Service) CreateAccount(ctx context.Context, email, password, name, role string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.repo.CreateUser(ctx, User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		Role:         role,
	})
}

// Login validates email/password credentials. Every failure mode reports the
// same ErrInvalidCredentials so responses do not reveal which part failed.
func (s *Service) Login(ctx context.Context, email, password string) (User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if !user.IsActive {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// AuthenticateSession resolves an identity from the session cookie.
func (s *Service) AuthenticateSession(ctx context.Context, r *http.Request) (shared.Identity, error) {
	return s.sessions.Identity(ctx, r)
}

// AuthenticateBearer resolves an identity from a bearer token string.
func (s *Service) AuthenticateBearer(ctx context.Context, token string) (shared.Identity, error) {
	return s.tokens.Verify(ctx, token)
}

// IssueToken creates an API token for the caller and returns the signed
// bearer string alongside the record.
func (s *Service) IssueToken(ctx context.Context, userID, name string) (string, APIToken, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return "", APIToken{}, err
	}
	return s.tokens.Issue(ctx, user, name)
}

// RevokeToken revokes one of the caller's API tokens.
func (s *Service) RevokeToken(ctx context.Context, userID, tokenID string) error {
	return s.tokens.repo.RevokeToken(ctx, userID, tokenID)
}

// ListTokens returns the caller's active API tokens.
func (s *Service) ListTokens(ctx context.Context, userID string) ([]APIToken, error) {
	return s.tokens.repo.ListTokens(ctx, userID)
}

// Sessions exposes the session store for login/logout handlers.
func (s *Service) Sessions() *SessionStore { return s.sessions }
