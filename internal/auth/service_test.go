package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserRepo struct {
	byEmail map[string]User
	byID    map[string]User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byEmail: make(map[string]User), byID: make(map[string]User)}
}

func (s *stubUserRepo) CreateUser(_ context.Context, user User) (User, error) {
	if _, exists := s.byEmail[user.Email]; exists {
		return User{}, ErrEmailTaken
	}
	user.IsActive = true
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
	return user, nil
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *stubUserRepo) FindByID(_ context.Context, id string) (User, error) {
	user, ok := s.byID[id]
	if !ok {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

func TestSignupNormalizesAndHashes(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewService(repo, nil, nil)

	user, err := svc.Signup(context.Background(), "  User@Example.COM ", "hunter22", " Ada ")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", user.Email)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "user", user.Role)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "hunter22", user.PasswordHash)
}

func TestSignupDuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.Signup(context.Background(), "a@example.com", "hunter22", "A")
	require.NoError(t, err)
	_, err = svc.Signup(context.Background(), "a@example.com", "hunter22", "A2")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginUniformFailures(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.Signup(context.Background(), "a@example.com", "hunter22", "A")
	require.NoError(t, err)

	inactive := repo.byEmail["a@example.com"]
	inactive.Email = "gone@example.com"
	inactive.IsActive = false
	repo.byEmail["gone@example.com"] = inactive

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.com", "hunter22"},
		{"wrong password", "a@example.com", "wrong"},
		{"inactive account", "gone@example.com", "hunter22"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tc.email, tc.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestLoginSuccess(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewService(repo, nil, nil)

	created, err := svc.Signup(context.Background(), "a@example.com", "hunter22", "A")
	require.NoError(t, err)

	user, err := svc.Login(context.Background(), " A@Example.com ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
}

func TestCreateAccountWithRole(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewService(repo, nil, nil)

	user, err := svc.CreateAccount(context.Background(), "ops@example.com", "hunter22", "Ops", "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Role)
}
