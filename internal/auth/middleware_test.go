package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kristianfreeman/saas-starter/internal/shared"
)

func authErrorResponse(t *testing.T, sessionErr error) (*httptest.ResponseRecorder, int) {
	t.Helper()
	failures := 0
	mw := Middleware{
		Authenticator: NewAuthenticator(&stubProvider{sessionErr: sessionErr}),
		OnFailure:     func() { failures++ },
	}
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	return rr, failures
}

func TestRequireAuthMapsSentinels(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code string
	}{
		{"no credentials", ErrNoCredentials, "UNAUTHORIZED"},
		{"invalid token", ErrInvalidToken, "INVALID_TOKEN"},
		{"expired token", ErrTokenExpired, "TOKEN_EXPIRED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr, failures := authErrorResponse(t, tc.err)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rr.Code)
			}
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != tc.code {
				t.Fatalf("code = %q, want %q", body.Error.Code, tc.code)
			}
			if failures != 1 {
				t.Fatalf("OnFailure calls = %d", failures)
			}
		})
	}
}

func TestRequireAuthStoresIdentity(t *testing.T) {
	mw := Middleware{
		Authenticator: NewAuthenticator(&stubProvider{sessionIdentity: shared.Identity{ID: "u1", Email: "u1@example.com"}}),
	}
	var seen shared.Identity
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = shared.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/me", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if seen.ID != "u1" || seen.Email != "u1@example.com" {
		t.Fatalf("identity = %+v", seen)
	}
}
