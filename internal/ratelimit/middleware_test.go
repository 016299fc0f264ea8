package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kristianfreeman/saas-starter/internal/shared"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestLimitSetsHeadersOnSuccess(t *testing.T) {
	l := NewLimiter()
	mw := Middleware{Checker: l}
	handler := mw.Limit(Config{Window: time.Minute, MaxRequests: 5, KeyPrefix: "read"})(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := rr.Header().Get("X-RateLimit-Limit"); got != "5" {
		t.Fatalf("limit header = %q", got)
	}
	if got := rr.Header().Get("X-RateLimit-Remaining"); got != "4" {
		t.Fatalf("remaining header = %q", got)
	}
	if rr.Header().Get("X-RateLimit-Reset") == "" {
		t.Fatal("reset header missing")
	}
}

func TestLimitRejectsWithEnvelopeAndRetryAfter(t *testing.T) {
	l := NewLimiter()
	mw := Middleware{Checker: l}
	var rejected []string
	mw.OnRejected = func(prefix string) { rejected = append(rejected, prefix) }
	handler := mw.Limit(Config{Window: time.Minute, MaxRequests: 1, KeyPrefix: "write"})(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After missing")
	}
	if got := rr.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("remaining header = %q", got)
	}

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != "RATE_LIMIT_EXCEEDED" {
		t.Fatalf("code = %q", body.Error.Code)
	}
	if len(rejected) != 1 || rejected[0] != "write" {
		t.Fatalf("OnRejected calls = %v", rejected)
	}
}

func TestLimitPerMethodSelectsPolicy(t *testing.T) {
	l := NewLimiter()
	mw := Middleware{Checker: l}
	read := Config{Window: time.Minute, MaxRequests: 10, KeyPrefix: "read"}
	write := Config{Window: time.Minute, MaxRequests: 2, KeyPrefix: "write"}
	handler := mw.LimitPerMethod(read, write)(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := rr.Header().Get("X-RateLimit-Limit"); got != "10" {
		t.Fatalf("GET limit header = %q, want 10", got)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/", nil))
	if got := rr.Header().Get("X-RateLimit-Limit"); got != "2" {
		t.Fatalf("PATCH limit header = %q, want 2", got)
	}
}

func TestKeyByIdentityPrefersContextIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := KeyByIdentity(req); got != shared.UnknownClientKey {
		t.Fatalf("anonymous key = %q", got)
	}

	ctx := shared.ContextWithIdentity(req.Context(), shared.Identity{ID: "user-1"})
	if got := KeyByIdentity(req.WithContext(ctx)); got != "user-1" {
		t.Fatalf("identity key = %q", got)
	}
}

func TestKeyByClientUsesForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := KeyByClient(req); got != "203.0.113.9" {
		t.Fatalf("key = %q", got)
	}
}
