package ratelimit

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kristianfreeman/saas-starter/internal/platform/httpx"
	"github.com/kristianfreeman/saas-starter/internal/shared"
)

// KeyFunc derives the counter key for a request.
type KeyFunc func(*http.Request) string

// KeyByClient keys on the best-effort client IP, falling back to the shared
// unknown-caller key.
func KeyByClient(r *http.Request) string {
	return shared.ClientKey(r)
}

// KeyByIdentity keys on the authenticated caller id, falling back to the
// client key when no identity is in context.
func KeyByIdentity(r *http.Request) string {
	if identity, ok := shared.IdentityFromContext(r.Context()); ok {
		return identity.ID
	}
	return shared.ClientKey(r)
}

// Middleware applies one policy around a route group. Rate-limit headers are
// attached before the wrapped handler runs, so every response on the route
// carries them, including rejections from later middleware.
type Middleware struct {
	Checker    Checker
	Logger     *slog.Logger
	KeyFunc    KeyFunc
	OnRejected func(keyPrefix string)
}

// Limit wraps next with the given policy.
func (m Middleware) Limit(cfg Config) func(http.Handler) http.Handler {
	keyFunc := m.KeyFunc
	if keyFunc == nil {
		keyFunc = KeyByClient
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := m.Checker.Check(keyFunc(r), cfg)
			SetHeaders(w, res)
			if !res.Allowed {
				if m.OnRejected != nil {
					m.OnRejected(cfg.KeyPrefix)
				}
				if m.Logger != nil {
					m.Logger.Warn("rate limit exceeded",
						slog.String("policy", cfg.KeyPrefix),
						slog.String("path", r.URL.Path))
				}
				retry := time.Until(res.ResetAt).Round(time.Second)
				if retry < time.Second {
					retry = time.Second
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())))
				httpx.RespondError(w, httpx.NewError(httpx.CodeRateLimitExceeded,
					fmt.Sprintf("rate limit exceeded, retry in %s", retry)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LimitPerMethod applies the read policy to GET and HEAD requests and the
// write policy to everything else, so one authenticated route group carries
// both operation classes.
func (m Middleware) LimitPerMethod(read, write Config) func(http.Handler) http.Handler {
	readLimit := m.Limit(read)
	writeLimit := m.Limit(write)
	return func(next http.Handler) http.Handler {
		readNext := readLimit(next)
		writeNext := writeLimit(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				readNext.ServeHTTP(w, r)
				return
			}
			writeNext.ServeHTTP(w, r)
		})
	}
}

// SetHeaders writes the three rate-limit headers from a check result.
func SetHeaders(w http.ResponseWriter, res Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
}
