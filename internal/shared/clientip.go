// Package shared holds request-scoped helpers used by more than one component.
package shared

import (
	"net/http"
	"strings"
)

// UnknownClientKey groups requests whose origin cannot be determined. All
// anonymous traffic without usable forwarding headers shares this key.
const UnknownClientKey = "unknown"

// ClientIP returns the best-effort client address: the first entry of
// X-Forwarded-For, else X-Real-IP, else "". The first forwarded entry is
// trusted as-is; validating it against a known proxy chain would change
// observable attribution and is deliberately not done here.
//
// The rate limiter and the audit recorder both key on this value; keep them
// on this single implementation so IP attribution never diverges.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := forwarded
		if idx := strings.IndexByte(forwarded, ','); idx >= 0 {
			first = forwarded[:idx]
		}
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return ""
}

// ClientKey returns ClientIP or UnknownClientKey when no address could be
// derived.
func ClientKey(r *http.Request) string {
	if ip := ClientIP(r); ip != "" {
		return ip
	}
	return UnknownClientKey
}
