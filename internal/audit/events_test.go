package audit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthEventAttachesRequestContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	ev := AuthEvent(ActionAuthLogin, "u1", req, map[string]any{"k": "v"})

	assert.Equal(t, ActionAuthLogin, ev.Action)
	assert.Equal(t, ResourceSession, ev.ResourceType)
	assert.Equal(t, "u1", ev.ActorID)
	assert.Equal(t, "203.0.113.7", ev.IPAddress)
	assert.True(t, strings.HasPrefix(ev.UserAgent, "Chrome"), "user agent = %q", ev.UserAgent)
	assert.Contains(t, ev.UserAgent, "Linux")
}

func TestAdminEventSeparatesActorAndSubject(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/api/admin/users/u2", nil)

	ev := AdminEvent(ActionAdminUserDeleted, "boss", "u2", req, nil)

	assert.Equal(t, "boss", ev.ActorID)
	assert.Equal(t, "u2", ev.ResourceID)
	assert.Equal(t, ResourceUser, ev.ResourceType)
}

func TestSubscriptionEventTolerantOfNilRequest(t *testing.T) {
	ev := SubscriptionEvent(ActionSubscriptionUpdated, "u1", "sub_1", nil, nil)

	assert.Equal(t, "sub_1", ev.ResourceID)
	assert.Empty(t, ev.IPAddress)
	assert.Empty(t, ev.UserAgent)
}

func TestSystemEventHasNoActor(t *testing.T) {
	ev := SystemEvent(ActionSystemRetentionPurge, map[string]any{"removed": 3})

	assert.Equal(t, ResourceSystem, ev.ResourceType)
	assert.Empty(t, ev.ActorID)
}

func TestSummarizeUserAgentEmpty(t *testing.T) {
	assert.Equal(t, "", summarizeUserAgent(""))
}
