package audit

import (
	"net/http"

	"github.com/mssola/useragent"

	"github.com/kristianfreeman/saas-starter/internal/shared"
)

// AuthEvent builds an auth.* event attributed to the request's caller.
func AuthEvent(action, actorID string, r *http.Request, details map[string]any) Event {
	return fromRequest(Event{
		Action:       action,
		ResourceType: ResourceSession,
		ResourceID:   actorID,
		ActorID:      actorID,
		Details:      details,
	}, r)
}

// UserEvent builds a user.* event for profile-scoped changes.
func UserEvent(action, actorID string, r *http.Request, details map[string]any) Event {
	return fromRequest(Event{
		Action:       action,
		ResourceType: ResourceUser,
		ResourceID:   actorID,
		ActorID:      actorID,
		Details:      details,
	}, r)
}

// AdminEvent builds an admin.* event where the actor operates on another
// user.
func AdminEvent(action, actorID, subjectUserID string, r *http.Request, details map[string]any) Event {
	return fromRequest(Event{
		Action:       action,
		ResourceType: ResourceUser,
		ResourceID:   subjectUserID,
		ActorID:      actorID,
		Details:      details,
	}, r)
}

// TokenEvent builds an auth.token_* event for API token lifecycle changes.
func TokenEvent(action, actorID, tokenID string, r *http.Request) Event {
	return fromRequest(Event{
		Action:       action,
		ResourceType: ResourceToken,
		ResourceID:   tokenID,
		ActorID:      actorID,
	}, r)
}

// SubscriptionEvent builds a subscription.* event. Webhook-driven events have
// no inbound user request, so r may be nil.
func SubscriptionEvent(action, actorID, subscriptionID string, r *http.Request, details map[string]any) Event {
	return fromRequest(Event{
		Action:       action,
		ResourceType: ResourceSubscription,
		ResourceID:   subscriptionID,
		ActorID:      actorID,
		Details:      details,
	}, r)
}

// SystemEvent builds a system.* event with no actor or request context.
func SystemEvent(action string, details map[string]any) Event {
	return Event{
		Action:       action,
		ResourceType: ResourceSystem,
		Details:      details,
	}
}

// fromRequest attaches caller IP and a summarized user agent. IP derivation
// is shared with the rate limiter so attribution never diverges between the
// two.
func fromRequest(ev Event, r *http.Request) Event {
	if r == nil {
		return ev
	}
	ev.IPAddress = shared.ClientIP(r)
	ev.UserAgent = summarizeUserAgent(r.UserAgent())
	return ev
}

func summarizeUserAgent(raw string) string {
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if name == "" {
		return raw
	}
	summary := name
	if version != "" {
		summary += " " + version
	}
	if os := ua.OS(); os != "" {
		summary += " (" + os + ")"
	}
	return summary
}
