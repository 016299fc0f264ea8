// Package audit records security-relevant actions as immutable, append-only
// events. Recording is best-effort observability: a failed write never
// affects the operation that triggered it.
package audit

import "time"

// Actions are dot-namespaced per domain. Every constructor funnels into the
// same Record primitive with one of these.
const (
	ActionAuthLogin        = "auth.login"
	ActionAuthLoginFailed  = "auth.login_failed"
	ActionAuthLogout       = "auth.logout"
	ActionAuthSignup       = "auth.signup"
	ActionAuthTokenCreated = "auth.token_created"
	ActionAuthTokenRevoked = "auth.token_revoked"

	ActionUserProfileUpdated = "user.profile_updated"

	ActionAdminUserUpdated  = "admin.user_updated"
	ActionAdminUserDeleted  = "admin.user_deleted"
	ActionAdminCreated      = "admin.admin_created"
	ActionAdminAccessDenied = "admin.access_denied"

	ActionSubscriptionUpdated = "subscription.updated"
	ActionSubscriptionRefund  = "subscription.refund_issued"

	ActionSystemRetentionPurge = "system.retention_purge"
)

// Resource types referenced by events.
const (
	ResourceUser         = "user"
	ResourceSession      = "session"
	ResourceToken        = "token"
	ResourceSubscription = "subscription"
	ResourceSystem       = "system"
)

// Event is one write-once audit record. CreatedAt is assigned by the recorder
// when the event is accepted.
type Event struct {
	Action       string         `json:"action"`
	ResourceType string         `json:"resourceType"`
	ResourceID   string         `json:"resourceId,omitempty"`
	ActorID      string         `json:"actorId,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	IPAddress    string         `json:"ipAddress,omitempty"`
	UserAgent    string         `json:"userAgent,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}
