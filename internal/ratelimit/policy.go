package ratelimit

import "time"

// Named policies. Each operation class uses exactly one of these so limits
// stay consistent across routes.
var (
	// PolicyGeneral covers the default API surface.
	PolicyGeneral = Config{Window: 15 * time.Minute, MaxRequests: 100, KeyPrefix: "api"}
	// PolicyAuthSensitive covers login/signup and other credential endpoints.
	PolicyAuthSensitive = Config{Window: 15 * time.Minute, MaxRequests: 5, KeyPrefix: "auth"}
	// PolicyRead covers authenticated read operations.
	PolicyRead = Config{Window: time.Minute, MaxRequests: 60, KeyPrefix: "read"}
	// PolicyWrite covers authenticated mutating operations.
	PolicyWrite = Config{Window: time.Minute, MaxRequests: 10, KeyPrefix: "write"}
)
