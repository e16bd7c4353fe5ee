// Package common contains constants and helpers shared by the eventdesk
// client packages.
package common

// HTTP header names the API client sets on every request.
const (
	AuthorizationHeaderName = "Authorization"
	RequestIDHeaderName     = "X-Request-ID"
	BearerPrefix            = "Bearer "
)

// Storage keys of the persisted session. Both are written and removed
// together.
const (
	TokenStorageKey = "auth_token"
	UserStorageKey  = "auth_user"
)
