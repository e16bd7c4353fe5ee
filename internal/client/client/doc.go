// Package client is the authenticated HTTP client of the event-management
// backend.
//
// Every request carries the bearer token of the current session (when there
// is one), an X-Request-ID and a timeout. Responses are reduced to a small
// set of outcome kinds (see Kind) so callers never look at status codes.
//
// A 401 on an authenticated request clears the session exactly once, no
// matter how many requests fail with it concurrently, and then runs the
// hook registered with WithUnauthorizedHook. The client never retries on its
// own.
package client
