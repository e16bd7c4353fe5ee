// Package fakeapi is an in-memory stand-in for the event-management backend.
//
// It serves the REST surface the client talks to (login, profile, event
// lists, review transitions, phase changes, image upload, notifications)
// through a gorilla/mux router, issues HS256 session tokens and keeps a
// per-route call count so tests can assert what went over the wire.
//
// Responses deliberately use the backend's Spanish field names (nombre,
// estado, fase) so the client's normalization is exercised end to end.
package fakeapi
