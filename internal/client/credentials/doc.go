// Package credentials persists the bearer token and user snapshot of the
// logged-in account.
//
// Two backends exist behind one Backend interface:
//
//   - WebBackend: a JSON file standing in for browser page storage.
//   - SecureBackend: an SQLite keystore whose values are sealed with
//     AES-GCM (see package cryptox).
//
// Open selects one of them from the configured platform at start-up; the
// choice never changes afterwards. Store layers an in-memory session on top
// so a failing backend degrades to "logged in until exit" instead of
// breaking requests.
//
// Writers: login (Save), logout (Clear) and the API client's 401 handler
// (Clear). Nothing else touches the session.
package credentials
