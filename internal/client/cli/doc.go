// Package cli provides the interactive eventdesk command-line client.
//
// It wires configuration, the credential store, the API client and the
// services, restores a persisted session and then runs a REPL whose
// commands drive the same screen controllers a graphical front end would.
//
// Key features:
//   - Login / Logout / whoami
//   - Pending and approved lists with role-gated row actions
//   - Approve, reject (confirmed) and phase advance of proposals
//   - Proposal submission and image upload
//   - Notifications and a dashboard fetched concurrently
//   - Explicit retry of the last failed command
//
// A 401 from any command ends the session and brings the login prompt
// back. The REPL is started via App.Run(ctx), which blocks until the user
// exits.
package cli
