// Package screens holds the controllers behind the list, detail and form
// screens. A controller fetches when its screen gains focus, exposes the
// row actions the signed-in role may take and only changes what it shows
// after the server confirmed a mutation.
//
// Requests are not cancelled when a screen loses focus. Instead every fetch
// is tagged with a generation and a response is dropped when the screen was
// blurred or a newer fetch started in the meantime. A second action on an
// item whose first action is still in flight fails with ErrBusy.
package screens
