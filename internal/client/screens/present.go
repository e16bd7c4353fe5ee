package screens

import (
	"errors"

	"github.com/dmitrijs2005/eventdesk/internal/client/client"
	"github.com/dmitrijs2005/eventdesk/internal/client/models"
	"github.com/dmitrijs2005/eventdesk/internal/client/services"
	"github.com/dmitrijs2005/eventdesk/internal/client/workflow"
)

// RedirectLogin is the Redirect of outcomes that end the session.
const RedirectLogin = "login"

// Presentation is what a screen shows for a failed operation.
type Presentation struct {
	Message string
	// Retry offers an explicit retry control. Nothing is retried
	// automatically.
	Retry bool
	// Logout means the session is gone; Redirect names where to go.
	Logout   bool
	Redirect string
}

const (
	msgSessionExpired = "Your session has expired. Please sign in again."
	msgSignIn         = "Please sign in to continue."
	msgForbidden      = "Access denied."
	msgNotFound       = "The event could not be found. It may have been removed."
	msgNetwork        = "Cannot reach the server. Check your connection and retry."
	msgServer         = "The server could not complete the request. Please retry."
	msgValidation     = "The request was not accepted. Check the data and try again."
	msgRoleNotAllowed = "Your role is not allowed to do that."
	msgIllegal        = "That action is not available for this event anymore."
	msgBusy           = "Please wait for the current action to finish."
	msgConfirm        = "Rejecting an event cannot be undone. Confirm to continue."
	msgCredentials    = "Enter your email and password."
	msgUnknown        = "Something went wrong."
)

// Present maps an error from any service or screen to what the user sees.
// It is the only place that turns outcome kinds into messages.
func Present(err error) Presentation {
	if err == nil {
		return Presentation{}
	}

	switch {
	case errors.Is(err, services.ErrNotSignedIn):
		return Presentation{Message: msgSignIn, Logout: true, Redirect: RedirectLogin}
	case errors.Is(err, services.ErrMissingCredentials):
		return Presentation{Message: msgCredentials}
	case errors.Is(err, ErrBusy):
		return Presentation{Message: msgBusy}
	case errors.Is(err, ErrConfirmationRequired):
		return Presentation{Message: msgConfirm}
	case errors.Is(err, workflow.ErrRoleNotAllowed):
		return Presentation{Message: msgRoleNotAllowed}
	case errors.Is(err, workflow.ErrIllegalTransition):
		return Presentation{Message: msgIllegal}
	case errors.Is(err, models.ErrInvalidDraft):
		return Presentation{Message: err.Error()}
	}

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return Presentation{Message: msgUnknown}
	}

	switch apiErr.Kind {
	case client.KindUnauthorized:
		return Presentation{Message: msgSessionExpired, Logout: true, Redirect: RedirectLogin}
	case client.KindForbidden:
		return Presentation{Message: msgForbidden}
	case client.KindNotFound:
		return Presentation{Message: orDefault(apiErr.Message, msgNotFound)}
	case client.KindValidation:
		if apiErr.Conflict {
			return Presentation{Message: orDefault(apiErr.Message, client.ConflictMessage)}
		}
		return Presentation{Message: orDefault(apiErr.Message, msgValidation)}
	case client.KindNetworkUnavailable:
		return Presentation{Message: msgNetwork, Retry: true}
	case client.KindServerError:
		return Presentation{Message: msgServer, Retry: true}
	}
	return Presentation{Message: msgUnknown}
}

func orDefault(s, def string) string {
	if s != "" {
		return s
	}
	return def
}
