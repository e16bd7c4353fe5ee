package client

import (
	"errors"
	"fmt"
)

// Kind is the small set of outcomes screens branch on. HTTP status codes
// never leave this package.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindValidation
	KindNetworkUnavailable
	KindServerError
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not found"
	case KindValidation:
		return "validation error"
	case KindNetworkUnavailable:
		return "network unavailable"
	case KindServerError:
		return "server error"
	}
	return "unknown"
}

// Sentinels for errors.Is. An *APIError matches the sentinel of its Kind;
// ErrConflict additionally matches a validation error caused by a stale
// state transition.
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrServerError        = errors.New("server error")
	ErrConflict           = errors.New("conflict")
)

// ConflictMessage is used when the backend rejects a transition on an
// already decided proposal without saying why.
const ConflictMessage = "this event was already reviewed; the list has been refreshed"

// APIError is the only error type the client returns for a completed or
// failed round trip.
type APIError struct {
	Kind    Kind
	Message string
	// Conflict marks a rejected state transition: the server state moved
	// on under the caller. Kind is KindValidation.
	Conflict bool
	Err      error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrForbidden:
		return e.Kind == KindForbidden
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrNetworkUnavailable:
		return e.Kind == KindNetworkUnavailable
	case ErrServerError:
		return e.Kind == KindServerError
	case ErrConflict:
		return e.Conflict
	}
	return false
}

// KindOf extracts the outcome kind from err, KindUnknown for errors that did
// not come from the client.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// Retryable reports whether a user-initiated retry can help.
func Retryable(err error) bool {
	k := KindOf(err)
	return k == KindNetworkUnavailable || k == KindServerError
}

func kindForStatus(status int) Kind {
	switch {
	case status == 401:
		return KindUnauthorized
	case status == 403:
		return KindForbidden
	case status == 404:
		return KindNotFound
	case status >= 400 && status < 500:
		return KindValidation
	}
	// 5xx and anything unexpected (redirect loops, 1xx) mean the backend
	// could not serve the request.
	return KindServerError
}
