// Package errors defines the closed set of failures the API surfaces to
// callers. Anything not covered collapses into Internal so storage and
// transaction details never leak.
package errors

import (
	"fmt"
	"net/http"
)

// Error is a service failure with a stable caller-facing message and the
// HTTP status it maps to. Details is populated only where the contract says
// the caller may see specifics (upstream failures).
type Error struct {
	Message    string `json:"error"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// UpstreamUnavailable reports a failed external fetch. The source name and
// underlying detail are part of the caller-visible payload.
func UpstreamUnavailable(source string, detail error) *Error {
	return &Error{
		Message:    "External data source unavailable",
		Details:    fmt.Sprintf("Could not fetch %s: %v", source, detail),
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// NotFound reports an absent lookup or delete target.
func NotFound(resource string) *Error {
	return &Error{
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// Internal reports an unclassified storage or transaction failure. The
// specific cause is logged server-side, never returned.
func Internal() *Error {
	return &Error{
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
	}
}

// BadRequest reports invalid caller input.
func BadRequest(msg string) *Error {
	return &Error{
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
	}
}
