package application

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies every expected flow outcome. The transport layer maps
// a kind to an HTTP status; only KindInternal marks a server-side defect.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindConflict     ErrorKind = "conflict"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindNotFound     ErrorKind = "not_found"
	KindInternal     ErrorKind = "internal"
)

// FlowError is the tagged result every flow returns on failure. Message is
// safe to surface; the wrapped cause never leaves the server.
type FlowError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *FlowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *FlowError) Unwrap() error { return e.Err }

// HTTPStatus maps the kind to a response status. Conflict maps to 400 rather
// than 409, matching the public API contract.
func (e *FlowError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func flowErr(kind ErrorKind, msg string) *FlowError {
	return &FlowError{Kind: kind, Message: msg}
}

func internalErr(msg string, err error) *FlowError {
	return &FlowError{Kind: KindInternal, Message: msg, Err: err}
}

// AsFlowError extracts a *FlowError; unknown errors collapse to KindInternal
// with a generic message.
func AsFlowError(err error) *FlowError {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe
	}
	return &FlowError{Kind: KindInternal, Message: "something went wrong", Err: err}
}
