// Package apperr defines the error taxonomy shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindNotFound
	KindConflict
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindAuth:
		return "authentication_failed"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUpstream:
		return "upstream_error"
	default:
		return "internal_error"
	}
}

// Error carries a kind, a caller-safe message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Code is the machine-stable identifier sent to clients.
func (e *Error) Code() string { return e.Kind.String() }

// Is matches on kind so callers can write errors.Is(err, apperr.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrAuth       = &Error{Kind: KindAuth}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrUpstream   = &Error{Kind: KindUpstream}
)

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

func Auth(msg string) *Error { return &Error{Kind: KindAuth, Message: msg} }

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

func Upstream(msg string, cause error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Err: cause}
}

func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: cause}
}

// From extracts an *Error, treating anything else as internal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("internal server error", err)
}

// Status maps an error to the HTTP status returned to clients.
func Status(err error) int {
	switch From(err).Kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text safe to show a caller; causes are never included.
func PublicMessage(err error) string {
	e := From(err)
	if e.Kind == KindInternal && e.Message == "" {
		return "internal server error"
	}
	return e.Message
}
