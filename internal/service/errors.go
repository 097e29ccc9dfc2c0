package service

import (
	"database/sql"
	"errors"
)

// Kind classifies a business failure so transports can map it to a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalid
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindLocked
	KindTooManyRequests
)

// Error is a business rule violation reported to API clients.
// Code is a stable machine-readable identifier such as PATIENT_NOT_FOUND.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Is matches another *Error with the same Code, so tests can use errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrReaderNil = errors.New("reader is nil")

	ErrValidation = &Error{Kind: KindInvalid, Code: "VALIDATION_FAILED", Message: "request validation failed"}

	// Raised by the HTTP middleware before a service is reached.
	ErrUnauthenticated = &Error{Kind: KindUnauthorized, Code: "UNAUTHORIZED", Message: "a valid bearer token is required"}
	ErrTokenRevoked    = &Error{Kind: KindUnauthorized, Code: "TOKEN_REVOKED", Message: "token has been revoked"}
	ErrForbidden       = &Error{Kind: KindForbidden, Code: "FORBIDDEN", Message: "insufficient permissions"}
	ErrTooManyRequests = &Error{Kind: KindTooManyRequests, Code: "TOO_MANY_REQUESTS", Message: "too many requests, slow down"}
)

func invalid(code, msg string) *Error {
	return &Error{Kind: KindInvalid, Code: code, Message: msg}
}

func notFound(code, msg string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: msg}
}

func conflict(code, msg string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: msg}
}

func unauthorized(code, msg string) *Error {
	return &Error{Kind: KindUnauthorized, Code: code, Message: msg}
}

func forbidden(code, msg string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: msg}
}

func locked(code, msg string) *Error {
	return &Error{Kind: KindLocked, Code: code, Message: msg}
}

func validationFailed(details map[string]string) *Error {
	return &Error{Kind: KindInvalid, Code: ErrValidation.Code, Message: ErrValidation.Message, Details: details}
}

// AsError extracts a business error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// mapNotFound turns sql.ErrNoRows into the given not-found error and passes anything else through.
func mapNotFound(err error, nf *Error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nf
	}
	return err
}
