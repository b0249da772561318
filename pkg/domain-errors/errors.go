// Package domainerrors provides the discriminated error taxonomy surfaced by
// commune services. Every failing precondition aborts its operation with one of
// these codes plus context about the record or identity that triggered it.
//
// Stores return pkg/platform/sentinel errors for infrastructure facts; services
// translate those into domain errors at the boundary. Handlers map codes to
// HTTP status via pkg/platform/httputil.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies the class of failure.
type Code string

const (
	// CodeUnauthorized means the caller is not an approved commune member.
	CodeUnauthorized Code = "unauthorized"
	// CodeDuplicateEntity means a counter/id mismatch or a storage-key
	// collision on creation (second writer loses).
	CodeDuplicateEntity Code = "duplicate_entity"
	// CodeNotFound means a referenced record is absent.
	CodeNotFound Code = "not_found"
	// CodeAlreadySettled means the item is already sold or the vote was
	// already cast.
	CodeAlreadySettled Code = "already_settled"
	// CodeExpired means the proposal is past its deadline.
	CodeExpired Code = "expired"
	// CodeInvalidInput covers non-positive prices, empty or oversized text,
	// non-future expiries, and mismatched transfer recipients.
	CodeInvalidInput Code = "invalid_input"

	// Ambient codes for the transport and infrastructure layers.
	CodeBadRequest Code = "bad_request"
	CodeInternal   Code = "internal_error"
	CodeTimeout    Code = "timeout"
)

// Error carries a code, a human-readable message, and an optional cause.
type Error struct {
	code Code
	msg  string
	err  error
}

// New constructs a domain error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

// Newf constructs a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving it for
// errors.Is/As chains.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{code: code, msg: msg, err: err}
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.code, e.msg)
}

func (e *Error) Unwrap() error { return e.err }

// Code returns the discriminant for this error.
func (e *Error) Code() Code { return e.code }

// Message returns the human-readable message without the code prefix.
func (e *Error) Message() string { return e.msg }

// HasCode reports whether err (or anything it wraps) is a domain error with
// the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.code == code {
			return true
		}
		err = de.Unwrap()
		if err == nil {
			return false
		}
	}
	return false
}

// CodeOf returns the code of the outermost domain error in err's chain, or
// CodeInternal when err carries no domain code.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.code
	}
	return CodeInternal
}
