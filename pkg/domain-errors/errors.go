// Package domainerrors provides coded errors for the ledger's error taxonomy.
//
// Stores return pkg/platform/sentinel errors; services translate them into
// coded errors here; the HTTP layer maps codes to statuses. Callback-channel
// rejections (unknown request, invalid proof, malformed payload) carry
// distinct codes internally but are flattened to one constant-shape response
// at the transport boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies an error category that callers can branch on.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal_error"
	CodeTimeout      Code = "timeout"

	// CodeInvariantViolation marks states that should be unreachable; these are
	// logged loudly but, like every other code, never abort the process.
	CodeInvariantViolation Code = "invariant_violation"

	// Ledger-protocol codes.
	CodeIllegalTransition Code = "illegal_transition"
	CodeUnknownRequest    Code = "unknown_request_id"
	CodeInvalidProof      Code = "invalid_proof"
	CodeMalformedCallback Code = "malformed_callback"
	CodeAlreadyRevealed   Code = "already_revealed"
	CodeDuplicateRequest  Code = "duplicate_request_id"
)

// Error is a coded domain error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause chain for errors.Is / errors.As.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in err's chain carries the given code.
func HasCode(err error, code Code) bool {
	var coded *Error
	for errors.As(err, &coded) {
		if coded.Code == code {
			return true
		}
		if coded.cause == nil {
			break
		}
		err = coded.cause
	}
	return false
}

// Is is a readability alias for HasCode used in assertions.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in err's chain, or CodeInternal when the
// error carries no code.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}

// MessageOf returns the outermost coded message, or empty when uncoded.
func MessageOf(err error) string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Message
	}
	return ""
}
