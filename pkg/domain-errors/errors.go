// Package domainerrors defines the error taxonomy shared across services.
//
// Domain errors carry a stable machine-readable Code plus a human-readable
// message. Handlers map codes to HTTP statuses in one place (httputil), so
// services never import net/http.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for transport mapping and retry decisions.
type Code string

const (
	// CodeValidation marks malformed or missing caller input.
	CodeValidation Code = "validation_error"
	// CodeInvalidInput marks a value that failed domain-level parsing.
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest marks a structurally broken request.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound marks an unknown deal, actor, material, or action.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a write that lost to a concurrent modification.
	// Safe to retry: evaluation is deterministic given the as-of facts.
	CodeConflict Code = "conflict"
	// CodeUnauthorized marks a request without an established actor.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks an actor acting outside its allowed surface.
	CodeForbidden Code = "forbidden"
	// CodeTimeout marks an operation abandoned due to deadline or cancellation.
	CodeTimeout Code = "timeout"
	// CodeInvariantViolation marks a broken internal assumption. Never caused
	// by caller input; always a bug or corrupted backing state.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal marks backing-service failures. Details are never exposed
	// over the wire.
	CodeInternal Code = "internal_error"
)

// Error is the canonical domain error type.
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

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message while preserving the cause chain.
// Wrapping nil returns nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var domainErr *Error
	for errors.As(err, &domainErr) {
		if domainErr.Code == code {
			return true
		}
		err = domainErr.Unwrap()
		domainErr = nil
	}
	return false
}

// Is is a readability alias for HasCode, matching assertion call sites in tests.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf returns the outermost domain code in the chain, or CodeInternal when
// the error carries no domain classification.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

// MessageOf returns the outermost domain message, or empty for foreign errors.
func MessageOf(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return ""
}
