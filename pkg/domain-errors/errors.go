// Package domainerrors provides coded errors for service-level failures.
//
// Stores return sentinel errors (pkg/platform/sentinel) for infrastructure
// facts; services translate them into coded errors so transport layers can
// map a Code to an HTTP status without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation marks input that is well-formed but violates a domain
	// rule, e.g. a role not assignable at a unit's level.
	CodeValidation Code = "validation"

	// CodeInvalidInput marks malformed input (unparseable IDs, empty fields).
	CodeInvalidInput Code = "invalid_input"

	// CodeBadRequest marks requests the transport layer could not interpret.
	CodeBadRequest Code = "bad_request"

	// CodeNotFound marks lookups of entities that do not exist.
	CodeNotFound Code = "not_found"

	// CodeUnauthorized marks requests with no valid session.
	CodeUnauthorized Code = "unauthorized"

	// CodeForbidden marks requests from an authenticated actor who lacks
	// authority over the target (canManage returned false).
	CodeForbidden Code = "forbidden"

	// CodeConflict marks uniqueness violations that are genuine conflicts.
	// Duplicate role grants are NOT conflicts; they are idempotent successes.
	CodeConflict Code = "conflict"

	// CodeInvariantViolation marks states that should be unreachable.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeUnavailable marks backend/store outages, retryable by the user.
	CodeUnavailable Code = "unavailable"

	// CodeInternal marks unexpected failures.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. Compare with HasCode, not type assertions.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded error with a message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap annotates an underlying error with a code and message.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Is delegates to errors.Is; kept so call sites read dErrors.Is uniformly.
func Is(err, target error) bool { return errors.Is(err, target) }
