// Package domainerrors provides coded errors shared between services and
// transport. Services attach a Code describing the failure class; the HTTP
// layer maps codes to statuses without inspecting error strings.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeValidation marks missing or malformed input, identified by field.
	CodeValidation Code = "validation_error"
	// CodeInvariantViolation marks a structural invariant failure, such as an
	// ownership percentage sum exceeding 100.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeBadRequest marks an unparseable or otherwise unusable request.
	CodeBadRequest Code = "bad_request"
	// CodeUnauthorized marks a missing, invalid, or expired credential.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks a valid credential with insufficient role.
	CodeForbidden Code = "forbidden"
	// CodeNotFound marks an unknown id or email.
	CodeNotFound Code = "not_found"
	// CodeConflict marks an optimistic-concurrency or uniqueness conflict.
	CodeConflict Code = "conflict"
	// CodeConfiguration marks missing or unusable startup configuration.
	// Components must refuse to operate rather than degrade silently.
	CodeConfiguration Code = "configuration_error"
	// CodeInternal marks everything the caller cannot self-correct.
	CodeInternal Code = "internal_error"
)

// Error is the single error type crossing service boundaries.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause. The cause stays
// reachable through errors.Unwrap for logging; only Code and Message are
// surfaced to clients.
func Wrap(cause error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	var de *Error
	for {
		if errors.As(err, &de) {
			if de.Code == code {
				return true
			}
			err = de.cause
			de = nil
			continue
		}
		return false
	}
}

// Is is a convenience alias for HasCode used at call sites that read better
// as a predicate.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf returns the outermost code of err, or CodeInternal when err carries
// no domain code.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the HTTP status the transport layer writes.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeInvariantViolation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeConfiguration, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
