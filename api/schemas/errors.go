// File: api/schemas/errors.go
package schemas

import (
	"errors"
	"fmt"
)

// ErrorCode is a string type used for structured error reporting from the
// resolver and executor. Using a custom type ensures that only predefined
// constants can appear in outcomes and trace records.
type ErrorCode string

const (
	// ErrCodeInvalidAction marks an action type that is unrecognized or not
	// in the simulation's configured available-action set.
	ErrCodeInvalidAction ErrorCode = "INVALID_ACTION"
	// ErrCodeValidation marks malformed or missing action arguments.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	// ErrCodeNotFound marks a referenced entity that is absent or deleted.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodePolicyUnavailable marks a decision gateway timeout, transport
	// failure, or malformed policy response.
	ErrCodePolicyUnavailable ErrorCode = "POLICY_UNAVAILABLE"
	// ErrCodeStoreUnavailable marks a state-store or persistence I/O
	// failure. This is the one fatal class: it aborts the remainder of the
	// current step.
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
)

// ActionError carries a structured code alongside a human-readable message.
// Every per-agent failure inside a step is expressed as an ActionError so
// the scheduler can fold it into that agent's outcome without aborting the
// round.
type ActionError struct {
	Code    ErrorCode
	Message string
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewActionError builds an ActionError with a formatted message.
func NewActionError(code ErrorCode, format string, args ...any) *ActionError {
	return &ActionError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the structured code from err, unwrapping as needed.
// Errors that carry no code are classified as policy failures when they
// come out of a gateway call; callers that know better should wrap first.
func CodeOf(err error) (ErrorCode, bool) {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Code, true
	}
	return "", false
}

// IsFatal reports whether err must abort the current step rather than be
// captured as a single agent's failed outcome.
func IsFatal(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrCodeStoreUnavailable
}
