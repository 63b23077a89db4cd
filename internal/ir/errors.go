package ir

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes model errors.
type ErrorCode string

const (
	// ErrCodeInvalidExpressionKind indicates a condition tree node of an unsupported shape.
	ErrCodeInvalidExpressionKind ErrorCode = "INVALID_EXPRESSION_KIND"

	// ErrCodeUnknownActivityReference indicates an activity-done condition naming
	// an activity that has not been registered.
	ErrCodeUnknownActivityReference ErrorCode = "UNKNOWN_ACTIVITY_REFERENCE"

	// ErrCodeDuplicateSignalFired indicates a one-shot signal was fired twice.
	ErrCodeDuplicateSignalFired ErrorCode = "DUPLICATE_SIGNAL_FIRED"

	// ErrCodeMalformedStartEventType indicates subprocess composition was given a
	// start condition it cannot extend.
	ErrCodeMalformedStartEventType ErrorCode = "MALFORMED_START_EVENT_TYPE"

	// ErrCodeAlreadyRegistered indicates an activity was registered twice.
	ErrCodeAlreadyRegistered ErrorCode = "ACTIVITY_ALREADY_REGISTERED"

	// ErrCodeUnknownSignal indicates a declarative condition naming an unbound signal.
	ErrCodeUnknownSignal ErrorCode = "UNKNOWN_SIGNAL"

	// ErrCodeUnknownContainer indicates a declarative condition naming an unbound container.
	ErrCodeUnknownContainer ErrorCode = "UNKNOWN_CONTAINER"

	// ErrCodeUnknownResource indicates a model naming an undeclared resource.
	ErrCodeUnknownResource ErrorCode = "UNKNOWN_RESOURCE"

	// ErrCodeInvalidModel indicates a structurally invalid model declaration.
	ErrCodeInvalidModel ErrorCode = "INVALID_MODEL"
)

// ModelError is a programmer or model error detected while building or
// running a simulation. None of these are retried; they abort setup or the run.
type ModelError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Kind is the tag of the offending value (e.g. "float64", "map[xor]").
	Kind string

	// Key is the activity, signal, container or resource key involved.
	Key string

	// Activity names the activity whose setup or lifecycle failed.
	Activity string
}

// Error implements the error interface.
func (e *ModelError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Activity != "" {
		msg += fmt.Sprintf(" (activity=%s)", e.Activity)
	}
	return msg
}

// NewInvalidExpressionError creates a ModelError for an unsupported condition shape.
func NewInvalidExpressionError(kind, message string) *ModelError {
	return &ModelError{
		Code:    ErrCodeInvalidExpressionKind,
		Message: message,
		Kind:    kind,
	}
}

// NewUnknownActivityError creates a ModelError for a dangling activity-done key.
func NewUnknownActivityError(key string) *ModelError {
	return &ModelError{
		Code:    ErrCodeUnknownActivityReference,
		Message: fmt.Sprintf("no activity registered under id or name %q", key),
		Key:     key,
	}
}

// NewDuplicateSignalError creates a ModelError for a signal fired twice.
func NewDuplicateSignalError(signal string) *ModelError {
	return &ModelError{
		Code:    ErrCodeDuplicateSignalFired,
		Message: fmt.Sprintf("signal %q has already been fired", signal),
		Key:     signal,
	}
}

// NewMalformedStartError creates a ModelError for a start condition that
// composition cannot extend.
func NewMalformedStartError(activity, kind string) *ModelError {
	return &ModelError{
		Code:     ErrCodeMalformedStartEventType,
		Message:  fmt.Sprintf("%s is not a valid start condition type", kind),
		Kind:     kind,
		Activity: activity,
	}
}

// NewAlreadyRegisteredError creates a ModelError for a double registration.
func NewAlreadyRegisteredError(activity string) *ModelError {
	return &ModelError{
		Code:     ErrCodeAlreadyRegistered,
		Message:  "activity is already registered",
		Activity: activity,
	}
}

// NewUnknownNameError creates a ModelError for an unbound signal, container or resource name.
func NewUnknownNameError(code ErrorCode, what, name string) *ModelError {
	return &ModelError{
		Code:    code,
		Message: fmt.Sprintf("unknown %s %q", what, name),
		Key:     name,
	}
}

// NewUnknownLevelError creates a ModelError for a container level id the
// container does not declare.
func NewUnknownLevelError(container, id string) *ModelError {
	return &ModelError{
		Code:    ErrCodeUnknownContainer,
		Message: fmt.Sprintf("container %q has no level %q", container, id),
		Key:     container + "/" + id,
	}
}

// NewInvalidModelError creates a ModelError for a malformed model declaration.
func NewInvalidModelError(message string) *ModelError {
	return &ModelError{
		Code:    ErrCodeInvalidModel,
		Message: message,
	}
}

// HasCode returns true if err wraps a ModelError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var me *ModelError
	if errors.As(err, &me) {
		return me.Code == code
	}
	return false
}

// IsInvalidExpression returns true if the error is an INVALID_EXPRESSION_KIND error.
func IsInvalidExpression(err error) bool {
	return HasCode(err, ErrCodeInvalidExpressionKind)
}

// IsUnknownActivity returns true if the error is an UNKNOWN_ACTIVITY_REFERENCE error.
func IsUnknownActivity(err error) bool {
	return HasCode(err, ErrCodeUnknownActivityReference)
}

// IsDuplicateSignal returns true if the error is a DUPLICATE_SIGNAL_FIRED error.
func IsDuplicateSignal(err error) bool {
	return HasCode(err, ErrCodeDuplicateSignalFired)
}

// IsMalformedStart returns true if the error is a MALFORMED_START_EVENT_TYPE error.
func IsMalformedStart(err error) bool {
	return HasCode(err, ErrCodeMalformedStartEventType)
}

// IsAlreadyRegistered returns true if the error is an ACTIVITY_ALREADY_REGISTERED error.
func IsAlreadyRegistered(err error) bool {
	return HasCode(err, ErrCodeAlreadyRegistered)
}
