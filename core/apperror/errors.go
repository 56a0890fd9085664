package apperror

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Kind represents a category of failure.
type Kind string

const (
	KindValidation    Kind = "VALIDATION_ERROR"
	KindDataShape     Kind = "DATA_SHAPE_ERROR"
	KindResourceLimit Kind = "RESOURCE_LIMIT_ERROR"
	KindTransientItem Kind = "TRANSIENT_ITEM_ERROR"
	KindInternal      Kind = "INTERNAL_ERROR"
)

// Error is a classified failure with context.
type Error struct {
	Kind    Kind
	Message string
	// Detail carries optional technical context such as a stack trace.
	Detail string
	Cause  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new error of the given kind.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Validation creates a validation error with a formatted message.
func Validation(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...), nil)
}

// DataShape creates a data shape error with a formatted message.
func DataShape(format string, args ...any) *Error {
	return New(KindDataShape, fmt.Sprintf(format, args...), nil)
}

// ResourceLimit creates a resource limit error with a formatted message.
func ResourceLimit(format string, args ...any) *Error {
	return New(KindResourceLimit, fmt.Sprintf(format, args...), nil)
}

// Internal wraps an unexpected error.
func Internal(message string, cause error) *Error {
	return New(KindInternal, message, cause)
}

// Wrap wraps an existing error with a kind and message. Errors that already
// carry a kind are returned unchanged so the original classification wins.
func Wrap(err error, kind Kind, message string) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return New(kind, message, err)
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// Recover converts a panic into an Internal error assigned to *errp.
// It must be called directly via defer.
func Recover(errp *error, operation string) {
	if r := recover(); r != nil {
		*errp = &Error{
			Kind:    KindInternal,
			Message: fmt.Sprintf("%s: unexpected failure", operation),
			Detail:  string(debug.Stack()),
			Cause:   fmt.Errorf("panic recovered: %v", r),
		}
	}
}
