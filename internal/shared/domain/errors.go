package domain

import (
	"errors"
	"fmt"
)

// Kind classifies failures so adapters can map them to their own codes.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindInternal   Kind = "internal"
)

// Kind sentinels. errors.Is(err, ErrConflict) holds for every conflict error.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrInternal   = errors.New("internal error")
)

// Error is a classified failure with a caller-safe message.
type Error struct {
	kind    Kind
	message string
	cause   error
}

// NewValidationError reports malformed or missing input.
func NewValidationError(message string) *Error {
	return &Error{kind: KindValidation, message: message}
}

// NewNotFoundError reports a missing resource.
func NewNotFoundError(message string) *Error {
	return &Error{kind: KindNotFound, message: message}
}

// NewConflictError reports a violated state precondition.
func NewConflictError(message string) *Error {
	return &Error{kind: KindConflict, message: message}
}

// NewInternalError hides cause behind a generic message.
func NewInternalError(cause error) *Error {
	return &Error{kind: KindInternal, message: "internal error", cause: cause}
}

// Validationf builds a validation error that also matches cause.
func Validationf(cause error, format string, args ...any) *Error {
	return &Error{kind: KindValidation, message: fmt.Sprintf(format, args...), cause: cause}
}

// Conflictf builds a conflict error that also matches cause.
func Conflictf(cause error, format string, args ...any) *Error {
	return &Error{kind: KindConflict, message: fmt.Sprintf(format, args...), cause: cause}
}

func (e *Error) Error() string { return e.message }

// Kind returns the error classification.
func (e *Error) Kind() Kind { return e.kind }

// Unwrap exposes the cause for errors.Is and logging. It is never part of Error().
func (e *Error) Unwrap() error { return e.cause }

// Is matches the kind sentinel of this error.
func (e *Error) Is(target error) bool {
	switch e.kind {
	case KindValidation:
		return target == ErrValidation
	case KindNotFound:
		return target == ErrNotFound
	case KindConflict:
		return target == ErrConflict
	case KindInternal:
		return target == ErrInternal
	}
	return false
}

// KindOf classifies err. Unclassified errors are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.kind
	}
	return KindInternal
}

// Classify wraps unclassified errors as internal and returns classified ones unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return NewInternalError(err)
}
