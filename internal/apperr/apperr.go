// Package apperr defines the error kinds the registration core surfaces to callers.
//
// Validation and NotFound errors are "recognized": every layer returns them
// unchanged. Everything else ends up as Allocation or Internal at the orchestrator
// boundary.
package apperr

import (
	"fmt"

	"github.com/pkg/errors"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindAllocation
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAllocation:
		return "allocation"
	default:
		return "internal"
	}
}

// Error is a classified failure with a caller-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// BadRequest reports malformed or inconsistent input.
func BadRequest(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing manufacturer, country, state or product.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Allocation reports that a sequence counter could not be advanced.
func Allocation(err error, name string) *Error {
	return &Error{
		Kind:    KindAllocation,
		Message: fmt.Sprintf("failed to get next sequence value for %s: %v", name, err),
		Err:     err,
	}
}

// Internal wraps an unclassified failure, keeping the original message.
func Internal(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsRecognized reports whether err must be passed through unchanged.
func IsRecognized(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindNotFound:
		return true
	}
	return false
}

func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
