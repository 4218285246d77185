package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed ledger operation for callers
type ErrorKind string

const (
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindUnauthorized      ErrorKind = "UNAUTHORIZED"
	KindForbidden         ErrorKind = "FORBIDDEN"
	KindInvalidArgument   ErrorKind = "INVALID_ARGUMENT"
	KindInsufficientFunds ErrorKind = "INSUFFICIENT_FUNDS"
	KindConflict          ErrorKind = "CONFLICT"
	KindInternal          ErrorKind = "INTERNAL"
)

// Error is the only error type the ledger engine returns to its callers.
// Message is safe to show to an end user; Err keeps the underlying cause for logs.
type Error struct {
	Kind    ErrorKind
	Reason  FailureReason
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind. A target without a reason
// matches every reason of that kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

// Retryable reports whether the caller may resubmit the same request unchanged
func (e *Error) Retryable() bool {
	return e.Kind == KindConflict
}

// NewError creates an error without an underlying cause
func NewError(kind ErrorKind, reason FailureReason, message string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message}
}

// WrapError attaches a cause that is kept out of the user-facing message
func WrapError(kind ErrorKind, reason FailureReason, message string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message, Err: err}
}

// Kind sentinels for errors.Is checks
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrInvalidArgument   = &Error{Kind: KindInvalidArgument}
	ErrInsufficientFunds = &Error{Kind: KindInsufficientFunds}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrInternal          = &Error{Kind: KindInternal}
)

// KindOf returns the kind of the first *Error in err's chain, or KindInternal
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// AsError returns err as *Error, wrapping foreign errors as internal store failures
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return WrapError(KindInternal, FailureReasonStoreFailure, "internal ledger failure", err)
}
