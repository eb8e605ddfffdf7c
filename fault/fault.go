package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the caller (UI/API layer).
type Kind string

const (
	KindUnknown             Kind = "unknown"
	KindValidation          Kind = "validation"
	KindIllegalTransition   Kind = "illegalTransition"
	KindNotFound            Kind = "notFound"
	KindExpiredGrant        Kind = "expiredGrant"
	KindConcurrencyConflict Kind = "concurrencyConflict"
	KindForbidden           Kind = "forbidden"
	// KindInvariantViolation is the only fatal kind: the operation is aborted
	// and the stored data requires manual repair.
	KindInvariantViolation Kind = "invariantViolation"
)

// Code is a machine-readable failure code.
type Code string

// Error is a typed, recoverable failure.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// New creates an error of the supplied kind and code.
func New(kind Kind, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// With returns a copy of the sentinel carrying a formatted message.
func (e *Error) With(format string, args ...interface{}) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// CodeOf returns the code of err or an empty code for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsFatal reports whether err signals corrupted state.
func IsFatal(err error) bool {
	return KindOf(err) == KindInvariantViolation
}
