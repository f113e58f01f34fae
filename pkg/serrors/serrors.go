// Package serrors defines the semantic error kinds the service layer returns
// to its transport boundary. Every failure carries a stable kind plus a
// human-readable message; the transport maps kinds to status codes without
// inspecting messages.
package serrors

import (
	"errors"
	"fmt"
)

// Kind is a sentinel marking a semantic error category. Kinds are comparable
// and work with errors.Is through the Error wrapper.
type Kind struct{ name string }

func (k *Kind) Error() string { return k.name }

var (
	// KindValidation marks malformed or missing input: empty title,
	// non-positive amount, empty participant set, self-removal.
	KindValidation = &Kind{"VALIDATION"}
	// KindAuthorization marks a caller lacking the required relationship
	// (membership or ownership) to the target resource.
	KindAuthorization = &Kind{"AUTHORIZATION"}
	// KindNotFound marks a referenced ledger, bill item, or user that does
	// not exist.
	KindNotFound = &Kind{"NOT_FOUND"}
	// KindConflict marks a uniqueness or state invariant violation, e.g.
	// duplicate membership or removing a non-member.
	KindConflict = &Kind{"CONFLICT"}
	// KindInternal marks an unexpected failure in a collaborator.
	KindInternal = &Kind{"INTERNAL"}
)

// Error is a semantic error: a kind, a message, and an optional wrapped cause.
type Error struct {
	kind *Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

// Unwrap exposes the wrapped cause to errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is matches against the kind sentinel as well as the wrapped cause.
func (e *Error) Is(target error) bool {
	return target == e.kind || (e.err != nil && errors.Is(e.err, target))
}

// KindName returns the stable name of the error's kind.
func (e *Error) KindName() string { return e.kind.name }

// Validation builds a VALIDATION error.
func Validation(format string, args ...any) *Error {
	return &Error{kind: KindValidation, msg: fmt.Sprintf(format, args...)}
}

// Authorization builds an AUTHORIZATION error.
func Authorization(format string, args ...any) *Error {
	return &Error{kind: KindAuthorization, msg: fmt.Sprintf(format, args...)}
}

// NotFound builds a NOT_FOUND error.
func NotFound(format string, args ...any) *Error {
	return &Error{kind: KindNotFound, msg: fmt.Sprintf(format, args...)}
}

// Conflict builds a CONFLICT error.
func Conflict(format string, args ...any) *Error {
	return &Error{kind: KindConflict, msg: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected cause.
func Internal(err error, format string, args ...any) *Error {
	return &Error{kind: KindInternal, msg: fmt.Sprintf(format, args...), err: err}
}
