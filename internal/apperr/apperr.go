// Package apperr classifies client-side failures so every flow can turn an
// error into a single display string at its boundary.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies how a failure is surfaced to the user.
type Kind int

const (
	// KindUnknown is any error not produced by this package.
	KindUnknown Kind = iota
	// KindTransport covers unreachable hosts and non-2xx responses.
	KindTransport
	// KindShape is an unexpected payload shape. Never shown to the user.
	KindShape
	// KindValidation is a missing or invalid local field; blocks the network call.
	KindValidation
	// KindAuthPrecondition is an action that needs a credential that is absent.
	KindAuthPrecondition
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindShape:
		return "shape"
	case KindValidation:
		return "validation"
	case KindAuthPrecondition:
		return "auth_precondition"
	default:
		return "unknown"
	}
}

// Error is a classified failure. Msg is user-facing; Err carries the cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	default:
		return e.Msg
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Transport wraps a network or server failure.
func Transport(op, msg string, err error) *Error {
	return &Error{Kind: KindTransport, Op: op, Msg: msg, Err: err}
}

// Shape wraps a payload that could not be interpreted.
func Shape(op, msg string, err error) *Error {
	return &Error{Kind: KindShape, Op: op, Msg: msg, Err: err}
}

// Validation reports a local field problem.
func Validation(op, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

// AuthPrecondition reports a missing credential.
func AuthPrecondition(op, msg string, err error) *Error {
	return &Error{Kind: KindAuthPrecondition, Op: op, Msg: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message converts err into the string shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return err.Error()
}
