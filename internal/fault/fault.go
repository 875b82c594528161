// Package fault tags errors with the category of failure so callers can
// branch on cause instead of message text.
package fault

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// Kind is the failure category carried by an Error
type Kind string

const (
	KindNone          Kind = ""
	KindAuth          Kind = "auth"
	KindExecutor      Kind = "executor"
	KindRuntime       Kind = "runtime_lookup"
	KindTimeout       Kind = "timeout"
	KindIntrospection Kind = "introspection"
	KindRequest       Kind = "request"
)

// Error is an error tagged with a Kind
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

// Cause lets errors.Cause see through the tag
func (e *Error) Cause() error { return e.Err }

func (e *Error) Unwrap() error { return e.Err }

// New tags err with kind. A nil err stays nil.
func New(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Errorf builds a tagged error from a format string
func Errorf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Err: errors.Errorf(format, args...)}
}

// Wrap annotates err with msg and tags it with kind
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: errors.Wrap(err, msg)}
}

// KindOf returns the outermost Kind found in err's chain, KindNone if untagged
func KindOf(err error) Kind {
	var fe *Error
	if stderrors.As(err, &fe) {
		return fe.Kind
	}
	return KindNone
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
