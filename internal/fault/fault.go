// Package fault defines the typed failures raised by the tree, element and
// server layers. Only the protocol dispatcher turns a Kind into a wire code.
package fault

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidParams
	KindPermissionDenied
	KindElementNotFound
	KindActionFailed
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindInvalidParams:
		return "invalid_params"
	case KindPermissionDenied:
		return "permission_denied"
	case KindElementNotFound:
		return "element_not_found"
	case KindActionFailed:
		return "action_failed"
	case KindTimeout:
		return "timeout"
	default:
		return "internal"
	}
}

// Error is a classified failure. Msg is safe to show to remote clients;
// Err carries the underlying cause for logs.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return newf(KindElementNotFound, format, args...)
}

func ActionFailed(format string, args ...any) *Error {
	return newf(KindActionFailed, format, args...)
}

func InvalidParams(format string, args ...any) *Error {
	return newf(KindInvalidParams, format, args...)
}

func PermissionDenied(format string, args ...any) *Error {
	return newf(KindPermissionDenied, format, args...)
}

func Timeout(format string, args ...any) *Error {
	return newf(KindTimeout, format, args...)
}

// Internal wraps err as an internal failure. The message never reaches the wire.
func Internal(err error, msg string) *Error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// FromContext converts a context error into a Timeout fault.
func FromContext(err error) *Error {
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindTimeout, Msg: "operation cancelled", Err: err}
	}
	return &Error{Kind: KindTimeout, Msg: "operation timed out", Err: err}
}

// KindOf reports the kind of err. Untyped errors are internal, except bare
// context deadline errors which count as timeouts.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindInternal
}

// PublicMessage returns the message a remote client may see for err.
func PublicMessage(err error) string {
	var fe *Error
	if errors.As(err, &fe) && fe.Kind != KindInternal {
		return fe.Msg
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "operation timed out"
	}
	return "internal error"
}
