package core

import (
	"fmt"

	"github.com/go-faster/errors"
)

type ErrorKind int

const (
	KindTransport ErrorKind = iota
	KindUnauthorized
	KindNotFound
	KindInvalidInput
	KindInvalidAmount
	KindServerRejected
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindInvalidAmount:
		return "invalid_amount"
	case KindServerRejected:
		return "server_rejected"
	default:
		return "transport"
	}
}

// Error is the typed failure returned by every remote call and local validation.
type Error struct {
	Kind ErrorKind
	// Status is the HTTP status code, zero for local and network failures.
	Status int
	// Reason is a human-readable explanation, for ServerRejected it comes verbatim from the server.
	Reason string
	Err    error
}

var (
	ErrUnauthorized   = &Error{Kind: KindUnauthorized}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrInvalidInput   = &Error{Kind: KindInvalidInput}
	ErrInvalidAmount  = &Error{Kind: KindInvalidAmount}
	ErrTransport      = &Error{Kind: KindTransport}
	ErrServerRejected = &Error{Kind: KindServerRejected}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Status != 0 {
		msg = fmt.Sprintf("%v (status %d)", msg, e.Status)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind,
// so errors.Is(err, core.ErrNotFound) works for any not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func NewError(kind ErrorKind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// KindOf classifies err. Errors that are not *Error are treated as transport failures.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransport
}

// ReasonOf returns the Reason of the first *Error in err's chain.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// WithKind returns err re-labelled as kind, keeping status and reason.
func WithKind(err error, kind ErrorKind) *Error {
	var e *Error
	if errors.As(err, &e) {
		return &Error{Kind: kind, Status: e.Status, Reason: e.Reason, Err: e.Err}
	}
	return &Error{Kind: kind, Err: err}
}
