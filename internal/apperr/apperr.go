// Package apperr defines the failure taxonomy shared by the assistant and
// matching paths.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	Internal Kind = iota
	RateLimited
	UpstreamInvalid
	UpstreamUnavailable
	DataMissing
	PermissionDenied
)

func (k Kind) String() string {
	switch k {
	case RateLimited:
		return "rate_limited"
	case UpstreamInvalid:
		return "upstream_invalid"
	case UpstreamUnavailable:
		return "upstream_unavailable"
	case DataMissing:
		return "data_missing"
	case PermissionDenied:
		return "permission_denied"
	default:
		return "internal"
	}
}

// Sentinels for errors.Is checks against a Kind.
var (
	ErrRateLimited         = &Error{Kind: RateLimited}
	ErrUpstreamInvalid     = &Error{Kind: UpstreamInvalid}
	ErrUpstreamUnavailable = &Error{Kind: UpstreamUnavailable}
	ErrDataMissing         = &Error{Kind: DataMissing}
	ErrPermissionDenied    = &Error{Kind: PermissionDenied}
)

// Error is a classified failure. Op names the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	var s string
	switch {
	case e.Op != "" && e.Msg != "":
		s = e.Op + ": " + e.Msg
	case e.Op != "":
		s = e.Op
	case e.Msg != "":
		s = e.Msg
	default:
		s = e.Kind.String()
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so the package sentinels work with
// errors.Is regardless of Op or Msg.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New returns a classified error with a formatted message.
func New(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. A nil err returns nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Upstream wraps a failed model or embedding call. Every failure, including
// deadline expiry and cancellation, is reported as UpstreamUnavailable.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: UpstreamUnavailable, Op: op, Msg: "timed out", Err: err}
	}
	return &Error{Kind: UpstreamUnavailable, Op: op, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}
