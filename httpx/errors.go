package httpx

import (
	"strconv"

	"github.com/pkg/errors"
)

// Failure kinds. Every error returned by this package matches exactly one of
// these with errors.Is.
var (
	ErrAddress   = errors.New("httpx: invalid address")
	ErrDecode    = errors.New("httpx: malformed percent escape")
	ErrTransport = errors.New("httpx: transport failure")
	ErrProtocol  = errors.New("httpx: protocol violation")
	ErrRedirect  = errors.New("httpx: redirect failure")
	ErrContent   = errors.New("httpx: no usable content")
)

// Error records a failed fetch step.
type Error struct {
	Op   string // parse, dial, write, read, status, redirect
	URL  string
	Kind error // one of the Err* kinds
	Err  error // underlying cause, may be nil
}

func (e *Error) Error() string {
	s := e.Op
	if e.URL != "" {
		s += " " + strconv.Quote(e.URL)
	}
	if e.Err != nil {
		return s + ": " + e.Err.Error()
	}
	return s + ": " + e.Kind.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Timeout reports whether the cause was a timeout.
func (e *Error) Timeout() bool {
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

// StatusError is the cause of an ErrContent failure for a status other than
// 200, 301 or 302.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return "unexpected status " + strconv.Itoa(e.Code) }

// EscapeError reports a malformed percent escape.
type EscapeError struct {
	Seq string
}

func (e EscapeError) Error() string { return "invalid URL escape " + strconv.Quote(e.Seq) }

func (e EscapeError) Unwrap() error { return ErrDecode }
