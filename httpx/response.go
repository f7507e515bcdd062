package httpx

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Lines is a raw response: the status line followed by every other line the
// peer sent, headers and body alike. Lines keep a trailing '\r' when the
// peer used CRLF.
type Lines []string

// StatusCode parses the second whitespace-separated token of the status
// line.
func (l Lines) StatusCode() (int, error) {
	if len(l) == 0 {
		return 0, errors.Wrap(ErrProtocol, "empty response")
	}
	f := strings.Fields(l[0])
	if len(f) < 2 {
		return 0, errors.Wrapf(ErrProtocol, "malformed status line %q", l[0])
	}
	code, err := strconv.Atoi(f[1])
	if err != nil {
		return 0, errors.Wrapf(ErrProtocol, "malformed status code %q", f[1])
	}
	return code, nil
}

// Header returns the value of the first line after the status line whose
// text before the first ':' is exactly name. One space after the colon is
// skipped and the value ends at the first '\r'.
//
// There is no header/body boundary: a matching line in the body is found
// just the same if no header matched first.
func (l Lines) Header(name string) (string, bool) {
	if len(l) < 2 {
		return "", false
	}
	for _, line := range l[1:] {
		k, v, ok := strings.Cut(line, ":")
		if !ok || k != name {
			continue
		}
		v = strings.TrimPrefix(v, " ")
		if i := strings.IndexByte(v, '\r'); i >= 0 {
			v = v[:i]
		}
		return v, true
	}
	return "", false
}

// IsHTML reports whether the Content-Type, without parameters, is exactly
// text/html.
func (l Lines) IsHTML() bool {
	ct, ok := l.Header("Content-Type")
	if !ok {
		return false
	}
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return ct == "text/html"
}

// Text joins all lines with newlines.
func (l Lines) Text() string {
	return strings.Join(l, "\n")
}
