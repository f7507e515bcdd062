package httpx

import (
	"net"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/net/idna"
)

// DefaultPort is used when a URL does not name a port.
const DefaultPort = 80

// Address is a parsed, fetchable URL. Host is always set, lowercase, and in
// its ASCII form; IPv6 literals are stored without brackets.
type Address struct {
	Scheme   string
	Host     string
	Port     int
	Path     string // escaped form, as it goes on the wire
	RawQuery string
	Fragment string
}

// ParseAddress parses a URL. It fails with ErrAddress when the text is not a
// URL or has no scheme or host.
func ParseAddress(raw string) (*Address, error) {
	raw = strings.TrimSpace(raw)
	fail := func(cause error) (*Address, error) {
		return nil, &Error{Op: "parse", URL: raw, Kind: ErrAddress, Err: cause}
	}
	if raw == "" {
		return fail(errors.New("empty URL"))
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fail(err)
	}
	if u.Scheme == "" {
		return fail(errors.New("missing scheme"))
	}
	host := u.Hostname()
	if host == "" {
		return fail(errors.New("missing host"))
	}
	host, err = asciiHost(host)
	if err != nil {
		return fail(err)
	}

	port := DefaultPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return fail(errors.Errorf("invalid port %q", p))
		}
	}

	return &Address{
		Scheme:   u.Scheme,
		Host:     host,
		Port:     port,
		Path:     u.EscapedPath(),
		RawQuery: u.RawQuery,
		Fragment: u.EscapedFragment(),
	}, nil
}

func asciiHost(host string) (string, error) {
	if net.ParseIP(host) != nil {
		return strings.ToLower(host), nil
	}
	for i := 0; i < len(host); i++ {
		if host[i] >= utf8.RuneSelf {
			h, err := idna.Lookup.ToASCII(host)
			return h, errors.Wrapf(err, "host %q", host)
		}
	}
	return strings.ToLower(host), nil
}

// Authority is the host as it appears in a URL or Host header: the port is
// included only when it is not DefaultPort.
func (a *Address) Authority() string {
	h := a.Host
	if strings.Contains(h, ":") {
		h = "[" + h + "]"
	}
	if a.Port != DefaultPort {
		h += ":" + strconv.Itoa(a.Port)
	}
	return h
}

// HostPort is the dial target.
func (a *Address) HostPort() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// RequestURI is path, query and fragment; the path defaults to "/".
func (a *Address) RequestURI() string {
	var b strings.Builder
	if a.Path == "" {
		b.WriteByte('/')
	} else {
		b.WriteString(a.Path)
	}
	if a.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(a.RawQuery)
	}
	if a.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(a.Fragment)
	}
	return b.String()
}

// String returns the absolute URL.
func (a *Address) String() string {
	return a.Scheme + "://" + a.Authority() + a.RequestURI()
}

// Resolve returns the address a redirect Location points at. A location that
// is itself an absolute URL is used as-is; anything else is appended to a's
// scheme and authority as a path. Dot segments are not normalised.
func (a *Address) Resolve(location string) (*Address, error) {
	loc := strings.TrimSpace(location)
	if next, err := ParseAddress(loc); err == nil {
		return next, nil
	}
	if !strings.HasPrefix(loc, "/") {
		loc = "/" + loc
	}
	return ParseAddress(a.Scheme + "://" + a.Authority() + loc)
}
