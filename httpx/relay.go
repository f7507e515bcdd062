package httpx

import (
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// DefaultRelayPort is used when a relay is given without a port.
const DefaultRelayPort = 80

// Relay is an upstream HTTP proxy. Requests sent through a relay use the
// absolute URL as target and HTTP/1.0.
type Relay struct {
	Host string
	Port int
}

// ParseRelay accepts "host", "host:port" or "http://host:port".
func ParseRelay(s string) (*Relay, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("httpx: empty relay")
	}
	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return nil, errors.Wrap(err, "httpx: relay")
		}
		if u.Scheme != "http" {
			return nil, errors.Errorf("httpx: relay scheme %q not supported", u.Scheme)
		}
		s = u.Host
	}

	host, port := s, ""
	if h, p, err := net.SplitHostPort(s); err == nil {
		host, port = h, p
	}
	host = strings.Trim(host, "[]")
	if host == "" {
		return nil, errors.Errorf("httpx: relay %q has no host", s)
	}
	r := &Relay{Host: host, Port: DefaultRelayPort}
	if port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return nil, errors.Errorf("httpx: relay %q has an invalid port", s)
		}
		r.Port = n
	}
	return r, nil
}

// HostPort is the dial target.
func (r *Relay) HostPort() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

func (r *Relay) String() string { return r.HostPort() }

// RelayFromEnvironment resolves a relay for addr from HTTP_PROXY or ALL_PROXY
// (either case) and honours NO_PROXY. It returns nil, nil when no relay
// applies.
func RelayFromEnvironment(addr *Address) (*Relay, error) {
	if addr == nil {
		return nil, nil
	}
	if noProxyMatch(addr.Host, strconv.Itoa(addr.Port)) {
		return nil, nil
	}
	s := firstEnv("HTTP_PROXY", "http_proxy")
	if s == "" {
		s = firstEnv("ALL_PROXY", "all_proxy")
	}
	if s == "" {
		return nil, nil
	}
	return ParseRelay(s)
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func noProxyMatch(host, port string) bool {
	v := firstEnv("NO_PROXY", "no_proxy")
	if v == "" {
		return false
	}
	host = strings.ToLower(host)
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		if p == "*" {
			return true
		}
		// Scheme prefix: ignore if provided
		if i := strings.Index(p, "://"); i >= 0 {
			p = p[i+3:]
		}
		// CIDR match, only if host is an IP
		if strings.Contains(p, "/") {
			if ip := net.ParseIP(host); ip != nil {
				if _, cidr, err := net.ParseCIDR(p); err == nil && cidr.Contains(ip) {
					return true
				}
			}
			continue
		}
		// Port specific pattern
		patPort := ""
		if h, pp, err := net.SplitHostPort(p); err == nil {
			p, patPort = h, pp
		}
		if patPort != "" && port != patPort {
			continue
		}
		p = strings.Trim(p, "[]")
		if host == p {
			return true
		}
		// Domain suffix match
		if strings.HasPrefix(p, ".") {
			if strings.HasSuffix(host, p) {
				return true
			}
		} else if strings.HasSuffix(host, "."+p) {
			return true
		}
	}
	return false
}
