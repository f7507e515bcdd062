package httpx

import "dqx0.com/go/urltitle/httpx/internal/http1"

// Header is a parsed request header block keyed by canonical name. The
// client never needs one; httpxtest uses it to report what was received.
type Header map[string][]string

// Get returns the first value for key, matched case-insensitively.
func (h Header) Get(key string) string {
	if vv := h[http1.CanonicalHeaderKey(key)]; len(vv) > 0 {
		return vv[0]
	}
	return ""
}

// Has reports whether key is present.
func (h Header) Has(key string) bool {
	_, ok := h[http1.CanonicalHeaderKey(key)]
	return ok
}
