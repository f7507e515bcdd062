package httpx

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"dqx0.com/go/urltitle/internal/obs"
)

const (
	// DefaultMaxRedirects is the hop limit when Client.MaxRedirects is zero.
	DefaultMaxRedirects = 5
	// DefaultTimeout bounds a whole fetch, redirects included, when
	// Client.Timeout is zero.
	DefaultTimeout = 30 * time.Second
)

// Client fetches a URL and follows 301/302 redirects. A Client is immutable
// once in use and may be shared by concurrent callers; each Fetch owns its
// own connections.
type Client struct {
	Transport *Transport
	// Relay, if set, is used for every hop.
	Relay *Relay
	// MaxRedirects bounds the number of hops; 0 means DefaultMaxRedirects and
	// a negative value follows no redirects at all.
	MaxRedirects int
	// Timeout bounds the whole fetch including every hop; 0 means
	// DefaultTimeout and a negative value means no limit beyond ctx. The
	// transport's ReadTimeout only limits the gap between two lines.
	Timeout time.Duration

	Logger obs.Logger
	Meter  obs.Meter
}

// Response is a terminal (status 200) response.
type Response struct {
	Lines   Lines
	Address *Address // the address that answered 200
	Hops    int      // redirects followed
}

// Fetch parses rawURL and fetches it.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	addr, err := ParseAddress(rawURL)
	if err != nil {
		return nil, err
	}
	return c.FetchAddress(ctx, addr)
}

// FetchAddress fetches addr, following redirects. Statuses other than 200,
// 301 and 302 are ErrContent with a *StatusError cause.
func (c *Client) FetchAddress(ctx context.Context, addr *Address) (*Response, error) {
	if to := c.timeout(); to > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, to)
		defer cancel()
	}
	ctx, id := ensureFetchID(ctx)
	log := obs.With(c.logger(), "fetch_id", id)
	start := time.Now()
	limit := c.maxRedirects()

	for hops := 0; ; hops++ {
		url := addr.String()
		if err := ctx.Err(); err != nil {
			return nil, &Error{Op: "redirect", URL: url, Kind: ErrTransport, Err: err}
		}
		lines, err := c.transport().Fetch(ctx, addr, c.Relay)
		if err != nil {
			return nil, err
		}
		code, err := lines.StatusCode()
		if err != nil {
			return nil, &Error{Op: "status", URL: url, Kind: ErrProtocol, Err: err}
		}

		switch code {
		case 200:
			c.getMeter().Histogram("urltitle_fetch_duration_ms", float64(time.Since(start).Milliseconds()))
			log.Logf(obs.Debug, "%s: 200 after %d redirects", url, hops)
			return &Response{Lines: lines, Address: addr, Hops: hops}, nil
		case 301, 302:
			if hops >= limit {
				return nil, &Error{Op: "redirect", URL: url, Kind: ErrRedirect,
					Err: errors.Errorf("stopped after %d redirects", limit)}
			}
			loc, ok := lines.Header("Location")
			if !ok {
				return nil, &Error{Op: "redirect", URL: url, Kind: ErrRedirect,
					Err: errors.Errorf("%d response without Location header", code)}
			}
			next, err := addr.Resolve(loc)
			if err != nil {
				return nil, &Error{Op: "redirect", URL: url, Kind: ErrRedirect, Err: err}
			}
			c.getMeter().Counter("urltitle_redirect_total", 1, obs.Label{Key: "status", Value: strconv.Itoa(code)})
			log.Logf(obs.Debug, "%s: %d to %s", url, code, next)
			addr = next
		default:
			return nil, &Error{Op: "status", URL: url, Kind: ErrContent, Err: &StatusError{Code: code}}
		}
	}
}

func (c *Client) maxRedirects() int {
	switch {
	case c.MaxRedirects == 0:
		return DefaultMaxRedirects
	case c.MaxRedirects < 0:
		return 0
	}
	return c.MaxRedirects
}

func (c *Client) timeout() time.Duration {
	switch {
	case c.Timeout == 0:
		return DefaultTimeout
	case c.Timeout < 0:
		return 0
	}
	return c.Timeout
}

func (c *Client) transport() *Transport {
	if c.Transport != nil {
		return c.Transport
	}
	return DefaultTransport
}

func (c *Client) logger() obs.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return obs.NopLogger{}
}

func (c *Client) getMeter() obs.Meter {
	if c.Meter != nil {
		return c.Meter
	}
	return obs.NopMeter{}
}
