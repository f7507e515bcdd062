package httpx

import (
	"bufio"
	"context"
	"io"
	"net"
	"time"

	"github.com/pkg/errors"

	"dqx0.com/go/urltitle/httpx/internal/http1"
	"dqx0.com/go/urltitle/internal/obs"
)

// Transport performs one GET per call on a fresh connection and returns the
// response as lines. The response ends when the peer closes the connection;
// Content-Length and chunked framing are not interpreted.
//
// A Transport holds only configuration and is safe for concurrent use.
type Transport struct {
	DialTimeout  time.Duration
	ReadTimeout  time.Duration // idle timeout, reset before every line
	WriteTimeout time.Duration
	// MaxResponseBytes fails the fetch with ErrProtocol once exceeded; 0
	// means unlimited.
	MaxResponseBytes int64

	Logger obs.Logger
	Meter  obs.Meter
}

// DefaultMaxResponseBytes is the response cap set by NewTransport.
const DefaultMaxResponseBytes = 1 << 20

// DefaultTransport is used by Client when Transport is nil.
var DefaultTransport = NewTransport()

// NewTransport returns a new Transport with defaults.
func NewTransport() *Transport {
	return &Transport{
		DialTimeout:  5 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Second,

		MaxResponseBytes: DefaultMaxResponseBytes,
	}
}

// Fetch sends a GET for addr, directly or through relay, and reads the whole
// response. The connection is closed before Fetch returns.
func (t *Transport) Fetch(ctx context.Context, addr *Address, relay *Relay) (Lines, error) {
	if addr == nil {
		return nil, &Error{Op: "dial", Kind: ErrAddress, Err: errors.New("nil address")}
	}
	url := addr.String()
	log := t.logger(ctx)
	fail := func(op string, kind, err error) (Lines, error) {
		// A cancelled ctx shows up as an I/O timeout from the forced
		// deadline; report the cancellation instead.
		if cerr := ctx.Err(); cerr != nil {
			err = cerr
		} else if dl, ok := ctx.Deadline(); ok && !time.Now().Before(dl) {
			err = context.DeadlineExceeded
		}
		t.metricCounter("urltitle_fetch_error_total", 1, obs.Label{Key: "stage", Value: op})
		log.Logf(obs.Debug, "%s %s failed: %v", op, url, err)
		return nil, &Error{Op: op, URL: url, Kind: kind, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return fail("dial", ErrTransport, err)
	}

	target := addr.HostPort()
	if relay != nil {
		target = relay.HostPort()
	}
	d := net.Dialer{Timeout: t.DialTimeout}
	c, err := d.DialContext(ctx, "tcp", target)
	if err != nil {
		return fail("dial", ErrTransport, err)
	}
	defer c.Close()
	stop := context.AfterFunc(ctx, func() { _ = c.SetDeadline(time.Now()) })
	defer stop()

	req := newRequest(addr, relay)
	log.Logf(obs.Debug, "GET %s via %s", req.Target, target)

	setWriteDeadlineWithContext(c, t.WriteTimeout, ctx)
	if err := http1.WriteRequest(bufio.NewWriter(c), req); err != nil {
		return fail("write", ErrTransport, err)
	}

	lr := &http1.LineReader{BR: bufio.NewReader(c), MaxBytes: t.MaxResponseBytes}
	var lines Lines
	for {
		// The deadline is set before checking ctx, so a cancellation that
		// races with it is still seen by the AfterFunc above.
		setReadDeadlineWithContext(c, t.ReadTimeout, ctx)
		if err := ctx.Err(); err != nil {
			return fail("read", ErrTransport, err)
		}
		line, err := lr.ReadLine()
		if err == io.EOF {
			break
		}
		if errors.Is(err, http1.ErrTooLarge) {
			return fail("read", ErrProtocol, err)
		}
		if err != nil {
			return fail("read", ErrTransport, err)
		}
		lines = append(lines, line)
	}
	t.metricCounter("urltitle_fetch_total", 1)
	return lines, nil
}

// newRequest builds the request head. Through a relay the target is the
// absolute URL and HTTP/1.0 is used. Directly, HTTP/1.1 needs a Host header
// and Connection: close since the end of the response is the close.
func newRequest(addr *Address, relay *Relay) http1.Request {
	if relay != nil {
		return http1.Request{Method: "GET", Target: addr.String(), Proto: "HTTP/1.0"}
	}
	return http1.Request{
		Method: "GET",
		Target: addr.RequestURI(),
		Proto:  "HTTP/1.1",
		Header: []http1.Field{
			{Name: "Host", Value: addr.Authority()},
			{Name: "Connection", Value: "close"},
		},
	}
}

// Helpers to apply deadlines from both explicit timeouts and request context
func setWriteDeadlineWithContext(c net.Conn, writeTO time.Duration, ctx context.Context) {
	if d := deadline(writeTO, ctx); !d.IsZero() {
		_ = c.SetWriteDeadline(d)
	}
}

func setReadDeadlineWithContext(c net.Conn, readTO time.Duration, ctx context.Context) {
	if d := deadline(readTO, ctx); !d.IsZero() {
		_ = c.SetReadDeadline(d)
	}
}

func deadline(to time.Duration, ctx context.Context) time.Time {
	var d time.Time
	if to > 0 {
		d = time.Now().Add(to)
	}
	if dl, ok := ctx.Deadline(); ok {
		if d.IsZero() || dl.Before(d) {
			d = dl
		}
	}
	return d
}

func (t *Transport) logger(ctx context.Context) obs.Logger {
	var lg obs.Logger = obs.NopLogger{}
	if t.Logger != nil {
		lg = t.Logger
	}
	if id, ok := FetchIDFrom(ctx); ok {
		lg = obs.With(lg, "fetch_id", id)
	}
	return lg
}

func (t *Transport) metricCounter(name string, value float64, labels ...obs.Label) {
	t.getMeter().Counter(name, value, labels...)
}

func (t *Transport) getMeter() obs.Meter {
	if t.Meter != nil {
		return t.Meter
	}
	return obs.NopMeter{}
}
