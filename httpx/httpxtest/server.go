// Package httpxtest provides a scripted HTTP/1 server for testing httpx
// clients. Every connection serves exactly one request and is then closed,
// which is how httpx finds the end of a response.
package httpxtest

import (
	"bufio"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"dqx0.com/go/urltitle/httpx"
	"dqx0.com/go/urltitle/httpx/internal/http1"
)

// Request is what the server received.
type Request struct {
	Method string
	Target string // request target as sent: a path or an absolute URL
	Proto  string
	Header httpx.Header
	Lines  []string // raw head lines, without the blank line
}

// Handler writes a raw response to w. The connection is closed when it
// returns.
type Handler func(w io.Writer, r *Request)

// Server listens on a loopback port.
type Server struct {
	URL  string // http://127.0.0.1:port
	Addr string // 127.0.0.1:port
	Port int

	ln      net.Listener
	handler Handler
	wg      sync.WaitGroup

	mu       sync.Mutex
	requests []*Request
	conns    map[net.Conn]struct{}
	closed   bool
}

// NewServer starts a server that is closed when t finishes.
func NewServer(t testing.TB, h Handler) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &Server{
		Addr:    ln.Addr().String(),
		Port:    ln.Addr().(*net.TCPAddr).Port,
		ln:      ln,
		handler: h,
		conns:   make(map[net.Conn]struct{}),
	}
	s.URL = "http://" + s.Addr
	s.wg.Add(1)
	go s.serve()
	t.Cleanup(s.Close)
	return s
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		c, err := s.ln.Accept()
		if err != nil {
			return
		}
		if !s.track(c) {
			_ = c.Close()
			return
		}
		s.wg.Add(1)
		go s.serveConn(c)
	}
}

func (s *Server) serveConn(c net.Conn) {
	defer s.wg.Done()
	defer s.untrack(c)
	defer c.Close()

	rr := &http1.Reader{BR: bufio.NewReader(c), MaxHeaderBytes: 8 << 10}
	pr, err := rr.ReadRequest()
	if err != nil {
		bw := bufio.NewWriter(c)
		_ = http1.WriteResponse(bw, 400, "", nil, nil)
		return
	}
	r := &Request{
		Method: pr.Method,
		Target: pr.RequestURI,
		Proto:  pr.Proto,
		Header: httpx.Header(pr.Header),
		Lines:  pr.Lines,
	}
	s.mu.Lock()
	s.requests = append(s.requests, r)
	s.mu.Unlock()

	bw := bufio.NewWriter(c)
	s.handler(bw, r)
	_ = bw.Flush()
}

func (s *Server) track(c net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
}

// Requests returns the requests received so far, in arrival order.
func (s *Server) Requests() []*Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Request(nil), s.requests...)
}

// Close stops the listener, closes open connections and waits for handlers.
// Handlers that block forever must watch for their writes failing.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()
	_ = s.ln.Close()
	s.wg.Wait()
}

// Field is a response header line.
type Field = http1.Field

// WriteResponse writes a close-delimited response with the headers in order.
func WriteResponse(w io.Writer, status int, hdr []Field, body string) {
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriter(w)
	}
	_ = http1.WriteResponse(bw, status, "", hdr, []byte(body))
}

// HTML returns a handler answering 200 with a text/html body.
func HTML(body string) Handler {
	return func(w io.Writer, r *Request) {
		WriteResponse(w, 200, []Field{{Name: "Content-Type", Value: "text/html; charset=utf-8"}}, body)
	}
}

// Redirect returns a handler answering status with a Location header.
func Redirect(status int, location string) Handler {
	return func(w io.Writer, r *Request) {
		WriteResponse(w, status, []Field{{Name: "Location", Value: location}}, "")
	}
}

// Raw returns a handler writing s verbatim.
func Raw(s string) Handler {
	return func(w io.Writer, r *Request) {
		_, _ = io.WriteString(w, s)
	}
}

// Trickle returns a handler that sends a 200 status line and then line
// every interval, so the response never goes idle long enough for a read
// timeout. It returns once a write fails, which happens when the client
// hangs up or the server is closed.
func Trickle(interval time.Duration, line string) Handler {
	return func(w io.Writer, r *Request) {
		bw, ok := w.(*bufio.Writer)
		if !ok {
			bw = bufio.NewWriter(w)
		}
		if _, err := io.WriteString(bw, "HTTP/1.1 200 OK\r\nContent-Type: text/html\r\n\r\n"); err != nil {
			return
		}
		for {
			if err := bw.Flush(); err != nil {
				return
			}
			time.Sleep(interval)
			if _, err := io.WriteString(bw, line+"\n"); err != nil {
				return
			}
		}
	}
}

// Mux routes on the request path (or absolute URL, for relayed requests).
// Unknown targets get a 404.
type Mux map[string]Handler

func (m Mux) Serve(w io.Writer, r *Request) {
	if h, ok := m[r.Target]; ok {
		h(w, r)
		return
	}
	WriteResponse(w, 404, nil, "not found")
}
