package http1

import (
	"bufio"
	"fmt"
	"strings"
)

// Field is one header line. Order is preserved on the wire.
type Field struct {
	Name  string
	Value string
}

// Request is an outbound request head. There is never a body.
type Request struct {
	Method string
	Target string
	Proto  string
	Header []Field
}

// Lines returns the request head as it goes on the wire, without line
// terminators and without the closing blank line.
func (r Request) Lines() []string {
	lines := make([]string, 0, 1+len(r.Header))
	lines = append(lines, r.Method+" "+sanitizeHeaderValue(r.Target)+" "+r.Proto)
	for _, f := range r.Header {
		lines = append(lines, f.Name+": "+sanitizeHeaderValue(f.Value))
	}
	return lines
}

// WriteRequest writes the request head, each line CRLF terminated, followed
// by the blank line, and flushes bw.
func WriteRequest(bw *bufio.Writer, r Request) error {
	for _, l := range r.Lines() {
		if _, err := fmt.Fprintf(bw, "%s\r\n", l); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(bw, "\r\n"); err != nil {
		return err
	}
	return bw.Flush()
}

// WriteResponse writes a close-delimited HTTP/1.1 response: status line,
// hdr in order, Connection: close, a blank line and body. There is no
// Content-Length; the peer reads until the connection closes.
func WriteResponse(bw *bufio.Writer, status int, reason string, hdr []Field, body []byte) error {
	if reason == "" {
		reason = defaultReason(status)
	}
	if _, err := fmt.Fprintf(bw, "HTTP/1.1 %d %s\r\n", status, reason); err != nil {
		return err
	}
	for _, f := range hdr {
		if _, err := fmt.Fprintf(bw, "%s: %s\r\n", f.Name, sanitizeHeaderValue(f.Value)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(bw, "Connection: close\r\n\r\n"); err != nil {
		return err
	}
	if len(body) > 0 {
		if _, err := bw.Write(body); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func defaultReason(code int) string {
	switch code {
	case 200:
		return "OK"
	case 204:
		return "No Content"
	case 301:
		return "Moved Permanently"
	case 302:
		return "Found"
	case 303:
		return "See Other"
	case 304:
		return "Not Modified"
	case 307:
		return "Temporary Redirect"
	case 400:
		return "Bad Request"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 500:
		return "Internal Server Error"
	case 502:
		return "Bad Gateway"
	default:
		return "Unknown"
	}
}

func sanitizeHeaderValue(v string) string {
	if v == "" {
		return v
	}
	// Remove CR/LF and other control chars except HTAB
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == '\r' || c == '\n' || c == 0x7f {
			continue
		}
		if c < 0x20 && c != '\t' {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
