package http1

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// ErrTooLarge is returned once a LineReader has read more than MaxBytes.
var ErrTooLarge = errors.New("http1: response too large")

// LineReader reads a response as a sequence of lines until the peer closes
// the connection. Only '\n' is stripped; a preceding '\r' is kept so that
// callers can see exactly what was sent.
type LineReader struct {
	BR *bufio.Reader
	// MaxBytes bounds the total number of bytes read; 0 means no limit.
	MaxBytes int64

	n int64
}

// ReadLine returns the next line. A final line without a terminator is
// returned as a normal line; io.EOF is returned only once nothing is left.
func (r *LineReader) ReadLine() (string, error) {
	s, err := r.BR.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	if s == "" {
		return "", io.EOF
	}
	r.n += int64(len(s))
	if r.MaxBytes > 0 && r.n > r.MaxBytes {
		return "", ErrTooLarge
	}
	return strings.TrimSuffix(s, "\n"), nil
}

// ParsedRequest is a minimal request head parsed from the wire.
type ParsedRequest struct {
	Method     string
	RequestURI string
	Proto      string
	Header     map[string][]string
	// Lines holds the raw head lines (CR/LF stripped), without the blank line.
	Lines []string
}

// Reader parses request heads; used by the scripted test server.
type Reader struct {
	BR             *bufio.Reader
	MaxHeaderBytes int
}

func (r *Reader) ReadRequest() (*ParsedRequest, error) {
	line, err := r.readLine()
	if err != nil {
		return nil, err
	}
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return nil, io.ErrUnexpectedEOF
	}
	method, uri, proto := parts[0], parts[1], parts[2]
	if !strings.HasPrefix(proto, "HTTP/1.") {
		return nil, io.ErrUnexpectedEOF
	}
	pr := &ParsedRequest{
		Method:     method,
		RequestURI: uri,
		Proto:      proto,
		Header:     make(map[string][]string),
		Lines:      []string{line},
	}
	for {
		line, err := r.readLine()
		if err != nil {
			return nil, err
		}
		if line == "" {
			break
		}
		pr.Lines = append(pr.Lines, line)
		i := strings.IndexByte(line, ':')
		if i <= 0 {
			return nil, io.ErrUnexpectedEOF
		}
		addHeader(pr.Header, strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]))
	}
	return pr, nil
}

func (r *Reader) readLine() (string, error) {
	var sb strings.Builder
	for {
		b, err := r.BR.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '\n' {
			break
		}
		if b != '\r' {
			sb.WriteByte(b)
		}
		if r.MaxHeaderBytes > 0 && sb.Len() > r.MaxHeaderBytes {
			return "", io.ErrShortBuffer
		}
	}
	return sb.String(), nil
}

func addHeader(h map[string][]string, k, v string) {
	hk := CanonicalHeaderKey(k)
	h[hk] = append(h[hk], v)
}

// CanonicalHeaderKey is a very small canonicalizer to avoid importing
// textproto here.
func CanonicalHeaderKey(s string) string {
	b := []byte(strings.ToLower(s))
	upper := true
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			if upper {
				b[i] = byte(c - 'a' + 'A')
			}
			upper = false
			continue
		}
		upper = c == '-'
	}
	return string(b)
}
