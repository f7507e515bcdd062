package httpx

import (
	"errors"
	"testing"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		lines Lines
		want  int
	}{
		{Lines{"HTTP/1.1 200 OK\r"}, 200},
		{Lines{"HTTP/1.0 404 Not Found"}, 404},
		{Lines{"HTTP/1.1   301   Moved"}, 301},
		{Lines{"HTTP/1.1 302"}, 302},
	}
	for _, tt := range tests {
		got, err := tt.lines.StatusCode()
		if err != nil {
			t.Errorf("StatusCode(%q) error: %v", tt.lines[0], err)
			continue
		}
		if got != tt.want {
			t.Errorf("StatusCode(%q) = %d, want %d", tt.lines[0], got, tt.want)
		}
	}
}

func TestStatusCode_Malformed(t *testing.T) {
	for _, l := range []Lines{
		nil,
		{""},
		{"HTTP/1.1"},
		{"HTTP/1.1 OK 200"},
		{"<html>"},
	} {
		if _, err := l.StatusCode(); !errors.Is(err, ErrProtocol) {
			t.Errorf("StatusCode(%q) error = %v, want ErrProtocol", l, err)
		}
	}
}

var sample = Lines{
	"HTTP/1.1 200 OK\r",
	"Content-Type: text/html; charset=utf-8\r",
	"X-Dup: first\r",
	"X-Dup: second\r",
	"X-Tight:tight\r",
	"X-Spaces:  two\r",
	"X-Empty:\r",
	"X-Colons: a:b:c\r",
	"X-Mid: before\rafter",
	"\r",
	"<html><head><title>Hi</title></head>",
	"Location: /from-body",
}

func TestHeader(t *testing.T) {
	tests := []struct {
		name   string
		want   string
		wantOK bool
	}{
		{"Content-Type", "text/html; charset=utf-8", true},
		{"X-Dup", "first", true},
		{"X-Tight", "tight", true},
		{"X-Spaces", " two", true},
		{"X-Empty", "", true},
		{"X-Colons", "a:b:c", true},
		{"X-Mid", "before", true},
		{"content-type", "", false},
		{"X-Missing", "", false},
		{"HTTP/1.1 200 OK\r", "", false},
		// No header/body boundary: the body line is found too.
		{"Location", "/from-body", true},
	}
	for _, tt := range tests {
		got, ok := sample.Header(tt.name)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Header(%q) = %q, %v; want %q, %v", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestHeader_SkipsStatusLine(t *testing.T) {
	l := Lines{"Location: /status-line", "Other: x"}
	if v, ok := l.Header("Location"); ok {
		t.Fatalf("Header matched the status line: %q", v)
	}
	if _, ok := (Lines{}).Header("Location"); ok {
		t.Fatal("Header matched on empty Lines")
	}
}

func TestIsHTML(t *testing.T) {
	tests := []struct {
		ct   string
		want bool
	}{
		{"Content-Type: text/html\r", true},
		{"Content-Type: text/html; charset=utf-8\r", true},
		{"Content-Type: text/html;charset=ISO-8859-1", true},
		{"Content-Type: text/plain\r", false},
		{"Content-Type: TEXT/HTML\r", false},
		{"Content-Type: text/html ; charset=utf-8", false},
		{"Content-Type: application/xhtml+xml", false},
		{"X-Other: text/html", false},
	}
	for _, tt := range tests {
		l := Lines{"HTTP/1.1 200 OK\r", tt.ct, "\r", "<title>x</title>"}
		if got := l.IsHTML(); got != tt.want {
			t.Errorf("IsHTML(%q) = %v, want %v", tt.ct, got, tt.want)
		}
	}
}
