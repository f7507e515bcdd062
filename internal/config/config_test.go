package config

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"dqx0.com/go/urltitle/httpx"
	"dqx0.com/go/urltitle/httpx/httpxtest"
	"dqx0.com/go/urltitle/internal/obs"
)

func write(t *testing.T, data string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "urltitle.yaml")
	if err := os.WriteFile(p, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad(t *testing.T) {
	p := write(t, `
relay: proxy.example.com:3128
dial_timeout: 2s
read_timeout: 1m
max_redirects: 3
max_response_bytes: 1048576
log_level: debug
`)
	got, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	want.Relay = "proxy.example.com:3128"
	want.DialTimeout = 2 * time.Second
	want.ReadTimeout = time.Minute
	want.MaxRedirects = 3
	want.MaxResponseBytes = 1 << 20
	want.LogLevel = "debug"
	if d := cmp.Diff(want, got); d != "" {
		t.Error(d)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name, data, want string
	}{
		{"unknown key", "user_agent: x\n", "field user_agent not found"},
		{"bad duration", "dial_timeout: soon\n", "time.Duration"},
		{"negative timeout", "read_timeout: -1s\n", "timeouts"},
		{"negative redirects", "max_redirects: -2\n", "max_redirects"},
		{"parallel", "parallel: 0\n", "parallel"},
		{"relay", "relay: 'ftp://x'\n", "relay"},
		{"level", "log_level: loud\n", "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(write(t, tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("no error")
	}
}

func TestClient(t *testing.T) {
	c := Default()
	c.Relay = "relay.example:8080"
	c.MaxResponseBytes = 100
	m := &obs.CountingMeter{}

	cl, err := c.Client(obs.NopLogger{}, m)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(&httpx.Relay{Host: "relay.example", Port: 8080}, cl.Relay); d != "" {
		t.Error(d)
	}
	if cl.MaxRedirects != httpx.DefaultMaxRedirects || cl.Transport.MaxResponseBytes != 100 || cl.Meter != m {
		t.Errorf("client = %+v", cl)
	}

	c = Default()
	c.MaxRedirects = 0
	cl, err = c.Client(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cl.Relay != nil || cl.MaxRedirects >= 0 {
		t.Errorf("client = %+v", cl)
	}
}

func TestClientZeroLimits(t *testing.T) {
	c, err := Load(write(t, `
timeout: 0s
dial_timeout: 0s
read_timeout: 0s
write_timeout: 0s
max_response_bytes: 0
`))
	if err != nil {
		t.Fatal(err)
	}
	cl, err := c.Client(nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	def := httpx.NewTransport()
	tr := cl.Transport
	if tr.DialTimeout != def.DialTimeout || tr.ReadTimeout != def.ReadTimeout || tr.WriteTimeout != def.WriteTimeout {
		t.Errorf("timeouts = %s %s %s, want the defaults", tr.DialTimeout, tr.ReadTimeout, tr.WriteTimeout)
	}
	if tr.MaxResponseBytes != httpx.DefaultMaxResponseBytes {
		t.Errorf("MaxResponseBytes = %d", tr.MaxResponseBytes)
	}
	if cl.Timeout != httpx.DefaultTimeout {
		t.Errorf("Timeout = %s", cl.Timeout)
	}
}

func TestClientZeroReadTimeoutStillTimesOut(t *testing.T) {
	done := make(chan struct{})
	srv := httpxtest.NewServer(t, func(w io.Writer, r *httpxtest.Request) {
		io.WriteString(w, "HTTP/1.1 200 OK\r\n")
		w.(*bufio.Writer).Flush()
		<-done
	})
	t.Cleanup(func() { close(done) })

	c := Default()
	c.ReadTimeout = 0
	c.Timeout = 300 * time.Millisecond
	cl, err := c.Client(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if _, err := cl.Fetch(context.Background(), srv.URL); !errors.Is(err, httpx.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	if el := time.Since(start); el > 3*time.Second {
		t.Fatalf("took %s", el)
	}
}
