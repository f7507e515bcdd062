package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dqx0.com/go/urltitle/httpx/httpxtest"
)

func runArgs(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr strings.Builder
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun(t *testing.T) {
	srv := httpxtest.NewServer(t, httpxtest.Mux{
		"/a":     httpxtest.HTML("<title>First</title>"),
		"/b":     httpxtest.Redirect(302, "/c"),
		"/c":     httpxtest.HTML("<title>Third &raquo; page</title>"),
		"/plain": httpxtest.Raw("HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\n\r\n<title>x</title>"),
	}.Serve)

	code, out, _ := runArgs(t, "-parallel", "2",
		srv.URL+"/a", srv.URL+"/plain", "not a url", srv.URL+"/b")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	want := "Title: \"First\"\nTitle: \"Third » page\"\n"
	if out != want {
		t.Errorf("\ngot:  %q\nwant: %q", out, want)
	}
}

func TestRunMaxRedirects(t *testing.T) {
	srv := httpxtest.NewServer(t, httpxtest.Mux{
		"/b": httpxtest.Redirect(302, "/c"),
		"/c": httpxtest.HTML("<title>c</title>"),
	}.Serve)

	code, out, _ := runArgs(t, "-max-redirects", "0", srv.URL+"/b")
	if code != 0 || out != "" {
		t.Fatalf("exit %d, out %q", code, out)
	}
}

func TestRunRaw(t *testing.T) {
	srv := httpxtest.NewServer(t, httpxtest.Raw("HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\n\r\nhello"))

	code, out, _ := runArgs(t, "-raw", srv.URL)
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if want := "HTTP/1.1 200 OK\nContent-Type: text/plain\n\nhello\n"; out != want {
		t.Errorf("\ngot:  %q\nwant: %q", out, want)
	}
}

func TestRunRelay(t *testing.T) {
	relay := httpxtest.NewServer(t, httpxtest.Mux{
		"http://site.invalid/": httpxtest.HTML("<title>relayed</title>"),
	}.Serve)

	code, out, _ := runArgs(t, "-relay", relay.Addr, "http://site.invalid/")
	if code != 0 || out != "Title: \"relayed\"\n" {
		t.Fatalf("exit %d, out %q", code, out)
	}
}

func TestRunEnvProxy(t *testing.T) {
	relay := httpxtest.NewServer(t, httpxtest.Mux{
		"http://site.invalid/": httpxtest.HTML("<title>from env</title>"),
	}.Serve)
	for _, k := range []string{"HTTP_PROXY", "http_proxy", "ALL_PROXY", "all_proxy", "NO_PROXY", "no_proxy"} {
		t.Setenv(k, "")
	}
	t.Setenv("HTTP_PROXY", relay.URL)

	code, out, _ := runArgs(t, "-env-proxy", "http://site.invalid/")
	if code != 0 || out != "Title: \"from env\"\n" {
		t.Fatalf("exit %d, out %q", code, out)
	}
}

func TestRunStats(t *testing.T) {
	srv := httpxtest.NewServer(t, httpxtest.HTML("<title>x</title>"))

	code, _, errOut := runArgs(t, "-stats", srv.URL)
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(errOut, "urltitle_fetch_total 1") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestRunConfig(t *testing.T) {
	srv := httpxtest.NewServer(t, httpxtest.Redirect(301, "/x"))
	p := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(p, []byte("max_redirects: 2\nlog_level: debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	code, out, errOut := runArgs(t, "-config", p, "-log-level", "error", srv.URL)
	if code != 0 || out != "" {
		t.Fatalf("exit %d, out %q", code, out)
	}
	if errOut != "" {
		t.Errorf("-log-level didn't override the config file: %s", errOut)
	}
	if n := len(srv.Requests()); n != 3 {
		t.Errorf("server saw %d requests, want 3", n)
	}
}

func TestRunLimits(t *testing.T) {
	srv := httpxtest.NewServer(t, httpxtest.Mux{
		"/trickle": httpxtest.Trickle(20*time.Millisecond, "<p>"),
		"/big":     httpxtest.HTML("<title>big</title>" + strings.Repeat("x", 4096)),
	}.Serve)

	start := time.Now()
	code, out, _ := runArgs(t, "-timeout", "300ms", "-read-timeout", "200ms", srv.URL+"/trickle")
	if code != 0 || out != "" {
		t.Fatalf("exit %d, out %q", code, out)
	}
	if el := time.Since(start); el > 3*time.Second {
		t.Fatalf("took %s", el)
	}

	code, out, _ = runArgs(t, "-max-response-bytes", "1024", srv.URL+"/big")
	if code != 0 || out != "" {
		t.Fatalf("exit %d, out %q", code, out)
	}
}

func TestRunUsage(t *testing.T) {
	tests := []struct {
		args []string
		code int
	}{
		{nil, 2},
		{[]string{"-h"}, 0},
		{[]string{"-nope", "http://x"}, 2},
		{[]string{"-parallel", "0", "http://x"}, 2},
		{[]string{"-timeout", "-1s", "http://x"}, 2},
		{[]string{"-relay", "ftp://x", "http://x"}, 2},
		{[]string{"-log-level", "loud", "http://x"}, 2},
		{[]string{"-config", "/nonexistent/urltitle.yaml", "http://x"}, 2},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			if code, _, _ := runArgs(t, tt.args...); code != tt.code {
				t.Errorf("exit %d, want %d", code, tt.code)
			}
		})
	}
}
