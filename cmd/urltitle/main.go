// Command urltitle prints the <title> of web pages.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"dqx0.com/go/urltitle/httpx"
	"dqx0.com/go/urltitle/internal/config"
	"dqx0.com/go/urltitle/internal/obs"
	"dqx0.com/go/urltitle/title"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func usage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintln(fs.Output(), "urltitle [flags] URL...")
		fmt.Fprintln(fs.Output(), "\nPrints the title of every URL that has one, in the order given.")
		fmt.Fprintln(fs.Output(), "\nFlags:")
		fs.PrintDefaults()
	}
}

// run returns 2 for bad flags or config; failed lookups are logged and don't
// affect the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("urltitle", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = usage(fs)

	def := config.Default()
	var (
		cfgFile      = fs.String("config", "", "YAML config file; flags override its values")
		relay        = fs.String("relay", "", "send requests through the HTTP relay at host:port")
		envProxy     = fs.Bool("env-proxy", false, "use HTTP_PROXY and NO_PROXY when no relay is set")
		maxRedirects = fs.Int("max-redirects", def.MaxRedirects, "redirects to follow; 0 follows none")
		dialTimeout  = fs.Duration("dial-timeout", def.DialTimeout, "connect timeout")
		readTimeout  = fs.Duration("read-timeout", def.ReadTimeout, "idle timeout while reading a response")
		timeout      = fs.Duration("timeout", def.Timeout, "limit for a whole lookup, redirects included")
		maxBytes     = fs.Int64("max-response-bytes", def.MaxResponseBytes, "give up on responses larger than this")
		parallel     = fs.Int("parallel", def.Parallel, "lookups to run at the same time")
		raw          = fs.Bool("raw", false, "print the raw response lines instead of the title")
		logLevel     = fs.String("log-level", def.LogLevel, "log level: debug, info, warn, error")
		stats        = fs.Bool("stats", false, "print fetch counters to stderr when done")
	)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg := def
	if *cfgFile != "" {
		var err error
		cfg, err = config.Load(*cfgFile)
		if err != nil {
			fmt.Fprintln(stderr, "urltitle:", err)
			return 2
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "relay":
			cfg.Relay = *relay
		case "env-proxy":
			cfg.EnvProxy = *envProxy
		case "max-redirects":
			cfg.MaxRedirects = *maxRedirects
		case "dial-timeout":
			cfg.DialTimeout = *dialTimeout
		case "read-timeout":
			cfg.ReadTimeout = *readTimeout
		case "timeout":
			cfg.Timeout = *timeout
		case "max-response-bytes":
			cfg.MaxResponseBytes = *maxBytes
		case "parallel":
			cfg.Parallel = *parallel
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, "urltitle:", err)
		return 2
	}

	lvl, _ := obs.ParseLevel(cfg.LogLevel)
	zl := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}).
		Level(lvl).With().Timestamp().Logger()
	log := obs.NewZerolog(zl)
	meter := &obs.CountingMeter{}

	client, err := cfg.Client(log, meter)
	if err != nil {
		fmt.Fprintln(stderr, "urltitle:", err)
		return 2
	}

	urls := fs.Args()
	out := make([]string, len(urls))
	var g errgroup.Group
	g.SetLimit(cfg.Parallel)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			c := client
			if cfg.EnvProxy && client.Relay == nil {
				c = withEnvRelay(client, u, log)
			}
			if *raw {
				out[i] = fetchRaw(ctx, c, u, log)
				return nil
			}
			f := &title.Fetcher{Client: c, Logger: log}
			if t, ok := f.Lookup(ctx, u); ok {
				out[i] = t + "\n"
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range out {
		fmt.Fprint(stdout, o)
	}
	if *stats {
		for _, l := range meter.Snapshot() {
			fmt.Fprintln(stderr, l)
		}
	}
	return 0
}

// withEnvRelay returns a copy of c using the relay from the environment for
// rawURL, or c itself when there is none.
func withEnvRelay(c *httpx.Client, rawURL string, log obs.Logger) *httpx.Client {
	addr, err := httpx.ParseAddress(rawURL)
	if err != nil {
		return c
	}
	r, err := httpx.RelayFromEnvironment(addr)
	if err != nil {
		log.Logf(obs.Warn, "ignoring proxy from environment: %v", err)
		return c
	}
	if r == nil {
		return c
	}
	cp := *c
	cp.Relay = r
	return &cp
}

func fetchRaw(ctx context.Context, c *httpx.Client, rawURL string, log obs.Logger) string {
	res, err := c.Fetch(ctx, rawURL)
	if err != nil {
		log.Logf(obs.Warn, "%v", err)
		return ""
	}
	var b strings.Builder
	for _, l := range res.Lines {
		b.WriteString(strings.TrimSuffix(l, "\r"))
		b.WriteByte('\n')
	}
	return b.String()
}
