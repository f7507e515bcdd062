// Package config loads the urltitle YAML configuration.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"dqx0.com/go/urltitle/httpx"
	"dqx0.com/go/urltitle/internal/obs"
)

// Config controls how titles are fetched. A zero timeout or
// max_response_bytes means the httpx default; there is no way to turn the
// limits off. max_redirects is the exception: 0 follows no redirects.
type Config struct {
	Relay            string        `yaml:"relay"`     // host:port of an HTTP relay
	EnvProxy         bool          `yaml:"env_proxy"` // use HTTP_PROXY/NO_PROXY when Relay is empty
	Timeout          time.Duration `yaml:"timeout"`   // whole fetch, redirects included
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	ReadTimeout      time.Duration `yaml:"read_timeout"` // idle time between lines
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	MaxRedirects     int           `yaml:"max_redirects"`
	MaxResponseBytes int64         `yaml:"max_response_bytes"`
	Parallel         int           `yaml:"parallel"`
	LogLevel         string        `yaml:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	t := httpx.NewTransport()
	return Config{
		Timeout:          httpx.DefaultTimeout,
		DialTimeout:      t.DialTimeout,
		ReadTimeout:      t.ReadTimeout,
		WriteTimeout:     t.WriteTimeout,
		MaxRedirects:     httpx.DefaultMaxRedirects,
		MaxResponseBytes: t.MaxResponseBytes,
		Parallel:         4,
		LogLevel:         "warn",
	}
}

// Load reads path over Default. Unknown keys are an error.
func Load(path string) (Config, error) {
	c := Default()
	fp, err := os.Open(path)
	if err != nil {
		return c, errors.Wrap(err, "config.Load")
	}
	defer fp.Close()

	dec := yaml.NewDecoder(fp)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return c, errors.Wrapf(err, "config.Load %s", path)
	}
	return c, c.Validate()
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Timeout < 0, c.DialTimeout < 0, c.ReadTimeout < 0, c.WriteTimeout < 0:
		return errors.New("config: timeouts can't be negative")
	case c.MaxRedirects < 0:
		return errors.Errorf("config: max_redirects %d: can't be negative", c.MaxRedirects)
	case c.MaxResponseBytes < 0:
		return errors.New("config: max_response_bytes can't be negative")
	case c.Parallel < 1:
		return errors.Errorf("config: parallel %d: must be at least 1", c.Parallel)
	}
	if c.Relay != "" {
		if _, err := httpx.ParseRelay(c.Relay); err != nil {
			return errors.Wrap(err, "config: relay")
		}
	}
	if _, err := obs.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "config: log_level")
	}
	return nil
}

// Client builds the httpx client described by c. Zero limits are replaced
// with the httpx defaults. With EnvProxy and no Relay the relay is looked up
// per URL, so it's left unset here.
func (c Config) Client(log obs.Logger, m obs.Meter) (*httpx.Client, error) {
	var relay *httpx.Relay
	if c.Relay != "" {
		r, err := httpx.ParseRelay(c.Relay)
		if err != nil {
			return nil, errors.Wrap(err, "config: relay")
		}
		relay = r
	}
	mr := c.MaxRedirects
	if mr == 0 {
		mr = -1
	}
	def := httpx.NewTransport()
	return &httpx.Client{
		Transport: &httpx.Transport{
			DialTimeout:      orDefault(c.DialTimeout, def.DialTimeout),
			ReadTimeout:      orDefault(c.ReadTimeout, def.ReadTimeout),
			WriteTimeout:     orDefault(c.WriteTimeout, def.WriteTimeout),
			MaxResponseBytes: orDefault(c.MaxResponseBytes, def.MaxResponseBytes),
			Logger:           log,
			Meter:            m,
		},
		Relay:        relay,
		MaxRedirects: mr,
		Timeout:      orDefault(c.Timeout, httpx.DefaultTimeout),
		Logger:       log,
		Meter:        m,
	}, nil
}

func orDefault[T ~int64](v, def T) T {
	if v == 0 {
		return def
	}
	return v
}
