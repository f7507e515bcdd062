package title

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"dqx0.com/go/urltitle/httpx"
	"dqx0.com/go/urltitle/internal/obs"
)

// Fetcher runs the whole pipeline: fetch, follow redirects, extract and
// format.
type Fetcher struct {
	Client *httpx.Client
	Logger obs.Logger
}

var defaultFetcher = &Fetcher{}

// Get the formatted title of url with the default client.
func Get(ctx context.Context, url string) (string, error) {
	return defaultFetcher.Title(ctx, url)
}

// Title fetches url and returns its formatted title.
func (f *Fetcher) Title(ctx context.Context, url string) (string, error) {
	res, err := f.client().Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	t, err := Extract(res.Lines)
	if err != nil {
		var e *httpx.Error
		if errors.As(err, &e) && e.URL == "" {
			e.URL = res.Address.String()
		}
		return "", err
	}
	return Format(t), nil
}

// Lookup is Title for callers that only care whether there is something to
// show. Errors are logged and never returned: address and content failures
// at Debug, anything else at Warn.
func (f *Fetcher) Lookup(ctx context.Context, url string) (string, bool) {
	id, ok := httpx.FetchIDFrom(ctx)
	if !ok {
		id = uuid.NewString()
		ctx = httpx.WithFetchID(ctx, id)
	}
	t, err := f.Title(ctx, url)
	if err != nil {
		lvl := obs.Warn
		if errors.Is(err, httpx.ErrAddress) || errors.Is(err, httpx.ErrContent) {
			lvl = obs.Debug
		}
		obs.With(f.logger(), "fetch_id", id).Logf(lvl, "no title: %v", err)
		return "", false
	}
	return t, true
}

func (f *Fetcher) client() *httpx.Client {
	if f.Client != nil {
		return f.Client
	}
	return &httpx.Client{}
}

func (f *Fetcher) logger() obs.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return obs.NopLogger{}
}
