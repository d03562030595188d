package crawler

import (
	"context"
	"io"

	"sjsage522/rankworker/helpers"
)

// HTTPFetcher fetches pages with a plain GET and browser-like headers.
// It sees only server-rendered markup.
type HTTPFetcher struct{}

// NewHTTPFetcher creates a new plain HTTP fetcher
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{}
}

// Fetch implements Fetcher
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (io.Reader, error) {
	return helpers.FetchWithRandomHeaders(ctx, url)
}

// Name implements Fetcher
func (f *HTTPFetcher) Name() string {
	return "http"
}
