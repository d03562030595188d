package crawler

import (
	"context"
	"time"

	"sjsage522/rankworker/config"
	"sjsage522/rankworker/logger"
	trackerrors "sjsage522/rankworker/pkg/errors"
)

// NewFetcher creates the fetcher selected by cfg.FetchMode. The returned
// close function releases any browser it started.
func NewFetcher(ctx context.Context, cfg *config.Config) (Fetcher, func() error, error) {
	noop := func() error { return nil }
	settle := cfg.PageDelay

	switch cfg.FetchMode {
	case config.FetchModeChrome:
		f, err := NewChromeFetcher(ctx, cfg.ChromeHeadless, settle)
		if err != nil {
			return nil, noop, err
		}
		return f, f.Close, nil

	case config.FetchModeRemote:
		f := NewRemoteFetcher(cfg.ChromeRemote, settle)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := f.Ping(pingCtx); err != nil {
			// Pages will fail individually; the run still reports what it can
			logger.Warn("Remote browser check failed: %v", err)
		}
		return f, noop, nil

	case config.FetchModeHTTP:
		return NewHTTPFetcher(), noop, nil
	}

	return nil, noop, trackerrors.NewConfiguration("unknown fetch mode: "+cfg.FetchMode, nil)
}
