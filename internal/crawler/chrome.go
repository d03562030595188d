package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sjsage522/rankworker/helpers"
	"sjsage522/rankworker/logger"
	trackerrors "sjsage522/rankworker/pkg/errors"

	"github.com/chromedp/chromedp"
	"github.com/go-resty/resty/v2"
)

// DefaultSettle is how long a rendered page is given to finish loading
// listing tiles before its HTML is read
const DefaultSettle = 3500 * time.Millisecond

// ChromeFetcher renders pages in a local headless Chrome. One browser is
// shared and every fetch opens its own tab.
type ChromeFetcher struct {
	browserCtx    context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
	settle        time.Duration
}

// NewChromeFetcher starts a Chrome process bound to parent
func NewChromeFetcher(parent context.Context, headless bool, settle time.Duration) (*ChromeFetcher, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(helpers.RandomUserAgent()),
		chromedp.WindowSize(1920, 1080),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// An empty Run launches the browser
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, trackerrors.NewNetwork("chrome", "failed to start browser", err)
	}

	if settle <= 0 {
		settle = DefaultSettle
	}

	logger.Debug("Chrome started (headless=%t, settle=%s)", headless, settle)

	return &ChromeFetcher{
		browserCtx:    browserCtx,
		cancelAlloc:   cancelAlloc,
		cancelBrowser: cancelBrowser,
		settle:        settle,
	}, nil
}

// Fetch implements Fetcher
func (f *ChromeFetcher) Fetch(ctx context.Context, url string) (io.Reader, error) {
	tabCtx, cancelTab := chromedp.NewContext(f.browserCtx)
	defer cancelTab()

	// Tabs derive from the browser context, so tie them to the caller too
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	resp, err := chromedp.RunResponse(tabCtx, chromedp.Navigate(url))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, trackerrors.NewNetwork(url, "failed to navigate", err)
	}
	if resp != nil {
		if err := statusError(url, int(resp.Status)); err != nil {
			return nil, err
		}
	}

	var html string
	if err := chromedp.Run(tabCtx,
		chromedp.Sleep(f.settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, trackerrors.NewNetwork(url, "failed to read rendered page", err)
	}

	return strings.NewReader(html), nil
}

// Name implements Fetcher
func (f *ChromeFetcher) Name() string {
	return "chrome"
}

// Close shuts the browser down
func (f *ChromeFetcher) Close() error {
	f.cancelBrowser()
	f.cancelAlloc()
	return nil
}

// RemoteFetcher renders pages through a browserless instance's /content
// endpoint
type RemoteFetcher struct {
	addr   string
	settle time.Duration
	client *resty.Client
}

// NewRemoteFetcher creates a fetcher for the browserless instance at addr
func NewRemoteFetcher(addr string, settle time.Duration) *RemoteFetcher {
	if settle <= 0 {
		settle = DefaultSettle
	}
	client := resty.New().
		SetTimeout(60*time.Second).
		SetHeader("Content-Type", "application/json")

	return &RemoteFetcher{
		addr:   strings.TrimSuffix(addr, "/"),
		settle: settle,
		client: client,
	}
}

// Ping checks that the browserless instance answers
func (f *RemoteFetcher) Ping(ctx context.Context) error {
	resp, err := f.client.R().SetContext(ctx).Get(f.addr + "/json/version")
	if err != nil {
		return trackerrors.NewNetwork(f.addr, "remote browser unreachable", err)
	}
	if !resp.IsSuccess() {
		return trackerrors.NewNetwork(f.addr, fmt.Sprintf("remote browser returned %d", resp.StatusCode()), nil)
	}
	return nil
}

// Fetch implements Fetcher
func (f *RemoteFetcher) Fetch(ctx context.Context, url string) (io.Reader, error) {
	payload := map[string]interface{}{
		"url": url,
		"gotoOptions": map[string]interface{}{
			"waitUntil": "networkidle2",
			"timeout":   45000,
		},
		"waitForTimeout": f.settle.Milliseconds(),
		"userAgent":      helpers.RandomUserAgent(),
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(f.addr + "/content")
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, trackerrors.NewNetwork(url, "remote render failed", err)
	}

	if err := statusError(url, resp.StatusCode()); err != nil {
		return nil, err
	}

	body := resp.Body()
	if len(body) == 0 {
		return nil, trackerrors.NewNetwork(url, "remote render returned an empty page", nil)
	}

	return helpers.ToUTF8(body, resp.Header().Get("Content-Type"))
}

// Name implements Fetcher
func (f *RemoteFetcher) Name() string {
	return "remote"
}

func statusError(url string, status int) error {
	switch {
	case status == http.StatusTooManyRequests || status == 430:
		return trackerrors.NewRateLimit(url, 0)
	case status >= 400:
		return trackerrors.NewNetwork(url, fmt.Sprintf("unexpected status code: %d", status), nil)
	}
	return nil
}
