package crawler

import (
	"context"
	"io"
	"strings"
	"time"

	"sjsage522/rankworker/helpers"
	"sjsage522/rankworker/internal/ranking"
	"sjsage522/rankworker/logger"
	trackerrors "sjsage522/rankworker/pkg/errors"
	"sjsage522/rankworker/services/cache"

	"github.com/PuerkitoBio/goquery"
)

// DefaultPageStep is added to the page delay once per page index, so later
// pages wait a little longer
const DefaultPageStep = 400 * time.Millisecond

// ListingCrawler turns storefront listing pages into ordered card labels
type ListingCrawler struct {
	fetcher   Fetcher
	blocker   *cache.Blocker
	selectors Selectors
	pageDelay time.Duration
	pageStep  time.Duration
}

// Option configures a ListingCrawler
type Option func(*ListingCrawler)

// WithBlocker skips hosts that recently rate limited us
func WithBlocker(b *cache.Blocker) Option {
	return func(c *ListingCrawler) { c.blocker = b }
}

// WithSelectors overrides the card selectors
func WithSelectors(s Selectors) Option {
	return func(c *ListingCrawler) { c.selectors = s }
}

// WithPageDelay sets the wait before every page after the first
func WithPageDelay(delay, step time.Duration) Option {
	return func(c *ListingCrawler) {
		c.pageDelay = delay
		c.pageStep = step
	}
}

// NewListingCrawler creates a crawler reading pages through fetcher
func NewListingCrawler(fetcher Fetcher, opts ...Option) *ListingCrawler {
	c := &ListingCrawler{
		fetcher:   fetcher,
		selectors: DefaultSelectors,
		pageStep:  DefaultPageStep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Pages returns the lazy page source for target. A page is only fetched
// when the scan asks for it.
func (c *ListingCrawler) Pages(target Target) ranking.PageFunc {
	return func(ctx context.Context, page int) ([]string, error) {
		return c.FetchPage(ctx, target, page)
	}
}

// FetchPage fetches one listing page and returns its card labels in
// document order
func (c *ListingCrawler) FetchPage(ctx context.Context, target Target, page int) ([]string, error) {
	pageURL, err := helpers.PageURL(target.URL, page)
	if err != nil {
		return nil, trackerrors.NewValidation(target.Country, "bad listing URL: "+err.Error())
	}

	key := helpers.HostKey(pageURL)
	if c.blocker.IsBlocked(key) {
		return nil, trackerrors.NewRateLimit(target.Country, c.blocker.BlockTime())
	}

	if page > 1 {
		if err := sleep(ctx, c.delayFor(page)); err != nil {
			return nil, err
		}
	}

	log := logger.ForCountry(target.Country)
	log.Debug().Int("page", page).Str("url", pageURL).Str("fetcher", c.fetcher.Name()).Msg("Fetching listing page")

	body, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		if trackerrors.IsType(err, trackerrors.ErrorTypeRateLimit) {
			if blockErr := c.blocker.Block(key); blockErr != nil {
				log.Warn().Err(blockErr).Msg("Failed to record storefront block")
			}
		}
		return nil, err
	}

	labels, err := c.Parse(body)
	if err != nil {
		return nil, trackerrors.NewParsing(target.Country, "failed to parse listing page", err)
	}

	log.Debug().Int("page", page).Int("cards", len(labels)).Msg("Parsed listing page")
	return labels, nil
}

// Parse extracts the label of every product card in r. Cards without a
// product link are not counted.
func (c *ListingCrawler) Parse(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	cards := doc.Find(c.selectors.Card)
	if cards.Length() == 0 && c.selectors.CardFallback != "" {
		cards = doc.Find(c.selectors.CardFallback)
	}

	labels := make([]string, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		link := card
		if goquery.NodeName(card) != "a" {
			link = card.Find(c.selectors.Link).First()
		}

		href, _ := link.Attr("href")
		if !strings.Contains(href, c.selectors.ProductPath) {
			return
		}

		aria, _ := link.Attr("aria-label")
		labels = append(labels, cardLabel(aria, card.Text()))
	})

	return labels, nil
}

func (c *ListingCrawler) delayFor(page int) time.Duration {
	if c.pageDelay <= 0 && c.pageStep <= 0 {
		return 0
	}
	return c.pageDelay + time.Duration(page)*c.pageStep
}

func cardLabel(aria, text string) string {
	return strings.Join(strings.Fields(aria+" "+text), " ")
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
