package crawler

import (
	"context"
	"io"
)

// Fetcher retrieves the rendered HTML of a page
type Fetcher interface {
	// Fetch returns the UTF-8 HTML of url
	Fetch(ctx context.Context, url string) (io.Reader, error)

	// Name returns the fetcher's name for logging
	Name() string
}

// Target is one storefront listing to crawl
type Target struct {
	Country string
	URL     string
}

// Selectors contains CSS selectors for listing cards
type Selectors struct {
	// Card matches one product tile in the listing grid
	Card string
	// CardFallback is used when Card matches nothing
	CardFallback string
	// Link is the product anchor inside a card
	Link string
	// ProductPath must appear in a link's href for the card to count
	ProductPath string
}

// DefaultSelectors are the PS Store category grid selectors
var DefaultSelectors = Selectors{
	Card:         "li[data-qa*='grid-item']",
	CardFallback: "a[href*='/product/']",
	Link:         "a",
	ProductPath:  "/product/",
}
