// Package ranking turns storefront listing scans into per-country edition
// ranks and a market-weighted composite rank per edition.
package ranking

import "context"

// MaxMatches is the number of matching cards after which a scan stops.
// The first match is the deluxe edition, the second the standard edition.
const MaxMatches = 2

// DefaultMaxPages is the number of listing pages scanned per country.
const DefaultMaxPages = 3

// Edition is a product SKU variant tracked independently.
type Edition string

const (
	Standard Edition = "standard"
	Deluxe   Edition = "deluxe"
)

// Editions lists the tracked editions in report order.
var Editions = []Edition{Standard, Deluxe}

// PageFunc returns the card labels of listing page n (1-based) in document
// order. Returning ErrEndOfListing stops the scan.
type PageFunc func(ctx context.Context, page int) ([]string, error)

// Match is a listing card that matched a search term.
type Match struct {
	Label    string `json:"label"`
	Position int    `json:"position"`
}

// PageStatus is the outcome of scanning one listing page.
type PageStatus string

const (
	PageOK      PageStatus = "ok"
	PageSkipped PageStatus = "skipped"
	PageFailed  PageStatus = "failed"
)

// PageOutcome records what happened to one listing page.
type PageOutcome struct {
	Page   int
	Status PageStatus
	Cards  int
	Reason string
	Err    error
}

// ScanResult is the outcome of scanning one country's listing.
type ScanResult struct {
	Country string
	Matches []Match
	Pages   []PageOutcome
	// Cards is the number of product cards seen before the scan stopped.
	Cards int
}

// Failed reports how many pages failed or were skipped.
func (r ScanResult) Failed() int {
	n := 0
	for _, p := range r.Pages {
		if p.Status != PageOK {
			n++
		}
	}
	return n
}

// CountryRank holds the derived edition ranks for one country. A nil rank
// means the edition was not found in the scanned pages.
type CountryRank struct {
	Standard *int `json:"standard"`
	Deluxe   *int `json:"deluxe"`
}

// Get returns the rank of the given edition.
func (r CountryRank) Get(e Edition) *int {
	if e == Deluxe {
		return r.Deluxe
	}
	return r.Standard
}

// Combined returns the better (lower) of the two edition ranks, or the one
// that is present.
func (r CountryRank) Combined() *int {
	switch {
	case r.Standard != nil && r.Deluxe != nil:
		if *r.Deluxe < *r.Standard {
			return r.Deluxe
		}
		return r.Standard
	case r.Standard != nil:
		return r.Standard
	default:
		return r.Deluxe
	}
}

// CountryRanking pairs a country with its derived ranks.
type CountryRanking struct {
	Country string
	Rank    CountryRank
}

// CompositeScore is the weighted average rank per edition. A nil value
// means no country produced a rank for that edition.
type CompositeScore struct {
	Standard *float64 `json:"standard"`
	Deluxe   *float64 `json:"deluxe"`
}

// Get returns the composite of the given edition.
func (s CompositeScore) Get(e Edition) *float64 {
	if e == Deluxe {
		return s.Deluxe
	}
	return s.Standard
}
