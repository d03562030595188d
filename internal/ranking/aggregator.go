package ranking

import (
	"context"
	"errors"
	"sort"
	"strings"

	trackerrors "sjsage522/rankworker/pkg/errors"
)

// ErrEndOfListing is returned by a PageFunc when the listing has no more pages.
var ErrEndOfListing = errors.New("end of listing")

// Options configures an Aggregator.
type Options struct {
	// MaxPages caps the number of pages scanned per country.
	MaxPages int
	// Weights maps country to market weight. Must already be validated.
	Weights WeightTable
}

// Aggregator scans listings and folds per-country ranks into composites.
type Aggregator struct {
	maxPages int
	weights  WeightTable
}

// NewAggregator creates an aggregator. Weights are validated again so a
// hand-built table cannot slip a zero or negative weight through.
func NewAggregator(opts Options) (*Aggregator, error) {
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	weights, err := NewWeightTable(opts.Weights)
	if err != nil {
		return nil, err
	}
	return &Aggregator{
		maxPages: opts.MaxPages,
		weights:  weights,
	}, nil
}

// MaxPages returns the page cap.
func (a *Aggregator) MaxPages() int {
	return a.maxPages
}

// Weights returns the weight table.
func (a *Aggregator) Weights() WeightTable {
	return a.weights
}

// ScanCountry walks the listing pages in order and returns the first
// MaxMatches cards whose label contains any of terms (case-insensitive).
// Positions count every card seen, matching or not. A page that fails is
// recorded and skipped; the scan goes on with the next page.
func (a *Aggregator) ScanCountry(ctx context.Context, country string, pages PageFunc, terms []string) ScanResult {
	result := ScanResult{Country: country}
	needles := normalizeTerms(terms)
	position := 0

	for page := 1; page <= a.maxPages; page++ {
		if ctx.Err() != nil {
			result.Pages = append(result.Pages, PageOutcome{
				Page:   page,
				Status: PageFailed,
				Reason: "canceled",
				Err:    ctx.Err(),
			})
			break
		}

		labels, err := pages(ctx, page)
		if errors.Is(err, ErrEndOfListing) {
			break
		}
		if err != nil {
			result.Pages = append(result.Pages, failedPage(page, err))
			continue
		}

		outcome := PageOutcome{Page: page, Status: PageOK}
		for _, label := range labels {
			position++
			outcome.Cards++
			if matchesAny(label, needles) {
				result.Matches = append(result.Matches, Match{Label: label, Position: position})
				if len(result.Matches) >= MaxMatches {
					break
				}
			}
		}
		result.Pages = append(result.Pages, outcome)

		if len(result.Matches) >= MaxMatches {
			break
		}
	}

	result.Cards = position
	return result
}

// DeriveRanks maps discovery order to editions: first match is deluxe,
// second is standard, and a lone match is standard.
func DeriveRanks(scan ScanResult) CountryRank {
	var rank CountryRank
	switch {
	case len(scan.Matches) >= 2:
		deluxe := scan.Matches[0].Position
		standard := scan.Matches[1].Position
		rank.Deluxe = &deluxe
		rank.Standard = &standard
	case len(scan.Matches) == 1:
		standard := scan.Matches[0].Position
		rank.Standard = &standard
	}
	return rank
}

// Composite computes the weighted mean rank of each edition over the
// countries where that edition has a rank. Countries are summed in sorted
// order so the result does not depend on input order.
func (a *Aggregator) Composite(rankings []CountryRanking) CompositeScore {
	sorted := make([]CountryRanking, len(rankings))
	copy(sorted, rankings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Country < sorted[j].Country
	})

	var score CompositeScore
	for _, edition := range Editions {
		var sum, weightSum float64
		for _, r := range sorted {
			rank := r.Rank.Get(edition)
			if rank == nil {
				continue
			}
			w := a.weights.Weight(r.Country)
			sum += float64(*rank) * w
			weightSum += w
		}
		if weightSum == 0 {
			continue
		}
		avg := sum / weightSum
		if edition == Deluxe {
			score.Deluxe = &avg
		} else {
			score.Standard = &avg
		}
	}
	return score
}

// StaticPages serves pre-fetched pages, mostly for tests and replays.
func StaticPages(pages [][]string) PageFunc {
	return func(_ context.Context, page int) ([]string, error) {
		if page > len(pages) {
			return nil, ErrEndOfListing
		}
		return pages[page-1], nil
	}
}

func failedPage(page int, err error) PageOutcome {
	status := PageFailed
	if trackerrors.IsType(err, trackerrors.ErrorTypeRateLimit) {
		status = PageSkipped
	}
	return PageOutcome{
		Page:   page,
		Status: status,
		Reason: err.Error(),
		Err:    err,
	}
}

func normalizeTerms(terms []string) []string {
	needles := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			needles = append(needles, t)
		}
	}
	return needles
}

func matchesAny(label string, needles []string) bool {
	label = strings.ToLower(label)
	for _, n := range needles {
		if strings.Contains(label, n) {
			return true
		}
	}
	return false
}
