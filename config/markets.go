package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"sjsage522/rankworker/internal/ranking"
	trackerrors "sjsage522/rankworker/pkg/errors"

	"github.com/titanous/json5"
)

//go:embed markets.default.json5
var defaultMarkets []byte

// Market is one storefront country tracked by the worker
type Market struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Flag        string   `json:"flag"`
	URL         string   `json:"url"`
	Weight      float64  `json:"weight"`
	SearchTerms []string `json:"search_terms"`
}

type marketsDocument struct {
	Markets []Market `json:"markets"`
}

// LoadMarkets reads the market table from path, or the embedded default
// table when path is empty. Markets are returned by descending weight.
func LoadMarkets(path string) ([]Market, error) {
	data := defaultMarkets
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, trackerrors.NewConfiguration("failed to read markets file "+path, err)
		}
		data = raw
	}
	return ParseMarkets(data)
}

// ParseMarkets decodes and validates a JSON5 market table
func ParseMarkets(data []byte) ([]Market, error) {
	var doc marketsDocument
	if err := json5.Unmarshal(data, &doc); err != nil {
		return nil, trackerrors.NewConfiguration("failed to parse markets", err)
	}
	if len(doc.Markets) == 0 {
		return nil, trackerrors.NewConfiguration("no markets configured", nil)
	}

	seen := make(map[string]bool, len(doc.Markets))
	for i := range doc.Markets {
		m := &doc.Markets[i]
		m.Code = strings.TrimSpace(m.Code)
		if m.Code == "" {
			return nil, trackerrors.NewValidation(fmt.Sprintf("markets[%d]", i), "code is required")
		}
		if seen[m.Code] {
			return nil, trackerrors.NewValidation(m.Code, "duplicate market code")
		}
		seen[m.Code] = true
		if m.URL == "" {
			return nil, trackerrors.NewValidation(m.Code, "url is required")
		}
		if m.Weight <= 0 {
			return nil, trackerrors.NewValidation(m.Code, fmt.Sprintf("weight must be positive, got %v", m.Weight))
		}
		if m.Name == "" {
			m.Name = strings.ToUpper(m.Code)
		}
	}

	sort.SliceStable(doc.Markets, func(i, j int) bool {
		return doc.Markets[i].Weight > doc.Markets[j].Weight
	})
	return doc.Markets, nil
}

// WeightTable builds the validated country weight table for markets
func WeightTable(markets []Market) (ranking.WeightTable, error) {
	weights := make(map[string]float64, len(markets))
	for _, m := range markets {
		weights[m.Code] = m.Weight
	}
	return ranking.NewWeightTable(weights)
}

// Terms returns the search terms of m, falling back to the product name
func (m Market) Terms(productName string) []string {
	if len(m.SearchTerms) > 0 {
		return m.SearchTerms
	}
	return []string{productName}
}
