package ranking

import (
	"fmt"
	"math"

	trackerrors "sjsage522/rankworker/pkg/errors"
)

// DefaultWeight applies to countries missing from the weight table.
const DefaultWeight = 1.0

// WeightTable maps a country identifier to its market-size weight.
type WeightTable map[string]float64

// NewWeightTable copies weights after checking that every weight is a
// finite positive number.
func NewWeightTable(weights map[string]float64) (WeightTable, error) {
	table := make(WeightTable, len(weights))
	for country, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
			return nil, trackerrors.NewValidation(country, fmt.Sprintf("weight must be a positive number, got %v", w))
		}
		table[country] = w
	}
	return table, nil
}

// Weight returns the weight for country, or DefaultWeight when absent.
func (t WeightTable) Weight(country string) float64 {
	if w, ok := t[country]; ok {
		return w
	}
	return DefaultWeight
}
