package ranking

import (
	"math"
	"testing"

	trackerrors "sjsage522/rankworker/pkg/errors"

	"github.com/stretchr/testify/assert"
)

func TestNewWeightTable(t *testing.T) {
	table, err := NewWeightTable(map[string]float64{"us": 30, "cn": 0.2})
	assert.NoError(t, err)
	assert.Equal(t, 30.0, table.Weight("us"))
	assert.Equal(t, 0.2, table.Weight("cn"))
	assert.Equal(t, DefaultWeight, table.Weight("xx"))
}

func TestNewWeightTableRejectsNonPositive(t *testing.T) {
	for _, w := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := NewWeightTable(map[string]float64{"us": 30, "bad": w})
		assert.Error(t, err)
		assert.True(t, trackerrors.IsType(err, trackerrors.ErrorTypeValidation))
		assert.Contains(t, err.Error(), "bad")
	}
}

func TestNewAggregatorRejectsBadWeights(t *testing.T) {
	_, err := NewAggregator(Options{Weights: WeightTable{"kr": 0}})
	assert.Error(t, err)

	agg, err := NewAggregator(Options{})
	assert.NoError(t, err)
	assert.Equal(t, DefaultMaxPages, agg.MaxPages())
}
