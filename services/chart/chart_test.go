package chart

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"sjsage522/rankworker/internal/ranking"
	"sjsage522/rankworker/services/history"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestRenderTrend(t *testing.T) {
	start := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	var entries []history.Entry
	for i := 0; i < 6; i++ {
		e := history.Entry{
			Timestamp: start.Add(time.Duration(i) * 12 * time.Hour),
			Averages:  ranking.CompositeScore{Standard: floatPtr(20 - float64(i))},
		}
		if i%2 == 0 {
			e.Averages.Deluxe = floatPtr(5 + float64(i))
		}
		entries = append(entries, e)
	}

	r := NewRenderer("Crimson Desert")
	r.Width, r.Height = 400, 240

	img, err := r.Render(entries)
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(img))
	require.NoError(t, err)
	assert.Equal(t, 400, decoded.Bounds().Dx())
	assert.Equal(t, 240, decoded.Bounds().Dy())
}

func TestRenderNotEnoughData(t *testing.T) {
	r := NewRenderer("Crimson Desert")

	_, err := r.Render(nil)
	assert.ErrorIs(t, err, ErrNotEnoughData)

	one := []history.Entry{{Timestamp: time.Now(), Averages: ranking.CompositeScore{Standard: floatPtr(3)}}}
	_, err = r.Render(one)
	assert.ErrorIs(t, err, ErrNotEnoughData)

	undefined := []history.Entry{{Timestamp: time.Now()}, {Timestamp: time.Now()}}
	_, err = r.Render(undefined)
	assert.ErrorIs(t, err, ErrNotEnoughData)
}
