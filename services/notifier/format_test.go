package notifier

import (
	"testing"

	"sjsage522/rankworker/internal/ranking"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int             { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestFormatRankDiff(t *testing.T) {
	assert.Equal(t, "▲3", FormatRankDiff(intPtr(5), intPtr(8)))
	assert.Equal(t, "▼2", FormatRankDiff(intPtr(10), intPtr(8)))
	assert.Equal(t, "", FormatRankDiff(intPtr(8), intPtr(8)))
	assert.Equal(t, "", FormatRankDiff(nil, intPtr(8)))
	assert.Equal(t, "", FormatRankDiff(intPtr(8), nil))
}

func TestFormatAverageDiff(t *testing.T) {
	assert.Equal(t, "▲1.5", FormatAverageDiff(floatPtr(10.0), floatPtr(11.5)))
	assert.Equal(t, "▼0.3", FormatAverageDiff(floatPtr(10.3), floatPtr(10.0)))
	assert.Equal(t, "", FormatAverageDiff(floatPtr(10.01), floatPtr(10.0)))
	assert.Equal(t, "", FormatAverageDiff(nil, floatPtr(10.0)))
}

func TestFormatCountryLine(t *testing.T) {
	line := CountryLine{
		Code:     "us",
		Name:     "United States",
		Flag:     "🇺🇸",
		StoreURL: "https://store.example/en-us/1",
		Rank:     ranking.CountryRank{Standard: intPtr(12), Deluxe: intPtr(4)},
		Previous: &ranking.CountryRank{Standard: intPtr(15), Deluxe: intPtr(3)},
	}

	assert.Equal(t,
		"**[🇺🇸 United States](https://store.example/en-us/1)**: S `12(▲3)` / D `4(▼1)` → `4(▼1)`",
		FormatCountryLine(line))

	missing := CountryLine{Name: "China", Flag: "🇨🇳"}
	assert.Equal(t, "**🇨🇳 China**: S `-` / D `-` → `-`", FormatCountryLine(missing))
}

func TestFormatDescription(t *testing.T) {
	report := Report{
		Product: "Crimson Desert",
		Countries: []CountryLine{
			{Name: "Japan", Flag: "🇯🇵", Rank: ranking.CountryRank{Standard: intPtr(7)}},
		},
		Averages:         ranking.CompositeScore{Standard: floatPtr(13.333)},
		PreviousAverages: &ranking.CompositeScore{Standard: floatPtr(14.5), Deluxe: floatPtr(3)},
	}

	desc := FormatDescription(report)
	assert.Contains(t, desc, "**🇯🇵 Japan**: S `7` / D `-` → `7`")
	assert.Contains(t, desc, "Standard: `13.3` (▲1.2)")
	assert.Contains(t, desc, "Deluxe: `-`")
}
