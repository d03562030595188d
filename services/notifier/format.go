package notifier

import (
	"fmt"
	"math"
	"strings"

	"sjsage522/rankworker/internal/ranking"
)

const placeholder = "-"

// FormatRankDiff renders the change from previous to current. Ranks go down
// as a product climbs, so a lower current rank is shown as ▲.
func FormatRankDiff(current, previous *int) string {
	if current == nil || previous == nil {
		return ""
	}
	diff := *previous - *current
	switch {
	case diff > 0:
		return fmt.Sprintf("▲%d", diff)
	case diff < 0:
		return fmt.Sprintf("▼%d", -diff)
	}
	return ""
}

// FormatAverageDiff is FormatRankDiff for composite ranks, to one decimal
func FormatAverageDiff(current, previous *float64) string {
	if current == nil || previous == nil {
		return ""
	}
	diff := math.Round((*previous-*current)*10) / 10
	switch {
	case diff > 0:
		return fmt.Sprintf("▲%.1f", diff)
	case diff < 0:
		return fmt.Sprintf("▼%.1f", -diff)
	}
	return ""
}

// FormatRank renders a rank or the placeholder when absent
func FormatRank(rank *int) string {
	if rank == nil {
		return placeholder
	}
	return fmt.Sprintf("%d", *rank)
}

// FormatAverage renders a composite or the placeholder when undefined
func FormatAverage(avg *float64) string {
	if avg == nil {
		return placeholder
	}
	return fmt.Sprintf("%.1f", *avg)
}

func withDiff(value, diff string) string {
	if diff == "" {
		return value
	}
	return value + "(" + diff + ")"
}

// FormatCountryLine renders one country as
// "**[🇺🇸 United States](url)**: S `12(▲3)` / D `4` → `4`"
func FormatCountryLine(line CountryLine) string {
	var prev ranking.CountryRank
	if line.Previous != nil {
		prev = *line.Previous
	}

	s := withDiff(FormatRank(line.Rank.Standard), FormatRankDiff(line.Rank.Standard, prev.Standard))
	d := withDiff(FormatRank(line.Rank.Deluxe), FormatRankDiff(line.Rank.Deluxe, prev.Deluxe))
	c := withDiff(FormatRank(line.Rank.Combined()), FormatRankDiff(line.Rank.Combined(), prev.Combined()))

	label := strings.TrimSpace(line.Flag + " " + line.Name)
	if line.StoreURL != "" {
		label = fmt.Sprintf("[%s](%s)", label, line.StoreURL)
	}

	return fmt.Sprintf("**%s**: S `%s` / D `%s` → `%s`", label, s, d, c)
}

// FormatDescription renders the report body: one line per country followed
// by the weighted averages of both editions.
func FormatDescription(report Report) string {
	lines := make([]string, 0, len(report.Countries)+4)
	for _, c := range report.Countries {
		lines = append(lines, FormatCountryLine(c))
	}

	var prev ranking.CompositeScore
	if report.PreviousAverages != nil {
		prev = *report.PreviousAverages
	}

	lines = append(lines, "", "📊 **Weighted average rank**")
	for _, edition := range ranking.Editions {
		avg := report.Averages.Get(edition)
		diff := FormatAverageDiff(avg, prev.Get(edition))
		entry := fmt.Sprintf("%s: `%s`", editionTitle(edition), FormatAverage(avg))
		if diff != "" {
			entry += " (" + diff + ")"
		}
		lines = append(lines, entry)
	}

	return strings.Join(lines, "\n")
}

func editionTitle(e ranking.Edition) string {
	if e == ranking.Deluxe {
		return "Deluxe"
	}
	return "Standard"
}
