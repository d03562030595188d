// Package report prints run results and the stored history as console tables.
package report

import (
	"fmt"
	"io"
	"strconv"

	"sjsage522/rankworker/internal/ranking"
	"sjsage522/rankworker/services/history"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Row is one country's scan outcome for the results table
type Row struct {
	Country     string
	Weight      float64
	Rank        ranking.CountryRank
	Cards       int
	FailedPages int
}

func rankCell(r *int) string {
	if r == nil {
		return "-"
	}
	return strconv.Itoa(*r)
}

func averageCell(a *float64) string {
	if a == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *a)
}

// WriteResults renders the per-country results followed by the composites
func WriteResults(w io.Writer, rows []Row, averages ranking.CompositeScore) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Country", "Weight", "Standard", "Deluxe", "Combined", "Cards", "Failed pages"})
	for _, r := range rows {
		t.AppendRow(table.Row{
			r.Country,
			fmt.Sprintf("%.1f", r.Weight),
			rankCell(r.Rank.Standard),
			rankCell(r.Rank.Deluxe),
			rankCell(r.Rank.Combined()),
			r.Cards,
			r.FailedPages,
		})
	}
	t.AppendFooter(table.Row{"Weighted", "", averageCell(averages.Standard), averageCell(averages.Deluxe), "", "", ""})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// WriteHistory renders the stored history, oldest first
func WriteHistory(w io.Writer, entries []history.Entry) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Timestamp", "Standard", "Deluxe", "Countries"})
	for i, e := range entries {
		t.AppendRow(table.Row{
			i + 1,
			e.Timestamp.Local().Format("2006-01-02 15:04"),
			averageCell(e.Averages.Standard),
			averageCell(e.Averages.Deluxe),
			len(e.RawResults),
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
