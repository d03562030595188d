// Package chart renders the composite rank history as a PNG trend chart.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"time"

	"sjsage522/rankworker/internal/ranking"
	"sjsage522/rankworker/services/history"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// MinEntries is the number of history entries needed to draw a trend.
const MinEntries = 2

// ErrNotEnoughData is returned when the history cannot form a trend line.
var ErrNotEnoughData = errors.New("not enough history to draw a trend")

var editionColors = map[ranking.Edition]drawing.Color{
	ranking.Standard: drawing.ColorFromHex("00B0F4"),
	ranking.Deluxe:   drawing.ColorFromHex("FF4500"),
}

// Renderer draws rank trend charts.
type Renderer struct {
	Title  string
	Width  int
	Height int
}

// NewRenderer creates a renderer titled after the tracked product
func NewRenderer(product string) *Renderer {
	return &Renderer{
		Title:  fmt.Sprintf("%s - PS Store Ranking Trend", product),
		Width:  1200,
		Height: 600,
	}
}

// Render draws one line per edition over the history entries. Entries
// where an edition's composite is undefined are left out of that line.
// The Y axis runs top-down so a better rank sits higher.
func (r *Renderer) Render(entries []history.Entry) ([]byte, error) {
	if len(entries) < MinEntries {
		return nil, ErrNotEnoughData
	}

	var series []gochart.Series
	minY, maxY := math.Inf(1), math.Inf(-1)
	stamps := make(map[int64]struct{})

	for _, edition := range ranking.Editions {
		var xs []time.Time
		var ys []float64
		for _, e := range entries {
			avg := e.Averages.Get(edition)
			if avg == nil {
				continue
			}
			xs = append(xs, e.Timestamp)
			stamps[e.Timestamp.UnixNano()] = struct{}{}
			ys = append(ys, *avg)
			minY = math.Min(minY, *avg)
			maxY = math.Max(maxY, *avg)
		}
		if len(xs) == 0 {
			continue
		}
		color := editionColors[edition]
		series = append(series, gochart.TimeSeries{
			Name:    editionName(edition),
			XValues: xs,
			YValues: ys,
			Style: gochart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    4,
			},
		})
	}

	// The time axis needs two distinct points to span a range
	if len(stamps) < MinEntries {
		return nil, ErrNotEnoughData
	}

	// Pad the range so flat lines still get a visible axis
	minY = math.Max(0, math.Floor(minY)-1)
	maxY = math.Ceil(maxY) + 1

	graph := gochart.Chart{
		Title:  r.Title,
		Width:  r.Width,
		Height: r.Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			Name:           "Date",
			ValueFormatter: gochart.TimeValueFormatterWithFormat("01/02 15h"),
		},
		YAxis: gochart.YAxis{
			Name: "Weighted average rank",
			Range: &gochart.ContinuousRange{
				Min:        minY,
				Max:        maxY,
				Descending: true,
			},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Series: series,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}

func editionName(e ranking.Edition) string {
	if e == ranking.Deluxe {
		return "Deluxe"
	}
	return "Standard"
}
