package notifier

import (
	"context"
	"time"

	"sjsage522/rankworker/internal/ranking"
)

// CountryLine is one country's result in a report
type CountryLine struct {
	Code     string
	Name     string
	Flag     string
	StoreURL string
	Rank     ranking.CountryRank
	// Previous holds the country's ranks from the last run, if recorded
	Previous *ranking.CountryRank
}

// Report is the data delivered to the chat webhook after a run
type Report struct {
	Product          string
	Timestamp        time.Time
	Countries        []CountryLine
	Averages         ranking.CompositeScore
	PreviousAverages *ranking.CompositeScore
	// Chart is a PNG trend image, attached when present
	Chart []byte
}

// Notifier delivers run reports
type Notifier interface {
	Notify(ctx context.Context, report Report) error
}
