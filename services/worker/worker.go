package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"sjsage522/rankworker/config"
	"sjsage522/rankworker/helpers"
	"sjsage522/rankworker/internal/crawler"
	"sjsage522/rankworker/internal/ranking"
	"sjsage522/rankworker/logger"
	"sjsage522/rankworker/services/chart"
	"sjsage522/rankworker/services/history"
	"sjsage522/rankworker/services/notifier"
	"sjsage522/rankworker/services/publisher"
	"sjsage522/rankworker/services/report"
)

// ReportKey is the stream field the run report is published under
const ReportKey = "ranking"

// PageSource hands out the lazy page reader for a crawl target
type PageSource interface {
	Pages(target crawler.Target) ranking.PageFunc
}

// ChartRenderer draws the trend image from the stored history
type ChartRenderer interface {
	Render(entries []history.Entry) ([]byte, error)
}

// Deps are the collaborators of a worker. Publisher, Chart, Notifier and
// Output are optional.
type Deps struct {
	Product    string
	Markets    []config.Market
	Aggregator *ranking.Aggregator
	Pages      PageSource
	History    history.Store
	HistoryCap int
	Publisher  publisher.Publisher
	Chart      ChartRenderer
	Notifier   notifier.Notifier
	Output     io.Writer
}

// RunResult is what one run computed
type RunResult struct {
	Timestamp time.Time
	Scans     []ranking.ScanResult
	Rankings  []ranking.CountryRanking
	Averages  ranking.CompositeScore
	// Entries is the history as saved after this run
	Entries []history.Entry
}

// Worker handles the crawl, record and report cycle
type Worker struct {
	ctx           context.Context
	deps          Deps
	logger        helpers.LoggerInterface
	crawlInterval time.Duration
	now           func() time.Time
}

// NewWorker creates a new worker
func NewWorker(
	ctx context.Context,
	deps Deps,
	logger helpers.LoggerInterface,
	crawlInterval time.Duration,
) *Worker {
	return &Worker{
		ctx:           ctx,
		deps:          deps,
		logger:        logger,
		crawlInterval: crawlInterval,
		now:           time.Now,
	}
}

// Start runs the cycle. With no interval it runs once and returns that
// run's error; otherwise it repeats until the context is done.
func (w *Worker) Start() error {
	log := logger.ForWorker()
	for {
		start := time.Now()
		_, err := w.RunOnce()
		log.Info().Dur("elapsed", time.Since(start)).Msg("Run finished")

		if w.crawlInterval <= 0 {
			return err
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			w.logger.LogError("worker", err)
		}

		select {
		case <-w.ctx.Done():
			return nil
		case <-time.After(w.crawlInterval):
		}
	}
}

// RunOnce scans every market, records the composite in the history and
// then delivers the report. The history is saved before anything is sent,
// so a delivery failure never loses the run.
func (w *Worker) RunOnce() (*RunResult, error) {
	result := &RunResult{Timestamp: w.now().UTC()}

	for _, m := range w.deps.Markets {
		if w.ctx.Err() != nil {
			return nil, w.ctx.Err()
		}
		scan := w.scanMarket(m)
		result.Scans = append(result.Scans, scan)
		result.Rankings = append(result.Rankings, ranking.CountryRanking{
			Country: m.Code,
			Rank:    ranking.DeriveRanks(scan),
		})
	}
	if w.ctx.Err() != nil {
		return nil, w.ctx.Err()
	}

	result.Averages = w.deps.Aggregator.Composite(result.Rankings)

	entry := history.Entry{
		Timestamp:  result.Timestamp,
		Averages:   result.Averages,
		RawResults: make(map[string]ranking.CountryRank, len(result.Rankings)),
	}
	for _, r := range result.Rankings {
		entry.RawResults[r.Country] = r.Rank
	}

	entries, storeErr := history.Record(w.deps.History, entry, w.deps.HistoryCap)
	if storeErr != nil {
		w.logger.LogError("history", storeErr)
		entries = []history.Entry{entry}
	}
	result.Entries = entries

	w.publish(entry)
	w.notify(result, history.Previous(entries))

	if w.deps.Output != nil {
		report.WriteResults(w.deps.Output, w.rows(result), result.Averages)
	}

	return result, storeErr
}

func (w *Worker) scanMarket(m config.Market) ranking.ScanResult {
	target := crawler.Target{Country: m.Code, URL: m.URL}
	scan := w.deps.Aggregator.ScanCountry(w.ctx, m.Code, w.deps.Pages.Pages(target), m.Terms(w.deps.Product))

	for _, page := range scan.Pages {
		if page.Status != ranking.PageOK && page.Err != nil {
			w.logger.LogError(m.Code, page.Err)
		}
	}

	rank := ranking.DeriveRanks(scan)
	ev := logger.ForCountry(m.Code).Info().Int("cards", scan.Cards).Int("matches", len(scan.Matches))
	if rank.Standard != nil {
		ev = ev.Int("standard", *rank.Standard)
	}
	if rank.Deluxe != nil {
		ev = ev.Int("deluxe", *rank.Deluxe)
	}
	ev.Msg("Country scanned")

	return scan
}

type publishedReport struct {
	Product string `json:"product"`
	history.Entry
}

func (w *Worker) publish(entry history.Entry) {
	if w.deps.Publisher == nil {
		return
	}

	data, err := json.Marshal(publishedReport{Product: w.deps.Product, Entry: entry})
	if err != nil {
		w.logger.LogError("publisher", err)
		return
	}

	if err := w.deps.Publisher.Publish(ReportKey, data); err != nil {
		w.logger.LogError("publisher", err)
		return
	}

	if err := w.deps.Publisher.TrimStreams(); err != nil {
		w.logger.LogError("StreamTrimming", err)
	}
}

func (w *Worker) notify(result *RunResult, previous *history.Entry) {
	if w.deps.Notifier == nil {
		return
	}

	rpt := notifier.Report{
		Product:   w.deps.Product,
		Timestamp: result.Timestamp,
		Averages:  result.Averages,
	}
	if previous != nil {
		prevAverages := previous.Averages
		rpt.PreviousAverages = &prevAverages
	}

	for i, m := range w.deps.Markets {
		line := notifier.CountryLine{
			Code:     m.Code,
			Name:     m.Name,
			Flag:     m.Flag,
			StoreURL: m.URL,
			Rank:     result.Rankings[i].Rank,
		}
		if previous != nil {
			if prev, ok := previous.RawResults[m.Code]; ok {
				line.Previous = &prev
			}
		}
		rpt.Countries = append(rpt.Countries, line)
	}

	if w.deps.Chart != nil {
		png, err := w.deps.Chart.Render(result.Entries)
		switch {
		case errors.Is(err, chart.ErrNotEnoughData):
			logger.ForWorker().Debug().Int("entries", len(result.Entries)).Msg("Skipping trend chart")
		case err != nil:
			w.logger.LogError("chart", err)
		default:
			rpt.Chart = png
		}
	}

	if err := w.deps.Notifier.Notify(w.ctx, rpt); err != nil {
		w.logger.LogError("notifier", err)
		return
	}
	w.logger.LogInfo("Report delivered for %d countries", len(rpt.Countries))
}

func (w *Worker) rows(result *RunResult) []report.Row {
	weights := w.deps.Aggregator.Weights()
	rows := make([]report.Row, 0, len(result.Scans))
	for i, scan := range result.Scans {
		failed := 0
		for _, p := range scan.Pages {
			if p.Status != ranking.PageOK {
				failed++
			}
		}
		rows = append(rows, report.Row{
			Country:     scan.Country,
			Weight:      weights.Weight(scan.Country),
			Rank:        result.Rankings[i].Rank,
			Cards:       scan.Cards,
			FailedPages: failed,
		})
	}
	return rows
}
