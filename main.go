package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sjsage522/rankworker/config"
	"sjsage522/rankworker/helpers"
	"sjsage522/rankworker/internal/crawler"
	"sjsage522/rankworker/internal/ranking"
	"sjsage522/rankworker/logger"
	"sjsage522/rankworker/services/cache"
	"sjsage522/rankworker/services/chart"
	"sjsage522/rankworker/services/history"
	"sjsage522/rankworker/services/notifier"
	"sjsage522/rankworker/services/publisher"
	"sjsage522/rankworker/services/report"
	"sjsage522/rankworker/services/worker"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "rankworker",
	Short:         "rankworker tracks a product's pre-order rank across PS Store markets.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	runInterval  time.Duration
	historyLimit int
)

var runCmd = &cobra.Command{
	Use:   "run [--interval <duration>]",
	Short: "Crawls every market, records the composite rank and sends the report.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		if cmd.Flags().Changed("interval") {
			cfg.CrawlInterval = runInterval
		}
		return runWorker(cmd.Context(), cfg)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [--limit <n>]",
	Short: "Prints the recorded composite ranks.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		return printHistory(cmd.OutOrStdout(), cfg, historyLimit)
	},
}

func init() {
	runCmd.Flags().DurationVar(&runInterval, "interval", 0, "Repeat the run every interval. Zero runs once.")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Show only the most recent entries.")
	rootCmd.AddCommand(runCmd, historyCmd)
}

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runWorker(parent context.Context, cfg *config.Config) error {
	log := logger.Default

	if err := cfg.Validate(); err != nil {
		return err
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("fetch_mode", cfg.FetchMode).
		Dur("crawl_interval", cfg.CrawlInterval).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	w, cleanup, err := buildWorker(ctx, cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer cleanup()

	// Start worker in a goroutine
	workerDone := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting rank worker")
		workerDone <- w.Start()
	}()

	// Wait for shutdown signal or worker exit
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
		<-workerDone
	case err := <-workerDone:
		if err != nil {
			log.Error().Err(err).Msg("Worker exited with error")
			return err
		}
		log.Info().Msg("Worker exited normally")
	}

	log.Info().Msg("Shutting down gracefully...")
	return nil
}

// buildWorker wires the worker and its services from cfg. The cleanup
// function closes whatever was opened.
func buildWorker(ctx context.Context, cfg *config.Config, out io.Writer) (*worker.Worker, func(), error) {
	markets, err := config.LoadMarkets(cfg.MarketsFile)
	if err != nil {
		return nil, func() {}, err
	}
	weights, err := config.WeightTable(markets)
	if err != nil {
		return nil, func() {}, err
	}
	agg, err := ranking.NewAggregator(ranking.Options{MaxPages: cfg.MaxPages, Weights: weights})
	if err != nil {
		return nil, func() {}, err
	}

	services := initializeServices(ctx, cfg)

	fetcher, closeFetcher, err := crawler.NewFetcher(ctx, cfg)
	if err != nil {
		services.Cleanup()
		return nil, func() {}, err
	}

	// Rendering fetchers already wait for the page to settle. A zero
	// PAGE_DELAY_MS turns pacing off.
	pageDelay, pageStep := cfg.PageDelay, crawler.DefaultPageStep
	if cfg.FetchMode != config.FetchModeHTTP {
		pageDelay = 0
	}
	if cfg.PageDelay == 0 {
		pageStep = 0
	}
	listing := crawler.NewListingCrawler(fetcher,
		crawler.WithBlocker(cache.NewBlocker(services.Cache, cfg.BlockTime)),
		crawler.WithPageDelay(pageDelay, pageStep),
	)

	deps := worker.Deps{
		Product:    cfg.ProductName,
		Markets:    markets,
		Aggregator: agg,
		Pages:      listing,
		History:    history.NewFileStore(cfg.HistoryFile),
		HistoryCap: cfg.HistoryCap,
		Publisher:  services.Publisher,
		Chart:      chart.NewRenderer(cfg.ProductName),
		Output:     out,
	}
	if cfg.DiscordWebhook != "" {
		deps.Notifier = notifier.NewDiscordNotifier(cfg.DiscordWebhook)
	} else {
		logger.Info("DISCORD_WEBHOOK not set, reports will only be printed")
	}

	logger.Info("Tracking %q in %d markets", cfg.ProductName, len(markets))

	w := worker.NewWorker(ctx, deps, helpers.NewLogger(cfg.ErrorLogFile), cfg.CrawlInterval)
	cleanup := func() {
		if err := closeFetcher(); err != nil {
			logger.Warn("Failed to close fetcher: %v", err)
		}
		services.Cleanup()
	}
	return w, cleanup, nil
}

// Services holds the optional backing services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}

// initializeServices connects to the services that are configured. A
// service that does not answer is left out; the run goes on without it.
func initializeServices(ctx context.Context, cfg *config.Config) *Services {
	services := &Services{}

	if cfg.MemcacheAddr != "" {
		cacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := cacheService.Ping(); err != nil {
			logger.Warn("Memcache at %s unreachable, storefront blocking disabled: %v", cfg.MemcacheAddr, err)
		} else {
			services.Cache = cacheService
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(); err != nil {
			logger.Warn("Redis at %s unreachable, reports will not be published: %v", cfg.RedisAddr, err)
			redisPublisher.Close()
		} else {
			services.Publisher = redisPublisher
			logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
				cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		}
	}

	return services
}

func printHistory(out io.Writer, cfg *config.Config, limit int) error {
	entries, err := history.NewFileStore(cfg.HistoryFile).Load()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(out, "No history recorded in %s\n", cfg.HistoryFile)
		return nil
	}
	if limit > 0 {
		entries = history.Truncate(entries, limit)
	}
	report.WriteHistory(out, entries)
	return nil
}
