package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	trackerrors "sjsage522/rankworker/pkg/errors"
)

// Fetch modes for rendering storefront listing pages
const (
	FetchModeChrome = "chrome"
	FetchModeRemote = "remote"
	FetchModeHTTP   = "http"
)

// Config represents the application configuration
type Config struct {
	// Redis configuration. An empty address disables report publishing.
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Memcache configuration. An empty address disables storefront blocking.
	MemcacheAddr string

	// Crawler configuration
	CrawlInterval  time.Duration
	MaxPages       int
	PageDelay      time.Duration
	BlockTime      time.Duration
	FetchMode      string
	ChromeHeadless bool
	ChromeRemote   string

	// Tracked product and its markets
	ProductName string
	MarketsFile string

	// History store
	HistoryFile string
	HistoryCap  int

	// Delivery
	DiscordWebhook string
	ErrorLogFile   string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	crawlInterval, _ := strconv.Atoi(getEnv("CRAWL_INTERVAL_SECONDS", "0"))
	maxPages, _ := strconv.Atoi(getEnv("MAX_PAGES", "3"))
	pageDelay, _ := strconv.Atoi(getEnv("PAGE_DELAY_MS", "3500"))
	blockTime, _ := strconv.Atoi(getEnv("BLOCK_TIME_SECONDS", "600"))
	historyCap, _ := strconv.Atoi(getEnv("HISTORY_CAP", "50"))
	headless, _ := strconv.ParseBool(getEnv("CHROME_HEADLESS", "true"))

	return &Config{
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "rankings"),
		RedisStreamMaxLength: streamMaxLength,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		CrawlInterval:        time.Duration(crawlInterval) * time.Second,
		MaxPages:             maxPages,
		PageDelay:            time.Duration(pageDelay) * time.Millisecond,
		BlockTime:            time.Duration(blockTime) * time.Second,
		FetchMode:            getEnv("FETCH_MODE", FetchModeChrome),
		ChromeHeadless:       headless,
		ChromeRemote:         getEnv("CHROME_REMOTE_ADDR", "http://localhost:3000"),
		ProductName:          getEnv("PRODUCT_NAME", "Crimson Desert"),
		MarketsFile:          getEnv("MARKETS_FILE", ""),
		HistoryFile:          getEnv("HISTORY_FILE", "rank_history.json"),
		HistoryCap:           historyCap,
		DiscordWebhook:       getEnv("DISCORD_WEBHOOK", ""),
		ErrorLogFile:         getEnv("ERROR_LOG_FILE", ""),
		Environment:          getEnv("RANKWORKER_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the worker cannot run with
func (c *Config) Validate() error {
	if c.MaxPages < 1 {
		return trackerrors.NewConfiguration(fmt.Sprintf("MAX_PAGES must be >= 1, got %d", c.MaxPages), nil)
	}
	if c.HistoryCap < 1 {
		return trackerrors.NewConfiguration(fmt.Sprintf("HISTORY_CAP must be >= 1, got %d", c.HistoryCap), nil)
	}
	if c.HistoryFile == "" {
		return trackerrors.NewConfiguration("HISTORY_FILE must not be empty", nil)
	}
	if c.CrawlInterval < 0 || c.PageDelay < 0 || c.BlockTime < 0 {
		return trackerrors.NewConfiguration("durations must not be negative", nil)
	}
	switch c.FetchMode {
	case FetchModeChrome, FetchModeHTTP:
	case FetchModeRemote:
		if c.ChromeRemote == "" {
			return trackerrors.NewConfiguration("CHROME_REMOTE_ADDR is required for remote fetch mode", nil)
		}
	default:
		return trackerrors.NewConfiguration(fmt.Sprintf("unknown FETCH_MODE %q", c.FetchMode), nil)
	}
	return nil
}

// IsProduction reports whether the worker runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
