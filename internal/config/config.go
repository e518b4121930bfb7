package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultCrawlInterval   = 5 * time.Minute
	defaultFeedConcurrency = 6
	defaultItemConcurrency = 12
	defaultRequestTimeout  = 12 * time.Second
	defaultMaxConnsPerHost = 64
	defaultBatchSize       = 50
	defaultBatchDelay      = 200 * time.Millisecond
	defaultDedupPolicy     = "merge"
	defaultUserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	defaultPGPort          = 5432
	defaultControlAddr     = "127.0.0.1:8088"
	defaultLogLevel        = "info"
	defaultLogFormat       = "console"
	defaultArticleSource   = "tuoitre.vn"
)

type Config struct {
	CrawlInterval    time.Duration
	FeedConcurrency  int
	ItemConcurrency  int
	RequestTimeout   time.Duration
	MaxConnsPerHost  int
	HostRateInterval time.Duration
	MaxItemsPerFeed  int
	BatchSize        int
	BatchDelay       time.Duration
	DedupPolicy      string
	UserAgent        string
	ArticleSource    string

	PGHost     string
	PGPort     int
	PGUser     string
	PGPassword string
	PGDatabase string

	ControlAddr string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory when one exists.
func Load() Config {
	_ = godotenv.Load()
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("CRAWL_INTERVAL", defaultCrawlInterval)
	v.SetDefault("FEED_CONCURRENCY", defaultFeedConcurrency)
	v.SetDefault("ITEM_CONCURRENCY", defaultItemConcurrency)
	v.SetDefault("REQUEST_TIMEOUT", defaultRequestTimeout)
	v.SetDefault("MAX_CONNS_PER_HOST", defaultMaxConnsPerHost)
	v.SetDefault("HOST_RATE_INTERVAL", time.Duration(0))
	v.SetDefault("MAX_ITEMS_PER_FEED", 0)
	v.SetDefault("BATCH_SIZE", defaultBatchSize)
	v.SetDefault("BATCH_DELAY", defaultBatchDelay)
	v.SetDefault("DEDUP_POLICY", defaultDedupPolicy)
	v.SetDefault("USER_AGENT", defaultUserAgent)
	v.SetDefault("ARTICLE_SOURCE", defaultArticleSource)

	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", defaultPGPort)
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "changeme")
	v.SetDefault("POSTGRES_DBNAME", "newsx")

	v.SetDefault("CONTROL_ADDR", defaultControlAddr)
	v.SetDefault("LOG_LEVEL", defaultLogLevel)
	v.SetDefault("LOG_FORMAT", defaultLogFormat)
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) Config {
	cfg := Config{
		CrawlInterval:    v.GetDuration("CRAWL_INTERVAL"),
		FeedConcurrency:  v.GetInt("FEED_CONCURRENCY"),
		ItemConcurrency:  v.GetInt("ITEM_CONCURRENCY"),
		RequestTimeout:   v.GetDuration("REQUEST_TIMEOUT"),
		MaxConnsPerHost:  v.GetInt("MAX_CONNS_PER_HOST"),
		HostRateInterval: v.GetDuration("HOST_RATE_INTERVAL"),
		MaxItemsPerFeed:  v.GetInt("MAX_ITEMS_PER_FEED"),
		BatchSize:        v.GetInt("BATCH_SIZE"),
		BatchDelay:       v.GetDuration("BATCH_DELAY"),
		DedupPolicy:      v.GetString("DEDUP_POLICY"),
		UserAgent:        v.GetString("USER_AGENT"),
		ArticleSource:    v.GetString("ARTICLE_SOURCE"),
		PGHost:           v.GetString("POSTGRES_HOST"),
		PGPort:           v.GetInt("POSTGRES_PORT"),
		PGUser:           v.GetString("POSTGRES_USER"),
		PGPassword:       v.GetString("POSTGRES_PASSWORD"),
		PGDatabase:       v.GetString("POSTGRES_DBNAME"),
		ControlAddr:      v.GetString("CONTROL_ADDR"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogFormat:        v.GetString("LOG_FORMAT"),
	}
	return cfg.WithDefaults()
}

// WithDefaults returns a copy with non-positive or empty values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.CrawlInterval <= 0 {
		c.CrawlInterval = defaultCrawlInterval
	}
	if c.FeedConcurrency <= 0 {
		c.FeedConcurrency = defaultFeedConcurrency
	}
	if c.ItemConcurrency <= 0 {
		c.ItemConcurrency = defaultItemConcurrency
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.MaxConnsPerHost <= 0 {
		c.MaxConnsPerHost = defaultMaxConnsPerHost
	}
	if c.HostRateInterval < 0 {
		c.HostRateInterval = 0
	}
	if c.MaxItemsPerFeed < 0 {
		c.MaxItemsPerFeed = 0
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.BatchDelay < 0 {
		c.BatchDelay = defaultBatchDelay
	}
	if c.DedupPolicy != "allow" && c.DedupPolicy != "merge" {
		c.DedupPolicy = defaultDedupPolicy
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.ArticleSource == "" {
		c.ArticleSource = defaultArticleSource
	}
	if c.PGPort <= 0 {
		c.PGPort = defaultPGPort
	}
	if c.ControlAddr == "" {
		c.ControlAddr = defaultControlAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = defaultLogFormat
	}
	return c
}

// PostgresURL is the lib/pq connection string for this config.
func (c Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase,
	)
}
