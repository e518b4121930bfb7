package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"newsx/adapter/postgres"
	"newsx/adapter/rss"
	"newsx/adapter/scrape"
	"newsx/app"
	"newsx/domain"
	"newsx/internal/config"
	"newsx/internal/db"
	"newsx/internal/logger"
)

// runtime holds what every database-backed command needs.
type runtime struct {
	cfg  config.Config
	log  *logger.Logger
	db   *sql.DB
	repo *postgres.Repository
}

func setup(ctx context.Context) (*runtime, error) {
	cfg := config.Load()
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogFormat})
	if err != nil {
		return nil, err
	}

	database, err := db.OpenDB(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	repo := postgres.New(database)
	if err := repo.Ensure(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("db ensure failed: %w", err)
	}
	return &runtime{cfg: cfg, log: log, db: database, repo: repo}, nil
}

func (r *runtime) Close() {
	_ = r.db.Close()
	_ = r.log.Sync()
}

// crawlStack is the crawler wired from configuration.
type crawlStack struct {
	client       *rss.HTTPClient
	crawler      *app.FeedCrawler
	orchestrator *app.Orchestrator
	pipeline     *app.Pipeline
}

func newCrawlStack(cfg config.Config, store domain.ArticleStore, log logger.Interface) crawlStack {
	client := rss.NewHTTPClient(rss.ClientConfig{
		Timeout:          cfg.RequestTimeout,
		MaxConnsPerHost:  cfg.MaxConnsPerHost,
		UserAgent:        cfg.UserAgent,
		HostRateInterval: cfg.HostRateInterval,
	})
	crawler := app.NewFeedCrawler(client, rss.NewParser(), scrape.NewFetcher(client, log), log,
		app.WithItemConcurrency(cfg.ItemConcurrency),
		app.WithMaxItems(cfg.MaxItemsPerFeed),
	)

	policy, err := app.ParseDedupPolicy(cfg.DedupPolicy)
	if err != nil {
		log.Warn("unknown dedup policy, using merge", "policy", cfg.DedupPolicy)
		policy = app.DedupMerge
	}
	orchestrator := app.NewOrchestrator(crawler, policy, cfg.FeedConcurrency, log)
	pipeline := app.NewPipeline(store, orchestrator, app.PipelineConfig{
		BatchSize:  cfg.BatchSize,
		BatchDelay: cfg.BatchDelay,
		Source:     cfg.ArticleSource,
	}, log)

	return crawlStack{client: client, crawler: crawler, orchestrator: orchestrator, pipeline: pipeline}
}
