package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"newsx/domain"
	"newsx/internal/helper"
	"newsx/internal/logger"
	"newsx/internal/metrics"
)

const (
	defaultBatchSize  = 50
	defaultBatchDelay = 200 * time.Millisecond
)

// MultiFeedCrawler is the orchestrator port the pipeline drives.
type MultiFeedCrawler interface {
	CrawlMany(ctx context.Context, feeds []domain.FeedSource) []domain.Article
}

type PipelineConfig struct {
	BatchSize  int
	BatchDelay time.Duration
	// Source is stamped on every persisted article.
	Source string
}

// Pipeline runs full crawl cycles: load categories, crawl their feeds, then
// persist the results in batches.
type Pipeline struct {
	store   domain.ArticleStore
	crawler MultiFeedCrawler
	cfg     PipelineConfig
	log     logger.Interface
}

// CycleStats summarizes one crawl cycle.
type CycleStats struct {
	ID        string
	Feeds     int
	Crawled   int
	Persisted int
	Failed    int
	Duration  time.Duration
}

func NewPipeline(store domain.ArticleStore, crawler MultiFeedCrawler, cfg PipelineConfig, log logger.Interface) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.BatchDelay < 0 {
		cfg.BatchDelay = defaultBatchDelay
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Pipeline{store: store, crawler: crawler, cfg: cfg, log: log}
}

// RunCrawlCycle returns the number of articles persisted. Only a failure to
// load categories is returned as an error; feed, article and write failures
// are logged and counted.
func (p *Pipeline) RunCrawlCycle(ctx context.Context) (int, error) {
	stats, err := p.Run(ctx)
	return stats.Persisted, err
}

// Run is RunCrawlCycle with the full cycle summary.
func (p *Pipeline) Run(ctx context.Context) (stats CycleStats, err error) {
	stats.ID = uuid.NewString()
	log := p.log.With("cycle", stats.ID)
	start := time.Now()
	defer func() {
		stats.Duration = time.Since(start)
		metrics.ObserveCycle(stats.Duration)
	}()

	categories, err := p.store.ListCategories(ctx)
	if err != nil {
		log.Error("load categories failed", "error", err)
		return stats, fmt.Errorf("list categories: %w", err)
	}

	feeds := FeedSources(categories, log)
	stats.Feeds = len(feeds)
	log.Info("crawl cycle started", "feeds", len(feeds))

	articles := p.crawler.CrawlMany(ctx, feeds)
	stats.Crawled = len(articles)

	for from := 0; from < len(articles); from += p.cfg.BatchSize {
		if from > 0 && !p.wait(ctx) {
			log.Warn("crawl cycle interrupted", "error", ctx.Err(), "remaining", len(articles)-from)
			break
		}
		to := min(from+p.cfg.BatchSize, len(articles))
		ok, failed := p.persistBatch(ctx, log, articles[from:to])
		stats.Persisted += ok
		stats.Failed += failed
		metrics.RecordPersisted(ok, failed)
		log.Info("batch persisted", "batch", from/p.cfg.BatchSize+1, "ok", ok, "failed", failed)
	}

	log.Info("crawl cycle finished",
		"feeds", stats.Feeds,
		"crawled", stats.Crawled,
		"persisted", stats.Persisted,
		"failed", stats.Failed,
		"took", time.Since(start),
	)
	return stats, nil
}

// persistBatch writes batch as one group, falling back to one write per
// article when the group write fails.
func (p *Pipeline) persistBatch(ctx context.Context, log logger.Interface, batch []domain.Article) (ok, failed int) {
	for i := range batch {
		if batch[i].Source == "" {
			batch[i].Source = p.cfg.Source
		}
	}

	err := p.store.UpsertMany(ctx, batch)
	if err == nil {
		return len(batch), 0
	}
	log.Warn("batch upsert failed, retrying one by one", "size", len(batch), "error", err)

	for _, a := range batch {
		if _, err := p.store.UpsertArticleByLink(ctx, a); err != nil {
			log.Error("article upsert failed", "link", a.Link, "error", err)
			failed++
			continue
		}
		ok++
	}
	return ok, failed
}

func (p *Pipeline) wait(ctx context.Context) bool {
	if p.cfg.BatchDelay <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(p.cfg.BatchDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// FeedSources turns categories into crawl inputs, skipping categories whose
// feed link is missing or not an absolute http(s) URL.
func FeedSources(categories []domain.Category, log logger.Interface) []domain.FeedSource {
	feeds := make([]domain.FeedSource, 0, len(categories))
	for _, c := range categories {
		if err := helper.ValidateFeedURL(c.Link); err != nil {
			log.Warn("skipping category", "category", c.ID, "name", c.Name, "error", err)
			continue
		}
		feeds = append(feeds, domain.FeedSource{URL: c.Link, CategoryID: c.ID})
	}
	return feeds
}
