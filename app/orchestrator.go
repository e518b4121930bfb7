package app

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"newsx/domain"
	"newsx/internal/logger"
	"newsx/internal/metrics"
)

const defaultFeedConcurrency = 6

// DedupPolicy decides what happens to an article link found in several feeds.
type DedupPolicy string

const (
	// DedupAllow keeps every copy, each carrying its own category.
	DedupAllow DedupPolicy = "allow"
	// DedupMerge keeps the first copy and merges later copies' categories into it.
	DedupMerge DedupPolicy = "merge"
)

func ParseDedupPolicy(s string) (DedupPolicy, error) {
	switch DedupPolicy(s) {
	case DedupAllow, DedupMerge:
		return DedupPolicy(s), nil
	default:
		return "", fmt.Errorf("%w: dedup policy %q", domain.ErrInvalidInput, s)
	}
}

// Orchestrator crawls many feeds under a global feed concurrency limit.
type Orchestrator struct {
	crawler domain.FeedCrawler
	policy  DedupPolicy
	log     logger.Interface

	feedLimit atomic.Int64
}

func NewOrchestrator(crawler domain.FeedCrawler, policy DedupPolicy, feedConcurrency int, log logger.Interface) *Orchestrator {
	if log == nil {
		log = logger.NewNop()
	}
	if policy == "" {
		policy = DedupMerge
	}
	o := &Orchestrator{crawler: crawler, policy: policy, log: log}
	o.feedLimit.Store(defaultFeedConcurrency)
	o.SetFeedConcurrency(feedConcurrency)
	return o
}

// SetFeedConcurrency takes effect for the next CrawlMany call.
func (o *Orchestrator) SetFeedConcurrency(n int) {
	if n > 0 {
		o.feedLimit.Store(int64(n))
	}
}

func (o *Orchestrator) FeedConcurrency() int { return int(o.feedLimit.Load()) }

// CrawlMany crawls feeds concurrently and flattens their articles. A feed
// that fails or panics contributes nothing; cross-feed order is unspecified.
func (o *Orchestrator) CrawlMany(ctx context.Context, feeds []domain.FeedSource) []domain.Article {
	results := make([][]domain.Article, len(feeds))

	var g errgroup.Group
	g.SetLimit(o.FeedConcurrency())
	for i, feed := range feeds {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					o.log.Error("feed crawl panicked", "feed", feed.URL, "panic", r)
					metrics.RecordFeed(false)
					results[i] = nil
				}
			}()
			results[i] = o.crawler.CrawlFeed(ctx, feed.URL, feed.CategoryID)
			return nil
		})
	}
	_ = g.Wait()

	total := 0
	for _, r := range results {
		total += len(r)
	}
	out := make([]domain.Article, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}

	if o.policy == DedupMerge {
		out = mergeByLink(out)
	}
	return out
}

// mergeByLink keeps the first article per link and unions the categories of
// later duplicates into it.
func mergeByLink(articles []domain.Article) []domain.Article {
	index := make(map[string]int, len(articles))
	out := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if i, ok := index[a.Link]; ok {
			for _, c := range a.Categories {
				if !slices.Contains(out[i].Categories, c) {
					out[i].Categories = append(out[i].Categories, c)
				}
			}
			continue
		}
		index[a.Link] = len(out)
		a.Categories = slices.Clone(a.Categories)
		out = append(out, a)
	}
	return out
}
