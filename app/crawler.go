package app

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"newsx/domain"
	"newsx/internal/logger"
	"newsx/internal/metrics"
	"newsx/internal/textutil"
)

const defaultItemConcurrency = 12

// FeedCrawler crawls one feed: it fetches and parses the feed, then fetches
// every article under a per-call concurrency limit.
type FeedCrawler struct {
	client   domain.Fetcher
	parser   domain.FeedParser
	articles domain.ArticleFetcher
	log      logger.Interface

	itemLimit atomic.Int64
	maxItems  int
}

type CrawlerOption func(*FeedCrawler)

// WithItemConcurrency bounds simultaneous article fetches within one feed.
func WithItemConcurrency(n int) CrawlerOption {
	return func(c *FeedCrawler) { c.SetItemConcurrency(n) }
}

// WithMaxItems caps how many deduplicated items of a feed are crawled. Zero
// means no cap.
func WithMaxItems(n int) CrawlerOption {
	return func(c *FeedCrawler) {
		if n > 0 {
			c.maxItems = n
		}
	}
}

func NewFeedCrawler(client domain.Fetcher, parser domain.FeedParser, articles domain.ArticleFetcher, log logger.Interface, opts ...CrawlerOption) *FeedCrawler {
	if log == nil {
		log = logger.NewNop()
	}
	c := &FeedCrawler{client: client, parser: parser, articles: articles, log: log}
	c.itemLimit.Store(defaultItemConcurrency)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetItemConcurrency takes effect for feeds crawled after the call.
func (c *FeedCrawler) SetItemConcurrency(n int) {
	if n > 0 {
		c.itemLimit.Store(int64(n))
	}
}

func (c *FeedCrawler) ItemConcurrency() int { return int(c.itemLimit.Load()) }

// CrawlFeed returns one Article per unique feed item. A feed that cannot be
// fetched or parsed yields no articles; article failures yield articles with
// diagnostic content.
func (c *FeedCrawler) CrawlFeed(ctx context.Context, feedURL, categoryID string) []domain.Article {
	log := c.log.With("feed", feedURL, "category", categoryID)

	resp, err := c.client.Get(ctx, feedURL)
	if err != nil {
		log.Error("feed fetch failed", "error", err)
		metrics.RecordFeed(false)
		return nil
	}
	items, err := c.parser.ParseFeed(ctx, resp.Body)
	if err != nil {
		log.Error("feed parse failed", "error", err)
		metrics.RecordFeed(false)
		return nil
	}
	if c.maxItems > 0 && len(items) > c.maxItems {
		items = items[:c.maxItems]
	}

	out := make([]domain.Article, len(items))
	var g errgroup.Group
	g.SetLimit(c.ItemConcurrency())
	for i, item := range items {
		g.Go(func() error {
			metrics.FetchesInFlight.Inc()
			defer metrics.FetchesInFlight.Dec()

			scraped := c.articles.FetchArticle(ctx, item.Link)
			metrics.RecordArticle(scraped.Diagnostic)
			out[i] = assemble(item, scraped, categoryID)
			return nil
		})
	}
	_ = g.Wait()

	metrics.RecordFeed(true)
	log.Info("feed crawled", "items", len(out))
	return out
}

func assemble(item domain.FeedItem, scraped domain.ScrapedArticle, categoryID string) domain.Article {
	return domain.Article{
		Author:      scraped.Author,
		Title:       item.Title,
		Link:        item.Link,
		Slug:        textutil.Slugify(item.Title),
		PubDate:     item.PubDate,
		Categories:  []string{categoryID},
		Description: textutil.StripTags(item.Description),
		Image:       item.Image,
		Content:     scraped.Content,
	}
}
