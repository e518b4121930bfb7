package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsx/adapter/rss"
	"newsx/adapter/scrape"
	"newsx/domain"
)

type staticCrawler []domain.Article

func (s staticCrawler) CrawlMany(context.Context, []domain.FeedSource) []domain.Article {
	return append([]domain.Article(nil), s...)
}

func articles(n int) staticCrawler {
	out := make(staticCrawler, n)
	for i := range out {
		out[i] = domain.Article{Link: fmt.Sprintf("https://tuoitre.vn/%d.htm", i), Categories: []string{"c"}}
	}
	return out
}

func TestRunCrawlCycle_Idempotent(t *testing.T) {
	client := newStubClient()
	feedA, feedB := "https://tuoitre.vn/rss/a.rss", "https://tuoitre.vn/rss/b.rss"
	client.pages[feedA] = rssFeed("https://tuoitre.vn/1.htm", "https://tuoitre.vn/2.htm")
	client.pages[feedB] = rssFeed("https://tuoitre.vn/2.htm", "https://tuoitre.vn/3.htm")
	for _, l := range []string{"https://tuoitre.vn/1.htm", "https://tuoitre.vn/2.htm", "https://tuoitre.vn/3.htm"} {
		client.pages[l] = articlePage("<p>" + l + "</p>")
	}

	store := newMemStore(
		domain.Category{ID: "a", Link: feedA},
		domain.Category{ID: "b", Link: feedB},
	)
	crawler := NewFeedCrawler(client, rss.NewParser(), scrape.NewFetcher(client, nil), nil)
	p := NewPipeline(store, NewOrchestrator(crawler, DedupMerge, 6, nil), PipelineConfig{BatchDelay: 0, Source: "tuoitre.vn"}, nil)

	n1, err := p.RunCrawlCycle(context.Background())
	require.NoError(t, err)
	first := store.links()
	sort.Strings(first)

	n2, err := p.RunCrawlCycle(context.Background())
	require.NoError(t, err)
	second := store.links()
	sort.Strings(second)

	assert.Equal(t, 3, n1)
	assert.Equal(t, n1, n2)
	assert.Equal(t, first, second)
	assert.Equal(t, "tuoitre.vn", store.articles["https://tuoitre.vn/1.htm"].Source)
	assert.ElementsMatch(t, []string{"a", "b"}, store.articles["https://tuoitre.vn/2.htm"].Categories)
}

func TestRunCrawlCycle_Batches(t *testing.T) {
	store := newMemStore(domain.Category{ID: "c", Link: "https://tuoitre.vn/rss/c.rss"})
	p := NewPipeline(store, articles(120), PipelineConfig{BatchSize: 50}, nil)

	n, err := p.RunCrawlCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 120, n)
	assert.Equal(t, []int{50, 50, 20}, store.batches)
	assert.Zero(t, store.singles)
}

func TestRunCrawlCycle_BatchFallback(t *testing.T) {
	store := newMemStore(domain.Category{ID: "c", Link: "https://tuoitre.vn/rss/c.rss"})
	store.failLinks["https://tuoitre.vn/7.htm"] = true
	p := NewPipeline(store, articles(60), PipelineConfig{BatchSize: 50, BatchDelay: 0}, nil)

	stats, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 59, stats.Persisted)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 50, store.singles, "only the failed batch is retried one by one")
	assert.Len(t, store.links(), 59)
}

func TestRunCrawlCycle_CategoryLoadFailure(t *testing.T) {
	store := newMemStore()
	store.listErr = errors.New("connection refused")
	p := NewPipeline(store, articles(3), PipelineConfig{}, nil)

	n, err := p.RunCrawlCycle(context.Background())

	require.Error(t, err)
	assert.Zero(t, n)
	assert.Empty(t, store.batches)
}

func TestRunCrawlCycle_Interrupted(t *testing.T) {
	store := newMemStore(domain.Category{ID: "c", Link: "https://tuoitre.vn/rss/c.rss"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewPipeline(store, articles(120), PipelineConfig{BatchSize: 50, BatchDelay: 0}, nil)

	n, err := p.RunCrawlCycle(ctx)

	require.NoError(t, err)
	assert.Equal(t, 50, n)
	assert.Equal(t, []int{50}, store.batches)
}

type recordingCrawler struct{ feeds []domain.FeedSource }

func (r *recordingCrawler) CrawlMany(_ context.Context, feeds []domain.FeedSource) []domain.Article {
	r.feeds = feeds
	return nil
}

func TestFeedSources_SkipsInvalidLinks(t *testing.T) {
	store := newMemStore(
		domain.Category{ID: "1", Link: "https://tuoitre.vn/rss/ok.rss"},
		domain.Category{ID: "2", Link: ""},
		domain.Category{ID: "3", Link: "tuoitre.vn/rss"},
		domain.Category{ID: "4", Link: "ftp://tuoitre.vn/rss"},
	)
	rc := &recordingCrawler{}
	_, err := NewPipeline(store, rc, PipelineConfig{}, nil).RunCrawlCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []domain.FeedSource{{URL: "https://tuoitre.vn/rss/ok.rss", CategoryID: "1"}}, rc.feeds)
}
