package domain

import (
	"context"
	"time"
)

// ArticleStore is the persistence port the crawl pipeline writes through.
type ArticleStore interface {
	ListCategories(ctx context.Context) ([]Category, error)
	UpsertArticleByLink(ctx context.Context, a Article) (Article, error)
	UpsertMany(ctx context.Context, articles []Article) error
}

// CategoryRepository manages the categories whose feeds get crawled.
type CategoryRepository interface {
	CreateCategory(ctx context.Context, name, slug, link string) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id string) (Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (Category, error)
	UpdateCategory(ctx context.Context, id string, upd CategoryUpdate) (Category, error)
	DeleteCategory(ctx context.Context, id string) (Category, error)
}

// ArticleReader serves the read side: listing, category filter and search.
type ArticleReader interface {
	ListArticles(ctx context.Context, page, limit int) (ArticlePage, error)
	ListArticlesByCategorySlug(ctx context.Context, slug string, page, limit int) (ArticlePage, Category, error)
	SearchArticles(ctx context.Context, query string, page, limit int) (ArticlePage, error)
}

// CategoryUpdate carries optional fields; empty strings are left unchanged.
type CategoryUpdate struct {
	Name string
	Link string
	Slug string
}

type Response struct {
	StatusCode int
	Body       []byte
}

// Fetcher is the HTTP collaborator shared by feed and article fetches.
type Fetcher interface {
	Get(ctx context.Context, url string) (*Response, error)
	GetWithTimeout(ctx context.Context, url string, timeout time.Duration) (*Response, error)
}

// FeedParser turns raw RSS XML into deduplicated items.
type FeedParser interface {
	ParseFeed(ctx context.Context, body []byte) ([]FeedItem, error)
}

// ArticleFetcher never fails the caller; failures come back as diagnostic values.
type ArticleFetcher interface {
	FetchArticle(ctx context.Context, url string) ScrapedArticle
}

type FeedCrawler interface {
	CrawlFeed(ctx context.Context, feedURL, categoryID string) []Article
}

// Scheduler exposes application-level controls for background crawling.
type Scheduler interface {
	Start(ctx context.Context) error
	Stop() error
	Trigger()

	SetInterval(d time.Duration)
	SetConcurrency(feeds, items int) error
	CurrentInterval() time.Duration
	CurrentConcurrency() (feeds, items int)
}
