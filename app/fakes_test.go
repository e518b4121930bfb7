package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"newsx/domain"
)

func rssFeed(links ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>t</title>`)
	for i, l := range links {
		fmt.Fprintf(&b, `<item><title>Tin số %d</title><link>%s</link><pubDate>Mon, 01 Jan 2024 12:00:00 +0700</pubDate><description><![CDATA[<p>Mô tả <b>%d</b></p>]]></description></item>`, i+1, l, i+1)
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func articlePage(body string) string {
	return `<html><body><div class="detail-author"><div class="author-info"><a>Phóng viên</a></div></div>` +
		`<div class="detail-content afcbc-body">` + body + `</div></body></html>`
}

// stubClient serves canned bodies by URL; unknown URLs fail.
type stubClient struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	calls map[string]int
}

func newStubClient() *stubClient {
	return &stubClient{pages: map[string]string{}, errs: map[string]error{}, calls: map[string]int{}}
}

func (s *stubClient) Get(ctx context.Context, url string) (*domain.Response, error) {
	return s.GetWithTimeout(ctx, url, 0)
}

func (s *stubClient) GetWithTimeout(_ context.Context, url string, _ time.Duration) (*domain.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[url]++
	if err, ok := s.errs[url]; ok {
		return nil, err
	}
	body, ok := s.pages[url]
	if !ok {
		return nil, fmt.Errorf("no route to %s", url)
	}
	return &domain.Response{StatusCode: 200, Body: []byte(body)}, nil
}

func (s *stubClient) callCount(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[url]
}

// gauge tracks the current and peak number of concurrent holders.
type gauge struct {
	cur, peak atomic.Int64
}

func (g *gauge) enter() {
	n := g.cur.Add(1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

func (g *gauge) leave() { g.cur.Add(-1) }

type slowArticleFetcher struct {
	g     *gauge
	delay time.Duration
	count atomic.Int64
}

func (f *slowArticleFetcher) FetchArticle(_ context.Context, url string) domain.ScrapedArticle {
	f.g.enter()
	defer f.g.leave()
	f.count.Add(1)
	time.Sleep(f.delay)
	return domain.ScrapedArticle{Content: "<p>" + url + "</p>", Author: domain.ProfileAuthor("A", "B")}
}

type crawlerFunc func(ctx context.Context, feedURL, categoryID string) []domain.Article

func (f crawlerFunc) CrawlFeed(ctx context.Context, feedURL, categoryID string) []domain.Article {
	return f(ctx, feedURL, categoryID)
}

// memStore is an in-memory ArticleStore keyed by link.
type memStore struct {
	mu         sync.Mutex
	categories []domain.Category
	listErr    error
	manyErr    error
	failLinks  map[string]bool
	articles   map[string]domain.Article
	batches    []int
	singles    int
}

func newMemStore(categories ...domain.Category) *memStore {
	return &memStore{categories: categories, failLinks: map[string]bool{}, articles: map[string]domain.Article{}}
}

func (m *memStore) ListCategories(context.Context) ([]domain.Category, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.categories, nil
}

func (m *memStore) UpsertArticleByLink(_ context.Context, a domain.Article) (domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.singles++
	if m.failLinks[a.Link] {
		return domain.Article{}, errors.New("constraint violation")
	}
	m.articles[a.Link] = a
	return a, nil
}

func (m *memStore) UpsertMany(_ context.Context, articles []domain.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, len(articles))
	if m.manyErr != nil {
		return m.manyErr
	}
	for _, a := range articles {
		if m.failLinks[a.Link] {
			return errors.New("constraint violation")
		}
	}
	for _, a := range articles {
		m.articles[a.Link] = a
	}
	return nil
}

func (m *memStore) links() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.articles))
	for l := range m.articles {
		out = append(out, l)
	}
	return out
}
