package scrape

import (
	"context"

	"newsx/domain"
	"newsx/internal/logger"
)

// Fetcher fetches one article page and extracts its body and author.
type Fetcher struct {
	client domain.Fetcher
	log    logger.Interface
}

func NewFetcher(client domain.Fetcher, log logger.Interface) *Fetcher {
	if log == nil {
		log = logger.NewNop()
	}
	return &Fetcher{client: client, log: log}
}

// FetchArticle never returns an error: a failed request yields a diagnostic
// in both Content and Author so the article is still recorded.
func (f *Fetcher) FetchArticle(ctx context.Context, url string) domain.ScrapedArticle {
	resp, err := f.client.Get(ctx, url)
	if err != nil {
		f.log.Warn("article fetch failed", "url", url, "error", err)
		return failed(err)
	}
	return Extract(string(resp.Body))
}
