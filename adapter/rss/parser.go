package rss

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"newsx/domain"
)

// Parser parses RSS documents into feed items.
type Parser struct{}

func NewParser() *Parser { return &Parser{} }

// ParseFeed parses body and returns its items deduplicated by link. A channel
// with a single item still yields a one-element slice; items without a usable
// link are skipped.
func (p *Parser) ParseFeed(ctx context.Context, body []byte) ([]domain.FeedItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]domain.FeedItem, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		if entry == nil {
			continue
		}
		link := itemLink(entry)
		if link == "" {
			continue
		}
		items = append(items, domain.FeedItem{
			Title:       strings.TrimSpace(entry.Title),
			Link:        link,
			PubDate:     entry.Published,
			Description: entry.Description,
			Image:       itemImage(entry),
		})
	}
	return Dedup(items), nil
}

// Dedup drops items whose link was already seen, keeping first occurrences in
// their original order.
func Dedup(items []domain.FeedItem) []domain.FeedItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]domain.FeedItem, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.Link]; ok {
			continue
		}
		seen[it.Link] = struct{}{}
		out = append(out, it)
	}
	return out
}

func itemLink(entry *gofeed.Item) string {
	if link := strings.TrimSpace(entry.Link); link != "" {
		return link
	}
	if guid := strings.TrimSpace(entry.GUID); strings.HasPrefix(guid, "http") {
		return guid
	}
	return ""
}

func itemImage(entry *gofeed.Item) string {
	for _, enc := range entry.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if enc.Type == "" || strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}
