package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type Category struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Name      string
	Slug      string
	Link      string
}

// FeedSource is one crawl input: a feed URL and the category it feeds.
type FeedSource struct {
	URL        string
	CategoryID string
}

// FeedItem is one entry of a parsed RSS feed. It only lives for one crawl pass.
type FeedItem struct {
	Title       string
	Link        string
	PubDate     string
	Description string
	Image       string
}

type AuthorKind string

const (
	AuthorProfile    AuthorKind = "profile"
	AuthorDiagnostic AuthorKind = "diagnostic"
)

// AuthorInfo is either a structured profile or a diagnostic reason explaining
// why no profile could be extracted. Callers switch on Kind.
type AuthorInfo struct {
	Kind      AuthorKind
	Name      string
	AvatarURL string
	Reason    string
}

func ProfileAuthor(name, avatarURL string) AuthorInfo {
	return AuthorInfo{Kind: AuthorProfile, Name: name, AvatarURL: avatarURL}
}

func DiagnosticAuthor(reason string) AuthorInfo {
	return AuthorInfo{Kind: AuthorDiagnostic, Reason: reason}
}

func (a AuthorInfo) IsProfile() bool { return a.Kind == AuthorProfile }

func (a AuthorInfo) String() string {
	switch a.Kind {
	case AuthorProfile:
		return a.Name
	case AuthorDiagnostic:
		return a.Reason
	default:
		return ""
	}
}

type authorJSON struct {
	Kind   AuthorKind `json:"kind"`
	Name   string     `json:"name,omitempty"`
	Avatar string     `json:"avatar,omitempty"`
	Reason string     `json:"reason,omitempty"`
}

func (a AuthorInfo) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AuthorProfile:
		return json.Marshal(authorJSON{Kind: AuthorProfile, Name: a.Name, Avatar: a.AvatarURL})
	case AuthorDiagnostic:
		return json.Marshal(authorJSON{Kind: AuthorDiagnostic, Reason: a.Reason})
	default:
		return nil, fmt.Errorf("author: unknown kind %q", a.Kind)
	}
}

func (a *AuthorInfo) UnmarshalJSON(b []byte) error {
	var raw authorJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch raw.Kind {
	case AuthorProfile:
		*a = ProfileAuthor(raw.Name, raw.Avatar)
	case AuthorDiagnostic:
		*a = DiagnosticAuthor(raw.Reason)
	default:
		return fmt.Errorf("author: unknown kind %q", raw.Kind)
	}
	return nil
}

// ScrapedArticle is what the article fetcher extracts from one page.
// Diagnostic reports that Content is a placeholder rather than page content.
type ScrapedArticle struct {
	Content    string
	Author     AuthorInfo
	Diagnostic bool
}

// Article is the unit handed to persistence. Link is the global identity.
type Article struct {
	ID              string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Author          AuthorInfo
	Title           string
	TitleNormalized string
	Link            string
	Slug            string
	PubDate         string
	Categories      []string
	Description     string
	Image           string
	Content         string
	Source          string
	Published       bool
}

type PageInfo struct {
	CurrentPage int
	TotalPages  int
	Total       int
	HasNext     bool
	HasPrev     bool
}

// NewPageInfo derives pagination flags from a 1-based page, a page size and a total.
func NewPageInfo(page, limit, total int) PageInfo {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return PageInfo{
		CurrentPage: page,
		TotalPages:  pages,
		Total:       total,
		HasNext:     page < pages,
		HasPrev:     page > 1,
	}
}

type ArticlePage struct {
	Articles []Article
	Page     PageInfo
}
