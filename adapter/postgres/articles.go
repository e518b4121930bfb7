package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"newsx/domain"
	"newsx/internal/textutil"
)

const articleColumns = `id, created_at, updated_at, author, title, title_normalized, link, slug,
pub_date, categories, description, image, content, source, published`

const fallbackSlug = "bai-viet"

// UpsertArticleByLink creates the article or, when its link is already
// stored, refreshes its content and merges its categories. The slug of a new
// article is made unique; an existing article keeps its slug.
func (r *Repository) UpsertArticleByLink(ctx context.Context, a domain.Article) (domain.Article, error) {
	out, err := upsertArticle(ctx, r.db, a)
	if err != nil {
		return domain.Article{}, fmt.Errorf("upsert article %s: %w", a.Link, mapError(err))
	}
	return out, nil
}

// UpsertMany writes all articles in one transaction; any failure rolls back
// the whole group.
func (r *Repository) UpsertMany(ctx context.Context, articles []domain.Article) error {
	if len(articles) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for _, a := range articles {
		if _, err := upsertArticle(ctx, tx, a); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert article %s: %w", a.Link, mapError(err))
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func upsertArticle(ctx context.Context, q querier, a domain.Article) (domain.Article, error) {
	if a.Link == "" {
		return domain.Article{}, fmt.Errorf("%w: article link is required", domain.ErrInvalidInput)
	}
	author, err := marshalAuthor(a.Author)
	if err != nil {
		return domain.Article{}, err
	}

	base := a.Slug
	if base == "" {
		base = textutil.Slugify(a.Title)
	}
	if base == "" {
		base = fallbackSlug
	}
	slug, err := articleSlug(ctx, q, base, a.Link)
	if err != nil {
		return domain.Article{}, err
	}

	a.Slug = slug
	a.TitleNormalized = textutil.NormalizeSearch(a.Title)
	if a.Categories == nil {
		a.Categories = []string{}
	}

	row := q.QueryRowContext(ctx, `INSERT INTO articles
    (author, title, title_normalized, link, slug, pub_date, categories, description, image, content, source, published)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, true)
ON CONFLICT (link) DO UPDATE SET
    title = EXCLUDED.title,
    title_normalized = EXCLUDED.title_normalized,
    description = EXCLUDED.description,
    content = EXCLUDED.content,
    image = EXCLUDED.image,
    pub_date = EXCLUDED.pub_date,
    author = EXCLUDED.author,
    categories = ARRAY(
        SELECT c FROM unnest(articles.categories || EXCLUDED.categories) WITH ORDINALITY AS t(c, n)
        GROUP BY c ORDER BY min(n)
    ),
    updated_at = now()
RETURNING `+articleColumns,
		author, a.Title, a.TitleNormalized, a.Link, a.Slug, a.PubDate, pq.Array(a.Categories),
		a.Description, a.Image, a.Content, a.Source)
	return scanArticle(row)
}

// articleSlug returns the slug already stored for link when base is one of
// its candidates, otherwise the first free base or base-N.
func articleSlug(ctx context.Context, q querier, base, link string) (string, error) {
	rows, err := q.QueryContext(ctx, `SELECT slug, link FROM articles WHERE slug = $1 OR slug LIKE $2`, base, escapeLike(base)+"-%")
	if err != nil {
		return "", fmt.Errorf("article slugs: %w", err)
	}
	defer rows.Close()

	taken := make(map[string]bool)
	for rows.Next() {
		var slug, owner string
		if err := rows.Scan(&slug, &owner); err != nil {
			return "", err
		}
		if owner == link {
			return slug, nil
		}
		taken[slug] = true
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return nextFreeSlug(base, taken), nil
}

func (r *Repository) ListArticles(ctx context.Context, page, limit int) (domain.ArticlePage, error) {
	return r.pageArticles(ctx, `published`, nil, page, limit)
}

func (r *Repository) ListArticlesByCategorySlug(ctx context.Context, slug string, page, limit int) (domain.ArticlePage, domain.Category, error) {
	cat, err := r.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return domain.ArticlePage{}, domain.Category{}, err
	}
	p, err := r.pageArticles(ctx, `published AND $1 = ANY(categories)`, []any{cat.ID}, page, limit)
	if err != nil {
		return domain.ArticlePage{}, domain.Category{}, err
	}
	return p, cat, nil
}

// SearchArticles matches query against accent-folded titles.
func (r *Repository) SearchArticles(ctx context.Context, query string, page, limit int) (domain.ArticlePage, error) {
	normalized := textutil.NormalizeSearch(query)
	if normalized == "" {
		return domain.ArticlePage{}, fmt.Errorf("%w: search query cannot be empty", domain.ErrInvalidInput)
	}
	pattern := "%" + escapeLike(normalized) + "%"
	return r.pageArticles(ctx, `published AND title_normalized ILIKE $1`, []any{pattern}, page, limit)
}

// pageArticles counts and fetches one page of articles matching where, whose
// placeholders are numbered from $1 over args.
func (r *Repository) pageArticles(ctx context.Context, where string, args []any, page, limit int) (domain.ArticlePage, error) {
	page, limit, offset := pageBounds(page, limit)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM articles WHERE `+where, args...).Scan(&total); err != nil {
		return domain.ArticlePage{}, fmt.Errorf("count articles: %w", err)
	}

	n := len(args)
	q := fmt.Sprintf(`SELECT %s FROM articles WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, articleColumns, where, n+1, n+2)
	articles, err := scanArticles(r.db.QueryContext(ctx, q, append(args, limit, offset)...))
	if err != nil {
		return domain.ArticlePage{}, fmt.Errorf("list articles: %w", err)
	}
	return domain.ArticlePage{Articles: articles, Page: domain.NewPageInfo(page, limit, total)}, nil
}

func marshalAuthor(a domain.AuthorInfo) ([]byte, error) {
	if a.Kind == "" {
		a = domain.DiagnosticAuthor("")
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return b, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArticleInto(s scanner) (domain.Article, error) {
	var (
		a      domain.Article
		author []byte
		cats   pq.StringArray
	)
	if err := s.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt, &author, &a.Title, &a.TitleNormalized, &a.Link, &a.Slug,
		&a.PubDate, &cats, &a.Description, &a.Image, &a.Content, &a.Source, &a.Published); err != nil {
		return domain.Article{}, err
	}
	if err := json.Unmarshal(author, &a.Author); err != nil {
		return domain.Article{}, fmt.Errorf("decode author of %s: %w", a.Link, err)
	}
	a.Categories = []string(cats)
	return a, nil
}

func scanArticle(row *sql.Row) (domain.Article, error) {
	return scanArticleInto(row)
}

func scanArticles(rows *sql.Rows, err error) ([]domain.Article, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Article{}
	for rows.Next() {
		a, err := scanArticleInto(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
