package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"newsx/domain"
	"newsx/internal/textutil"
)

const categoryColumns = `id, created_at, updated_at, name, slug, link`

// CreateCategory inserts a category, deriving the slug from name when slug is
// empty. Creating a slug that already exists returns the existing category.
func (r *Repository) CreateCategory(ctx context.Context, name, slug, link string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, fmt.Errorf("%w: category name is required", domain.ErrInvalidInput)
	}
	if slug == "" {
		slug = textutil.Slugify(name)
	}
	if slug == "" {
		return domain.Category{}, fmt.Errorf("%w: cannot derive a slug from %q", domain.ErrInvalidInput, name)
	}

	row := r.db.QueryRowContext(ctx, `INSERT INTO categories (name, slug, link) VALUES ($1, $2, $3)
ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug
RETURNING `+categoryColumns, name, slug, link)
	c, err := scanCategory(row)
	if err != nil {
		return domain.Category{}, fmt.Errorf("create category: %w", mapError(err))
	}
	return c, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	cats, err := scanCategories(r.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY created_at DESC`))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (r *Repository) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		return domain.Category{}, fmt.Errorf("category %s: %w", id, mapError(err))
	}
	return c, nil
}

func (r *Repository) GetCategoryBySlug(ctx context.Context, slug string) (domain.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, slug))
	if err != nil {
		return domain.Category{}, fmt.Errorf("category %q: %w", slug, mapError(err))
	}
	return c, nil
}

// UpdateCategory changes the non-empty fields of upd. A rename without an
// explicit slug gets a fresh unique slug derived from the new name.
func (r *Repository) UpdateCategory(ctx context.Context, id string, upd domain.CategoryUpdate) (domain.Category, error) {
	existing, err := r.GetCategory(ctx, id)
	if err != nil {
		return domain.Category{}, err
	}

	if upd.Name != "" || upd.Link != "" {
		var other string
		err := r.db.QueryRowContext(ctx, `SELECT id FROM categories
WHERE id <> $1 AND (($2 <> '' AND name = $2) OR ($3 <> '' AND link = $3))
LIMIT 1`, id, upd.Name, upd.Link).Scan(&other)
		switch {
		case err == nil:
			return domain.Category{}, fmt.Errorf("%w: another category with name %q or link %q already exists", domain.ErrConflict, upd.Name, upd.Link)
		case !errors.Is(err, sql.ErrNoRows):
			return domain.Category{}, fmt.Errorf("update category: %w", err)
		}
	}

	slug := upd.Slug
	if slug == "" && upd.Name != "" && upd.Name != existing.Name {
		slug, err = r.UniqueCategorySlug(ctx, textutil.Slugify(upd.Name), id)
		if err != nil {
			return domain.Category{}, err
		}
	}

	row := r.db.QueryRowContext(ctx, `UPDATE categories SET
    name = COALESCE(NULLIF($2, ''), name),
    link = COALESCE(NULLIF($3, ''), link),
    slug = COALESCE(NULLIF($4, ''), slug),
    updated_at = now()
WHERE id = $1
RETURNING `+categoryColumns, id, upd.Name, upd.Link, slug)
	c, err := scanCategory(row)
	if err != nil {
		return domain.Category{}, fmt.Errorf("update category: %w", mapError(err))
	}
	return c, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id string) (domain.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, `DELETE FROM categories WHERE id = $1 RETURNING `+categoryColumns, id))
	if err != nil {
		return domain.Category{}, fmt.Errorf("delete category %s: %w", id, mapError(err))
	}
	return c, nil
}

// UniqueCategorySlug returns base or the first free base-N among categories
// other than excludeID.
func (r *Repository) UniqueCategorySlug(ctx context.Context, base, excludeID string) (string, error) {
	taken, err := collectStrings(r.db.QueryContext(ctx, `SELECT slug FROM categories
WHERE id::text <> $1 AND (slug = $2 OR slug LIKE $3)`, excludeID, base, escapeLike(base)+"-%"))
	if err != nil {
		return "", fmt.Errorf("category slugs: %w", err)
	}
	return nextFreeSlug(base, taken), nil
}

func scanCategory(row *sql.Row) (domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt, &c.Name, &c.Slug, &c.Link); err != nil {
		return domain.Category{}, err
	}
	return c, nil
}

func scanCategories(rows *sql.Rows, err error) ([]domain.Category, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt, &c.Name, &c.Slug, &c.Link); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
