package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"newsx/adapter/rss"
	"newsx/domain"
	"newsx/internal/helper"
)

func newAddCommand() *cobra.Command {
	var name, link, slug string
	var skipCheck bool
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Register a category feed",
		Example: `  newsx add --name "Thời sự" --link https://tuoitre.vn/rss/thoi-su.rss`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(name) == "" || strings.TrimSpace(link) == "" {
				return fmt.Errorf("both --name and --link are required")
			}
			if err := helper.ValidateFeedURL(link); err != nil {
				return err
			}

			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if !skipCheck {
				client := rss.NewHTTPClient(rss.ClientConfig{UserAgent: rt.cfg.UserAgent})
				if err := helper.CheckReachable(cmd.Context(), client, link); err != nil {
					return err
				}
			}

			c, err := rt.repo.CreateCategory(cmd.Context(), name, slug, link)
			if err != nil {
				if errors.Is(err, domain.ErrConflict) {
					return fmt.Errorf("category %q already exists", name)
				}
				return fmt.Errorf("could not add category: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Category %q added successfully (slug: %s, %s)\n", c.Name, c.Slug, c.Link)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "category name")
	cmd.Flags().StringVar(&link, "link", "", "RSS feed URL")
	cmd.Flags().StringVar(&slug, "slug", "", "category slug (derived from the name when empty)")
	cmd.Flags().BoolVar(&skipCheck, "no-check", false, "skip the reachability check")
	return cmd
}

func newListCommand() *cobra.Command {
	var num int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered category feeds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			categories, err := rt.repo.ListCategories(cmd.Context())
			if err != nil {
				return fmt.Errorf("could not list categories: %w", err)
			}
			if num > 0 && len(categories) > num {
				categories = categories[:num]
			}

			out := cmd.OutOrStdout()
			if len(categories) == 0 {
				fmt.Fprintln(out, "No categories available")
				return nil
			}
			fmt.Fprint(out, "Available categories\n\n")
			for i, c := range categories {
				fmt.Fprintf(out, "%d. %s (%s)\n   URL: %s\n   Added: %s\n\n",
					i+1,
					c.Name,
					c.Slug,
					c.Link,
					formatDate(c.CreatedAt),
				)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&num, "num", 0, "limit number of categories (0 = all)")
	return cmd
}

func newDeleteCommand() *cobra.Command {
	var slug string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a category feed by slug",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(slug) == "" {
				return fmt.Errorf("--slug is required")
			}
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			c, err := deleteBySlug(cmd.Context(), rt.repo, slug)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Category %q deleted\n", c.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&slug, "slug", "", "category slug")
	return cmd
}

func deleteBySlug(ctx context.Context, repo domain.CategoryRepository, slug string) (domain.Category, error) {
	c, err := repo.GetCategoryBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Category{}, fmt.Errorf("category %q not found", slug)
		}
		return domain.Category{}, err
	}
	return repo.DeleteCategory(ctx, c.ID)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
