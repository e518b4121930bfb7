package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"newsx/domain"
)

func newArticlesCommand() *cobra.Command {
	var category string
	var page, limit int
	cmd := &cobra.Command{
		Use:   "articles",
		Short: "Show stored articles, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			var result domain.ArticlePage
			if strings.TrimSpace(category) == "" {
				result, err = rt.repo.ListArticles(cmd.Context(), page, limit)
			} else {
				result, _, err = rt.repo.ListArticlesByCategorySlug(cmd.Context(), category, page, limit)
			}
			if err != nil {
				return fmt.Errorf("could not list articles: %w", err)
			}
			printArticles(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "category slug")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "articles per page")
	return cmd
}

func newSearchCommand() *cobra.Command {
	var query string
	var page, limit int
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search stored articles by title",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(query) == "" {
				return fmt.Errorf("--q is required")
			}
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.repo.SearchArticles(cmd.Context(), query, page, limit)
			if err != nil {
				return fmt.Errorf("could not search articles: %w", err)
			}
			printArticles(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringVar(&query, "q", "", "search text")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "articles per page")
	return cmd
}

func printArticles(w io.Writer, result domain.ArticlePage) {
	if len(result.Articles) == 0 {
		fmt.Fprintln(w, "No articles found")
		return
	}
	for i, a := range result.Articles {
		fmt.Fprintf(w, "%d. [%s] %s\n   %s\n",
			i+1,
			formatDate(a.CreatedAt),
			a.Title,
			a.Link,
		)
		if a.Author.IsProfile() {
			fmt.Fprintf(w, "   by %s\n", a.Author.Name)
		}
		fmt.Fprintln(w)
	}
	p := result.Page
	fmt.Fprintf(w, "Page %d of %d (%d articles)\n", p.CurrentPage, p.TotalPages, p.Total)
}
