package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsx/domain"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "crawl", "trigger", "set-interval", "set-concurrency", "add", "list", "delete", "articles", "search"} {
		assert.Contains(t, names, want)
	}
}

func TestSetInterval_RejectsBadDuration(t *testing.T) {
	_, err := run(t, "set-interval", "soon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")

	_, err = run(t, "set-interval", "-1m")
	assert.Error(t, err)
}

func TestSetConcurrency_RejectsBadCounts(t *testing.T) {
	_, err := run(t, "set-concurrency", "0", "4")
	assert.ErrorContains(t, err, "invalid feed concurrency")

	_, err = run(t, "set-concurrency", "2", "x")
	assert.ErrorContains(t, err, "invalid item concurrency")

	_, err = run(t, "set-concurrency", "2")
	assert.Error(t, err)
}

func TestAdd_RequiresFlags(t *testing.T) {
	_, err := run(t, "add", "--name", "Thời sự")
	assert.ErrorContains(t, err, "--link")
}

func TestAdd_RejectsInvalidLinkBeforeDatabase(t *testing.T) {
	_, err := run(t, "add", "--name", "Thời sự", "--link", "ftp://tuoitre.vn/rss")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearch_RequiresQuery(t *testing.T) {
	_, err := run(t, "search")
	assert.ErrorContains(t, err, "--q")
}

func TestControlCommands_TalkToRunningInstance(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/crawl":
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "initiated"})
		case "/set-interval":
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "old": "5m0s", "new": "2m0s"})
		case "/set-concurrency":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"ok":  true,
				"old": map[string]int{"feeds": 6, "items": 12},
				"new": map[string]int{"feeds": 2, "items": 4},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	t.Setenv("CONTROL_ADDR", strings.TrimPrefix(srv.URL, "http://"))

	out, err := run(t, "trigger")
	require.NoError(t, err)
	assert.Contains(t, out, "Crawl initiated")

	out, err = run(t, "set-interval", "2m")
	require.NoError(t, err)
	assert.Contains(t, out, "from "+(5*time.Minute).String()+" to 2m0s")

	out, err = run(t, "set-concurrency", "2", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "from 6 feeds x 12 items to 2 feeds x 4 items")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/crawl", "/set-interval", "/set-concurrency"}, paths)
}

type fakeCategories struct {
	domain.CategoryRepository
	bySlug  map[string]domain.Category
	deleted []string
}

func (f *fakeCategories) GetCategoryBySlug(_ context.Context, slug string) (domain.Category, error) {
	c, ok := f.bySlug[slug]
	if !ok {
		return domain.Category{}, domain.ErrNotFound
	}
	return c, nil
}

func (f *fakeCategories) DeleteCategory(_ context.Context, id string) (domain.Category, error) {
	f.deleted = append(f.deleted, id)
	for _, c := range f.bySlug {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Category{}, domain.ErrNotFound
}

func TestDeleteBySlug(t *testing.T) {
	repo := &fakeCategories{bySlug: map[string]domain.Category{
		"thoi-su": {ID: "c1", Name: "Thời sự", Slug: "thoi-su"},
	}}

	c, err := deleteBySlug(context.Background(), repo, "thoi-su")
	require.NoError(t, err)
	assert.Equal(t, "Thời sự", c.Name)
	assert.Equal(t, []string{"c1"}, repo.deleted)

	_, err = deleteBySlug(context.Background(), repo, "missing")
	assert.ErrorContains(t, err, `category "missing" not found`)
}

func TestPrintArticles(t *testing.T) {
	var buf bytes.Buffer
	printArticles(&buf, domain.ArticlePage{
		Articles: []domain.Article{
			{Title: "Tin một", Link: "https://tuoitre.vn/1.htm", Author: domain.ProfileAuthor("Ngọc An", "https://cdn/a.jpg")},
			{Title: "Tin hai", Link: "https://tuoitre.vn/2.htm", Author: domain.DiagnosticAuthor("none")},
		},
		Page: domain.NewPageInfo(1, 10, 2),
	})
	out := buf.String()
	assert.Contains(t, out, "1. [-] Tin một")
	assert.Contains(t, out, "by Ngọc An")
	assert.NotContains(t, out, "by none")
	assert.Contains(t, out, "Page 1 of 1 (2 articles)")

	buf.Reset()
	printArticles(&buf, domain.ArticlePage{})
	assert.Equal(t, "No articles found\n", buf.String())
}
