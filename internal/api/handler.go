// Package api serves the read side of the crawler over HTTP: paginated
// article listing, category filtering, title search and category management.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"newsx/domain"
	"newsx/internal/logger"
)

type Handler struct {
	articles   domain.ArticleReader
	categories domain.CategoryRepository
	log        logger.Interface
}

func NewHandler(articles domain.ArticleReader, categories domain.CategoryRepository, log logger.Interface) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{articles: articles, categories: categories, log: log}
}

// Register mounts the handler's routes on rg, typically /api/v1.
func (h *Handler) Register(rg *gin.RouterGroup) {
	posts := rg.Group("/posts")
	posts.GET("", h.ListPosts)
	posts.GET("/category/:slug", h.PostsByCategory)
	posts.GET("/search", h.SearchPosts)

	categories := rg.Group("/categories")
	categories.GET("", h.ListCategories)
	categories.GET("/:id", h.GetCategory)
	categories.POST("", h.CreateCategory)
	categories.PUT("/:id", h.UpdateCategory)
	categories.DELETE("/:id", h.DeleteCategory)
}

type authorJSON struct {
	Kind   domain.AuthorKind `json:"kind"`
	Name   string            `json:"name,omitempty"`
	Avatar string            `json:"avatar,omitempty"`
	Reason string            `json:"reason,omitempty"`
}

type postJSON struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Slug        string     `json:"slug"`
	PubDate     string     `json:"pubDate"`
	Description string     `json:"description"`
	Image       *string    `json:"image"`
	Content     string     `json:"content"`
	Author      authorJSON `json:"author"`
	Categories  []string   `json:"categories"`
	Source      string     `json:"source"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type paginationJSON struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalPosts  int  `json:"totalPosts"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

type categoryJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toPost(a domain.Article) postJSON {
	p := postJSON{
		ID:          a.ID,
		Title:       a.Title,
		Link:        a.Link,
		Slug:        a.Slug,
		PubDate:     a.PubDate,
		Description: a.Description,
		Content:     a.Content,
		Author: authorJSON{
			Kind:   a.Author.Kind,
			Name:   a.Author.Name,
			Avatar: a.Author.AvatarURL,
			Reason: a.Author.Reason,
		},
		Categories: a.Categories,
		Source:     a.Source,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	if a.Image != "" {
		p.Image = &a.Image
	}
	return p
}

func toPage(p domain.ArticlePage) gin.H {
	posts := make([]postJSON, 0, len(p.Articles))
	for _, a := range p.Articles {
		posts = append(posts, toPost(a))
	}
	return gin.H{
		"posts": posts,
		"pagination": paginationJSON{
			CurrentPage: p.Page.CurrentPage,
			TotalPages:  p.Page.TotalPages,
			TotalPosts:  p.Page.Total,
			HasNext:     p.Page.HasNext,
			HasPrev:     p.Page.HasPrev,
		},
	}
}

func toCategory(c domain.Category) categoryJSON {
	return categoryJSON{ID: c.ID, Name: c.Name, Slug: c.Slug, Link: c.Link, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

// pageParams reads page and limit; bad or missing values are left to the
// store's defaults.
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	return page, limit
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
