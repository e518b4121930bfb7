package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListPosts(c *gin.Context) {
	page, limit := pageParams(c)
	p, err := h.articles.ListArticles(c.Request.Context(), page, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPage(p))
}

func (h *Handler) PostsByCategory(c *gin.Context) {
	page, limit := pageParams(c)
	p, cat, err := h.articles.ListArticlesByCategorySlug(c.Request.Context(), c.Param("slug"), page, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	body := toPage(p)
	body["category"] = gin.H{"id": cat.ID, "name": cat.Name, "slug": cat.Slug}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) SearchPosts(c *gin.Context) {
	page, limit := pageParams(c)
	p, err := h.articles.SearchArticles(c.Request.Context(), c.Query("q"), page, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPage(p))
}
