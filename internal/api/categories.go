package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"newsx/domain"
	"newsx/internal/helper"
)

type createCategoryRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug"`
	Link string `json:"link" binding:"required"`
}

type updateCategoryRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	Link string `json:"link"`
}

func (h *Handler) ListCategories(c *gin.Context) {
	cats, err := h.categories.ListCategories(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]categoryJSON, 0, len(cats))
	for _, cat := range cats {
		out = append(out, toCategory(cat))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetCategory(c *gin.Context) {
	cat, err := h.categories.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCategory(cat))
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}
	if err := helper.ValidateFeedURL(req.Link); err != nil {
		h.respondError(c, err)
		return
	}
	cat, err := h.categories.CreateCategory(c.Request.Context(), req.Name, req.Slug, req.Link)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.log.Info("category created", "id", cat.ID, "slug", cat.Slug)
	c.JSON(http.StatusCreated, toCategory(cat))
}

func (h *Handler) UpdateCategory(c *gin.Context) {
	var req updateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}
	if req.Link != "" {
		if err := helper.ValidateFeedURL(req.Link); err != nil {
			h.respondError(c, err)
			return
		}
	}
	cat, err := h.categories.UpdateCategory(c.Request.Context(), c.Param("id"), domain.CategoryUpdate{
		Name: req.Name,
		Link: req.Link,
		Slug: req.Slug,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.log.Info("category updated", "id", cat.ID, "name", cat.Name)
	c.JSON(http.StatusOK, toCategory(cat))
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	cat, err := h.categories.DeleteCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.log.Info("category deleted", "id", cat.ID, "name", cat.Name)
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Category %q deleted successfully", cat.Name)})
}
