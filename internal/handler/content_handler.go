package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openreviews/review-square/internal/config"
	"github.com/openreviews/review-square/internal/middleware"
	"github.com/openreviews/review-square/internal/service"
)

// ContentHandler serves categories and genres: list/create/delete only,
// keyed by slug.
type ContentHandler struct {
	contentService *service.ContentService
	limits         config.Validation
}

func NewContentHandler(contentService *service.ContentService, limits config.Validation) *ContentHandler {
	return &ContentHandler{
		contentService: contentService,
		limits:         limits,
	}
}

type NameSlugRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

// ListCategories is open to anonymous readers.
// GET /api/v1/categories?search=
func (h *ContentHandler) ListCategories(c *gin.Context) {
	limit, offset := parsePagination(c, h.limits)

	categories, total, err := h.contentService.ListCategories(c.Request.Context(), c.Query("search"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page(total, categories))
}

// CreateCategory is admin-only.
// POST /api/v1/categories
func (h *ContentHandler) CreateCategory(c *gin.Context) {
	var req NameSlugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	category, err := h.contentService.CreateCategory(c.Request.Context(), middleware.CurrentUser(c), req.Name, req.Slug)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, category)
}

// DeleteCategory is admin-only; titles keep living with a null category.
// DELETE /api/v1/categories/:slug
func (h *ContentHandler) DeleteCategory(c *gin.Context) {
	err := h.contentService.DeleteCategory(c.Request.Context(), middleware.CurrentUser(c), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListGenres is open to anonymous readers.
// GET /api/v1/genres?search=
func (h *ContentHandler) ListGenres(c *gin.Context) {
	limit, offset := parsePagination(c, h.limits)

	genres, total, err := h.contentService.ListGenres(c.Request.Context(), c.Query("search"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page(total, genres))
}

// CreateGenre is admin-only.
// POST /api/v1/genres
func (h *ContentHandler) CreateGenre(c *gin.Context) {
	var req NameSlugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	genre, err := h.contentService.CreateGenre(c.Request.Context(), middleware.CurrentUser(c), req.Name, req.Slug)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, genre)
}

// DeleteGenre is admin-only; join rows go with it.
// DELETE /api/v1/genres/:slug
func (h *ContentHandler) DeleteGenre(c *gin.Context) {
	err := h.contentService.DeleteGenre(c.Request.Context(), middleware.CurrentUser(c), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
