package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openreviews/review-square/internal/config"
	"github.com/openreviews/review-square/internal/middleware"
	"github.com/openreviews/review-square/internal/repository"
	"github.com/openreviews/review-square/internal/service"
)

type TitleHandler struct {
	contentService *service.ContentService
	limits         config.Validation
}

func NewTitleHandler(contentService *service.ContentService, limits config.Validation) *TitleHandler {
	return &TitleHandler{
		contentService: contentService,
		limits:         limits,
	}
}

type CreateTitleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Year        int      `json:"year" binding:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Genre       []string `json:"genre"`
}

type PatchTitleRequest struct {
	Name        *string   `json:"name"`
	Year        *int      `json:"year"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Genre       *[]string `json:"genre"`
}

// pathID parses a numeric path segment; anything non-numeric behaves
// like a missing resource.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": name + " not found"})
		return 0, false
	}
	return uint(id), true
}

// List returns titles filtered by category/genre slug, name substring
// and year.
// GET /api/v1/titles
func (h *TitleHandler) List(c *gin.Context) {
	limit, offset := parsePagination(c, h.limits)

	filter := repository.TitleFilter{
		CategorySlug: c.Query("category"),
		GenreSlug:    c.Query("genre"),
		Name:         c.Query("name"),
	}
	if raw := c.Query("year"); raw != "" {
		if year, err := strconv.Atoi(raw); err == nil {
			filter.Year = year
		}
	}

	titles, total, err := h.contentService.ListTitles(c.Request.Context(), filter, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page(total, titles))
}

// Get returns one title with nested category/genres and the recomputed
// average rating.
// GET /api/v1/titles/:title_id
func (h *TitleHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "title_id")
	if !ok {
		return
	}

	title, err := h.contentService.GetTitle(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, title)
}

// Create is admin-only.
// POST /api/v1/titles
func (h *TitleHandler) Create(c *gin.Context) {
	var req CreateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	title, err := h.contentService.CreateTitle(c.Request.Context(), middleware.CurrentUser(c), service.TitleInput{
		Name:         req.Name,
		Year:         req.Year,
		Description:  req.Description,
		CategorySlug: req.Category,
		GenreSlugs:   req.Genre,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, title)
}

// Update is admin-only.
// PATCH /api/v1/titles/:title_id
func (h *TitleHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "title_id")
	if !ok {
		return
	}

	var req PatchTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	title, err := h.contentService.UpdateTitle(c.Request.Context(), middleware.CurrentUser(c), id, service.TitlePatch{
		Name:         req.Name,
		Year:         req.Year,
		Description:  req.Description,
		CategorySlug: req.Category,
		GenreSlugs:   req.Genre,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, title)
}

// Delete is admin-only; reviews and comments go with the title.
// DELETE /api/v1/titles/:title_id
func (h *TitleHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "title_id")
	if !ok {
		return
	}

	if err := h.contentService.DeleteTitle(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
