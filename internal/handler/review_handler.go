package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openreviews/review-square/internal/config"
	"github.com/openreviews/review-square/internal/middleware"
	"github.com/openreviews/review-square/internal/service"
)

type ReviewHandler struct {
	reviewService *service.ReviewService
	limits        config.Validation
}

func NewReviewHandler(reviewService *service.ReviewService, limits config.Validation) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		limits:        limits,
	}
}

type CreateReviewRequest struct {
	Text  string `json:"text" binding:"required"`
	Score int    `json:"score" binding:"required"`
}

type PatchReviewRequest struct {
	Text  *string `json:"text"`
	Score *int    `json:"score"`
}

// List returns the reviews of one title.
// GET /api/v1/titles/:title_id/reviews
func (h *ReviewHandler) List(c *gin.Context) {
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	limit, offset := parsePagination(c, h.limits)

	reviews, total, err := h.reviewService.ListReviews(c.Request.Context(), titleID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page(total, reviews))
}

// Create binds the caller as author; one review per author per title.
// POST /api/v1/titles/:title_id/reviews
func (h *ReviewHandler) Create(c *gin.Context) {
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return
	}

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), middleware.CurrentUser(c), titleID, req.Text, req.Score)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

// Get returns one review.
// GET /api/v1/titles/:title_id/reviews/:review_id
func (h *ReviewHandler) Get(c *gin.Context) {
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := pathID(c, "review_id")
	if !ok {
		return
	}

	review, err := h.reviewService.GetReview(c.Request.Context(), titleID, reviewID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

// Update is open to the author, moderators and admins.
// PATCH /api/v1/titles/:title_id/reviews/:review_id
func (h *ReviewHandler) Update(c *gin.Context) {
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := pathID(c, "review_id")
	if !ok {
		return
	}

	var req PatchReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	review, err := h.reviewService.UpdateReview(c.Request.Context(), middleware.CurrentUser(c), titleID, reviewID, service.ReviewPatch{
		Text:  req.Text,
		Score: req.Score,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

// Delete is open to the author, moderators and admins; comments go with
// the review.
// DELETE /api/v1/titles/:title_id/reviews/:review_id
func (h *ReviewHandler) Delete(c *gin.Context) {
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := pathID(c, "review_id")
	if !ok {
		return
	}

	if err := h.reviewService.DeleteReview(c.Request.Context(), middleware.CurrentUser(c), titleID, reviewID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
