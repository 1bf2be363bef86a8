package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openreviews/review-square/internal/config"
	"github.com/openreviews/review-square/internal/middleware"
	"github.com/openreviews/review-square/internal/service"
)

// CommentHandler serves comments nested under a review. The title
// segment is part of the URL contract but binding uses the review id.
type CommentHandler struct {
	reviewService *service.ReviewService
	limits        config.Validation
}

func NewCommentHandler(reviewService *service.ReviewService, limits config.Validation) *CommentHandler {
	return &CommentHandler{
		reviewService: reviewService,
		limits:        limits,
	}
}

type CommentRequest struct {
	Text string `json:"text" binding:"required"`
}

// List returns the comments of one review.
// GET /api/v1/titles/:title_id/reviews/:review_id/comments
func (h *CommentHandler) List(c *gin.Context) {
	reviewID, ok := pathID(c, "review_id")
	if !ok {
		return
	}
	limit, offset := parsePagination(c, h.limits)

	comments, total, err := h.reviewService.ListComments(c.Request.Context(), reviewID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page(total, comments))
}

// Create binds the caller as author.
// POST /api/v1/titles/:title_id/reviews/:review_id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	reviewID, ok := pathID(c, "review_id")
	if !ok {
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	comment, err := h.reviewService.CreateComment(c.Request.Context(), middleware.CurrentUser(c), reviewID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// Get returns one comment.
// GET .../comments/:comment_id
func (h *CommentHandler) Get(c *gin.Context) {
	reviewID, ok := pathID(c, "review_id")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "comment_id")
	if !ok {
		return
	}

	comment, err := h.reviewService.GetComment(c.Request.Context(), reviewID, commentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

// Update is open to the author, moderators and admins.
// PATCH .../comments/:comment_id
func (h *CommentHandler) Update(c *gin.Context) {
	reviewID, ok := pathID(c, "review_id")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "comment_id")
	if !ok {
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	comment, err := h.reviewService.UpdateComment(c.Request.Context(), middleware.CurrentUser(c), reviewID, commentID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

// Delete is open to the author, moderators and admins.
// DELETE .../comments/:comment_id
func (h *CommentHandler) Delete(c *gin.Context) {
	reviewID, ok := pathID(c, "review_id")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "comment_id")
	if !ok {
		return
	}

	if err := h.reviewService.DeleteComment(c.Request.Context(), middleware.CurrentUser(c), reviewID, commentID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
