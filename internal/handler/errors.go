package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openreviews/review-square/internal/service"
	"github.com/openreviews/review-square/pkg/logger"
)

// respondError translates the service error taxonomy to HTTP statuses.
// All handlers funnel failures through here.
func respondError(c *gin.Context, err error) {
	var ve *service.ValidationError

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": ve.Message,
			"field": ve.Field,
		})
	case errors.Is(err, service.ErrAuthRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrReviewExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrInvalidConfirmationCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrCodeDelivery):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		logger.Log.Error("Unhandled service error",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "An unexpected error occurred",
		})
	}
}
