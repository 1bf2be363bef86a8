package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openreviews/review-square/internal/config"
)

// parsePagination reads the limit/offset query parameters, falling back
// to the configured page size and capping the limit.
func parsePagination(c *gin.Context, limits config.Validation) (int, int) {
	limit := limits.DefaultPageSize
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > limits.MaxPageSize {
		limit = limits.MaxPageSize
	}

	offset := 0
	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			offset = v
		}
	}

	return limit, offset
}

// page is the list envelope shared by every collection endpoint.
func page(count int64, results interface{}) gin.H {
	return gin.H{
		"count":   count,
		"results": results,
	}
}
