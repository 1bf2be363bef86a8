package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openreviews/review-square/internal/models"
	"github.com/openreviews/review-square/internal/repository"
	"github.com/openreviews/review-square/internal/utils"
)

const currentUserKey = "current_user"

// CurrentUser returns the authenticated actor, or nil for anonymous
// requests.
func CurrentUser(c *gin.Context) *models.User {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// RequireAuth validates the bearer token and resolves the actor from the
// database, so role changes apply immediately instead of after token
// expiry.
func RequireAuth(jwtSecret string, userRepo *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := authenticate(c, jwtSecret, userRepo)
		if !ok {
			return
		}
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			c.Abort()
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// OptionalAuth resolves the actor when a bearer token is present and
// lets anonymous requests through. A present-but-invalid token is still
// rejected.
func OptionalAuth(jwtSecret string, userRepo *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := authenticate(c, jwtSecret, userRepo)
		if !ok {
			return
		}
		if user != nil {
			c.Set(currentUserKey, user)
		}
		c.Next()
	}
}

// RequireAdmin gates the user-administration surface. Must run after
// RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized",
			})
			c.Abort()
			return
		}
		if !user.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Admin access required",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// authenticate returns (user, true) on success, (nil, true) when no
// credentials were supplied and (nil, false) after aborting the request.
func authenticate(c *gin.Context, jwtSecret string, userRepo *repository.UserRepository) (*models.User, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, true
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid authorization format. Use: Bearer <token>",
		})
		c.Abort()
		return nil, false
	}

	claims, err := utils.ValidateToken(tokenString, jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid or expired token",
		})
		c.Abort()
		return nil, false
	}

	user, err := userRepo.GetUserByID(claims.UserID)
	if err != nil || user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid or expired token",
		})
		c.Abort()
		return nil, false
	}

	return user, true
}
