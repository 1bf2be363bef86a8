package testutil

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openreviews/review-square/internal/models"
)

// CreateTestUser inserts a confirmed user with the given role and fails
// the test-free way: errors surface through the returned error.
func CreateTestUser(db *gorm.DB, username, email string, role models.Role) (*models.User, error) {
	now := time.Now().UTC()
	user := &models.User{
		ID:          uuid.New(),
		Username:    username,
		Email:       email,
		Role:        role,
		ConfirmedAt: &now,
	}
	if err := db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// DefaultTestUser returns a plain confirmed user
func DefaultTestUser(db *gorm.DB) (*models.User, error) {
	return CreateTestUser(db, "testuser", "test@example.com", models.RoleUser)
}

// DefaultModeratorUser returns a confirmed moderator
func DefaultModeratorUser(db *gorm.DB) (*models.User, error) {
	return CreateTestUser(db, "moderator", "moderator@example.com", models.RoleModerator)
}

// DefaultAdminUser returns a confirmed admin
func DefaultAdminUser(db *gorm.DB) (*models.User, error) {
	return CreateTestUser(db, "admin", "admin@example.com", models.RoleAdmin)
}

// CreateTestCategory inserts a category
func CreateTestCategory(db *gorm.DB, name, slug string) (*models.Category, error) {
	category := &models.Category{Name: name, Slug: slug}
	if err := db.Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// CreateTestGenre inserts a genre
func CreateTestGenre(db *gorm.DB, name, slug string) (*models.Genre, error) {
	genre := &models.Genre{Name: name, Slug: slug}
	if err := db.Create(genre).Error; err != nil {
		return nil, err
	}
	return genre, nil
}

// CreateTestTitle inserts a title without category or genres
func CreateTestTitle(db *gorm.DB, name string, year int) (*models.Title, error) {
	title := &models.Title{Name: name, Year: year}
	if err := db.Create(title).Error; err != nil {
		return nil, err
	}
	return title, nil
}

// CreateTestReview inserts a review by the given author
func CreateTestReview(db *gorm.DB, titleID uint, authorID uuid.UUID, text string, score int) (*models.Review, error) {
	review := &models.Review{
		TitleID:  titleID,
		AuthorID: authorID,
		Text:     text,
		Score:    score,
		PubDate:  time.Now().UTC(),
	}
	if err := db.Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}
