package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openreviews/review-square/internal/models"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) CreateReview(review *models.Review) error {
	// The author row already exists; only the review itself is inserted
	return r.db.Omit("Author").Create(review).Error
}

func (r *ReviewRepository) GetReviewByID(titleID, reviewID uint) (*models.Review, error) {
	var review models.Review
	err := r.db.
		Preload("Author").
		Where("title_id = ?", titleID).
		First(&review, reviewID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &review, nil
}

// GetReview resolves a review by id alone; comment binding ignores the
// title segment of the URL.
func (r *ReviewRepository) GetReview(reviewID uint) (*models.Review, error) {
	var review models.Review
	err := r.db.Preload("Author").First(&review, reviewID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &review, nil
}

// HasReviewByAuthor reports whether the author already reviewed the title.
func (r *ReviewRepository) HasReviewByAuthor(titleID uint, authorID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&models.Review{}).
		Where("title_id = ? AND author_id = ?", titleID, authorID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ReviewRepository) ListReviews(titleID uint, limit, offset int) ([]models.Review, int64, error) {
	query := r.db.Model(&models.Review{}).Where("title_id = ?", titleID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []models.Review
	err := query.
		Preload("Author").
		Order("pub_date ASC").
		Limit(limit).
		Offset(offset).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

// UpdateReview persists text and score; pub_date and authorship are
// immutable.
func (r *ReviewRepository) UpdateReview(review *models.Review) error {
	return r.db.Model(review).
		Updates(map[string]interface{}{
			"text":  review.Text,
			"score": review.Score,
		}).Error
}

// DeleteReview removes a review together with its comments.
func (r *ReviewRepository) DeleteReview(review *models.Review) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", review.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(review).Error
	})
}

func (r *ReviewRepository) CreateComment(comment *models.Comment) error {
	return r.db.Omit("Author").Create(comment).Error
}

func (r *ReviewRepository) GetCommentByID(reviewID, commentID uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.
		Preload("Author").
		Where("review_id = ?", reviewID).
		First(&comment, commentID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &comment, nil
}

func (r *ReviewRepository) ListComments(reviewID uint, limit, offset int) ([]models.Comment, int64, error) {
	query := r.db.Model(&models.Comment{}).Where("review_id = ?", reviewID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []models.Comment
	err := query.
		Preload("Author").
		Order("pub_date ASC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}

func (r *ReviewRepository) UpdateComment(comment *models.Comment) error {
	return r.db.Model(comment).
		Updates(map[string]interface{}{"text": comment.Text}).Error
}

func (r *ReviewRepository) DeleteComment(comment *models.Comment) error {
	return r.db.Delete(comment).Error
}
