package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/openreviews/review-square/internal/authz"
	"github.com/openreviews/review-square/internal/config"
	"github.com/openreviews/review-square/internal/models"
	"github.com/openreviews/review-square/internal/repository"
	"github.com/openreviews/review-square/pkg/logger"
)

// ReviewService owns reviews and their comments: authorship binding,
// the one-review-per-author invariant and the ownership policy.
type ReviewService struct {
	reviewRepo *repository.ReviewRepository
	titleRepo  *repository.TitleRepository
	limits     config.Validation
}

func NewReviewService(
	reviewRepo *repository.ReviewRepository,
	titleRepo *repository.TitleRepository,
	limits config.Validation,
) *ReviewService {
	return &ReviewService{
		reviewRepo: reviewRepo,
		titleRepo:  titleRepo,
		limits:     limits,
	}
}

// ReviewView is the read shape of a review.
type ReviewView struct {
	ID      uint      `json:"id"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

type CommentView struct {
	ID      uint      `json:"id"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	PubDate time.Time `json:"pub_date"`
}

// ReviewPatch carries partial updates; pub_date and authorship are not
// patchable.
type ReviewPatch struct {
	Text  *string
	Score *int
}

func (s *ReviewService) ListReviews(ctx context.Context, titleID uint, limit, offset int) ([]ReviewView, int64, error) {
	if err := s.requireTitle(titleID); err != nil {
		return nil, 0, err
	}

	reviews, total, err := s.reviewRepo.ListReviews(titleID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	views := make([]ReviewView, 0, len(reviews))
	for i := range reviews {
		views = append(views, reviewView(&reviews[i]))
	}

	return views, total, nil
}

// CreateReview binds the actor as author and the title from the URL
// path. A second review by the same author on the same title conflicts.
func (s *ReviewService) CreateReview(_ context.Context, actor *models.User, titleID uint, text string, score int) (*ReviewView, error) {
	if err := authorize(actor, authz.ActionCreate, authz.Resource{Kind: authz.KindReview}); err != nil {
		return nil, err
	}
	if err := s.requireTitle(titleID); err != nil {
		return nil, err
	}
	if err := s.validateReviewFields(text, score); err != nil {
		return nil, err
	}

	exists, err := s.reviewRepo.HasReviewByAuthor(titleID, actor.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrReviewExists
	}

	review := &models.Review{
		TitleID:  titleID,
		AuthorID: actor.ID,
		Author:   *actor,
		Text:     text,
		Score:    score,
		PubDate:  time.Now(),
	}

	if err := s.reviewRepo.CreateReview(review); err != nil {
		// The unique index backstops the pre-check under concurrency
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrReviewExists
		}
		logger.Log.Error("Failed to create review",
			zap.Uint("title_id", titleID),
			zap.String("author_id", actor.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("Review created",
		zap.Uint("review_id", review.ID),
		zap.Uint("title_id", titleID),
		zap.String("author", actor.Username),
	)

	view := reviewView(review)
	return &view, nil
}

func (s *ReviewService) GetReview(_ context.Context, titleID, reviewID uint) (*ReviewView, error) {
	if err := s.requireTitle(titleID); err != nil {
		return nil, err
	}

	review, err := s.reviewRepo.GetReviewByID(titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}

	view := reviewView(review)
	return &view, nil
}

func (s *ReviewService) UpdateReview(_ context.Context, actor *models.User, titleID, reviewID uint, patch ReviewPatch) (*ReviewView, error) {
	review, err := s.reviewRepo.GetReviewByID(titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}

	if err := authorize(actor, authz.ActionUpdate, authz.Resource{Kind: authz.KindReview, Owner: review.AuthorID}); err != nil {
		return nil, err
	}

	if patch.Text != nil {
		review.Text = *patch.Text
	}
	if patch.Score != nil {
		review.Score = *patch.Score
	}
	if err := s.validateReviewFields(review.Text, review.Score); err != nil {
		return nil, err
	}

	if err := s.reviewRepo.UpdateReview(review); err != nil {
		logger.Log.Error("Failed to update review",
			zap.Uint("review_id", reviewID),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("Review updated",
		zap.Uint("review_id", reviewID),
		zap.String("actor", actor.Username),
	)

	view := reviewView(review)
	return &view, nil
}

func (s *ReviewService) DeleteReview(_ context.Context, actor *models.User, titleID, reviewID uint) error {
	review, err := s.reviewRepo.GetReviewByID(titleID, reviewID)
	if err != nil {
		return err
	}
	if review == nil {
		return ErrReviewNotFound
	}

	if err := authorize(actor, authz.ActionDelete, authz.Resource{Kind: authz.KindReview, Owner: review.AuthorID}); err != nil {
		return err
	}

	if err := s.reviewRepo.DeleteReview(review); err != nil {
		logger.Log.Error("Failed to delete review",
			zap.Uint("review_id", reviewID),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Info("Review deleted",
		zap.Uint("review_id", reviewID),
		zap.String("actor", actor.Username),
	)

	return nil
}

func (s *ReviewService) ListComments(_ context.Context, reviewID uint, limit, offset int) ([]CommentView, int64, error) {
	if err := s.requireReview(reviewID); err != nil {
		return nil, 0, err
	}

	comments, total, err := s.reviewRepo.ListComments(reviewID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	views := make([]CommentView, 0, len(comments))
	for i := range comments {
		views = append(views, commentView(&comments[i]))
	}

	return views, total, nil
}

func (s *ReviewService) CreateComment(_ context.Context, actor *models.User, reviewID uint, text string) (*CommentView, error) {
	if err := authorize(actor, authz.ActionCreate, authz.Resource{Kind: authz.KindComment}); err != nil {
		return nil, err
	}
	if err := s.requireReview(reviewID); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, invalidField("text", "must not be empty")
	}

	comment := &models.Comment{
		ReviewID: reviewID,
		AuthorID: actor.ID,
		Author:   *actor,
		Text:     text,
		PubDate:  time.Now(),
	}

	if err := s.reviewRepo.CreateComment(comment); err != nil {
		logger.Log.Error("Failed to create comment",
			zap.Uint("review_id", reviewID),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("Comment created",
		zap.Uint("comment_id", comment.ID),
		zap.Uint("review_id", reviewID),
		zap.String("author", actor.Username),
	)

	view := commentView(comment)
	return &view, nil
}

func (s *ReviewService) GetComment(_ context.Context, reviewID, commentID uint) (*CommentView, error) {
	comment, err := s.reviewRepo.GetCommentByID(reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, ErrCommentNotFound
	}

	view := commentView(comment)
	return &view, nil
}

func (s *ReviewService) UpdateComment(_ context.Context, actor *models.User, reviewID, commentID uint, text string) (*CommentView, error) {
	comment, err := s.reviewRepo.GetCommentByID(reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, ErrCommentNotFound
	}

	if err := authorize(actor, authz.ActionUpdate, authz.Resource{Kind: authz.KindComment, Owner: comment.AuthorID}); err != nil {
		return nil, err
	}

	if text == "" {
		return nil, invalidField("text", "must not be empty")
	}
	comment.Text = text

	if err := s.reviewRepo.UpdateComment(comment); err != nil {
		logger.Log.Error("Failed to update comment",
			zap.Uint("comment_id", commentID),
			zap.Error(err),
		)
		return nil, err
	}

	view := commentView(comment)
	return &view, nil
}

func (s *ReviewService) DeleteComment(_ context.Context, actor *models.User, reviewID, commentID uint) error {
	comment, err := s.reviewRepo.GetCommentByID(reviewID, commentID)
	if err != nil {
		return err
	}
	if comment == nil {
		return ErrCommentNotFound
	}

	if err := authorize(actor, authz.ActionDelete, authz.Resource{Kind: authz.KindComment, Owner: comment.AuthorID}); err != nil {
		return err
	}

	if err := s.reviewRepo.DeleteComment(comment); err != nil {
		logger.Log.Error("Failed to delete comment",
			zap.Uint("comment_id", commentID),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Info("Comment deleted",
		zap.Uint("comment_id", commentID),
		zap.String("actor", actor.Username),
	)

	return nil
}

func (s *ReviewService) requireTitle(titleID uint) error {
	title, err := s.titleRepo.GetTitleByID(titleID)
	if err != nil {
		return err
	}
	if title == nil {
		return ErrTitleNotFound
	}
	return nil
}

func (s *ReviewService) requireReview(reviewID uint) error {
	review, err := s.reviewRepo.GetReview(reviewID)
	if err != nil {
		return err
	}
	if review == nil {
		return ErrReviewNotFound
	}
	return nil
}

func (s *ReviewService) validateReviewFields(text string, score int) error {
	if text == "" {
		return invalidField("text", "must not be empty")
	}
	if score < s.limits.ScoreMin || score > s.limits.ScoreMax {
		return invalidField("score", fmt.Sprintf("must be between %d and %d", s.limits.ScoreMin, s.limits.ScoreMax))
	}
	return nil
}

func reviewView(review *models.Review) ReviewView {
	return ReviewView{
		ID:      review.ID,
		Author:  review.Author.Username,
		Text:    review.Text,
		Score:   review.Score,
		PubDate: review.PubDate,
	}
}

func commentView(comment *models.Comment) CommentView {
	return CommentView{
		ID:      comment.ID,
		Author:  comment.Author.Username,
		Text:    comment.Text,
		PubDate: comment.PubDate,
	}
}
