package service

import (
	"context"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/openreviews/review-square/internal/authz"
	"github.com/openreviews/review-square/internal/config"
	"github.com/openreviews/review-square/internal/models"
	"github.com/openreviews/review-square/internal/repository"
	"github.com/openreviews/review-square/pkg/logger"
)

// ContentService owns the category/genre/title graph and the derived
// average rating.
type ContentService struct {
	categoryRepo *repository.CategoryRepository
	genreRepo    *repository.GenreRepository
	titleRepo    *repository.TitleRepository
	limits       config.Validation
}

func NewContentService(
	categoryRepo *repository.CategoryRepository,
	genreRepo *repository.GenreRepository,
	titleRepo *repository.TitleRepository,
	limits config.Validation,
) *ContentService {
	return &ContentService{
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
		titleRepo:    titleRepo,
		limits:       limits,
	}
}

// TitleView is the read shape of a title: nested category/genres plus
// the rating aggregate, recomputed on every read.
type TitleView struct {
	ID            uint             `json:"id"`
	Name          string           `json:"name"`
	Year          int              `json:"year"`
	AverageRating *int             `json:"average_rating"`
	Description   string           `json:"description"`
	Genres        []models.Genre   `json:"genre"`
	Category      *models.Category `json:"category"`
}

// TitleInput is the write payload; category and genres are referenced by
// slug and resolved at write time.
type TitleInput struct {
	Name         string
	Year         int
	Description  string
	CategorySlug string
	GenreSlugs   []string
}

// TitlePatch carries partial updates; nil fields stay untouched.
type TitlePatch struct {
	Name         *string
	Year         *int
	Description  *string
	CategorySlug *string
	GenreSlugs   *[]string
}

func (s *ContentService) ListCategories(_ context.Context, search string, limit, offset int) ([]models.Category, int64, error) {
	return s.categoryRepo.ListCategories(search, limit, offset)
}

func (s *ContentService) CreateCategory(_ context.Context, actor *models.User, name, slug string) (*models.Category, error) {
	if err := authorize(actor, authz.ActionCreate, authz.Resource{Kind: authz.KindCategory}); err != nil {
		return nil, err
	}
	if err := validateNameSlug(s.limits, name, slug); err != nil {
		return nil, err
	}
	if err := s.checkCategoryUnique(name, slug); err != nil {
		return nil, err
	}

	category := &models.Category{Name: name, Slug: slug}
	if err := s.categoryRepo.CreateCategory(category); err != nil {
		logger.Log.Error("Failed to create category",
			zap.String("slug", slug),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("Category created",
		zap.String("slug", category.Slug),
		zap.String("actor", actor.Username),
	)

	return category, nil
}

func (s *ContentService) DeleteCategory(_ context.Context, actor *models.User, slug string) error {
	if err := authorize(actor, authz.ActionDelete, authz.Resource{Kind: authz.KindCategory}); err != nil {
		return err
	}

	category, err := s.categoryRepo.GetCategoryBySlug(slug)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrCategoryNotFound
	}

	if err := s.categoryRepo.DeleteCategory(category); err != nil {
		logger.Log.Error("Failed to delete category",
			zap.String("slug", slug),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Info("Category deleted",
		zap.String("slug", slug),
		zap.String("actor", actor.Username),
	)

	return nil
}

func (s *ContentService) ListGenres(_ context.Context, search string, limit, offset int) ([]models.Genre, int64, error) {
	return s.genreRepo.ListGenres(search, limit, offset)
}

func (s *ContentService) CreateGenre(_ context.Context, actor *models.User, name, slug string) (*models.Genre, error) {
	if err := authorize(actor, authz.ActionCreate, authz.Resource{Kind: authz.KindGenre}); err != nil {
		return nil, err
	}
	if err := validateNameSlug(s.limits, name, slug); err != nil {
		return nil, err
	}
	if err := s.checkGenreUnique(name, slug); err != nil {
		return nil, err
	}

	genre := &models.Genre{Name: name, Slug: slug}
	if err := s.genreRepo.CreateGenre(genre); err != nil {
		logger.Log.Error("Failed to create genre",
			zap.String("slug", slug),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("Genre created",
		zap.String("slug", genre.Slug),
		zap.String("actor", actor.Username),
	)

	return genre, nil
}

func (s *ContentService) DeleteGenre(_ context.Context, actor *models.User, slug string) error {
	if err := authorize(actor, authz.ActionDelete, authz.Resource{Kind: authz.KindGenre}); err != nil {
		return err
	}

	genre, err := s.genreRepo.GetGenreBySlug(slug)
	if err != nil {
		return err
	}
	if genre == nil {
		return ErrGenreNotFound
	}

	if err := s.genreRepo.DeleteGenre(genre); err != nil {
		logger.Log.Error("Failed to delete genre",
			zap.String("slug", slug),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Info("Genre deleted",
		zap.String("slug", slug),
		zap.String("actor", actor.Username),
	)

	return nil
}

func (s *ContentService) ListTitles(_ context.Context, filter repository.TitleFilter, limit, offset int) ([]TitleView, int64, error) {
	titles, total, err := s.titleRepo.ListTitles(filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	views := make([]TitleView, 0, len(titles))
	for i := range titles {
		view, err := s.titleView(&titles[i])
		if err != nil {
			return nil, 0, err
		}
		views = append(views, *view)
	}

	return views, total, nil
}

func (s *ContentService) GetTitle(_ context.Context, id uint) (*TitleView, error) {
	title, err := s.titleRepo.GetTitleByID(id)
	if err != nil {
		return nil, err
	}
	if title == nil {
		return nil, ErrTitleNotFound
	}
	return s.titleView(title)
}

func (s *ContentService) CreateTitle(_ context.Context, actor *models.User, input TitleInput) (*TitleView, error) {
	if err := authorize(actor, authz.ActionCreate, authz.Resource{Kind: authz.KindTitle}); err != nil {
		return nil, err
	}
	if err := s.validateTitleFields(input.Name, input.Year); err != nil {
		return nil, err
	}

	title := &models.Title{
		Name:        input.Name,
		Year:        input.Year,
		Description: input.Description,
	}

	if input.CategorySlug != "" {
		category, err := s.resolveCategory(input.CategorySlug)
		if err != nil {
			return nil, err
		}
		title.CategoryID = &category.ID
		title.Category = category
	}

	genres, err := s.resolveGenres(input.GenreSlugs)
	if err != nil {
		return nil, err
	}
	title.Genres = genres

	if err := s.titleRepo.CreateTitle(title); err != nil {
		logger.Log.Error("Failed to create title",
			zap.String("name", input.Name),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("Title created",
		zap.Uint("title_id", title.ID),
		zap.String("name", title.Name),
		zap.String("actor", actor.Username),
	)

	return s.titleView(title)
}

func (s *ContentService) UpdateTitle(_ context.Context, actor *models.User, id uint, patch TitlePatch) (*TitleView, error) {
	if err := authorize(actor, authz.ActionUpdate, authz.Resource{Kind: authz.KindTitle}); err != nil {
		return nil, err
	}

	title, err := s.titleRepo.GetTitleByID(id)
	if err != nil {
		return nil, err
	}
	if title == nil {
		return nil, ErrTitleNotFound
	}

	if patch.Name != nil {
		title.Name = *patch.Name
	}
	if patch.Year != nil {
		title.Year = *patch.Year
	}
	if err := s.validateTitleFields(title.Name, title.Year); err != nil {
		return nil, err
	}
	if patch.Description != nil {
		title.Description = *patch.Description
	}

	if patch.CategorySlug != nil {
		if *patch.CategorySlug == "" {
			title.CategoryID = nil
			title.Category = nil
		} else {
			category, err := s.resolveCategory(*patch.CategorySlug)
			if err != nil {
				return nil, err
			}
			title.CategoryID = &category.ID
			title.Category = category
		}
	}

	var genres *[]models.Genre
	if patch.GenreSlugs != nil {
		resolved, err := s.resolveGenres(*patch.GenreSlugs)
		if err != nil {
			return nil, err
		}
		genres = &resolved
		title.Genres = resolved
	}

	if err := s.titleRepo.UpdateTitle(title, genres); err != nil {
		logger.Log.Error("Failed to update title",
			zap.Uint("title_id", id),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("Title updated",
		zap.Uint("title_id", id),
		zap.String("actor", actor.Username),
	)

	return s.titleView(title)
}

func (s *ContentService) DeleteTitle(_ context.Context, actor *models.User, id uint) error {
	if err := authorize(actor, authz.ActionDelete, authz.Resource{Kind: authz.KindTitle}); err != nil {
		return err
	}

	title, err := s.titleRepo.GetTitleByID(id)
	if err != nil {
		return err
	}
	if title == nil {
		return ErrTitleNotFound
	}

	if err := s.titleRepo.DeleteTitle(title); err != nil {
		logger.Log.Error("Failed to delete title",
			zap.Uint("title_id", id),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Info("Title deleted",
		zap.Uint("title_id", id),
		zap.String("actor", actor.Username),
	)

	return nil
}

// titleView recomputes the rating aggregate for one title. No cache:
// correctness over performance at this write volume.
func (s *ContentService) titleView(title *models.Title) (*TitleView, error) {
	avg, err := s.titleRepo.AverageScore(title.ID)
	if err != nil {
		return nil, err
	}

	var rating *int
	if avg != nil {
		rounded := int(math.Round(*avg))
		rating = &rounded
	}

	genres := title.Genres
	if genres == nil {
		genres = []models.Genre{}
	}

	return &TitleView{
		ID:            title.ID,
		Name:          title.Name,
		Year:          title.Year,
		AverageRating: rating,
		Description:   title.Description,
		Genres:        genres,
		Category:      title.Category,
	}, nil
}

func (s *ContentService) validateTitleFields(name string, year int) error {
	if name == "" {
		return invalidField("name", "must not be empty")
	}
	if utf8.RuneCountInString(name) > s.limits.NameMaxLength {
		return invalidField("name", fmt.Sprintf("must be at most %d characters", s.limits.NameMaxLength))
	}
	if year <= 0 {
		return invalidField("year", "must be positive")
	}
	if year > time.Now().Year() {
		return invalidField("year", "must not be in the future")
	}
	return nil
}

func (s *ContentService) resolveCategory(slug string) (*models.Category, error) {
	category, err := s.categoryRepo.GetCategoryBySlug(slug)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, invalidField("category", fmt.Sprintf("unknown slug %q", slug))
	}
	return category, nil
}

func (s *ContentService) resolveGenres(slugs []string) ([]models.Genre, error) {
	genres, err := s.genreRepo.GetGenresBySlugs(slugs)
	if err != nil {
		return nil, err
	}
	if len(genres) != len(uniqueStrings(slugs)) {
		return nil, invalidField("genre", "contains unknown slugs")
	}
	return genres, nil
}

func (s *ContentService) checkCategoryUnique(name, slug string) error {
	existing, err := s.categoryRepo.GetCategoryBySlug(slug)
	if err != nil {
		return err
	}
	if existing != nil {
		return invalidField("slug", "already in use")
	}
	existing, err = s.categoryRepo.GetCategoryByName(name)
	if err != nil {
		return err
	}
	if existing != nil {
		return invalidField("name", "already in use")
	}
	return nil
}

func (s *ContentService) checkGenreUnique(name, slug string) error {
	existing, err := s.genreRepo.GetGenreBySlug(slug)
	if err != nil {
		return err
	}
	if existing != nil {
		return invalidField("slug", "already in use")
	}
	existing, err = s.genreRepo.GetGenreByName(name)
	if err != nil {
		return err
	}
	if existing != nil {
		return invalidField("name", "already in use")
	}
	return nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
