package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/openreviews/review-square/internal/models"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) CreateCategory(category *models.Category) error {
	return r.db.Create(category).Error
}

func (r *CategoryRepository) GetCategoryBySlug(slug string) (*models.Category, error) {
	var category models.Category
	err := r.db.Where("slug = ?", slug).First(&category).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &category, nil
}

func (r *CategoryRepository) GetCategoryByName(name string) (*models.Category, error) {
	var category models.Category
	err := r.db.Where("name = ?", name).First(&category).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &category, nil
}

func (r *CategoryRepository) ListCategories(search string, limit, offset int) ([]models.Category, int64, error) {
	query := r.db.Model(&models.Category{})
	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var categories []models.Category
	err := query.
		Order("name ASC").
		Limit(limit).
		Offset(offset).
		Find(&categories).Error
	if err != nil {
		return nil, 0, err
	}

	return categories, total, nil
}

// DeleteCategory removes a category and detaches it from its titles.
// Titles survive with a null category.
func (r *CategoryRepository) DeleteCategory(category *models.Category) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Title{}).
			Where("category_id = ?", category.ID).
			Update("category_id", nil).Error
		if err != nil {
			return err
		}
		return tx.Delete(category).Error
	})
}

type GenreRepository struct {
	db *gorm.DB
}

func NewGenreRepository(db *gorm.DB) *GenreRepository {
	return &GenreRepository{db: db}
}

func (r *GenreRepository) CreateGenre(genre *models.Genre) error {
	return r.db.Create(genre).Error
}

func (r *GenreRepository) GetGenreBySlug(slug string) (*models.Genre, error) {
	var genre models.Genre
	err := r.db.Where("slug = ?", slug).First(&genre).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &genre, nil
}

func (r *GenreRepository) GetGenreByName(name string) (*models.Genre, error) {
	var genre models.Genre
	err := r.db.Where("name = ?", name).First(&genre).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &genre, nil
}

// GetGenresBySlugs resolves a slug list to genre rows; the caller checks
// for missing slugs by comparing lengths.
func (r *GenreRepository) GetGenresBySlugs(slugs []string) ([]models.Genre, error) {
	var genres []models.Genre
	if len(slugs) == 0 {
		return genres, nil
	}
	err := r.db.Where("slug IN ?", slugs).Find(&genres).Error
	if err != nil {
		return nil, err
	}
	return genres, nil
}

func (r *GenreRepository) ListGenres(search string, limit, offset int) ([]models.Genre, int64, error) {
	query := r.db.Model(&models.Genre{})
	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var genres []models.Genre
	err := query.
		Order("name ASC").
		Limit(limit).
		Offset(offset).
		Find(&genres).Error
	if err != nil {
		return nil, 0, err
	}

	return genres, total, nil
}

// DeleteGenre removes a genre together with its title join rows.
func (r *GenreRepository) DeleteGenre(genre *models.Genre) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("genre_id = ?", genre.ID).Delete(&models.TitleGenre{}).Error; err != nil {
			return err
		}
		return tx.Delete(genre).Error
	})
}
