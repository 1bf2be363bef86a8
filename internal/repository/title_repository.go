package repository

import (
	"database/sql"
	"errors"

	"gorm.io/gorm"

	"github.com/openreviews/review-square/internal/models"
)

// TitleFilter narrows title listings. Zero values mean "no filter".
type TitleFilter struct {
	CategorySlug string
	GenreSlug    string
	Name         string
	Year         int
}

type TitleRepository struct {
	db *gorm.DB
}

func NewTitleRepository(db *gorm.DB) *TitleRepository {
	return &TitleRepository{db: db}
}

func (r *TitleRepository) CreateTitle(title *models.Title) error {
	return r.db.Create(title).Error
}

func (r *TitleRepository) GetTitleByID(id uint) (*models.Title, error) {
	var title models.Title
	err := r.db.
		Preload("Category").
		Preload("Genres").
		First(&title, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &title, nil
}

func (r *TitleRepository) ListTitles(filter TitleFilter, limit, offset int) ([]models.Title, int64, error) {
	query := r.db.Model(&models.Title{})

	if filter.CategorySlug != "" {
		query = query.Where("category_id IN (?)",
			r.db.Model(&models.Category{}).Select("id").Where("slug = ?", filter.CategorySlug))
	}
	if filter.GenreSlug != "" {
		query = query.Where("id IN (?)",
			r.db.Table("title_genres").
				Select("title_genres.title_id").
				Joins("JOIN genres ON genres.id = title_genres.genre_id").
				Where("genres.slug = ?", filter.GenreSlug))
	}
	if filter.Name != "" {
		query = query.Where("name LIKE ?", "%"+filter.Name+"%")
	}
	if filter.Year != 0 {
		query = query.Where("year = ?", filter.Year)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var titles []models.Title
	err := query.
		Preload("Category").
		Preload("Genres").
		Order("name ASC").
		Limit(limit).
		Offset(offset).
		Find(&titles).Error
	if err != nil {
		return nil, 0, err
	}

	return titles, total, nil
}

// UpdateTitle persists the scalar fields and, when genres is non-nil,
// replaces the genre associations.
func (r *TitleRepository) UpdateTitle(title *models.Title, genres *[]models.Genre) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(title).
			Select("Name", "Year", "Description", "CategoryID").
			Updates(map[string]interface{}{
				"name":        title.Name,
				"year":        title.Year,
				"description": title.Description,
				"category_id": title.CategoryID,
			}).Error
		if err != nil {
			return err
		}
		if genres != nil {
			if err := tx.Model(title).Association("Genres").Replace(*genres); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteTitle removes a title with its reviews, their comments and the
// genre join rows.
func (r *TitleRepository) DeleteTitle(title *models.Title) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		reviewIDs := tx.Model(&models.Review{}).Select("id").Where("title_id = ?", title.ID)
		if err := tx.Where("review_id IN (?)", reviewIDs).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("title_id = ?", title.ID).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("title_id = ?", title.ID).Delete(&models.TitleGenre{}).Error; err != nil {
			return err
		}
		return tx.Delete(title).Error
	})
}

// AverageScore recomputes the mean review score for a title on demand.
// Returns nil when the title has no reviews.
func (r *TitleRepository) AverageScore(titleID uint) (*float64, error) {
	var avg sql.NullFloat64
	err := r.db.Model(&models.Review{}).
		Where("title_id = ?", titleID).
		Select("AVG(score)").
		Scan(&avg).Error
	if err != nil {
		return nil, err
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}
