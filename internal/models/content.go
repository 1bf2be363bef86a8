package models

// Category groups titles by kind (book, film, ...). Name and slug are
// both unique; the slug is the lookup key on the API.
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"type:varchar(256);uniqueIndex;not null" json:"name"`
	Slug string `gorm:"type:varchar(50);uniqueIndex;not null" json:"slug"`
}

type Genre struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"type:varchar(256);uniqueIndex;not null" json:"name"`
	Slug string `gorm:"type:varchar(50);uniqueIndex;not null" json:"slug"`
}

// Title is the reviewable work. Category is optional and nullified when
// the category is deleted; genres go through the title_genres join table.
type Title struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(256);not null;index" json:"name"`
	Year        int       `gorm:"not null;index" json:"year"`
	Description string    `gorm:"type:text" json:"description"`
	CategoryID  *uint     `gorm:"index" json:"-"`
	Category    *Category `gorm:"foreignKey:CategoryID" json:"category"`
	Genres      []Genre   `gorm:"many2many:title_genres" json:"genre"`
}

// TitleGenre is the explicit join row between titles and genres. Rows are
// removed together with either side.
type TitleGenre struct {
	TitleID uint `gorm:"primaryKey"`
	GenreID uint `gorm:"primaryKey"`
}

func (TitleGenre) TableName() string {
	return "title_genres"
}
