package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is one user's scored opinion on a title. A user may hold at most
// one review per title, enforced by the composite unique index.
type Review struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	TitleID  uint      `gorm:"not null;index;uniqueIndex:idx_reviews_title_author" json:"-"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_title_author" json:"-"`
	Author   User      `gorm:"foreignKey:AuthorID" json:"-"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	Score    int       `gorm:"not null" json:"score"`

	// Set once at creation, never updated
	PubDate time.Time `gorm:"not null;index" json:"pub_date"`
}

// Comment is a child of a review and is removed together with it.
type Comment struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	ReviewID uint      `gorm:"not null;index" json:"-"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Author   User      `gorm:"foreignKey:AuthorID" json:"-"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	PubDate  time.Time `gorm:"not null;index" json:"pub_date"`
}
