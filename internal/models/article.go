package models

import (
	"time"
)

// Article is a blog entry owned by exactly one user.
type Article struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"not null" json:"title"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	Published bool      `gorm:"not null;default:false" json:"published"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArticleInput carries client-supplied fields for creating an article.
type ArticleInput struct {
	Title     string
	Body      string
	Published *bool
}

// ArticlePatch carries a partial update; nil fields are left untouched.
type ArticlePatch struct {
	Title     *string
	Body      *string
	Published *bool
}

// Apply copies every provided field onto the article.
func (p ArticlePatch) Apply(a *Article) {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Body != nil {
		a.Body = *p.Body
	}
	if p.Published != nil {
		a.Published = *p.Published
	}
}
