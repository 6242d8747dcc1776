package models

import "time"

// NewsType categorises published news items.
type NewsType string

const (
	NewsAnnouncement NewsType = "announcement"
	NewsEvent        NewsType = "event"
	NewsAchievement  NewsType = "achievement"
	NewsGeneral      NewsType = "general"
)

// ValidNewsType reports whether the value is one of the published types.
func ValidNewsType(t NewsType) bool {
	switch t {
	case NewsAnnouncement, NewsEvent, NewsAchievement, NewsGeneral:
		return true
	}
	return false
}

// News is a published news item.
type News struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Slug        string    `db:"slug" json:"slug"`
	Content     string    `db:"content" json:"content"`
	NewsType    NewsType  `db:"news_type" json:"news_type"`
	ImagePath   string    `db:"image_path" json:"image_path,omitempty"`
	IsPublished bool      `db:"is_published" json:"is_published"`
	CreatedBy   *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// NewsFilter narrows news listings.
type NewsFilter struct {
	Type     NewsType
	Page     int
	PageSize int
}
