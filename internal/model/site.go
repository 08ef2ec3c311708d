package model

import "time"

// History records the last time a user opened a media page.
type History struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_history_entry"`
	MediaType string    `json:"media_type" gorm:"size:50;not null;uniqueIndex:idx_history_entry"`
	MediaID   int       `json:"media_id" gorm:"not null;uniqueIndex:idx_history_entry"`
	Title     string    `json:"title" gorm:"size:255;not null"`
	PosterURL *string   `json:"poster_url" gorm:"size:255"`
	WatchedAt time.Time `json:"watched_at" gorm:"index"`
}

type Favorite struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_favorite_entry"`
	MediaID   int       `json:"media_id" gorm:"not null;uniqueIndex:idx_favorite_entry"`
	CreatedAt time.Time `json:"created_at"`
}

func SiteModels() []interface{} {
	return []interface{}{&History{}, &Favorite{}}
}
